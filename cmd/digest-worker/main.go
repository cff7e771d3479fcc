package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/anishka-v/eco-dining/internal/config"
	"github.com/anishka-v/eco-dining/internal/db"
	"github.com/anishka-v/eco-dining/internal/digest"
	"github.com/anishka-v/eco-dining/internal/events"
	"github.com/anishka-v/eco-dining/internal/ledger"
	"github.com/anishka-v/eco-dining/internal/logger"
	"github.com/anishka-v/eco-dining/internal/report"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			slog.Info("no .env file found, using environment variables")
		}
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("config_load_failed", slog.Any("err", err))
		os.Exit(1)
	}
	log := logger.WithComponent(logger.New(cfg.Log), "digest_worker")

	// The API and the worker only share scans through Postgres.
	if cfg.LedgerBackend != config.LedgerPostgres {
		log.Error("digest worker needs LEDGER_BACKEND=postgres")
		os.Exit(1)
	}
	if len(cfg.DigestSchools) == 0 {
		log.Error("DIGEST_SCHOOLS is empty, nothing to do")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgDB, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres_connect_failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer pgDB.Close()

	reports := report.NewService(ledger.NewPostgresLedger(pgDB), cfg.ReportLocation, nil).WithPortion(cfg.Catalog.PortionOz)

	publisher := events.NewPublisher(cfg.Kafka, log, nil)
	defer publisher.Close()

	runner := digest.NewRunner(reports, publisher, cfg.DigestSchools, cfg.DigestInterval, log)
	if err := runner.Run(ctx); err != nil {
		log.Error("digest_worker_failed", slog.Any("err", err))
	}
	log.Info("digest_worker_stopped")
}
