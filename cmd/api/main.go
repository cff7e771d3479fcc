package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anishka-v/eco-dining/internal/auth"
	"github.com/anishka-v/eco-dining/internal/config"
	"github.com/anishka-v/eco-dining/internal/db"
	"github.com/anishka-v/eco-dining/internal/dish"
	"github.com/anishka-v/eco-dining/internal/events"
	"github.com/anishka-v/eco-dining/internal/ledger"
	"github.com/anishka-v/eco-dining/internal/live"
	"github.com/anishka-v/eco-dining/internal/logger"
	"github.com/anishka-v/eco-dining/internal/metrics"
	"github.com/anishka-v/eco-dining/internal/report"
	"github.com/anishka-v/eco-dining/internal/router"
	"github.com/anishka-v/eco-dining/internal/scan"
	"github.com/anishka-v/eco-dining/internal/storage"
	"github.com/anishka-v/eco-dining/internal/waste"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// ───────────────────────── DB ─────────────────────────
	var pgDB *pgxpool.Pool
	if cfg.LedgerBackend == config.LedgerPostgres {
		pgDB, err = db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres_connect_failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer pgDB.Close()
	}

	// ───────────────────────── LEDGER ─────────────────────────
	var scanLedger ledger.Ledger
	if pgDB != nil {
		scanLedger = ledger.NewPostgresLedger(pgDB)
	} else {
		log.Warn("ledger_in_memory", slog.String("note", "scans are lost on restart"))
		scanLedger = ledger.NewInMemoryLedger(ledger.WithLogger(log))
	}

	// ───────────────────────── AUTH ─────────────────────────
	var (
		authService *auth.Service
		tokens      *auth.Tokens
	)
	if cfg.JWTSecret != "" {
		tokens, err = auth.NewTokens(cfg.JWTSecret)
		if err != nil {
			log.Error("jwt_init_failed", slog.Any("err", err))
			os.Exit(1)
		}

		var userRepo auth.UserRepository = auth.NewInMemoryUserRepository()
		if pgDB != nil {
			userRepo = auth.NewPostgresUserRepository(pgDB)
		}
		authService = auth.NewService(userRepo, tokens, log)

		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Error("admin_bootstrap_failed", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// ───────────────────────── STORAGE ─────────────────────────
	var images scan.ImageStore
	if cfg.R2.Enabled() {
		r2Client, err := storage.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Error("r2_init_failed", slog.Any("err", err))
			os.Exit(1)
		}
		images = r2Client
	} else {
		log.Info("image_storage_disabled")
	}

	// ───────────────────────── CLASSIFIER ─────────────────────────
	var provider dish.LabelProvider
	switch cfg.Classifier {
	case config.ClassifierRekognition:
		rk, err := dish.NewRekognitionProvider(ctx, cfg.AWSRegion, float32(cfg.RekognitionMinConfidence))
		if err != nil {
			log.Error("rekognition_init_failed", slog.Any("err", err))
			os.Exit(1)
		}
		provider = rk
	case config.ClassifierHTTP:
		provider = dish.NewHTTPProvider(cfg.ClassifierURL, &http.Client{Timeout: cfg.ClassifierTimeout})
	}
	classifier := dish.NewClassifier(cfg.Catalog.Vocabulary(), provider, cfg.ClassifierTimeout, m, log)

	// ───────────────────────── FAN-OUT ─────────────────────────
	publisher := events.NewPublisher(cfg.Kafka, log, m)
	defer publisher.Close()

	hub := live.NewHub(cfg.CORSOrigins, m, log)

	// ───────────────────────── SERVICES ─────────────────────────
	scanService := scan.NewService(scan.Deps{
		Estimator:  waste.NewEstimator(log, m).WithBand(cfg.Catalog.Band()),
		Classifier: classifier,
		Scale:      cfg.Catalog.Scale(),
		PortionOz:  cfg.Catalog.PortionOz,
		Ledger:     scanLedger,
		Images:     images,
		Recorder:   m,
		Listeners:  []scan.Listener{hub, publisher},
		Log:        log,
	})
	reportService := report.NewService(scanLedger, cfg.ReportLocation, nil).WithPortion(cfg.Catalog.PortionOz)

	// ───────────────────────── HTTP ─────────────────────────
	r := router.New(router.Deps{
		Log:             log,
		Metrics:         m,
		Auth:            authService,
		Tokens:          tokens,
		Scans:           scanService,
		Reports:         reportService,
		Live:            hub,
		AuthRequired:    cfg.AuthRequired,
		DefaultSchoolID: cfg.DefaultSchoolID,
		CORSOrigins:     cfg.CORSOrigins,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ───────────────────────── START ─────────────────────────
	go func() {
		log.Info("api_listening",
			slog.String("addr", srv.Addr),
			slog.String("ledger", cfg.LedgerBackend),
			slog.String("classifier", cfg.Classifier),
			slog.Bool("auth_required", cfg.AuthRequired),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api_server_failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("api_shutdown_failed", slog.Any("err", err))
	}
	log.Info("api_stopped")
}
