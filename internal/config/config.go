// Package config reads the service configuration from the environment and
// the optional YAML catalog.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anishka-v/eco-dining/internal/events"
	"github.com/anishka-v/eco-dining/internal/logger"
	"github.com/anishka-v/eco-dining/internal/storage"
)

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"

	ClassifierNone        = "none"
	ClassifierRekognition = "rekognition"
	ClassifierHTTP        = "http"
)

type Config struct {
	Env  string
	Port string
	Log  logger.Config

	AuthRequired  bool
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	LedgerBackend string
	DatabaseURL   string

	CORSOrigins     []string
	DefaultSchoolID string
	ReportLocation  *time.Location
	MaxUploadBytes  int64

	Classifier               string
	ClassifierURL            string
	ClassifierTimeout        time.Duration
	AWSRegion                string
	RekognitionMinConfidence float64

	R2    storage.R2Config
	Kafka events.Config

	DigestSchools  []string
	DigestInterval time.Duration

	CatalogPath string
	Catalog     *Catalog
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads every key, loads the catalog and validates the result for the
// API server. All problems are reported together.
func Load() (*Config, error) {
	return load(true)
}

// LoadWorker is Load for background workers, which serve no authenticated
// routes and so need no JWT_SECRET.
func LoadWorker() (*Config, error) {
	return load(false)
}

func load(serving bool) (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8000"),

		AuthRequired:  p.bool("AUTH_REQUIRED", true),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		LedgerBackend: strings.ToLower(getEnv("LEDGER_BACKEND", LedgerMemory)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		CORSOrigins:     splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
		DefaultSchoolID: getEnv("DEFAULT_SCHOOL_ID", "school_001"),
		ReportLocation:  p.location("REPORT_TIMEZONE"),
		MaxUploadBytes:  int64(p.int("MAX_UPLOAD_MB", 10)) << 20,

		Classifier:               strings.ToLower(getEnv("CLASSIFIER", ClassifierNone)),
		ClassifierURL:            os.Getenv("CLASSIFIER_URL"),
		ClassifierTimeout:        p.duration("CLASSIFIER_TIMEOUT", 5*time.Second),
		AWSRegion:                os.Getenv("AWS_REGION"),
		RekognitionMinConfidence: p.float("REKOGNITION_MIN_CONFIDENCE", 75),

		R2: storage.R2Config{
			Endpoint:      os.Getenv("R2_ENDPOINT"),
			AccessKey:     os.Getenv("R2_ACCESS_KEY"),
			SecretKey:     os.Getenv("R2_SECRET_KEY"),
			Bucket:        os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL: os.Getenv("R2_PUBLIC_BASE_URL"),
		},
		Kafka: events.Config{
			Brokers:      splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
			ScanTopic:    getEnv("KAFKA_SCAN_TOPIC", "dining.scans"),
			InsightTopic: getEnv("KAFKA_INSIGHT_TOPIC", "dining.insights"),
		},

		DigestSchools:  splitAndTrim(os.Getenv("DIGEST_SCHOOLS"), ","),
		DigestInterval: p.duration("DIGEST_INTERVAL", 24*time.Hour),

		CatalogPath: os.Getenv("CATALOG_PATH"),
	}
	cfg.Log = logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		Environment: cfg.Env,
	}

	if cfg.CatalogPath != "" {
		cat, err := LoadCatalog(cfg.CatalogPath)
		if err != nil {
			p.fail(err)
		} else {
			cfg.Catalog = cat
		}
	} else {
		cfg.Catalog = DefaultCatalog()
	}

	p.errs = append(p.errs, cfg.validate(serving)...)
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(serving bool) []error {
	var errs []error
	require := func(key, value, why string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required %s", key, why))
		}
	}

	if serving && c.AuthRequired {
		require("JWT_SECRET", c.JWTSecret, "when AUTH_REQUIRED is true")
	}

	switch c.LedgerBackend {
	case LedgerMemory:
	case LedgerPostgres:
		require("DATABASE_URL", c.DatabaseURL, "for the postgres ledger")
	default:
		errs = append(errs, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerMemory, LedgerPostgres, c.LedgerBackend))
	}

	switch c.Classifier {
	case ClassifierNone:
	case ClassifierHTTP:
		require("CLASSIFIER_URL", c.ClassifierURL, "for the http classifier")
	case ClassifierRekognition:
		require("AWS_REGION", c.AWSRegion, "for the rekognition classifier")
	default:
		errs = append(errs, fmt.Errorf("CLASSIFIER must be none, rekognition or http, got %q", c.Classifier))
	}

	if c.R2.Enabled() {
		require("R2_ENDPOINT", c.R2.Endpoint, "when R2_BUCKET_NAME is set")
		require("R2_ACCESS_KEY", c.R2.AccessKey, "when R2_BUCKET_NAME is set")
		require("R2_SECRET_KEY", c.R2.SecretKey, "when R2_BUCKET_NAME is set")
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	if c.ClassifierTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_TIMEOUT must be positive"))
	}
	if c.DigestInterval <= 0 {
		errs = append(errs, errors.New("DIGEST_INTERVAL must be positive"))
	}
	return errs
}

// --------------------------------------------------
// env helpers
// --------------------------------------------------

type parser struct {
	errs []error
}

func (p *parser) fail(err error) {
	p.errs = append(p.errs, err)
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return i
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(fmt.Errorf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (p *parser) location(key string) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", key, err))
		return time.Local
	}
	return loc
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
