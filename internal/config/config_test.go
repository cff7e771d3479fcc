package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anishka-v/eco-dining/internal/waste"
)

var configKeys = []string{
	"APP_ENV", "PORT", "LOG_LEVEL", "LOG_FORMAT", "AUTH_REQUIRED", "JWT_SECRET",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "LEDGER_BACKEND", "DATABASE_URL", "CORS_ORIGINS",
	"DEFAULT_SCHOOL_ID", "REPORT_TIMEZONE", "MAX_UPLOAD_MB", "CLASSIFIER",
	"CLASSIFIER_URL", "CLASSIFIER_TIMEOUT", "AWS_REGION", "REKOGNITION_MIN_CONFIDENCE",
	"R2_ENDPOINT", "R2_ACCESS_KEY", "R2_SECRET_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
	"KAFKA_BROKERS", "KAFKA_SCAN_TOPIC", "KAFKA_INSIGHT_TOPIC", "DIGEST_SCHOOLS",
	"DIGEST_INTERVAL", "CATALOG_PATH",
}

// clearEnv blanks every key so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" || !cfg.AuthRequired || cfg.LedgerBackend != LedgerMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DefaultSchoolID != "school_001" || cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Classifier != ClassifierNone || cfg.ClassifierTimeout != 5*time.Second {
		t.Fatalf("unexpected classifier defaults: %s %v", cfg.Classifier, cfg.ClassifierTimeout)
	}
	if cfg.RekognitionMinConfidence != 75 || cfg.DigestInterval != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Kafka.Enabled() || cfg.R2.Enabled() {
		t.Fatal("kafka and r2 should be disabled by default")
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
	if cfg.Catalog == nil || len(cfg.Catalog.Vocabulary().Names()) != 10 {
		t.Fatal("expected default catalog")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("LEDGER_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/dining")
	t.Setenv("REPORT_TIMEZONE", "America/Chicago")
	t.Setenv("MAX_UPLOAD_MB", "4")
	t.Setenv("CLASSIFIER", "http")
	t.Setenv("CLASSIFIER_URL", "http://classifier:9000/predict")
	t.Setenv("CLASSIFIER_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("DIGEST_SCHOOLS", "school_001,school_002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AuthRequired || cfg.LedgerBackend != LedgerPostgres {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ReportLocation.String() != "America/Chicago" {
		t.Fatalf("unexpected location %s", cfg.ReportLocation)
	}
	if cfg.MaxUploadBytes != 4<<20 || cfg.ClassifierTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected limits: %d %v", cfg.MaxUploadBytes, cfg.ClassifierTimeout)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if len(cfg.DigestSchools) != 2 {
		t.Fatalf("unexpected digest schools: %v", cfg.DigestSchools)
	}
}

func TestLoadReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("CLASSIFIER", "vision")
	t.Setenv("MAX_UPLOAD_MB", "ten")
	t.Setenv("R2_BUCKET_NAME", "trays")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}

	msg := err.Error()
	for _, want := range []string{"JWT_SECRET", "DATABASE_URL", "CLASSIFIER", "MAX_UPLOAD_MB", "R2_ENDPOINT"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %s in %q", want, msg)
		}
	}
}

func TestLoadWorkerNeedsNoJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://dining@localhost/dining")
	t.Setenv("DIGEST_SCHOOLS", "school_001")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected the API config to demand JWT_SECRET, got %v", err)
	}

	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if !cfg.AuthRequired || cfg.JWTSecret != "" {
		t.Fatalf("unexpected auth settings %+v", cfg)
	}

	t.Setenv("DATABASE_URL", "")
	if _, err := LoadWorker(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected the worker to still validate DATABASE_URL, got %v", err)
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
dishes: [Ramen, Curry, Pizza]
portion_oz: 10
waste_scale:
  - {upper: 0.0, level: None}
  - {upper: 0.5, level: Moderate}
  - {upper: 1.0, level: Most Left}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cat.Vocabulary().Default(); got != "Ramen" {
		t.Fatalf("expected Ramen as default dish, got %s", got)
	}
	if cat.PortionOz != 10 {
		t.Fatalf("expected portion 10, got %v", cat.PortionOz)
	}
	if got := cat.Scale().Classify(0.3); got != waste.LevelModerate {
		t.Fatalf("expected Moderate, got %s", got)
	}
}

func TestParseCatalogFoodBand(t *testing.T) {
	cat, err := ParseCatalog([]byte("food_band: {lower: [10, 40, 30], upper: [90, 255, 240]}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := waste.FoodBand{
		Lower: waste.HSV{H: 10, S: 40, V: 30},
		Upper: waste.HSV{H: 90, S: 255, V: 240},
	}
	if cat.Band() != want {
		t.Fatalf("expected %+v, got %+v", want, cat.Band())
	}

	def := DefaultCatalog()
	if def.Band() != waste.DefaultFoodBand {
		t.Fatalf("expected default band, got %+v", def.Band())
	}
}

func TestParseCatalogKeepsDefaultsForOmittedSections(t *testing.T) {
	cat, err := ParseCatalog([]byte("portion_oz: 6\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Vocabulary().Default() != "Pizza" || len(cat.Scale().Bands()) != 5 {
		t.Fatalf("defaults not kept: %+v", cat)
	}
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"duplicate dish": "dishes: [Pizza, pizza]",
		"bad scale":      "waste_scale: [{upper: 0.5, level: None}]",
		"negative":       "portion_oz: -2",
		"not yaml":       "dishes: [unterminated",
		"inverted band":  "food_band: {lower: [0, 200, 20], upper: [180, 100, 255]}",
		"hue over 180":   "food_band: {lower: [0, 20, 20], upper: [200, 255, 255]}",
		"short band":     "food_band: {lower: [0, 20], upper: [180, 255, 255]}",
	}
	for name, doc := range cases {
		if _, err := ParseCatalog([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseCatalogScaleError(t *testing.T) {
	_, err := ParseCatalog([]byte("waste_scale: [{upper: 0.5, level: None}]"))
	if !errors.Is(err, waste.ErrInvalidScale) {
		t.Fatalf("expected ErrInvalidScale, got %v", err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("dishes: [Soup, Salad]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CATALOG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Catalog.Vocabulary().Names(); len(got) != 2 || got[0] != "Soup" {
		t.Fatalf("unexpected dishes: %v", got)
	}

	t.Setenv("CATALOG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}
