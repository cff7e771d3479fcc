// Package scan runs the tray pipeline: decode both photos, resolve the dish,
// estimate waste, score it, store the images and append one ledger record.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/anishka-v/eco-dining/internal/advice"
	"github.com/anishka-v/eco-dining/internal/dish"
	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/ledger"
	"github.com/anishka-v/eco-dining/internal/waste"

	"github.com/google/uuid"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

var ErrMissingImage = errors.New("before_image and after_image are required")

// ImageStore keeps the raw uploads and returns an opaque reference.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Recorder receives scan telemetry.
type Recorder interface {
	ScanRecorded(schoolID, level string)
	ScanFailed(kind string)
	LedgerAppend(d time.Duration)
}

// Listener is notified after a record is appended. Implementations must not block.
type Listener interface {
	OnScan(rec ledger.Record)
}

type Deps struct {
	Estimator  *waste.Estimator
	Classifier *dish.Classifier
	Scale      waste.Scale
	PortionOz  float64
	Ledger     ledger.Ledger
	Images     ImageStore
	Recorder   Recorder
	Listeners  []Listener
	Log        *slog.Logger
}

type Service struct {
	estimator  *waste.Estimator
	classifier *dish.Classifier
	scale      waste.Scale
	portionOz  float64
	ledger     ledger.Ledger
	images     ImageStore
	recorder   Recorder
	listeners  []Listener
	log        *slog.Logger
	now        func() time.Time
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	scale := d.Scale
	if len(scale.Bands()) == 0 {
		scale = waste.DefaultScale()
	}
	return &Service{
		estimator:  d.Estimator,
		classifier: d.Classifier,
		scale:      scale,
		portionOz:  d.PortionOz,
		ledger:     d.Ledger,
		images:     d.Images,
		recorder:   d.Recorder,
		listeners:  d.Listeners,
		log:        log.With(slog.String("component", "scan_service")),
		now:        time.Now,
	}
}

// --------------------------------------------------
// Process one tray scan
// --------------------------------------------------

// Process records a scan. Nothing is appended unless every earlier step,
// image storage included, succeeded. Empty uploads fail decoding.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	if req.Before == nil || req.After == nil {
		s.failed("missing_image")
		return nil, ErrMissingImage
	}

	before, err := waste.DecodeImage("before", req.Before)
	if err != nil {
		s.failed("decode")
		return nil, err
	}
	after, err := waste.DecodeImage("after", req.After)
	if err != nil {
		s.failed("decode")
		return nil, err
	}

	resolved := s.classifier.Resolve(ctx, req.DishHint, req.Before)
	est := s.estimator.Estimate(before, after)

	level := s.scale.Classify(est.Fraction)
	points := waste.Points(level)
	cost := impact.Calculate(est.Fraction, s.portionOz)

	beforeRef, afterRef, err := s.storeImages(ctx, req)
	if err != nil {
		s.failed("storage")
		return nil, err
	}

	started := time.Now()
	rec, err := s.ledger.Append(ctx, ledger.Record{
		SchoolID:         req.SchoolID,
		Dish:             resolved.Dish,
		WasteFraction:    est.Fraction,
		WasteLevel:       level,
		Points:           points,
		Impact:           cost,
		BeforeImageRef:   beforeRef,
		AfterImageRef:    afterRef,
		EstimateDegraded: est.Degraded(),
		DishFallback:     resolved.Fallback,
	})
	if s.recorder != nil {
		s.recorder.LedgerAppend(time.Since(started))
	}
	if err != nil {
		s.failed("ledger")
		return nil, fmt.Errorf("append scan: %w", err)
	}

	if s.recorder != nil {
		s.recorder.ScanRecorded(rec.SchoolID, string(rec.WasteLevel))
	}
	s.log.Info("scan_recorded",
		slog.Int64("scan_id", rec.ID),
		slog.String("school_id", rec.SchoolID),
		slog.String("dish", rec.Dish),
		slog.String("waste_level", string(rec.WasteLevel)),
		slog.Float64("waste_fraction", rec.WasteFraction),
	)
	for _, l := range s.listeners {
		l.OnScan(rec)
	}

	return &Result{
		Success:          true,
		ScanID:           rec.ID,
		Dish:             rec.Dish,
		WasteLevel:       rec.WasteLevel,
		WastePercentage:  impact.Round(rec.WasteFraction*100, 1),
		Points:           rec.Points,
		Impact:           rec.Impact.Rounded(),
		Tips:             advice.Tips(rec.WasteLevel),
		EstimateDegraded: rec.EstimateDegraded,
		DishFallback:     rec.DishFallback,
	}, nil
}

// Recent returns up to limit records for the school, newest first.
func (s *Service) Recent(ctx context.Context, schoolID string, limit int) ([]ledger.Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	records, err := s.ledger.Latest(ctx, schoolID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent scans: %w", err)
	}
	return records, nil
}

func (s *Service) storeImages(ctx context.Context, req Request) (string, string, error) {
	if s.images == nil {
		return "", "", nil
	}

	prefix := fmt.Sprintf("scans/%s/%s/%s",
		req.SchoolID,
		s.now().UTC().Format("2006-01-02"),
		uuid.New().String(),
	)

	beforeType := contentType(req.BeforeContentType, req.Before)
	beforeRef, err := s.images.Put(ctx, prefix+"-before"+extension(beforeType), req.Before, beforeType)
	if err != nil {
		return "", "", fmt.Errorf("store before image: %w", err)
	}

	afterType := contentType(req.AfterContentType, req.After)
	afterRef, err := s.images.Put(ctx, prefix+"-after"+extension(afterType), req.After, afterType)
	if err != nil {
		return "", "", fmt.Errorf("store after image: %w", err)
	}
	return beforeRef, afterRef, nil
}

func (s *Service) failed(kind string) {
	if s.recorder != nil {
		s.recorder.ScanFailed(kind)
	}
}

func contentType(declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
	"image/webp": ".webp",
	"image/tiff": ".tiff",
}

func extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return ".bin"
}
