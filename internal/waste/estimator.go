// Package waste estimates how much of a tray was left uneaten and buckets the
// estimate into levels.
//
// The estimator is a coarse heuristic. It counts "food coloured" pixels in the
// before and after photos of the same tray and reports the relative drop.
// Absolute pixel counts depend on lighting and framing, so only the ratio
// between the two shots carries meaning. It is not a volumetric measurement.
package waste

import (
	"fmt"
	"image"
	"log/slog"
	"math"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// DegradedFraction is reported when the images cannot be compared.
const DegradedFraction = 0.5

// Estimate is the outcome of comparing a before/after pair.
type Estimate struct {
	Fraction   float64
	Status     Status
	Reason     string
	BeforeArea int
	AfterArea  int
}

func (e Estimate) Degraded() bool {
	return e.Status == StatusDegraded
}

// DegradeRecorder is told about every degraded estimate.
type DegradeRecorder interface {
	EstimateDegraded(reason string)
}

type Estimator struct {
	band     FoodBand
	log      *slog.Logger
	recorder DegradeRecorder
}

func NewEstimator(log *slog.Logger, recorder DegradeRecorder) *Estimator {
	if log == nil {
		log = slog.Default()
	}
	return &Estimator{
		band:     DefaultFoodBand,
		log:      log.With(slog.String("component", "waste_estimator")),
		recorder: recorder,
	}
}

// WithBand returns a copy of the estimator using a different food band.
func (e *Estimator) WithBand(band FoodBand) *Estimator {
	cp := *e
	cp.band = band
	return &cp
}

// Estimate never fails. Images it cannot reason about yield a Degraded
// estimate carrying DegradedFraction.
func (e *Estimator) Estimate(before, after image.Image) (est Estimate) {
	defer func() {
		if r := recover(); r != nil {
			est = e.degraded(fmt.Sprintf("panic: %v", r))
		}
	}()

	if before == nil || after == nil {
		return e.degraded("missing image")
	}
	if before.Bounds().Empty() || after.Bounds().Empty() {
		return e.degraded("empty image")
	}

	beforeArea := FoodArea(before, e.band)
	afterArea := FoodArea(after, e.band)

	return Estimate{
		Fraction:   Fraction(beforeArea, afterArea),
		Status:     StatusOK,
		BeforeArea: beforeArea,
		AfterArea:  afterArea,
	}
}

// Fraction is (before-after)/before clamped to [0,1]; 0 when before is 0.
func Fraction(beforeArea, afterArea int) float64 {
	if beforeArea <= 0 {
		return 0
	}
	f := float64(beforeArea-afterArea) / float64(beforeArea)
	return math.Max(0, math.Min(1, f))
}

func (e *Estimator) degraded(reason string) Estimate {
	e.log.Warn("estimate_degraded",
		slog.String("reason", reason),
		slog.Float64("fraction", DegradedFraction),
	)
	if e.recorder != nil {
		e.recorder.EstimateDegraded(reason)
	}
	return Estimate{
		Fraction: DegradedFraction,
		Status:   StatusDegraded,
		Reason:   reason,
	}
}
