package ledger

import (
	"time"

	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/waste"
)

// Record is one tray scan. It is written once and never changed.
type Record struct {
	ID               int64           `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	SchoolID         string          `json:"school_id"`
	Dish             string          `json:"dish"`
	WasteFraction    float64         `json:"waste_fraction"`
	WasteLevel       waste.Level     `json:"waste_level"`
	Points           int             `json:"points"`
	Impact           impact.Estimate `json:"impact"`
	BeforeImageRef   string          `json:"before_image,omitempty"`
	AfterImageRef    string          `json:"after_image,omitempty"`
	EstimateDegraded bool            `json:"estimate_degraded"`
	DishFallback     bool            `json:"dish_fallback"`
}

// Range selects records by timestamp. A zero From or To leaves that side open.
type Range struct {
	From          time.Time
	To            time.Time
	FromExclusive bool
	ToExclusive   bool
}

// Between covers [from, to].
func Between(from, to time.Time) Range {
	return Range{From: from, To: to}
}

// Since covers everything strictly after cutoff.
func Since(cutoff time.Time) Range {
	return Range{From: cutoff, FromExclusive: true}
}

// Day covers the calendar day of date in loc.
func Day(date time.Time, loc *time.Location) Range {
	if loc == nil {
		loc = time.Local
	}
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Range{From: start, To: start.AddDate(0, 0, 1), ToExclusive: true}
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() {
		if t.Before(r.From) || (r.FromExclusive && t.Equal(r.From)) {
			return false
		}
	}
	if !r.To.IsZero() {
		if t.After(r.To) || (r.ToExclusive && t.Equal(r.To)) {
			return false
		}
	}
	return true
}
