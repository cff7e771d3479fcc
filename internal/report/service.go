// Package report aggregates ledger records into daily and weekly reports and
// a short list of rule-based insights. Nothing here is stored; every call
// recomputes from the ledger.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/anishka-v/eco-dining/internal/advice"
	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/ledger"
)

const (
	DateLayout         = "2006-01-02"
	DefaultInsightDays = 30

	// Upper bounds keep window arithmetic inside time.Duration.
	MaxWeeksBack   = 5200
	MaxInsightDays = 36500

	topOffenderLimit    = 5
	alertWasteThreshold = 0.30
	week                = 7 * 24 * time.Hour
)

var ErrInvalidWindow = errors.New("invalid report window")

type Service struct {
	ledger    ledger.Ledger
	loc       *time.Location
	now       func() time.Time
	portionOz float64
}

// NewService builds reports in loc. nil loc means time.Local, nil now means time.Now.
func NewService(l ledger.Ledger, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{ledger: l, loc: loc, now: now, portionOz: impact.DefaultPortionOz}
}

// WithPortion sets the standard portion quoted in high-waste alerts.
func (s *Service) WithPortion(oz float64) *Service {
	if oz > 0 {
		s.portionOz = oz
	}
	return s
}

// ParseDate reads a YYYY-MM-DD date in the report time zone. An empty string
// means today.
func (s *Service) ParseDate(value string) (time.Time, error) {
	if value == "" {
		return s.now().In(s.loc), nil
	}
	d, err := time.ParseInLocation(DateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidWindow, value)
	}
	return d, nil
}

// --------------------------------------------------
// Daily
// --------------------------------------------------

func (s *Service) Daily(ctx context.Context, schoolID string, date time.Time) (*DailyReport, error) {
	records, err := s.ledger.Query(ctx, schoolID, ledger.Day(date, s.loc))
	if err != nil {
		return nil, fmt.Errorf("query daily scans: %w", err)
	}

	report := &DailyReport{
		Date:     date.In(s.loc).Format(DateLayout),
		SchoolID: schoolID,
	}
	if len(records) == 0 {
		return report, nil
	}

	dishes := groupBy(records, func(r ledger.Record) string { return r.Dish })
	byDish := make([]DishSummary, 0, len(dishes.order))
	avgs := make(map[string]float64, len(dishes.order))

	for _, b := range dishes.order {
		avg := b.avg()
		avgs[b.key] = avg
		byDish = append(byDish, DishSummary{
			Dish:           b.key,
			Scans:          b.count,
			AvgWastePct:    pct(avg),
			TotalWeightLbs: impact.Round(b.impact.WeightLbs, 2),
			TotalCost:      impact.Round(b.impact.CostUSD, 2),
			TotalCO2Kg:     impact.Round(b.impact.CO2Kg, 2),
			Recommendation: advice.DishRecommendation(avg),
		})
	}
	sort.SliceStable(byDish, func(i, j int) bool {
		return avgs[byDish[i].Dish] > avgs[byDish[j].Dish]
	})

	total, wasteSum := sum(records)
	report.TotalScans = len(records)
	report.AvgWastePct = pct(wasteSum / float64(len(records)))
	report.Totals = roundTotals(total)
	report.ByDish = byDish

	return report, nil
}

// --------------------------------------------------
// Weekly
// --------------------------------------------------

// Weekly covers [end-7d, end] where end is now minus weeksBack weeks.
func (s *Service) Weekly(ctx context.Context, schoolID string, weeksBack int) (*WeeklyReport, error) {
	if weeksBack < 0 {
		return nil, fmt.Errorf("%w: weeks_back must not be negative", ErrInvalidWindow)
	}
	if weeksBack > MaxWeeksBack {
		return nil, fmt.Errorf("%w: weeks_back must be at most %d", ErrInvalidWindow, MaxWeeksBack)
	}

	end := s.now().Add(-time.Duration(weeksBack) * week)
	start := end.Add(-week)

	records, err := s.ledger.Query(ctx, schoolID, ledger.Between(start, end))
	if err != nil {
		return nil, fmt.Errorf("query weekly scans: %w", err)
	}

	report := &WeeklyReport{
		WeekStart: start.In(s.loc).Format(DateLayout),
		WeekEnd:   end.In(s.loc).Format(DateLayout),
	}
	if len(records) == 0 {
		return report, nil
	}

	days := groupBy(records, func(r ledger.Record) string {
		return r.Timestamp.In(s.loc).Format(DateLayout)
	})
	breakdown := make([]DayBreakdown, 0, len(days.order))
	for _, b := range days.order {
		breakdown = append(breakdown, DayBreakdown{
			Date:        b.key,
			Scans:       b.count,
			AvgWastePct: pct(b.avg()),
			CostUSD:     impact.Round(b.impact.CostUSD, 2),
		})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Date < breakdown[j].Date
	})

	offenders := rankOffenders(groupBy(records, func(r ledger.Record) string { return r.Dish }))

	var top *advice.Offender
	if len(offenders) > 0 {
		top = &advice.Offender{Dish: offenders[0].Dish, AvgWastePct: offenders[0].AvgWastePct}
	}
	if len(offenders) > topOffenderLimit {
		offenders = offenders[:topOffenderLimit]
	}

	report.DailyBreakdown = breakdown
	report.TopOffenders = offenders
	report.Recommendations = advice.WeeklyRecommendations(top)

	return report, nil
}

func rankOffenders(dishes *groups) []Offender {
	ranked := make([]*bucket, len(dishes.order))
	copy(ranked, dishes.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].avg() > ranked[j].avg()
	})

	out := make([]Offender, 0, len(ranked))
	for _, b := range ranked {
		out = append(out, Offender{
			Dish:        b.key,
			AvgWastePct: pct(b.avg()),
			Scans:       b.count,
		})
	}
	return out
}

// --------------------------------------------------
// Insights
// --------------------------------------------------

// Insights looks at scans strictly after now minus days. Ties between dishes
// or weekdays go to whichever appeared first in the ledger.
func (s *Service) Insights(ctx context.Context, schoolID string, days int) ([]Insight, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidWindow)
	}
	if days > MaxInsightDays {
		return nil, fmt.Errorf("%w: days must be at most %d", ErrInvalidWindow, MaxInsightDays)
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	records, err := s.ledger.Query(ctx, schoolID, ledger.Since(cutoff))
	if err != nil {
		return nil, fmt.Errorf("query insight scans: %w", err)
	}

	insights := make([]Insight, 0, 3)
	if len(records) == 0 {
		return insights, nil
	}

	worst := groupBy(records, func(r ledger.Record) string { return r.Dish }).highest()
	if worst.avg() > alertWasteThreshold {
		insights = append(insights, Insight{
			Type:        InsightAlert,
			Title:       advice.HighWasteAlertTitle(worst.key),
			Description: advice.HighWasteAlert(worst.key, worst.avg(), s.portionOz),
			Priority:    "high",
			Action:      "reduce_portion",
		})
	}

	best := groupBy(records, func(r ledger.Record) string {
		return r.Timestamp.In(s.loc).Weekday().String()
	}).lowest()
	insights = append(insights, Insight{
		Type:        InsightSuccess,
		Title:       advice.BestDayTitle(best.key),
		Description: advice.BestDay(best.key, best.avg()),
		Priority:    "medium",
	})

	total, _ := sum(records)
	insights = append(insights, Insight{
		Type:        InsightInfo,
		Title:       advice.ImpactSummaryTitle,
		Description: advice.ImpactSummary(total),
		Priority:    "info",
	})

	return insights, nil
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

func pct(fraction float64) float64 {
	return impact.Round(fraction*100, 1)
}

func roundTotals(e impact.Estimate) Totals {
	return Totals{
		WeightLbs: impact.Round(e.WeightLbs, 2),
		CostUSD:   impact.Round(e.CostUSD, 2),
		CO2Kg:     impact.Round(e.CO2Kg, 2),
	}
}
