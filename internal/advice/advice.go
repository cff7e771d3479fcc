// Package advice holds the fixed wording shown to students and dining staff.
package advice

import (
	"fmt"
	"strconv"

	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/waste"
)

const (
	highWasteFraction     = 0.35
	moderateWasteFraction = 0.20
	offenderPctThreshold  = 30.0
)

var weeklyReminders = []string{
	"Monitor Tuesday & Thursday - typically lower waste days.",
	"Survey students on unpopular dishes to inform menu planning.",
}

// Offender is a dish with its average waste in percent, rounded to one decimal.
type Offender struct {
	Dish        string
	AvgWastePct float64
}

// DishRecommendation turns a dish's average waste fraction into staff advice.
func DishRecommendation(avgWaste float64) string {
	pct := truncPct(avgWaste)
	switch {
	case avgWaste > highWasteFraction:
		return fmt.Sprintf("High waste (%d%%). Reduce portion size by 25%%.", pct)
	case avgWaste > moderateWasteFraction:
		return fmt.Sprintf("Moderate waste (%d%%). Monitor closely or offer smaller portions.", pct)
	default:
		return fmt.Sprintf("Low waste (%d%%). Current portion size is appropriate.", pct)
	}
}

// WeeklyRecommendations names the top offender when it is above 30% and
// always ends with the standing reminders. top may be nil.
func WeeklyRecommendations(top *Offender) []string {
	recs := make([]string, 0, len(weeklyReminders)+1)
	if top != nil && top.AvgWastePct > offenderPctThreshold {
		recs = append(recs, fmt.Sprintf(
			"Consider menu change or portion reduction for %s (avg waste: %s%%)",
			top.Dish,
			strconv.FormatFloat(top.AvgWastePct, 'f', 1, 64),
		))
	}
	return append(recs, weeklyReminders...)
}

// Tips are shown to the student right after a scan.
func Tips(level waste.Level) []string {
	switch level {
	case waste.LevelNone:
		return []string{"🎉 Amazing job! Zero waste champion!"}
	case waste.LevelMinimal:
		return []string{"Great effort! Keep it up.", "Consider trying different dishes tomorrow."}
	case waste.LevelModerate:
		return []string{"💡 Try taking a smaller portion next time.", "You can always go back for seconds!"}
	default:
		return []string{"💡 Try taking a smaller portion.", "Ask for the half-portion option.", "Start with less, add more if hungry."}
	}
}

// --------------------------------------------------
// Insight wording
// --------------------------------------------------

func HighWasteAlertTitle(dish string) string {
	return "High Waste Alert: " + dish
}

// ReducedPortionRatio is the suggested cut for a high-waste dish.
const ReducedPortionRatio = 0.75

// HighWasteAlert suggests cutting portionOz to ReducedPortionRatio of itself.
func HighWasteAlert(dish string, avgWaste, portionOz float64) string {
	return fmt.Sprintf("%s waste up %d%%. Consider reducing portion from %soz to %soz.",
		dish, truncPct(avgWaste), ounces(portionOz), ounces(portionOz*ReducedPortionRatio))
}

func ounces(oz float64) string {
	return strconv.FormatFloat(impact.Round(oz, 1), 'f', -1, 64)
}

func BestDayTitle(day string) string {
	return fmt.Sprintf("Success: %s Performance", day)
}

func BestDay(day string, avgWaste float64) string {
	return fmt.Sprintf("%s shows %d%% less waste. Consider repeating this day's menu.", day, truncPct(1-avgWaste))
}

const ImpactSummaryTitle = "Monthly Impact"

func ImpactSummary(total impact.Estimate) string {
	return fmt.Sprintf("%.0f lbs saved, $%.0f in savings, %.0f kg CO2 prevented",
		total.WeightLbs, total.CostUSD, total.CO2Kg)
}

func truncPct(fraction float64) int {
	return int(fraction * 100)
}
