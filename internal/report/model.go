package report

import "encoding/json"

type Totals struct {
	WeightLbs float64 `json:"weight_lbs"`
	CostUSD   float64 `json:"cost_usd"`
	CO2Kg     float64 `json:"co2_kg"`
}

type DishSummary struct {
	Dish           string  `json:"dish"`
	Scans          int     `json:"scans"`
	AvgWastePct    float64 `json:"avg_waste_pct"`
	TotalWeightLbs float64 `json:"total_weight_lbs"`
	TotalCost      float64 `json:"total_cost"`
	TotalCO2Kg     float64 `json:"total_co2_kg"`
	Recommendation string  `json:"recommendation"`
}

// DailyReport breaks one school day down by dish.
// A day without scans renders as {"date", "school_id", "total_scans": 0, "data": null}.
type DailyReport struct {
	Date        string        `json:"date"`
	SchoolID    string        `json:"school_id"`
	TotalScans  int           `json:"total_scans"`
	AvgWastePct float64       `json:"avg_waste_pct"`
	Totals      Totals        `json:"totals"`
	ByDish      []DishSummary `json:"by_dish"`
}

func (r DailyReport) Empty() bool {
	return r.TotalScans == 0
}

func (r DailyReport) MarshalJSON() ([]byte, error) {
	if r.Empty() {
		return json.Marshal(struct {
			Date       string `json:"date"`
			SchoolID   string `json:"school_id"`
			TotalScans int    `json:"total_scans"`
			Data       any    `json:"data"`
		}{r.Date, r.SchoolID, 0, nil})
	}
	type plain DailyReport
	return json.Marshal(plain(r))
}

type DayBreakdown struct {
	Date        string  `json:"date"`
	Scans       int     `json:"scans"`
	AvgWastePct float64 `json:"avg_waste_pct"`
	CostUSD     float64 `json:"cost_usd"`
}

type Offender struct {
	Dish        string  `json:"dish"`
	AvgWastePct float64 `json:"avg_waste_pct"`
	Scans       int     `json:"scans"`
}

// WeeklyReport covers a seven day window.
// An empty window renders as {"week": <start date>, "data": null}.
type WeeklyReport struct {
	WeekStart       string         `json:"week_start"`
	WeekEnd         string         `json:"week_end"`
	DailyBreakdown  []DayBreakdown `json:"daily_breakdown"`
	TopOffenders    []Offender     `json:"top_offenders"`
	Recommendations []string       `json:"recommendations"`
}

func (r WeeklyReport) Empty() bool {
	return len(r.DailyBreakdown) == 0
}

func (r WeeklyReport) MarshalJSON() ([]byte, error) {
	if r.Empty() {
		return json.Marshal(struct {
			Week string `json:"week"`
			Data any    `json:"data"`
		}{r.WeekStart, nil})
	}
	type plain WeeklyReport
	return json.Marshal(plain(r))
}

const (
	InsightAlert   = "alert"
	InsightSuccess = "success"
	InsightInfo    = "info"
)

type Insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Action      string `json:"action,omitempty"`
}
