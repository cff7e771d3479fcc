package scan

import (
	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/waste"
)

// Request is one tray scan as received from a terminal.
type Request struct {
	SchoolID string
	DishHint string

	Before            []byte
	BeforeContentType string
	After             []byte
	AfterContentType  string
}

// Result is returned to the terminal after the scan is recorded.
type Result struct {
	Success          bool            `json:"success"`
	ScanID           int64           `json:"scan_id"`
	Dish             string          `json:"dish"`
	WasteLevel       waste.Level     `json:"waste_level"`
	WastePercentage  float64         `json:"waste_percentage"`
	Points           int             `json:"points"`
	Impact           impact.Estimate `json:"impact"`
	Tips             []string        `json:"tips"`
	EstimateDegraded bool            `json:"estimate_degraded"`
	DishFallback     bool            `json:"dish_fallback"`
}
