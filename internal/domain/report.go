// internal/domain/report.go
package domain

import (
	"math"
	"strconv"
	"time"
)

// CoverDays is a days-of-cover value that survives JSON encoding: positive
// infinity (stock on hand but zero measured demand) marshals as "inf".
type CoverDays float64

func (d CoverDays) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(d), 1) {
		return []byte(`"inf"`), nil
	}
	return []byte(strconv.FormatFloat(float64(d), 'f', 2, 64)), nil
}

// IsInfinite reports whether the value is the infinite-cover sentinel.
func (d CoverDays) IsInfinite() bool {
	return math.IsInf(float64(d), 1)
}

// SKUStockStatus is one fully derived stock-health row, either per
// (SKU, location) or fleet-wide per SKU when Location is empty.
type SKUStockStatus struct {
	SKU                 string      `json:"sku"`
	Location            string      `json:"location,omitempty"`
	DailyDemand         float64     `json:"daily_demand"`
	TotalStock          float64     `json:"total_stock"`
	DaysOfCover         CoverDays   `json:"days_of_cover"`
	Status              StockStatus `json:"status"`
	ReplenishmentNeeded int         `json:"replenishment_needed"`
}

// LocationReport is the routed demand / stock-status report for one location.
type LocationReport struct {
	Location   string           `json:"location"`
	Group      LocationGroup    `json:"group"`
	TargetDays float64          `json:"target_days"`
	Items      []SKUStockStatus `json:"items"`
}

// StockReport is the full location-routed demand and stock-status report.
// Fleet rows are computed from summed per-location stock and demand, not
// from summed per-location results.
type StockReport struct {
	Locations   []LocationReport `json:"locations"`
	Fleet       []SKUStockStatus `json:"fleet"`
	WindowDays  int              `json:"window_days"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// MonthForecast is one projected month for a (channel, country) scope.
type MonthForecast struct {
	Month              time.Time          `json:"month"`
	DaysInMonth        int                `json:"days_in_month"`
	BaselineDRR        float64            `json:"baseline_drr"`
	LiftPct            float64            `json:"lift_pct"`
	MoMGrowthPct       float64            `json:"mom_growth_pct"`
	DistributionMethod DistributionMethod `json:"distribution_method"`
	BaseUnits          int                `json:"base_units"`
	FinalUnits         int                `json:"final_units"`
}

// SKUMonthUnits is the per-SKU allocation of one projected month.
type SKUMonthUnits struct {
	SKU        string    `json:"sku"`
	Month      time.Time `json:"month"`
	Units      int       `json:"units"`
	WeightPct  float64   `json:"weight_pct"`
	IsOverride bool      `json:"is_override"`
}

// ForecastView is the 12-month projection plus SKU table for one scope.
// OverrideTotal above 100 is surfaced so callers can warn; it is never
// silently clamped.
type ForecastView struct {
	Channel       string          `json:"channel"`
	Country       string          `json:"country,omitempty"`
	Months        []MonthForecast `json:"months"`
	SKUTable      []SKUMonthUnits `json:"sku_table"`
	OverrideTotal float64         `json:"override_total"`
	Overallocated bool            `json:"overallocated"`
}
