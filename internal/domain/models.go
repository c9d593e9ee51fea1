// internal/domain/models.go
package domain

import "time"

// DemandObservation is a single raw demand row from the analytics source:
// units shipped/ordered for one SKU on one channel in one country on one day.
type DemandObservation struct {
	SKU          string    `json:"sku"`
	Channel      string    `json:"channel"`
	Country      string    `json:"country"`
	RingBasis    string    `json:"ring_basis,omitempty"`
	Units        float64   `json:"units"`
	ObservedDate time.Time `json:"observed_date"`
}

// SKUShare is one SKU's contribution to a baseline window.
type SKUShare struct {
	SKU           string  `json:"sku"`
	Units         float64 `json:"units"`
	AutoWeightPct float64 `json:"auto_weight_pct"`
}

// Baseline is the computed run rate for one (channel, country) scope over a
// historical window. Read-only once computed; superseded by the next query.
type Baseline struct {
	Channel      string     `json:"channel"`
	Country      string     `json:"country"`
	RingBasis    string     `json:"ring_basis,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	TotalUnits   float64    `json:"total_units"`
	Days         int        `json:"days"`
	DailyRunRate float64    `json:"daily_run_rate"`
	SKUBreakdown []SKUShare `json:"sku_breakdown"`
}

// DistributionMethod selects how a month's forecast is split across SKUs.
type DistributionMethod string

const (
	DistributionHistorical DistributionMethod = "historical"
	DistributionDesired    DistributionMethod = "desired"
)

// ForecastMonthConfig is the persisted per-month forecast input for one
// (channel, country). The twelve rows for a scope cover the twelve
// consecutive months following creation time.
type ForecastMonthConfig struct {
	ID                 int64              `json:"id" db:"id"`
	Channel            string             `json:"channel" db:"channel"`
	Country            string             `json:"country" db:"country"`
	ForecastMonth      time.Time          `json:"forecast_month" db:"forecast_month"`
	BaselineDRR        float64            `json:"baseline_drr" db:"baseline_drr"`
	LiftPct            float64            `json:"lift_pct" db:"lift_pct"`
	MoMGrowthPct       float64            `json:"mom_growth_pct" db:"mom_growth_pct"`
	DistributionMethod DistributionMethod `json:"distribution_method" db:"distribution_method"`
	BaselineWindowDays int                `json:"baseline_window_days" db:"baseline_window_days"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// SKUWeight is one SKU's share of a (channel, country) forecast. The auto
// weight is derived from the baseline; a manual override pins the SKU to a
// fixed percentage. IsOverride implies ManualWeightPct is non-nil.
type SKUWeight struct {
	Channel         string   `json:"channel" db:"channel"`
	Country         string   `json:"country" db:"country"`
	SKU             string   `json:"sku" db:"sku"`
	AutoWeightPct   float64  `json:"auto_weight_pct" db:"auto_weight_pct"`
	ManualWeightPct *float64 `json:"manual_weight_pct" db:"manual_weight_pct"`
	IsOverride      bool     `json:"is_override" db:"is_override"`
}

// MaterializedForecast is one saved per-SKU per-month forecast row. A save
// replaces all rows for the same (channel, country) scope.
type MaterializedForecast struct {
	SKU           string    `json:"sku" db:"sku"`
	Channel       string    `json:"channel" db:"channel"`
	Country       string    `json:"country" db:"country"`
	ForecastMonth time.Time `json:"forecast_month" db:"forecast_month"`
	ForecastUnits int       `json:"forecast_units" db:"forecast_units"`
}

// LocationGroup partitions stock locations into bulk storage and
// customer-facing fulfillment.
type LocationGroup string

const (
	GroupBulk        LocationGroup = "bulk"
	GroupFulfillment LocationGroup = "fulfillment"
)

// LocationInfo describes one known stock location.
type LocationInfo struct {
	Name  string        `json:"name"`
	Group LocationGroup `json:"group"`
}

// LocationStock is one on-hand quantity for a SKU at a location.
type LocationStock struct {
	SKU      string  `json:"sku"`
	Location string  `json:"location"`
	Quantity float64 `json:"quantity"`
}

// StockSnapshot is a wholesale refresh of per-location on-hand stock.
// It is never partially updated.
type StockSnapshot struct {
	Locations []LocationInfo  `json:"locations"`
	Rows      []LocationStock `json:"rows"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// QuantityFor returns the on-hand quantity for a SKU at a location.
func (s *StockSnapshot) QuantityFor(sku, location string) float64 {
	for _, r := range s.Rows {
		if r.SKU == sku && r.Location == location {
			return r.Quantity
		}
	}
	return 0
}

// ByLocation indexes the snapshot as location -> sku -> quantity.
func (s *StockSnapshot) ByLocation() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(s.Locations))
	for _, r := range s.Rows {
		m, ok := out[r.Location]
		if !ok {
			m = make(map[string]float64)
			out[r.Location] = m
		}
		m[r.SKU] += r.Quantity
	}
	return out
}

// CountryShare is one row of the secondary per-SKU per-country share table
// used for sub-geography fallback allocation.
type CountryShare struct {
	SKU     string  `json:"sku"`
	Country string  `json:"country"`
	Units   float64 `json:"units"`
}
