// internal/planning/forecast/projector.go
package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/demand-planner/internal/domain"
)

// Project expands ordered per-month configs into unit projections.
//
// Convention: lift compounds across months. Month one is
// base*(1+lift/100); every later month is the prior month's projected
// volume times (1+momGrowth/100) times (1+lift/100). The chain is carried
// in float64 and rounded per month only for presentation, so recomputing
// any month from the same configs is reproducible.
func Project(configs []domain.ForecastMonthConfig) []domain.MonthForecast {
	months := make([]domain.MonthForecast, 0, len(configs))

	var running float64
	for i, cfg := range configs {
		days := DaysInMonth(cfg.ForecastMonth)
		baseUnits := int(math.Round(cfg.BaselineDRR * float64(days)))

		if i == 0 {
			running = float64(baseUnits) * (1 + cfg.LiftPct/100)
		} else {
			running = running * (1 + cfg.MoMGrowthPct/100) * (1 + cfg.LiftPct/100)
		}

		months = append(months, domain.MonthForecast{
			Month:              cfg.ForecastMonth,
			DaysInMonth:        days,
			BaselineDRR:        cfg.BaselineDRR,
			LiftPct:            cfg.LiftPct,
			MoMGrowthPct:       cfg.MoMGrowthPct,
			DistributionMethod: cfg.DistributionMethod,
			BaseUnits:          baseUnits,
			FinalUnits:         int(math.Round(running)),
		})
	}

	return months
}

// DaysInMonth returns the calendar length of the month containing t.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// MonthsFrom returns the first-of-month dates of the n consecutive months
// following now, used to seed a new scope's forecast configs.
func MonthsFrom(now time.Time, n int) []time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = first.AddDate(0, i, 0)
	}
	return out
}
