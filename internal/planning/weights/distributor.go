// internal/planning/weights/distributor.go
package weights

import (
	"math"

	"github.com/andresuchdata/demand-planner/internal/domain"
)

// Effective is one SKU's resolved share of a scope's forecast.
type Effective struct {
	SKU        string
	Pct        float64
	IsOverride bool
}

// Result carries the resolved weights plus the raw override total so
// callers can warn when overrides exceed 100 instead of clamping them.
type Result struct {
	Weights       []Effective
	OverrideTotal float64
	AutoTotal     float64
	Overallocated bool
}

// Distribute resolves per-SKU percentages: overrides are taken verbatim and
// the remaining percentage is split across non-override SKUs in proportion
// to their auto weights.
func Distribute(skuWeights []domain.SKUWeight) Result {
	var overrideTotal, autoTotal float64
	for _, w := range skuWeights {
		if w.IsOverride && w.ManualWeightPct != nil {
			overrideTotal += *w.ManualWeightPct
		} else {
			autoTotal += w.AutoWeightPct
		}
	}

	remainingPct := math.Max(0, 100-overrideTotal)

	resolved := make([]Effective, 0, len(skuWeights))
	for _, w := range skuWeights {
		if w.IsOverride && w.ManualWeightPct != nil {
			resolved = append(resolved, Effective{SKU: w.SKU, Pct: *w.ManualWeightPct, IsOverride: true})
			continue
		}

		pct := 0.0
		if autoTotal > 0 {
			pct = w.AutoWeightPct / autoTotal * remainingPct
		}
		resolved = append(resolved, Effective{SKU: w.SKU, Pct: pct})
	}

	return Result{
		Weights:       resolved,
		OverrideTotal: overrideTotal,
		AutoTotal:     autoTotal,
		Overallocated: overrideTotal > 100,
	}
}

// Allocate converts one month's final units into a SKU's share. Rounding is
// applied per (SKU, month) independently; the small residual against the
// month total is accepted, not corrected.
func Allocate(finalUnits int, pct float64) int {
	return int(math.Round(float64(finalUnits) * pct / 100))
}
