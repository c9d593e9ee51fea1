// internal/planning/baseline/calculator.go
package baseline

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
)

// Query describes one baseline computation request.
type Query struct {
	Channel   string
	Country   string
	RingBasis string
	Start     time.Time
	End       time.Time
}

// Calculator reduces raw demand observations into a daily run rate per
// scope, with proportional fallback for sub-geography buckets.
type Calculator struct {
	geo *geo.Config
}

func NewCalculator(g *geo.Config) *Calculator {
	return &Calculator{geo: g}
}

// Compute filters the observations for the query scope and reduces them to
// a baseline. Zero matching rows is not an error: it yields a zero baseline
// so dashboards stay non-blocking.
func (c *Calculator) Compute(q Query, observations []domain.DemandObservation, shares []domain.CountryShare) *domain.Baseline {
	days := windowDays(q.Start, q.End)

	scoped := c.filterScope(q, observations)

	var unitsBySKU map[string]float64
	switch {
	case c.geo.IsNoGeoChannel(q.Channel):
		unitsBySKU = sumBySKU(scoped)

	case c.geo.IsAggregateBucket(q.Country):
		// The aggregate bucket means "every geography not enumerated
		// elsewhere": match by exclusion, never positively.
		unitsBySKU = sumBySKU(filterCountry(scoped, func(country string) bool {
			return !c.geo.IsEnumerated(country)
		}))

	default:
		unitsBySKU = sumBySKU(filterCountry(scoped, func(country string) bool {
			return strings.EqualFold(country, q.Country)
		}))

		if parent, ok := c.geo.ParentOf(q.Country); ok && len(unitsBySKU) == 0 {
			// The source folds this bucket into its parent: recover it by
			// allocating the parent's per-SKU units proportionally.
			parentUnits := sumBySKU(filterCountry(scoped, func(country string) bool {
				return strings.EqualFold(country, parent)
			}))
			proportion := subRegionProportion(shares, q.Country, parent, c.geo.SubRegionsOf(parent))
			unitsBySKU = make(map[string]float64, len(parentUnits))
			for sku, units := range parentUnits {
				if allocated := math.Round(units * proportion); allocated > 0 {
					unitsBySKU[sku] = allocated
				}
			}
		} else if subs := c.geo.SubRegionsOf(q.Country); len(subs) > 0 {
			// This bucket is itself a reported aggregate: subtract the
			// share of every declared sub-region so it represents
			// "everything else".
			var carved float64
			for _, sub := range subs {
				carved += subRegionProportion(shares, sub, q.Country, subs)
			}
			if carved > 0 {
				remaining := math.Max(0, 1-carved)
				for sku, units := range unitsBySKU {
					unitsBySKU[sku] = math.Max(0, math.Round(units*remaining))
				}
			}
		}
	}

	var total float64
	for _, units := range unitsBySKU {
		total += units
	}

	breakdown := make([]domain.SKUShare, 0, len(unitsBySKU))
	for sku, units := range unitsBySKU {
		pct := 0.0
		if total > 0 {
			pct = units / total * 100
		}
		breakdown = append(breakdown, domain.SKUShare{SKU: sku, Units: units, AutoWeightPct: pct})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Units != breakdown[j].Units {
			return breakdown[i].Units > breakdown[j].Units
		}
		return breakdown[i].SKU < breakdown[j].SKU
	})

	return &domain.Baseline{
		Channel:      q.Channel,
		Country:      q.Country,
		RingBasis:    q.RingBasis,
		StartDate:    q.Start,
		EndDate:      q.End,
		TotalUnits:   total,
		Days:         days,
		DailyRunRate: total / float64(days),
		SKUBreakdown: breakdown,
	}
}

// filterScope applies the channel match and, for channels that expose it,
// the ring basis match. Geography is handled by the caller.
func (c *Calculator) filterScope(q Query, observations []domain.DemandObservation) []domain.DemandObservation {
	useRing := q.RingBasis != "" && c.geo.HasRingBasis(q.Channel)

	out := make([]domain.DemandObservation, 0, len(observations))
	for _, obs := range observations {
		if !strings.EqualFold(obs.Channel, q.Channel) {
			continue
		}
		if useRing && !strings.EqualFold(obs.RingBasis, q.RingBasis) {
			continue
		}
		out = append(out, obs)
	}
	return out
}

// windowDays computes the inclusive calendar span, minimum one day.
func windowDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// subRegionProportion computes what share of the parent bucket the
// sub-region represents, according to the secondary share table. The
// parent's denominator includes its own rows and those of all its declared
// sub-regions.
func subRegionProportion(shares []domain.CountryShare, sub, parent string, allSubs []string) float64 {
	inParent := func(country string) bool {
		if strings.EqualFold(country, parent) {
			return true
		}
		for _, s := range allSubs {
			if strings.EqualFold(country, s) {
				return true
			}
		}
		return false
	}

	var subTotal, parentTotal float64
	for _, row := range shares {
		if !inParent(row.Country) {
			continue
		}
		parentTotal += row.Units
		if strings.EqualFold(row.Country, sub) {
			subTotal += row.Units
		}
	}

	if parentTotal <= 0 {
		return 0
	}
	return subTotal / parentTotal
}

func sumBySKU(observations []domain.DemandObservation) map[string]float64 {
	out := make(map[string]float64)
	for _, obs := range observations {
		out[obs.SKU] += obs.Units
	}
	return out
}

func filterCountry(observations []domain.DemandObservation, match func(string) bool) []domain.DemandObservation {
	out := make([]domain.DemandObservation, 0, len(observations))
	for _, obs := range observations {
		if match(obs.Country) {
			out = append(out, obs)
		}
	}
	return out
}
