// internal/planning/coverage/planner.go
package coverage

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
)

// DaysOfCover returns how many days current stock will last. Stock with no
// measured demand is the infinite sentinel; no stock and no demand is
// exactly zero.
func DaysOfCover(stock, dailyDemand float64) float64 {
	if dailyDemand > 0 {
		return stock / dailyDemand
	}
	if stock > 0 {
		return math.Inf(1)
	}
	return 0
}

// ReplenishmentNeeded returns the units required to reach the target
// days-of-cover, never negative.
func ReplenishmentNeeded(stock, dailyDemand, targetDays float64) int {
	return int(math.Max(0, math.Round(targetDays*dailyDemand-stock)))
}

// Planner combines routed demand and on-hand stock into per-location and
// fleet-wide stock-health reports.
type Planner struct {
	geo               *geo.Config
	defaultTargetDays float64
}

func NewPlanner(g *geo.Config, defaultTargetDays float64) *Planner {
	if defaultTargetDays <= 0 {
		defaultTargetDays = 30
	}
	return &Planner{geo: g, defaultTargetDays: defaultTargetDays}
}

// BuildReport computes stock status per (SKU, location) and fleet-wide.
// targetOverride, when positive, replaces every location's configured
// target. SKUs with neither stock nor demand at a location are excluded
// from that location's report; fleet rows exist for any SKU with stock or
// demand anywhere. Routed locations the snapshot does not list are reported
// with zero stock so their demand still counts toward the fleet.
//
// Fleet figures are computed by summing stock and demand first and applying
// the formulas once: days-of-cover is not additive across locations.
func (p *Planner) BuildReport(routed map[string]map[string]float64, snapshot *domain.StockSnapshot, windowDays int, targetOverride float64) *domain.StockReport {
	stockByLocation := snapshot.ByLocation()

	report := &domain.StockReport{
		WindowDays:  windowDays,
		GeneratedAt: time.Now().UTC(),
	}

	fleetStock := make(map[string]float64)
	fleetDemand := make(map[string]float64)

	known := make(map[string]bool, len(snapshot.Locations))
	for _, loc := range snapshot.Locations {
		known[loc.Name] = true
		target := p.targetFor(loc.Name, targetOverride)

		demand := routed[loc.Name]
		stock := stockByLocation[loc.Name]

		skus := make(map[string]bool, len(demand)+len(stock))
		for sku := range demand {
			skus[sku] = true
		}
		for sku := range stock {
			skus[sku] = true
		}

		items := make([]domain.SKUStockStatus, 0, len(skus))
		for sku := range skus {
			d := demand[sku]
			s := stock[sku]
			fleetStock[sku] += s
			fleetDemand[sku] += d

			if d == 0 && s == 0 {
				continue
			}
			items = append(items, p.statusRow(sku, loc.Name, s, d, target))
		}
		sortItems(items)

		report.Locations = append(report.Locations, domain.LocationReport{
			Location:   loc.Name,
			Group:      loc.Group,
			TargetDays: target,
			Items:      items,
		})
	}

	// The routing table and the snapshot come from independent sources, so
	// demand can target a location the sheet does not list yet. Report it
	// with zero stock rather than dropping it from the fleet totals.
	orphans := make([]string, 0)
	for location := range routed {
		if !known[location] {
			orphans = append(orphans, location)
		}
	}
	sort.Strings(orphans)
	for _, location := range orphans {
		log.Warn().Str("location", location).Msg("routed demand for location missing from stock snapshot")

		target := p.targetFor(location, targetOverride)
		items := make([]domain.SKUStockStatus, 0, len(routed[location]))
		for sku, d := range routed[location] {
			fleetDemand[sku] += d
			if _, ok := fleetStock[sku]; !ok {
				fleetStock[sku] = 0
			}
			if d == 0 {
				continue
			}
			items = append(items, p.statusRow(sku, location, 0, d, target))
		}
		sortItems(items)

		report.Locations = append(report.Locations, domain.LocationReport{
			Location:   location,
			TargetDays: target,
			Items:      items,
		})
	}

	fleetTarget := p.defaultTargetDays
	if targetOverride > 0 {
		fleetTarget = targetOverride
	}
	for sku, s := range fleetStock {
		d := fleetDemand[sku]
		if d == 0 && s == 0 {
			continue
		}
		report.Fleet = append(report.Fleet, p.statusRow(sku, "", s, d, fleetTarget))
	}
	sortItems(report.Fleet)

	return report
}

func (p *Planner) statusRow(sku, location string, stock, dailyDemand, targetDays float64) domain.SKUStockStatus {
	cover := DaysOfCover(stock, dailyDemand)
	return domain.SKUStockStatus{
		SKU:                 sku,
		Location:            location,
		DailyDemand:         dailyDemand,
		TotalStock:          stock,
		DaysOfCover:         domain.CoverDays(cover),
		Status:              domain.ClassifyCover(cover, targetDays),
		ReplenishmentNeeded: ReplenishmentNeeded(stock, dailyDemand, targetDays),
	}
}

func (p *Planner) targetFor(location string, override float64) float64 {
	if override > 0 {
		return override
	}
	return p.geo.TargetDaysFor(location, p.defaultTargetDays)
}

func sortItems(items []domain.SKUStockStatus) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].DaysOfCover != items[j].DaysOfCover {
			return items[i].DaysOfCover < items[j].DaysOfCover
		}
		return items[i].SKU < items[j].SKU
	})
}
