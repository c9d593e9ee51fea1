// internal/planning/routing/router.go
package routing

import (
	"strings"
	"time"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
)

// Router maps demand streams onto the stock locations that serve them,
// using a fixed trailing observation window.
type Router struct {
	geo        *geo.Config
	windowDays int
}

func NewRouter(g *geo.Config, windowDays int) *Router {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Router{geo: g, windowDays: windowDays}
}

// WindowDays returns the trailing window length used for routed run rates.
func (r *Router) WindowDays() int {
	return r.windowDays
}

// Route aggregates the trailing window of observations and distributes the
// resulting run rates across locations: wildcard locations receive the
// total run rate of every stream, explicit routes receive their listed
// (channel, country) pairs, and pairs served by several locations are split
// in proportion to each location's current stock share.
func (r *Router) Route(observations []domain.DemandObservation, snapshot *domain.StockSnapshot, now time.Time) map[string]map[string]float64 {
	// Trailing window covers windowDays distinct dates ending today, so the
	// cutoff is windowDays-1 back, aligned to start of day.
	cutoff := now.AddDate(0, 0, -(r.windowDays - 1))
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	// pair -> sku -> units over the trailing window
	pairUnits := make(map[geo.ChannelCountry]map[string]float64)
	totalUnits := make(map[string]float64)
	for _, obs := range observations {
		if obs.ObservedDate.Before(cutoff) || obs.ObservedDate.After(now) {
			continue
		}
		pair := geo.ChannelCountry{
			Channel: strings.ToLower(obs.Channel),
			Country: strings.ToUpper(obs.Country),
		}
		if r.geo.IsNoGeoChannel(obs.Channel) {
			pair.Country = ""
		}
		m, ok := pairUnits[pair]
		if !ok {
			m = make(map[string]float64)
			pairUnits[pair] = m
		}
		m[obs.SKU] += obs.Units
		totalUnits[obs.SKU] += obs.Units
	}

	window := float64(r.windowDays)
	routed := make(map[string]map[string]float64)
	add := func(location, sku string, daily float64) {
		if daily == 0 {
			return
		}
		m, ok := routed[location]
		if !ok {
			m = make(map[string]float64)
			routed[location] = m
		}
		m[sku] += daily
	}

	for _, route := range r.geo.Routes {
		if !route.Wildcard {
			continue
		}
		for sku, units := range totalUnits {
			add(route.Location, sku, units/window)
		}
	}

	for pair, skuUnits := range pairUnits {
		serving := r.geo.ServingLocations(pair)
		if len(serving) == 0 {
			continue
		}

		for sku, units := range skuUnits {
			daily := units / window
			if len(serving) == 1 {
				add(serving[0], sku, daily)
				continue
			}

			// Shared pair: stock share is the only available signal for
			// how the business balances these locations.
			shares := stockShares(snapshot, sku, serving)
			for i, location := range serving {
				add(location, sku, daily*shares[i])
			}
		}
	}

	return routed
}

// stockShares returns each location's fraction of the combined on-hand
// stock for the SKU. With no stock anywhere, the split is even.
func stockShares(snapshot *domain.StockSnapshot, sku string, locations []string) []float64 {
	quantities := make([]float64, len(locations))
	var total float64
	for i, location := range locations {
		quantities[i] = snapshot.QuantityFor(sku, location)
		total += quantities[i]
	}

	shares := make([]float64, len(locations))
	if total <= 0 {
		even := 1 / float64(len(locations))
		for i := range shares {
			shares[i] = even
		}
		return shares
	}

	for i := range shares {
		shares[i] = quantities[i] / total
	}
	return shares
}
