package routing

import (
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
)

var now = time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)

func testGeo() *geo.Config {
	return &geo.Config{
		Version:       1,
		Countries:     []string{"DE", "FR"},
		NoGeoChannels: []string{"b2b"},
		Routes: []geo.Route{
			{Location: "central-warehouse", Wildcard: true, TargetDays: 60},
			{Location: "leipzig-fc", Serves: []geo.ChannelCountry{{Channel: "marketplace", Country: "DE"}}},
			{Location: "wroclaw-fc", Serves: []geo.ChannelCountry{{Channel: "marketplace", Country: "DE"}}},
			{Location: "lyon-fc", Serves: []geo.ChannelCountry{{Channel: "marketplace", Country: "FR"}}},
			{Location: "export-hub", Serves: []geo.ChannelCountry{{Channel: "b2b", Country: ""}}},
		},
	}
}

func snapshot(rows ...domain.LocationStock) *domain.StockSnapshot {
	return &domain.StockSnapshot{
		Locations: []domain.LocationInfo{
			{Name: "central-warehouse", Group: domain.GroupBulk},
			{Name: "leipzig-fc", Group: domain.GroupFulfillment},
			{Name: "wroclaw-fc", Group: domain.GroupFulfillment},
			{Name: "lyon-fc", Group: domain.GroupFulfillment},
			{Name: "export-hub", Group: domain.GroupFulfillment},
		},
		Rows:      rows,
		FetchedAt: now,
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.001 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestRouteSingleServingLocation(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "FR", Units: 90, ObservedDate: now.AddDate(0, 0, -5)},
	}, snapshot(), now)

	approx(t, "lyon-fc SKU-A", routed["lyon-fc"]["SKU-A"], 3)
}

func TestRouteSharedPairSplitsByStockShare(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "DE", Units: 300, ObservedDate: now.AddDate(0, 0, -10)},
	}, snapshot(
		domain.LocationStock{SKU: "SKU-A", Location: "leipzig-fc", Quantity: 30},
		domain.LocationStock{SKU: "SKU-A", Location: "wroclaw-fc", Quantity: 70},
	), now)

	// 10 units/day split 30:70 by on-hand stock.
	approx(t, "leipzig-fc SKU-A", routed["leipzig-fc"]["SKU-A"], 3)
	approx(t, "wroclaw-fc SKU-A", routed["wroclaw-fc"]["SKU-A"], 7)
}

func TestRouteSharedPairEvenSplitWithoutStock(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "DE", Units: 300, ObservedDate: now.AddDate(0, 0, -10)},
	}, snapshot(), now)

	approx(t, "leipzig-fc SKU-A", routed["leipzig-fc"]["SKU-A"], 5)
	approx(t, "wroclaw-fc SKU-A", routed["wroclaw-fc"]["SKU-A"], 5)
}

func TestRouteWildcardReceivesEverything(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "DE", Units: 150, ObservedDate: now.AddDate(0, 0, -3)},
		{SKU: "SKU-A", Channel: "marketplace", Country: "FR", Units: 90, ObservedDate: now.AddDate(0, 0, -4)},
		{SKU: "SKU-A", Channel: "b2b", Country: "", Units: 60, ObservedDate: now.AddDate(0, 0, -5)},
	}, snapshot(), now)

	// The wildcard location sees the full run rate across all streams.
	approx(t, "central-warehouse SKU-A", routed["central-warehouse"]["SKU-A"], 10)
}

func TestRouteNoGeoChannelIgnoresCountry(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	// b2b rows carry whatever country the exporter attached; routing
	// treats the channel as a single stream.
	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "b2b", Country: "DE", Units: 30, ObservedDate: now.AddDate(0, 0, -3)},
		{SKU: "SKU-A", Channel: "b2b", Country: "JP", Units: 30, ObservedDate: now.AddDate(0, 0, -4)},
	}, snapshot(), now)

	approx(t, "export-hub SKU-A", routed["export-hub"]["SKU-A"], 2)
}

func TestRouteExcludesObservationsOutsideWindow(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "FR", Units: 90, ObservedDate: now.AddDate(0, 0, -40)},
		{SKU: "SKU-A", Channel: "marketplace", Country: "FR", Units: 30, ObservedDate: now.AddDate(0, 0, -1)},
	}, snapshot(), now)

	approx(t, "lyon-fc SKU-A", routed["lyon-fc"]["SKU-A"], 1)
}

func TestRouteWindowSpansExactlyWindowDaysDates(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	// A 30-day window ending today reaches back 29 days, not 30: with a
	// midnight-aligned now, the 30-days-ago date falls outside.
	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "FR", Units: 90, ObservedDate: now.AddDate(0, 0, -30)},
		{SKU: "SKU-A", Channel: "marketplace", Country: "FR", Units: 60, ObservedDate: now.AddDate(0, 0, -29)},
	}, snapshot(), now)

	approx(t, "lyon-fc SKU-A", routed["lyon-fc"]["SKU-A"], 2)
}

func TestRouteUnmappedPairReachesOnlyWildcard(t *testing.T) {
	router := NewRouter(testGeo(), 30)

	routed := router.Route([]domain.DemandObservation{
		{SKU: "SKU-A", Channel: "retail", Country: "US", Units: 30, ObservedDate: now.AddDate(0, 0, -2)},
	}, snapshot(), now)

	approx(t, "central-warehouse SKU-A", routed["central-warehouse"]["SKU-A"], 1)
	for loc := range routed {
		if loc != "central-warehouse" {
			t.Errorf("unexpected routed location %s", loc)
		}
	}
}
