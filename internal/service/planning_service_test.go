package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/geo"
	"github.com/andresuchdata/demand-planner/internal/planning/baseline"
	"github.com/andresuchdata/demand-planner/internal/storage"
)

type fakeDemandSource struct {
	rows  []domain.DemandObservation
	calls int
}

func (f *fakeDemandSource) FetchRange(ctx context.Context, start, end time.Time) ([]domain.DemandObservation, error) {
	f.calls++
	return f.rows, nil
}

type fakeStockSource struct {
	snapshot *domain.StockSnapshot
	shares   []domain.CountryShare
}

func (f *fakeStockSource) FetchSnapshot(ctx context.Context) (*domain.StockSnapshot, error) {
	return f.snapshot, nil
}

func (f *fakeStockSource) FetchCountryShares(ctx context.Context) ([]domain.CountryShare, error) {
	return f.shares, nil
}

type fakeForecastRepo struct {
	configs      []domain.ForecastMonthConfig
	materialized map[string][]domain.MaterializedForecast
}

func scopeKey(channel, country string) string { return channel + "|" + country }

func (f *fakeForecastRepo) GetForecastConfigs(ctx context.Context, channel, country string) ([]domain.ForecastMonthConfig, error) {
	var out []domain.ForecastMonthConfig
	for _, c := range f.configs {
		if c.Channel == channel && c.Country == country {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeForecastRepo) SaveForecastConfigs(ctx context.Context, configs []domain.ForecastMonthConfig) error {
	f.configs = append(f.configs, configs...)
	return nil
}

func (f *fakeForecastRepo) ReplaceMaterializedForecasts(ctx context.Context, channel, country string, rows []domain.MaterializedForecast) error {
	if f.materialized == nil {
		f.materialized = make(map[string][]domain.MaterializedForecast)
	}
	f.materialized[scopeKey(channel, country)] = rows
	return nil
}

func (f *fakeForecastRepo) GetMaterializedForecasts(ctx context.Context, channel, country string) ([]domain.MaterializedForecast, error) {
	return f.materialized[scopeKey(channel, country)], nil
}

type fakeWeightRepo struct {
	weights map[string][]domain.SKUWeight
}

func (f *fakeWeightRepo) GetSKUWeights(ctx context.Context, channel, country string) ([]domain.SKUWeight, error) {
	return f.weights[scopeKey(channel, country)], nil
}

func (f *fakeWeightRepo) SaveSKUWeights(ctx context.Context, channel, country string, weights []domain.SKUWeight) error {
	if f.weights == nil {
		f.weights = make(map[string][]domain.SKUWeight)
	}
	f.weights[scopeKey(channel, country)] = weights
	return nil
}

type captureArchive struct {
	keys     []string
	payloads [][]byte
}

func (c *captureArchive) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (c *captureArchive) UploadObject(ctx context.Context, key string, data []byte) error {
	c.keys = append(c.keys, key)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *captureArchive) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func testGeo() *geo.Config {
	return &geo.Config{
		Version:   1,
		Countries: []string{"DE"},
		Routes: []geo.Route{
			{Location: "central", Wildcard: true},
			{Location: "leipzig-fc", Serves: []geo.ChannelCountry{{Channel: "marketplace", Country: "DE"}}},
		},
	}
}

func newTestService(t *testing.T, forecasts *fakeForecastRepo, weightRepo *fakeWeightRepo) (*PlanningService, *captureArchive) {
	t.Helper()
	archive := &captureArchive{}
	svc := NewPlanningService(
		&fakeDemandSource{},
		&fakeStockSource{snapshot: &domain.StockSnapshot{}},
		nil,
		nil,
		forecasts,
		weightRepo,
		testGeo(),
		archive,
		config.PlanningConfig{TrailingWindowDays: 30, DefaultTargetDays: 30},
	)
	return svc, archive
}

func monthsFor(channel, country string, n int) []domain.ForecastMonthConfig {
	first := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.ForecastMonthConfig, n)
	for i := range out {
		out[i] = domain.ForecastMonthConfig{
			Channel:            channel,
			Country:            country,
			ForecastMonth:      first.AddDate(0, i, 0),
			BaselineDRR:        10,
			DistributionMethod: domain.DistributionHistorical,
		}
	}
	return out
}

func TestSaveForecastConfigsValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeForecastRepo{}, &fakeWeightRepo{})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func([]domain.ForecastMonthConfig) []domain.ForecastMonthConfig
		wantErr string
	}{
		{"eleven months", func(c []domain.ForecastMonthConfig) []domain.ForecastMonthConfig {
			return c[:11]
		}, "expected 12"},
		{"gapped months", func(c []domain.ForecastMonthConfig) []domain.ForecastMonthConfig {
			c[5].ForecastMonth = c[5].ForecastMonth.AddDate(0, 1, 0)
			return c
		}, "consecutive"},
		{"mid-month date", func(c []domain.ForecastMonthConfig) []domain.ForecastMonthConfig {
			c[0].ForecastMonth = c[0].ForecastMonth.AddDate(0, 0, 14)
			return c
		}, "first-of-month"},
		{"mixed scopes", func(c []domain.ForecastMonthConfig) []domain.ForecastMonthConfig {
			c[3].Country = "FR"
			return c
		}, "same scope"},
		{"negative DRR", func(c []domain.ForecastMonthConfig) []domain.ForecastMonthConfig {
			c[0].BaselineDRR = -1
			return c
		}, "negative"},
		{"unknown method", func(c []domain.ForecastMonthConfig) []domain.ForecastMonthConfig {
			c[0].DistributionMethod = "magic"
			return c
		}, "distribution method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configs := tt.mutate(monthsFor("marketplace", "DE", 12))
			err := svc.SaveForecastConfigs(ctx, configs)
			if err == nil {
				t.Fatal("SaveForecastConfigs() = nil, want error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("error %v is not ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if err := svc.SaveForecastConfigs(ctx, monthsFor("marketplace", "DE", 12)); err != nil {
		t.Fatalf("valid configs rejected: %v", err)
	}
}

func TestSaveSKUWeightsValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeForecastRepo{}, &fakeWeightRepo{})
	ctx := context.Background()

	manual := 120.0
	if err := svc.SaveSKUWeights(ctx, "marketplace", "DE", []domain.SKUWeight{
		{SKU: "SKU-A", ManualWeightPct: &manual, IsOverride: true},
	}); err != nil {
		t.Errorf("weights above 100 must be accepted, got %v", err)
	}

	err := svc.SaveSKUWeights(ctx, "marketplace", "DE", []domain.SKUWeight{
		{SKU: "SKU-A", IsOverride: true},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("override without manual weight: err = %v, want ErrValidation", err)
	}

	err = svc.SaveSKUWeights(ctx, "marketplace", "DE", []domain.SKUWeight{
		{SKU: "SKU-A", AutoWeightPct: 50},
		{SKU: "SKU-A", AutoWeightPct: 50},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate sku: err = %v, want ErrValidation", err)
	}
}

func TestGetForecastAllocatesSKUTable(t *testing.T) {
	forecasts := &fakeForecastRepo{configs: monthsFor("marketplace", "DE", 12)}
	weightsRepo := &fakeWeightRepo{weights: map[string][]domain.SKUWeight{
		scopeKey("marketplace", "DE"): {
			{SKU: "SKU-A", AutoWeightPct: 60},
			{SKU: "SKU-B", AutoWeightPct: 40},
		},
	}}
	svc, _ := newTestService(t, forecasts, weightsRepo)

	view, err := svc.GetForecast(context.Background(), "marketplace", "DE")
	if err != nil {
		t.Fatal(err)
	}

	if len(view.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(view.Months))
	}
	if len(view.SKUTable) != 24 {
		t.Fatalf("sku table rows = %d, want 24", len(view.SKUTable))
	}
	if view.Overallocated {
		t.Error("Overallocated = true, want false")
	}

	// January 2027: DRR 10 over 31 days, no lift or growth -> 310 units,
	// split 60/40.
	jan := view.Months[0]
	if jan.FinalUnits != 310 {
		t.Fatalf("january final = %d, want 310", jan.FinalUnits)
	}
	for _, row := range view.SKUTable[:2] {
		switch row.SKU {
		case "SKU-A":
			if row.Units != 186 {
				t.Errorf("SKU-A january units = %d, want 186", row.Units)
			}
		case "SKU-B":
			if row.Units != 124 {
				t.Errorf("SKU-B january units = %d, want 124", row.Units)
			}
		}
	}
}

func TestGenerateForecastsMaterializesAndArchives(t *testing.T) {
	forecasts := &fakeForecastRepo{configs: monthsFor("marketplace", "DE", 12)}
	weightsRepo := &fakeWeightRepo{weights: map[string][]domain.SKUWeight{
		scopeKey("marketplace", "DE"): {{SKU: "SKU-A", AutoWeightPct: 100}},
	}}
	svc, archive := newTestService(t, forecasts, weightsRepo)

	if _, err := svc.GenerateForecasts(context.Background(), "marketplace", "DE"); err != nil {
		t.Fatal(err)
	}

	rows := forecasts.materialized[scopeKey("marketplace", "DE")]
	if len(rows) != 12 {
		t.Fatalf("materialized rows = %d, want 12", len(rows))
	}
	if rows[0].SKU != "SKU-A" || rows[0].ForecastUnits != 310 {
		t.Errorf("first row = %+v, want SKU-A with 310 units", rows[0])
	}

	if len(archive.keys) != 1 {
		t.Fatalf("archived objects = %d, want 1", len(archive.keys))
	}
	if !strings.HasPrefix(archive.keys[0], "forecasts/marketplace/DE/") {
		t.Errorf("archive key = %s, want forecasts/marketplace/DE/ prefix", archive.keys[0])
	}
	if !strings.Contains(string(archive.payloads[0]), "SKU-A") {
		t.Error("archived CSV does not mention SKU-A")
	}
}

func TestGenerateForecastsReplacesPreviousRows(t *testing.T) {
	forecasts := &fakeForecastRepo{
		configs: monthsFor("marketplace", "DE", 12),
		materialized: map[string][]domain.MaterializedForecast{
			scopeKey("marketplace", "DE"): {
				{SKU: "OLD-SKU", Channel: "marketplace", Country: "DE", ForecastUnits: 999},
			},
		},
	}
	weightsRepo := &fakeWeightRepo{weights: map[string][]domain.SKUWeight{
		scopeKey("marketplace", "DE"): {{SKU: "SKU-A", AutoWeightPct: 100}},
	}}
	svc, _ := newTestService(t, forecasts, weightsRepo)

	if _, err := svc.GenerateForecasts(context.Background(), "marketplace", "DE"); err != nil {
		t.Fatal(err)
	}

	for _, row := range forecasts.materialized[scopeKey("marketplace", "DE")] {
		if row.SKU == "OLD-SKU" {
			t.Fatal("stale materialized rows survived the replace")
		}
	}
}

func TestGetBaselineFansOut(t *testing.T) {
	demand := &fakeDemandSource{rows: []domain.DemandObservation{
		{SKU: "SKU-A", Channel: "marketplace", Country: "DE", Units: 150, ObservedDate: time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)},
	}}
	svc := NewPlanningService(
		demand,
		&fakeStockSource{},
		nil,
		nil,
		&fakeForecastRepo{},
		&fakeWeightRepo{},
		testGeo(),
		nil,
		config.PlanningConfig{TrailingWindowDays: 30},
	)

	base, err := svc.GetBaseline(context.Background(), baseline.Query{
		Channel: "marketplace",
		Country: "DE",
		Start:   time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if base.Days != 15 {
		t.Errorf("Days = %d, want 15", base.Days)
	}
	if base.DailyRunRate != 10 {
		t.Errorf("DailyRunRate = %v, want 10", base.DailyRunRate)
	}
	if demand.calls != 1 {
		t.Errorf("demand source calls = %d, want 1", demand.calls)
	}

	if _, err := svc.GetBaseline(context.Background(), baseline.Query{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty query: err = %v, want ErrValidation", err)
	}
}
