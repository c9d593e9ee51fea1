package demand

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/source"
)

func TestFetchRange(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"start_date": r.URL.Query().Get("start_date"),
			"end_date":   r.URL.Query().Get("end_date"),
			"mode":       r.URL.Query().Get("mode"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows": [
			{"sku": "SKU-A", "channel": "marketplace", "country": "DE", "units": 12.5, "date": "2026-08-01"},
			{"sku": "SKU-B", "channel": "subscription", "country": "FR", "ring_basis": "activated", "units": 3, "date": "2026-08-02"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(config.SourcesConfig{
		DemandBaseURL: srv.URL,
		DemandAPIKey:  "secret",
	})

	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	rows, err := client.FetchRange(context.Background(), start, end)
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/v1/shipments" {
		t.Errorf("path = %s, want /v1/shipments", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q, want Bearer secret", gotAuth)
	}
	if gotQuery["start_date"] != "2026-08-01" || gotQuery["end_date"] != "2026-08-15" || gotQuery["mode"] != "export" {
		t.Errorf("query = %v", gotQuery)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].SKU != "SKU-A" || rows[0].Units != 12.5 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].RingBasis != "activated" {
		t.Errorf("row 1 ring basis = %q, want activated", rows[1].RingBasis)
	}
	if !rows[0].ObservedDate.Equal(start) {
		t.Errorf("row 0 date = %s, want %s", rows[0].ObservedDate, start)
	}
}

func TestFetchRangeUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.SourcesConfig{DemandBaseURL: srv.URL})

	_, err := client.FetchRange(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("err = %v, want wrapped source.ErrUnavailable", err)
	}
}

func TestFetchRangeMalformedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows": [{"sku": "SKU-A", "channel": "marketplace", "units": 1, "date": "01/08/2026"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.SourcesConfig{DemandBaseURL: srv.URL})

	_, err := client.FetchRange(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("err = %v, want wrapped source.ErrUnavailable", err)
	}
}
