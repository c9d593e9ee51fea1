package geo

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Version:         3,
		Countries:       []string{"DE", "FR"},
		AggregateBucket: "ROW",
		NoGeoChannels:   []string{"b2b"},
		SubRegions: []SubRegion{
			{Bucket: "AT", Parent: "DE"},
		},
		Routes: []Route{
			{Location: "central-warehouse", Wildcard: true, TargetDays: 60},
			{Location: "leipzig-fc", Serves: []ChannelCountry{{Channel: "marketplace", Country: "DE"}}},
			{Location: "wroclaw-fc", Serves: []ChannelCountry{{Channel: "marketplace", Country: "DE"}}},
			{Location: "export-hub", Serves: []ChannelCountry{{Channel: "b2b", Country: ""}, {Channel: "marketplace", Country: "ROW"}}},
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero version", func(c *Config) { c.Version = 0 }},
		{"no routes", func(c *Config) { c.Routes = nil }},
		{"duplicate location", func(c *Config) {
			c.Routes = append(c.Routes, Route{Location: "LEIPZIG-FC", Serves: []ChannelCountry{{Channel: "marketplace", Country: "FR"}}})
		}},
		{"wildcard with served pairs", func(c *Config) {
			c.Routes[0].Serves = []ChannelCountry{{Channel: "marketplace", Country: "DE"}}
		}},
		{"route serving nothing", func(c *Config) {
			c.Routes[1].Serves = nil
		}},
		{"unknown country bucket", func(c *Config) {
			c.Routes[1].Serves = []ChannelCountry{{Channel: "marketplace", Country: "XX"}}
		}},
		{"pair with empty channel", func(c *Config) {
			c.Routes[1].Serves = []ChannelCountry{{Channel: "", Country: "DE"}}
		}},
		{"sub-region with unknown parent", func(c *Config) {
			c.SubRegions = []SubRegion{{Bucket: "AT", Parent: "XX"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestNoGeoPairSkipsCountryCheck(t *testing.T) {
	cfg := validConfig()
	// b2b has no geographic scope, so its route pair may name any country.
	cfg.Routes[3].Serves = []ChannelCountry{{Channel: "b2b", Country: "whatever"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.json")
	payload := `{
		"version": 1,
		"countries": ["DE"],
		"routes": [
			{"location": "central", "wildcard": true}
		]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Version != 1 || len(cfg.Routes) != 1 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load(missing) = nil, want error")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"version": 0, "routes": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load(invalid) = nil, want error")
	}
}

func TestTargetDaysFor(t *testing.T) {
	cfg := validConfig()

	if got := cfg.TargetDaysFor("central-warehouse", 30); got != 60 {
		t.Errorf("configured target = %v, want 60", got)
	}
	if got := cfg.TargetDaysFor("leipzig-fc", 45); got != 45 {
		t.Errorf("default target = %v, want 45", got)
	}
	if got := cfg.TargetDaysFor("unknown", 0); got != 30 {
		t.Errorf("fallback target = %v, want 30", got)
	}
}

func TestServingLocations(t *testing.T) {
	cfg := validConfig()

	got := cfg.ServingLocations(ChannelCountry{Channel: "marketplace", Country: "DE"})
	if len(got) != 2 {
		t.Fatalf("serving locations = %v, want leipzig-fc and wroclaw-fc", got)
	}

	// Wildcards never appear in pair lookups.
	for _, loc := range got {
		if loc == "central-warehouse" {
			t.Error("wildcard location returned from ServingLocations")
		}
	}

	if got := cfg.ServingLocations(ChannelCountry{Channel: "retail", Country: "US"}); len(got) != 0 {
		t.Errorf("unmapped pair = %v, want empty", got)
	}
}

func TestScopesDeduplicates(t *testing.T) {
	cfg := validConfig()

	scopes := cfg.Scopes()
	// marketplace/DE is served twice but listed once.
	want := 3
	if len(scopes) != want {
		t.Errorf("scopes = %v (%d), want %d distinct pairs", scopes, len(scopes), want)
	}
}

func TestSubRegionHelpers(t *testing.T) {
	cfg := validConfig()

	if parent, ok := cfg.ParentOf("at"); !ok || parent != "DE" {
		t.Errorf("ParentOf(at) = %q, %v; want DE, true", parent, ok)
	}
	if _, ok := cfg.ParentOf("FR"); ok {
		t.Error("ParentOf(FR) = true, want false")
	}
	if subs := cfg.SubRegionsOf("DE"); len(subs) != 1 || subs[0] != "AT" {
		t.Errorf("SubRegionsOf(DE) = %v, want [AT]", subs)
	}

	if !cfg.IsEnumerated("AT") || !cfg.IsEnumerated("de") {
		t.Error("AT and DE should be enumerated")
	}
	if cfg.IsEnumerated("BR") {
		t.Error("BR should not be enumerated")
	}
	if !cfg.IsAggregateBucket("row") {
		t.Error("row should match the aggregate bucket case-insensitively")
	}
}
