// internal/geo/geo.go
package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ChannelCountry identifies one demand stream.
type ChannelCountry struct {
	Channel string `json:"channel"`
	Country string `json:"country"`
}

// Route maps a stock location to the demand streams it serves. A wildcard
// route receives all demand, unfiltered by channel and country.
type Route struct {
	Location   string           `json:"location"`
	Wildcard   bool             `json:"wildcard,omitempty"`
	Serves     []ChannelCountry `json:"serves,omitempty"`
	TargetDays float64          `json:"target_days,omitempty"`
}

// SubRegion declares a country bucket that the analytics source folds into a
// larger reported bucket. Demand for it is recovered by proportional split.
type SubRegion struct {
	Bucket string `json:"bucket"`
	Parent string `json:"parent"`
}

// Config is the versioned geography and routing table, loaded once at
// startup and validated for completeness.
type Config struct {
	Version           int         `json:"version"`
	Countries         []string    `json:"countries"`
	AggregateBucket   string      `json:"aggregate_bucket"`
	NoGeoChannels     []string    `json:"no_geo_channels"`
	RingBasisChannels []string    `json:"ring_basis_channels"`
	SubRegions        []SubRegion `json:"sub_regions"`
	Routes            []Route     `json:"routes"`
}

// Load reads and validates a routing config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse routes config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routes config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the table for completeness so a broken config fails at
// startup instead of producing silently empty reports.
func (c *Config) Validate() error {
	if c.Version <= 0 {
		return fmt.Errorf("version must be positive, got %d", c.Version)
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("no routes defined")
	}

	known := make(map[string]bool, len(c.Countries)+1)
	for _, b := range c.Countries {
		known[norm(b)] = true
	}
	for _, sr := range c.SubRegions {
		if !known[norm(sr.Parent)] {
			return fmt.Errorf("sub-region %s references unknown parent bucket %s", sr.Bucket, sr.Parent)
		}
		known[norm(sr.Bucket)] = true
	}
	if c.AggregateBucket != "" {
		known[norm(c.AggregateBucket)] = true
	}

	seen := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		if r.Location == "" {
			return fmt.Errorf("route with empty location")
		}
		if seen[norm(r.Location)] {
			return fmt.Errorf("duplicate route for location %s", r.Location)
		}
		seen[norm(r.Location)] = true

		if r.Wildcard {
			if len(r.Serves) > 0 {
				return fmt.Errorf("wildcard route %s must not list served pairs", r.Location)
			}
			continue
		}
		if len(r.Serves) == 0 {
			return fmt.Errorf("route %s serves nothing and is not a wildcard", r.Location)
		}
		for _, cc := range r.Serves {
			if cc.Channel == "" {
				return fmt.Errorf("route %s has a pair with empty channel", r.Location)
			}
			if c.IsNoGeoChannel(cc.Channel) {
				continue
			}
			if !known[norm(cc.Country)] {
				return fmt.Errorf("route %s references unknown country bucket %s", r.Location, cc.Country)
			}
		}
	}

	return nil
}

// IsNoGeoChannel reports whether a channel has no geographic scope.
func (c *Config) IsNoGeoChannel(channel string) bool {
	for _, ch := range c.NoGeoChannels {
		if strings.EqualFold(ch, channel) {
			return true
		}
	}
	return false
}

// HasRingBasis reports whether a channel partitions its demand rows by ring
// basis (e.g. activated vs shipped).
func (c *Config) HasRingBasis(channel string) bool {
	for _, ch := range c.RingBasisChannels {
		if strings.EqualFold(ch, channel) {
			return true
		}
	}
	return false
}

// IsAggregateBucket reports whether the bucket is the designated
// "everything not enumerated elsewhere" bucket.
func (c *Config) IsAggregateBucket(bucket string) bool {
	return c.AggregateBucket != "" && strings.EqualFold(c.AggregateBucket, bucket)
}

// IsEnumerated reports whether the country is explicitly enumerated, either
// directly or as a declared sub-region.
func (c *Config) IsEnumerated(country string) bool {
	for _, b := range c.Countries {
		if strings.EqualFold(b, country) {
			return true
		}
	}
	for _, sr := range c.SubRegions {
		if strings.EqualFold(sr.Bucket, country) {
			return true
		}
	}
	return false
}

// ParentOf returns the larger reported bucket a sub-region belongs to.
func (c *Config) ParentOf(bucket string) (string, bool) {
	for _, sr := range c.SubRegions {
		if strings.EqualFold(sr.Bucket, bucket) {
			return sr.Parent, true
		}
	}
	return "", false
}

// SubRegionsOf returns all declared sub-regions of a parent bucket.
func (c *Config) SubRegionsOf(parent string) []string {
	var out []string
	for _, sr := range c.SubRegions {
		if strings.EqualFold(sr.Parent, parent) {
			out = append(out, sr.Bucket)
		}
	}
	return out
}

// RouteFor returns the route configured for a location.
func (c *Config) RouteFor(location string) (Route, bool) {
	for _, r := range c.Routes {
		if strings.EqualFold(r.Location, location) {
			return r, true
		}
	}
	return Route{}, false
}

// TargetDaysFor returns the location's configured target days-of-cover,
// falling back to the given default.
func (c *Config) TargetDaysFor(location string, def float64) float64 {
	if r, ok := c.RouteFor(location); ok && r.TargetDays > 0 {
		return r.TargetDays
	}
	if def > 0 {
		return def
	}
	return 30
}

// ServingLocations returns the non-wildcard locations whose routes list the
// given (channel, country) pair.
func (c *Config) ServingLocations(pair ChannelCountry) []string {
	var out []string
	for _, r := range c.Routes {
		if r.Wildcard {
			continue
		}
		for _, cc := range r.Serves {
			if strings.EqualFold(cc.Channel, pair.Channel) && strings.EqualFold(cc.Country, pair.Country) {
				out = append(out, r.Location)
				break
			}
		}
	}
	return out
}

// Scopes returns every distinct (channel, country) pair the routing table
// serves, for populating dashboard pickers.
func (c *Config) Scopes() []ChannelCountry {
	seen := make(map[string]bool)
	var out []ChannelCountry
	for _, r := range c.Routes {
		for _, cc := range r.Serves {
			key := norm(cc.Channel) + "|" + norm(cc.Country)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, cc)
		}
	}
	return out
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
