// internal/source/stocksheet/service.go
package stocksheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/andresuchdata/demand-planner/internal/config"
	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/source"
)

// Service reads stock snapshots and country share tables from the planning
// spreadsheet. When an XLSX export path is configured it reads from disk
// instead of the Sheets API.
type Service struct {
	srv           *sheets.Service
	spreadsheetID string

	stockSheet     string
	locationsSheet string
	sharesSheet    string

	xlsxPath string
}

func NewService(cfg config.SourcesConfig) (*Service, error) {
	s := &Service{
		spreadsheetID:  cfg.SpreadsheetID,
		stockSheet:     cfg.StockSheet,
		locationsSheet: cfg.LocationsSheet,
		sharesSheet:    cfg.SharesSheet,
		xlsxPath:       cfg.StockXLSXPath,
	}

	if s.xlsxPath != "" {
		return s, nil
	}

	jwt, err := google.JWTConfigFromJSON(
		[]byte(cfg.SheetsCredentialsJSON),
		sheets.SpreadsheetsReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse sheets credentials: %w", err)
	}

	client := jwt.Client(context.Background())
	srv, err := sheets.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}

	s.srv = srv
	return s, nil
}

// FetchSnapshot returns the current per-SKU per-location stock snapshot,
// with locations partitioned into bulk storage and fulfillment.
func (s *Service) FetchSnapshot(ctx context.Context) (*domain.StockSnapshot, error) {
	locValues, err := s.readSheet(ctx, s.locationsSheet)
	if err != nil {
		return nil, err
	}
	locations, err := parseLocations(s.locationsSheet, locValues)
	if err != nil {
		return nil, err
	}

	stockValues, err := s.readSheet(ctx, s.stockSheet)
	if err != nil {
		return nil, err
	}
	rows, err := parseStock(s.stockSheet, stockValues, locations)
	if err != nil {
		return nil, err
	}

	return &domain.StockSnapshot{
		Locations: locations,
		Rows:      rows,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// FetchCountryShares returns the secondary per-SKU per-country share table
// used for sub-geography fallback allocation.
func (s *Service) FetchCountryShares(ctx context.Context) ([]domain.CountryShare, error) {
	values, err := s.readSheet(ctx, s.sharesSheet)
	if err != nil {
		return nil, err
	}
	return parseCountryShares(s.sharesSheet, values)
}

// SheetNames lists the configured tabs, for the sync service.
func (s *Service) SheetNames() []string {
	return []string{s.stockSheet, s.locationsSheet, s.sharesSheet}
}

func (s *Service) readSheet(ctx context.Context, sheet string) ([][]string, error) {
	if s.xlsxPath != "" {
		return readXLSXSheet(s.xlsxPath, sheet)
	}

	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", source.ErrUnavailable, sheet, err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(fmt.Sprint(cell))
		}
		values = append(values, cells)
	}
	return values, nil
}

func parseLocations(sheet string, values [][]string) ([]domain.LocationInfo, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", source.ErrUnavailable, sheet)
	}

	cols, err := requireColumns(sheet, values[0], "location", "group")
	if err != nil {
		return nil, err
	}

	var locations []domain.LocationInfo
	for _, row := range values[1:] {
		name := cell(row, cols["location"])
		if name == "" {
			continue
		}
		group := domain.LocationGroup(strings.ToLower(cell(row, cols["group"])))
		if group != domain.GroupBulk && group != domain.GroupFulfillment {
			return nil, fmt.Errorf("location %s has unknown group %q", name, group)
		}
		locations = append(locations, domain.LocationInfo{Name: name, Group: group})
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("sheet %q lists no locations", sheet)
	}
	return locations, nil
}

// parseStock reads the wide stock table: a SKU column followed by one
// quantity column per location. Every location column must be declared on
// the locations tab.
func parseStock(sheet string, values [][]string, locations []domain.LocationInfo) ([]domain.LocationStock, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", source.ErrUnavailable, sheet)
	}

	header := values[0]
	if _, err := requireColumns(sheet, header, "sku"); err != nil {
		return nil, err
	}

	known := make(map[string]string, len(locations))
	for _, loc := range locations {
		known[normalizeColumnName(loc.Name)] = loc.Name
	}

	skuIdx := -1
	locByCol := make(map[int]string)
	for i, h := range header {
		key := normalizeColumnName(h)
		if key == "sku" {
			if skuIdx == -1 {
				skuIdx = i
			}
			continue
		}
		name, ok := known[key]
		if !ok {
			return nil, fmt.Errorf("sheet %q has column %q not declared on the locations tab", sheet, h)
		}
		locByCol[i] = name
	}

	var rows []domain.LocationStock
	for _, row := range values[1:] {
		sku := cell(row, skuIdx)
		if sku == "" {
			continue
		}
		for col, loc := range locByCol {
			qty := parseQuantity(cell(row, col))
			if qty == 0 {
				continue
			}
			rows = append(rows, domain.LocationStock{SKU: sku, Location: loc, Quantity: qty})
		}
	}

	return rows, nil
}

func parseCountryShares(sheet string, values [][]string) ([]domain.CountryShare, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", source.ErrUnavailable, sheet)
	}

	cols, err := requireColumns(sheet, values[0], "sku", "country", "units")
	if err != nil {
		return nil, err
	}

	var shares []domain.CountryShare
	for _, row := range values[1:] {
		sku := cell(row, cols["sku"])
		country := cell(row, cols["country"])
		if sku == "" || country == "" {
			continue
		}
		shares = append(shares, domain.CountryShare{
			SKU:     sku,
			Country: country,
			Units:   parseQuantity(cell(row, cols["units"])),
		})
	}

	return shares, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseQuantity(v string) float64 {
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
