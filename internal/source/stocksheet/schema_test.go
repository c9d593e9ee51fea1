package stocksheet

import (
	"errors"
	"testing"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SKU", "sku"},
		{" Location Name ", "locationname"},
		{"forecast_units", "forecastunits"},
		{"Days-of-Cover", "daysofcover"},
		{"Units/Day", "unitsday"},
	}
	for _, tt := range tests {
		if got := normalizeColumnName(tt.in); got != tt.want {
			t.Errorf("normalizeColumnName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRequireColumns(t *testing.T) {
	header := []string{"SKU", "Location Name", "Quantity"}

	resolved, err := requireColumns("Stock", header, "sku", "location_name", "quantity")
	if err != nil {
		t.Fatalf("requireColumns() = %v, want nil", err)
	}
	if resolved["sku"] != 0 || resolved["location_name"] != 1 || resolved["quantity"] != 2 {
		t.Errorf("unexpected column indexes: %v", resolved)
	}
}

func TestRequireColumnsMissing(t *testing.T) {
	header := []string{"SKU"}

	_, err := requireColumns("Stock", header, "sku", "quantity", "country")

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}
	if schemaErr.Sheet != "Stock" {
		t.Errorf("Sheet = %q, want Stock", schemaErr.Sheet)
	}
	if len(schemaErr.Missing) != 2 {
		t.Errorf("Missing = %v, want quantity and country", schemaErr.Missing)
	}
}
