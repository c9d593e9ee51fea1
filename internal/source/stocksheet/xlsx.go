// internal/source/stocksheet/xlsx.go
package stocksheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSXSheet reads one sheet of a local XLSX export into rows of cells.
// It expects the same tab names and header rows as the live spreadsheet.
func readXLSXSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	name, err := resolveSheetName(f, sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
	}
	defer rows.Close()

	var values [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		values = append(values, record)
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}

	return values, nil
}

func resolveSheetName(f *excelize.File, sheet string) (string, error) {
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(name, sheet) {
			return name, nil
		}
	}
	return "", fmt.Errorf("xlsx export has no sheet named %q", sheet)
}
