// internal/source/stocksheet/schema.go
package stocksheet

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from a sheet header. The
// adapter fails fast with it instead of producing silently empty columns.
type SchemaError struct {
	Sheet   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q is missing required columns: %s", e.Sheet, strings.Join(e.Missing, ", "))
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// requireColumns resolves each required column name to its header index, or
// returns a SchemaError naming everything that is absent.
func requireColumns(sheet string, header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeColumnName(h)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}

	resolved := make(map[string]int, len(names))
	var missing []string
	for _, name := range names {
		i, ok := idx[normalizeColumnName(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved[name] = i
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Sheet: sheet, Missing: missing}
	}
	return resolved, nil
}
