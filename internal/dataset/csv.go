// Package dataset loads tabular evaluation data. Teams keep labeled trace
// collections in CSV so they can be edited in a spreadsheet; the evaluation
// suite consumes them as header-keyed rows.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Row maps a column name to its value for one CSV data row.
type Row map[string]string

// LoadCSV reads path and returns its data rows keyed by the header row.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Require returns the value of column in row, erroring when the column is
// missing or empty so case files fail loudly instead of silently skipping.
func (r Row) Require(column string) (string, error) {
	v, ok := r[column]
	if !ok || v == "" {
		return "", fmt.Errorf("csv: missing required column %q", column)
	}
	return v, nil
}
