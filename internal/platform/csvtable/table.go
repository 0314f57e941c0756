package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Row maps a trimmed header label to the trimmed cell value.
type Row map[string]string

// Markers that identify template or instructional rows in the club spreadsheet.
var placeholderMarkers = []string{"🔽", "새", "예시:"}

// Get returns the first non-empty value among the given column labels.
func (r Row) Get(labels ...string) string {
	for _, label := range labels {
		if value := strings.TrimSpace(r[label]); value != "" {
			return value
		}
	}
	return ""
}

// Parse reads CSV text whose first record is the header. Rows with an empty first
// cell or a placeholder marker in the first cell are skipped.
func Parse(text string) ([]Row, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "\ufeff")
	if text == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]Row, 0, 32)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(record) == 0 || IsPlaceholder(record[0]) {
			continue
		}

		row := make(Row, len(header))
		for i, label := range header {
			if label == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[label] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// IsPlaceholder reports whether a first cell marks a non-data row.
func IsPlaceholder(firstCell string) bool {
	value := strings.TrimSpace(firstCell)
	if value == "" {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return false
}
