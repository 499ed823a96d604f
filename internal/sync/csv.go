package sync

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawRow is one data row keyed by normalised header name.
type RawRow struct {
	Ordinal int
	Values  map[string]string
	// Overflow counts fields past the end of the header.
	Overflow int
}

var errNoHeader = errors.New("csv has no header row")

// parseCSV splits a comma-separated file with a header row into raw rows.
// Structural damage (bad quoting) fails the whole file; a row that merely has
// too many fields is returned with Overflow set so it can be rejected alone.
func parseCSV(data []byte) ([]RawRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []RawRow
	for ordinal := 0; ; ordinal++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", ordinal, err)
		}

		row := RawRow{Ordinal: ordinal, Values: make(map[string]string, len(header))}
		for i, v := range rec {
			if i >= len(header) {
				row.Overflow++
				continue
			}
			name := header[i]
			if name == "" {
				continue
			}
			if _, dup := row.Values[name]; dup {
				continue
			}
			row.Values[name] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
