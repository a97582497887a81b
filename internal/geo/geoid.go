package geo

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	cityColumn  = "CITY"
	geoIDColumn = "GEO_ID"
)

// GeoIDTable maps city names to LinkedIn geoIds. It is read-only once loaded.
type GeoIDTable struct {
	ids map[string]string
}

// NewGeoIDTable builds a table from a city to geoId map.
func NewGeoIDTable(ids map[string]string) *GeoIDTable {
	t := &GeoIDTable{ids: make(map[string]string, len(ids))}
	for city, id := range ids {
		t.ids[cityKey(city)] = id
	}
	return t
}

// Lookup returns the geoId for city.
func (t *GeoIDTable) Lookup(city string) (string, bool) {
	if t == nil {
		return "", false
	}
	id, ok := t.ids[cityKey(city)]
	return id, ok
}

// Len reports the number of cities in the table.
func (t *GeoIDTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ids)
}

// LoadGeoIDs reads the processed geoId CSV at path.
func LoadGeoIDs(path string) (*GeoIDTable, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read geoId table: %w", err)
	}
	return ParseGeoIDs(bytes.NewReader(data))
}

// ParseGeoIDs reads a CSV with CITY and GEO_ID header columns. The delimiter
// is ',' unless the header only splits on ';'. The first row for a city wins.
func ParseGeoIDs(r io.Reader) (*GeoIDTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geoId table: %w", err)
	}
	header, _, _ := bytes.Cut(data, []byte("\n"))
	comma := ','
	if !bytes.Contains(header, []byte(",")) && bytes.Contains(header, []byte(";")) {
		comma = ';'
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	columns, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read geoId header: %w", err)
	}
	cityIdx, idIdx := -1, -1
	for i, col := range columns {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case cityColumn:
			cityIdx = i
		case geoIDColumn:
			idIdx = i
		}
	}
	if cityIdx < 0 || idIdx < 0 {
		return nil, fmt.Errorf("geoId header %v: missing %s or %s column", columns, cityColumn, geoIDColumn)
	}

	t := &GeoIDTable{ids: make(map[string]string)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read geoId row: %w", err)
		}
		if cityIdx >= len(row) || idIdx >= len(row) {
			continue
		}
		city, id := cityKey(row[cityIdx]), strings.TrimSpace(row[idIdx])
		if city == "" || id == "" {
			continue
		}
		if _, exists := t.ids[city]; !exists {
			t.ids[city] = id
		}
	}
	return t, nil
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
