package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/velov-sync/internal/domain"
)

// document is the top-level shape of the open-data JSON export.
type document struct {
	Values []rawStation `json:"values"`
}

// rawStation keeps the open-data column names.
type rawStation struct {
	ID           flexNumber `json:"idstation"`
	Name         string     `json:"nom"`
	Municipality string     `json:"commune"`
	Capacity     flexNumber `json:"nbbornettes"`
	Lat          flexNumber `json:"lat"`
	Lon          flexNumber `json:"lon"`
}

// flexNumber accepts a JSON number or a numeric string ("2023", "45.75").
// null and "" decode to zero.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*n = flexNumber(v)
	return nil
}

// ParseStations decodes a feed document into station records, in feed order.
func ParseStations(data []byte) ([]domain.StationRecord, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	records := make([]domain.StationRecord, 0, len(doc.Values))
	for i, raw := range doc.Values {
		id := float64(raw.ID)
		if id <= 0 || id != math.Trunc(id) {
			return nil, fmt.Errorf("parse feed: station at index %d has invalid idstation %v", i, id)
		}
		records = append(records, domain.StationRecord{
			ID:           int(id),
			Name:         raw.Name,
			Capacity:     int(raw.Capacity),
			Latitude:     float64(raw.Lat),
			Longitude:    float64(raw.Lon),
			Municipality: raw.Municipality,
		})
	}
	return records, nil
}
