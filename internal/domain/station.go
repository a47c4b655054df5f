package domain

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// spaceRunRe matches runs of whitespace inside a feed string.
var spaceRunRe = regexp.MustCompile(`\s+`)

// StationRecord is one station entry of the feed snapshot.
type StationRecord struct {
	ID           int
	Name         string
	Capacity     int
	Latitude     float64
	Longitude    float64
	Municipality string
}

// NormalizeName trims a feed name and collapses inner whitespace runs,
// e.g. "  Place   Bellecour  " -> "Place Bellecour".
func NormalizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	return spaceRunRe.ReplaceAllString(name, " ")
}
