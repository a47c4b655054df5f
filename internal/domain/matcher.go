package domain

import (
	"context"
	"fmt"
)

// SearchResult is one hit of a full-text search. ItemID is empty when the
// hit does not resolve to an item.
type SearchResult struct {
	ItemID string
}

// Searcher runs a full-text search on the knowledge base.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Override pins a station to a fixed item and/or a corrected name.
type Override struct {
	ItemID string
	Name   string
}

// Overrides is the manual override table keyed by station id.
type Overrides map[int]Override

// ItemID returns the pinned item of a station, if any.
func (o Overrides) ItemID(stationID int) (string, bool) {
	ov, ok := o[stationID]
	if !ok || ov.ItemID == "" {
		return "", false
	}
	return ov.ItemID, true
}

// Name returns the corrected name of a station, if any.
func (o Overrides) Name(stationID int) (string, bool) {
	ov, ok := o[stationID]
	if !ok || ov.Name == "" {
		return "", false
	}
	return ov.Name, true
}

// MatchKind is the outcome of matching a record.
type MatchKind int

const (
	// MatchCreate means no item exists yet for the station.
	MatchCreate MatchKind = iota
	// MatchFound means exactly one existing item was identified.
	MatchFound
	// MatchSkip means the station cannot be resolved automatically.
	MatchSkip
)

func (k MatchKind) String() string {
	switch k {
	case MatchCreate:
		return "create"
	case MatchFound:
		return "found"
	case MatchSkip:
		return "skip"
	default:
		return fmt.Sprintf("MatchKind(%d)", int(k))
	}
}

// ReasonAmbiguous is the skip reason for searches with several candidates.
const ReasonAmbiguous = "ambiguous"

// MatchResult tells the sync what to do with a record.
type MatchResult struct {
	Kind   MatchKind
	ItemID string // set for MatchFound
	Reason string // set for MatchSkip
}

// Matcher resolves feed records to knowledge-base items.
type Matcher struct {
	searcher  Searcher
	overrides Overrides
	brand     string
}

// NewMatcher creates a Matcher searching for "Station <brand> <id>".
func NewMatcher(searcher Searcher, overrides Overrides, brand string) *Matcher {
	return &Matcher{searcher: searcher, overrides: overrides, brand: brand}
}

// SearchQuery returns the phrase used to find a station's item.
func (m *Matcher) SearchQuery(stationID int) string {
	return StationLabel(m.brand, stationID)
}

// Match resolves one record. Priority order:
//  1. no hit, or a top hit without item id: create;
//  2. manual override: found, whatever the number of hits;
//  3. exactly one hit: found;
//  4. several hits: skip as ambiguous.
//
// Search errors are returned as is.
func (m *Matcher) Match(ctx context.Context, rec StationRecord) (MatchResult, error) {
	results, err := m.searcher.Search(ctx, m.SearchQuery(rec.ID))
	if err != nil {
		return MatchResult{}, fmt.Errorf("search station %d: %w", rec.ID, err)
	}

	if len(results) == 0 || results[0].ItemID == "" {
		return MatchResult{Kind: MatchCreate}, nil
	}
	if id, ok := m.overrides.ItemID(rec.ID); ok {
		return MatchResult{Kind: MatchFound, ItemID: id}, nil
	}
	if len(results) == 1 {
		return MatchResult{Kind: MatchFound, ItemID: results[0].ItemID}, nil
	}
	return MatchResult{Kind: MatchSkip, Reason: ReasonAmbiguous}, nil
}

// StationLabel is the English label of a station item, also used as search phrase.
func StationLabel(brand string, stationID int) string {
	return fmt.Sprintf("Station %s %d", brand, stationID)
}
