package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name      string
		stationID int
		results   []SearchResult
		want      MatchResult
	}{
		{
			name:      "no hit creates",
			stationID: 5001,
			want:      MatchResult{Kind: MatchCreate},
		},
		{
			name:      "no hit creates even with override",
			stationID: 2016,
			want:      MatchResult{Kind: MatchCreate},
		},
		{
			name:      "top hit without item id creates",
			stationID: 5001,
			results:   []SearchResult{{}, {ItemID: "Q2"}},
			want:      MatchResult{Kind: MatchCreate},
		},
		{
			name:      "single hit is found",
			stationID: 5001,
			results:   hits("Q1"),
			want:      MatchResult{Kind: MatchFound, ItemID: "Q1"},
		},
		{
			name:      "override beats single hit",
			stationID: 7052,
			results:   hits("Q1"),
			want:      MatchResult{Kind: MatchFound, ItemID: "Q62087535"},
		},
		{
			name:      "override beats ambiguous hits",
			stationID: 2023,
			results:   hits("Q1", "Q2"),
			want:      MatchResult{Kind: MatchFound, ItemID: "Q117288534"},
		},
		{
			name:      "several hits are ambiguous",
			stationID: 9999,
			results:   hits("Q1", "Q2"),
			want:      MatchResult{Kind: MatchSkip, Reason: ReasonAmbiguous},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{results: tt.results}
			m := NewMatcher(searcher, testOverrides(), testBrand)

			got, err := m.Match(context.Background(), StationRecord{ID: tt.stationID})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_SearchQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	m := NewMatcher(searcher, nil, testBrand)

	_, err := m.Match(context.Background(), StationRecord{ID: 10001})
	require.NoError(t, err)
	assert.Equal(t, []string{"Station Vélo'v 10001"}, searcher.queries)
}

func TestMatcher_Deterministic(t *testing.T) {
	searcher := &fakeSearcher{results: hits("Q1", "Q2", "Q3")}
	m := NewMatcher(searcher, testOverrides(), testBrand)
	rec := StationRecord{ID: 9999}

	first, err := m.Match(context.Background(), rec)
	require.NoError(t, err)
	for range 5 {
		again, err := m.Match(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMatcher_SearchErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	m := NewMatcher(&fakeSearcher{err: boom}, nil, testBrand)

	_, err := m.Match(context.Background(), StationRecord{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestOverrides_Lookup(t *testing.T) {
	o := Overrides{1: {Name: "Renamed"}, 2: {ItemID: "Q2"}}

	_, ok := o.ItemID(1)
	assert.False(t, ok, "name-only override does not pin an item")
	name, ok := o.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "Renamed", name)

	id, ok := o.ItemID(2)
	assert.True(t, ok)
	assert.Equal(t, "Q2", id)
	_, ok = o.Name(3)
	assert.False(t, ok)
}
