package domain

import (
	"encoding/json"
	"maps"
	"slices"
)

// Statement is one claim of an item. ID is empty until the statement has
// been written to the knowledge base.
type Statement struct {
	ID       string `json:"id,omitempty"`
	Property string `json:"property"`
	Value    Value  `json:"value"`
}

// Item is a knowledge-base entity as seen by the sync. An item without ID
// has never been written.
type Item struct {
	ID        string
	LastRevID int64

	Labels       map[string]string
	Descriptions map[string]string
	Aliases      map[string][]string
	Claims       map[string][]Statement

	// removed holds ids of stored statements dropped by a Replace policy.
	removed []string
}

// NewItem returns an empty item that will be created on first write.
func NewItem() *Item {
	return &Item{
		Labels:       map[string]string{},
		Descriptions: map[string]string{},
		Aliases:      map[string][]string{},
		Claims:       map[string][]Statement{},
	}
}

// IsNew reports whether the item does not exist on the knowledge base yet.
func (it *Item) IsNew() bool { return it.ID == "" }

func (it *Item) SetLabel(lang, value string) { it.Labels[lang] = value }

func (it *Item) SetDescription(lang, value string) { it.Descriptions[lang] = value }

// SetAliases replaces every alias of a language.
func (it *Item) SetAliases(lang string, values ...string) {
	it.Aliases[lang] = slices.Clone(values)
}

// Statements returns the statements stored for a property.
func (it *Item) Statements(property string) []Statement {
	return it.Claims[property]
}

// AddClaim merges a desired value for property into the item according to policy.
func (it *Item) AddClaim(property string, v Value, policy MergePolicy) {
	existing := it.Claims[property]

	switch policy {
	case KeepExisting:
		if len(existing) > 0 {
			return
		}
	case AppendUnique:
		if indexOfValue(existing, v) >= 0 {
			return
		}
	default:
		keep := indexOfValue(existing, v)
		var next []Statement
		for i, st := range existing {
			if i == keep {
				next = append(next, st)
				continue
			}
			if st.ID != "" {
				it.removed = append(it.removed, st.ID)
			}
		}
		if keep >= 0 {
			it.Claims[property] = next
			return
		}
		existing = nil
	}

	it.Claims[property] = append(slices.Clone(existing), Statement{Property: property, Value: v})
}

// NewStatements returns the statements that have not been written yet,
// ordered by property.
func (it *Item) NewStatements() []Statement {
	var out []Statement
	for _, prop := range slices.Sorted(maps.Keys(it.Claims)) {
		for _, st := range it.Claims[prop] {
			if st.ID == "" {
				out = append(out, st)
			}
		}
	}
	return out
}

// RemovedStatements returns ids of stored statements the item no longer holds.
func (it *Item) RemovedStatements() []string {
	return slices.Clone(it.removed)
}

// MarkWritten records the identifiers the knowledge base assigned on write.
// Pending removals are cleared.
func (it *Item) MarkWritten(id string, revID int64) {
	it.ID = id
	it.LastRevID = revID
	it.removed = nil
}

// ItemState is a detached copy of the comparable content of an item.
type ItemState struct {
	Labels       map[string]string      `json:"labels"`
	Descriptions map[string]string      `json:"descriptions"`
	Aliases      map[string][]string    `json:"aliases"`
	Claims       map[string][]Statement `json:"claims"`
}

// State copies the item content so later mutations do not affect it.
func (it *Item) State() ItemState {
	s := ItemState{
		Labels:       maps.Clone(it.Labels),
		Descriptions: maps.Clone(it.Descriptions),
		Aliases:      make(map[string][]string, len(it.Aliases)),
		Claims:       make(map[string][]Statement, len(it.Claims)),
	}
	for lang, values := range it.Aliases {
		s.Aliases[lang] = slices.Clone(values)
	}
	for prop, stmts := range it.Claims {
		s.Claims[prop] = slices.Clone(stmts)
	}
	return s
}

// Serialize renders the state as canonical JSON (map keys sorted).
func (s ItemState) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

func indexOfValue(stmts []Statement, v Value) int {
	for i, st := range stmts {
		if st.Value != nil && st.Value.Equal(v) {
			return i
		}
	}
	return -1
}
