package domain

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownMunicipality is matched by every UnknownMunicipalityError.
var ErrUnknownMunicipality = errors.New("unknown municipality")

// UnknownMunicipalityError reports a feed municipality missing from the
// administrative location table. It aborts the whole run.
type UnknownMunicipalityError struct {
	Name string
}

func (e *UnknownMunicipalityError) Error() string {
	return fmt.Sprintf("unknown municipality: %q", e.Name)
}

// Is implements errors.Is support.
func (e *UnknownMunicipalityError) Is(target error) bool {
	return target == ErrUnknownMunicipality
}

// LocationResolver maps a municipality name to the item of its
// administrative territorial entity. It is immutable once built.
type LocationResolver struct {
	table map[string]string
}

// NewLocationResolver copies table, normalizing its keys.
func NewLocationResolver(table map[string]string) *LocationResolver {
	r := &LocationResolver{table: make(map[string]string, len(table))}
	for name, id := range table {
		r.table[locationKey(name)] = id
	}
	return r
}

// Resolve returns the item id of a municipality.
func (r *LocationResolver) Resolve(municipality string) (string, error) {
	id, ok := r.table[locationKey(municipality)]
	if !ok {
		return "", &UnknownMunicipalityError{Name: municipality}
	}
	return id, nil
}

// Len returns the number of known municipalities.
func (r *LocationResolver) Len() int { return len(r.table) }

func locationKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
