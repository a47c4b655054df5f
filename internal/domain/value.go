package domain

import (
	"fmt"
	"strconv"
)

// DataType identifies the Wikibase datatype of a claim value.
type DataType string

const (
	DataTypeItem            DataType = "wikibase-item"
	DataTypeQuantity        DataType = "quantity"
	DataTypeExternalID      DataType = "external-id"
	DataTypeGlobeCoordinate DataType = "globe-coordinate"
)

// EarthGlobe is the globe of every terrestrial coordinate.
const EarthGlobe = "http://www.wikidata.org/entity/Q2"

// Value is the typed value of a statement.
type Value interface {
	DataType() DataType
	Equal(other Value) bool
}

// ItemValue references another knowledge-base item.
type ItemValue struct {
	ID string `json:"id"`
}

func (v ItemValue) DataType() DataType { return DataTypeItem }

func (v ItemValue) Equal(other Value) bool {
	o, ok := other.(ItemValue)
	return ok && o.ID == v.ID
}

// QuantityValue is a decimal amount with a unit ("1" when unitless).
// Amount uses the Wikibase signed decimal notation, e.g. "+20".
type QuantityValue struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// NewQuantity builds a unitless integer quantity.
func NewQuantity(n int) QuantityValue {
	return QuantityValue{Amount: fmt.Sprintf("%+d", n), Unit: "1"}
}

func (v QuantityValue) DataType() DataType { return DataTypeQuantity }

func (v QuantityValue) Equal(other Value) bool {
	o, ok := other.(QuantityValue)
	if !ok || o.Unit != v.Unit {
		return false
	}
	if o.Amount == v.Amount {
		return true
	}
	a, errA := strconv.ParseFloat(v.Amount, 64)
	b, errB := strconv.ParseFloat(o.Amount, 64)
	return errA == nil && errB == nil && a == b
}

// ExternalIDValue is an identifier in an external database.
type ExternalIDValue struct {
	Value string `json:"value"`
}

func (v ExternalIDValue) DataType() DataType { return DataTypeExternalID }

func (v ExternalIDValue) Equal(other Value) bool {
	o, ok := other.(ExternalIDValue)
	return ok && o.Value == v.Value
}

// GlobeCoordinateValue is a WGS-84 position with its precision in degrees.
type GlobeCoordinateValue struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Precision float64 `json:"precision"`
	Globe     string  `json:"globe"`
}

func (v GlobeCoordinateValue) DataType() DataType { return DataTypeGlobeCoordinate }

func (v GlobeCoordinateValue) Equal(other Value) bool {
	o, ok := other.(GlobeCoordinateValue)
	return ok && o.Latitude == v.Latitude && o.Longitude == v.Longitude &&
		o.Precision == v.Precision && o.Globe == v.Globe
}

// RawValue carries a value of a datatype the sync never writes. It is kept
// verbatim so that comparisons and snapshots still see it.
type RawValue struct {
	Type DataType `json:"type"`
	Raw  string   `json:"raw"`
}

func (v RawValue) DataType() DataType { return v.Type }

func (v RawValue) Equal(other Value) bool {
	o, ok := other.(RawValue)
	return ok && o.Type == v.Type && o.Raw == v.Raw
}
