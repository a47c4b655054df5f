package wikibase

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/velov-sync/internal/domain"
)

// Wire representation of Wikibase entities (wbgetentities / wbeditentity).

type entity struct {
	ID           string                   `json:"id"`
	LastRevID    int64                    `json:"lastrevid,omitempty"`
	Missing      *string                  `json:"missing,omitempty"`
	Labels       map[string]monolingual   `json:"labels,omitempty"`
	Descriptions map[string]monolingual   `json:"descriptions,omitempty"`
	Aliases      map[string][]monolingual `json:"aliases,omitempty"`
	Claims       map[string][]statement   `json:"claims,omitempty"`
}

type monolingual struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type statement struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Rank     string `json:"rank,omitempty"`
	Mainsnak snak   `json:"mainsnak"`
}

type snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataType  string     `json:"datatype,omitempty"`
	DataValue *dataValue `json:"datavalue,omitempty"`
}

type dataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type entityIDValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int64  `json:"numeric-id,omitempty"`
	ID         string `json:"id"`
}

type quantityValue struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

type coordinateValue struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Precision *float64 `json:"precision"`
	Globe     string   `json:"globe"`
}

// removal asks wbeditentity to delete a stored statement.
type removal struct {
	ID     string `json:"id"`
	Remove string `json:"remove"`
}

// editData is the "data" parameter of wbeditentity. Statements already
// stored are left out so their qualifiers and references stay untouched.
type editData struct {
	Labels       map[string]monolingual   `json:"labels,omitempty"`
	Descriptions map[string]monolingual   `json:"descriptions,omitempty"`
	Aliases      map[string][]monolingual `json:"aliases,omitempty"`
	Claims       []any                    `json:"claims,omitempty"`
}

// toDomain converts a fetched entity.
func (e entity) toDomain() (*domain.Item, error) {
	item := domain.NewItem()
	item.ID = e.ID
	item.LastRevID = e.LastRevID

	for lang, l := range e.Labels {
		item.Labels[lang] = l.Value
	}
	for lang, d := range e.Descriptions {
		item.Descriptions[lang] = d.Value
	}
	for lang, aliases := range e.Aliases {
		values := make([]string, 0, len(aliases))
		for _, a := range aliases {
			values = append(values, a.Value)
		}
		item.Aliases[lang] = values
	}
	for prop, stmts := range e.Claims {
		converted := make([]domain.Statement, 0, len(stmts))
		for _, st := range stmts {
			v, err := decodeSnak(st.Mainsnak)
			if err != nil {
				return nil, fmt.Errorf("statement %s: %w", st.ID, err)
			}
			converted = append(converted, domain.Statement{ID: st.ID, Property: prop, Value: v})
		}
		item.Claims[prop] = converted
	}
	return item, nil
}

func decodeSnak(s snak) (domain.Value, error) {
	if s.SnakType != "value" || s.DataValue == nil {
		return domain.RawValue{Type: domain.DataType(s.DataType), Raw: s.SnakType}, nil
	}

	dv := s.DataValue
	switch dv.Type {
	case "wikibase-entityid":
		var v entityIDValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return nil, fmt.Errorf("decode entity id: %w", err)
		}
		if v.EntityType != "" && v.EntityType != "item" {
			break
		}
		id := v.ID
		if id == "" {
			id = "Q" + strconv.FormatInt(v.NumericID, 10)
		}
		return domain.ItemValue{ID: id}, nil
	case "quantity":
		var v quantityValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return nil, fmt.Errorf("decode quantity: %w", err)
		}
		return domain.QuantityValue{Amount: v.Amount, Unit: v.Unit}, nil
	case "globecoordinate":
		var v coordinateValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return nil, fmt.Errorf("decode coordinate: %w", err)
		}
		c := domain.GlobeCoordinateValue{Latitude: v.Latitude, Longitude: v.Longitude, Globe: v.Globe}
		if v.Precision != nil {
			c.Precision = *v.Precision
		}
		return c, nil
	case "string":
		if s.DataType == string(domain.DataTypeExternalID) {
			var v string
			if err := json.Unmarshal(dv.Value, &v); err != nil {
				return nil, fmt.Errorf("decode external id: %w", err)
			}
			return domain.ExternalIDValue{Value: v}, nil
		}
	}
	return domain.RawValue{Type: domain.DataType(s.DataType), Raw: string(dv.Value)}, nil
}

// encodeValue builds the main snak of a new statement.
func encodeValue(property string, v domain.Value) (snak, error) {
	var (
		typ string
		raw any
	)
	switch val := v.(type) {
	case domain.ItemValue:
		ev := entityIDValue{EntityType: "item", ID: val.ID}
		if n, err := strconv.ParseInt(strings.TrimPrefix(val.ID, "Q"), 10, 64); err == nil {
			ev.NumericID = n
		}
		typ, raw = "wikibase-entityid", ev
	case domain.QuantityValue:
		typ, raw = "quantity", quantityValue{Amount: val.Amount, Unit: val.Unit}
	case domain.ExternalIDValue:
		typ, raw = "string", val.Value
	case domain.GlobeCoordinateValue:
		precision := val.Precision
		typ, raw = "globecoordinate", coordinateValue{
			Latitude:  val.Latitude,
			Longitude: val.Longitude,
			Precision: &precision,
			Globe:     val.Globe,
		}
	default:
		return snak{}, fmt.Errorf("cannot write %s value of %s", v.DataType(), property)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return snak{}, fmt.Errorf("encode %s value: %w", property, err)
	}
	return snak{
		SnakType:  "value",
		Property:  property,
		DataType:  string(v.DataType()),
		DataValue: &dataValue{Type: typ, Value: data},
	}, nil
}

// newEditData builds the wbeditentity payload of an item: its terms, the
// statements not written yet and the removal of dropped statements.
func newEditData(item *domain.Item) (editData, error) {
	data := editData{
		Labels:       terms(item.Labels),
		Descriptions: terms(item.Descriptions),
	}

	if len(item.Aliases) > 0 {
		data.Aliases = make(map[string][]monolingual, len(item.Aliases))
		for _, lang := range slices.Sorted(maps.Keys(item.Aliases)) {
			for _, a := range item.Aliases[lang] {
				data.Aliases[lang] = append(data.Aliases[lang], monolingual{Language: lang, Value: a})
			}
		}
	}

	for _, st := range item.NewStatements() {
		s, err := encodeValue(st.Property, st.Value)
		if err != nil {
			return editData{}, err
		}
		data.Claims = append(data.Claims, statement{Type: "statement", Rank: "normal", Mainsnak: s})
	}
	for _, id := range item.RemovedStatements() {
		data.Claims = append(data.Claims, removal{ID: id})
	}
	return data, nil
}

func terms(values map[string]string) map[string]monolingual {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]monolingual, len(values))
	for lang, v := range values {
		out[lang] = monolingual{Language: lang, Value: v}
	}
	return out
}
