// Package profile loads the description of a bicycle-sharing network: its
// brand, the claims every station carries, the administrative location
// table and the manual overrides.
package profile

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/velov-sync/internal/domain"
)

//go:embed velov.yaml
var defaultProfile []byte

// Profile is the YAML form of a network description.
type Profile struct {
	Brand               string            `yaml:"brand" validate:"required"`
	Summary             string            `yaml:"summary" validate:"required"`
	LabelLanguage       string            `yaml:"label_language" validate:"required"`
	AliasLanguage       string            `yaml:"alias_language" validate:"required"`
	CoordinatePrecision float64           `yaml:"coordinate_precision" validate:"gt=0"`
	Descriptions        map[string]string `yaml:"descriptions" validate:"required,min=1,dive,keys,required,endkeys,required"`
	Properties          Properties        `yaml:"properties"`
	ConstantClaims      []ConstantClaim   `yaml:"constant_claims" validate:"dive"`
	Municipalities      map[string]string `yaml:"municipalities" validate:"required,min=1,dive,keys,required,endkeys,required,startswith=Q"`
	Overrides           []Override        `yaml:"overrides" validate:"dive"`
}

// Properties holds the property ids of the record-dependent claims.
type Properties struct {
	Capacity   string `yaml:"capacity" validate:"required,startswith=P"`
	StationID  string `yaml:"station_id" validate:"required,startswith=P"`
	Coordinate string `yaml:"coordinate" validate:"required,startswith=P"`
	LocatedIn  string `yaml:"located_in" validate:"required,startswith=P"`
}

// ConstantClaim is a claim shared by every station.
type ConstantClaim struct {
	Property string `yaml:"property" validate:"required,startswith=P"`
	Item     string `yaml:"item" validate:"required,startswith=Q"`
	Policy   string `yaml:"policy" validate:"omitempty,oneof=replace keep_existing append_unique"`
}

// Override pins a station to an item and/or corrects its name.
type Override struct {
	StationID int    `yaml:"station_id" validate:"required,gt=0"`
	Item      string `yaml:"item" validate:"omitempty,startswith=Q"`
	Name      string `yaml:"name"`
	Note      string `yaml:"note"`
}

// Default returns the embedded Vélo'v profile.
func Default() (*Profile, error) {
	return Parse(defaultProfile)
}

// Load reads a profile file, or the embedded default when path is empty.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks field constraints and cross-entry consistency.
func (p *Profile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	seen := make(map[int]bool, len(p.Overrides))
	for _, o := range p.Overrides {
		if seen[o.StationID] {
			return fmt.Errorf("invalid profile: duplicate override for station %d", o.StationID)
		}
		seen[o.StationID] = true
		if o.Item == "" && o.Name == "" {
			return fmt.Errorf("invalid profile: override for station %d sets neither item nor name", o.StationID)
		}
	}
	return nil
}

// Network converts the profile into the domain network description.
func (p *Profile) Network() domain.Network {
	claims := make([]domain.ConstantClaim, 0, len(p.ConstantClaims))
	for _, c := range p.ConstantClaims {
		// Policy spellings are checked by Validate.
		policy, _ := domain.ParseMergePolicy(c.Policy)
		claims = append(claims, domain.ConstantClaim{Property: c.Property, ItemID: c.Item, Policy: policy})
	}
	descriptions := make(map[string]string, len(p.Descriptions))
	for lang, d := range p.Descriptions {
		descriptions[lang] = d
	}
	return domain.Network{
		Brand:          p.Brand,
		LabelLanguage:  p.LabelLanguage,
		AliasLanguage:  p.AliasLanguage,
		Descriptions:   descriptions,
		ConstantClaims: claims,
		Properties: domain.Properties{
			Capacity:   p.Properties.Capacity,
			StationID:  p.Properties.StationID,
			Coordinate: p.Properties.Coordinate,
			LocatedIn:  p.Properties.LocatedIn,
		},
		CoordinatePrecision: p.CoordinatePrecision,
	}
}

// Locations builds the administrative location resolver.
func (p *Profile) Locations() *domain.LocationResolver {
	return domain.NewLocationResolver(p.Municipalities)
}

// OverrideTable builds the manual override table.
func (p *Profile) OverrideTable() domain.Overrides {
	out := make(domain.Overrides, len(p.Overrides))
	for _, o := range p.Overrides {
		out[o.StationID] = domain.Override{ItemID: o.Item, Name: o.Name}
	}
	return out
}
