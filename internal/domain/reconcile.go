package domain

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/google/go-cmp/cmp"
)

// ConstantClaim is a claim every station carries, e.g. "instance of
// bicycle-sharing station".
type ConstantClaim struct {
	Property string
	ItemID   string
	Policy   MergePolicy
}

// Properties names the record-dependent properties of a station item.
type Properties struct {
	Capacity   string // maximum capacity (quantity)
	StationID  string // network-specific station id (external id)
	Coordinate string // coordinate location
	LocatedIn  string // located in the administrative territorial entity
}

// Network describes the bicycle-sharing network whose stations are synced.
type Network struct {
	Brand               string
	LabelLanguage       string // language of the "<id> - <name>" label
	AliasLanguage       string // language of the brand label and of the name alias
	Descriptions        map[string]string
	ConstantClaims      []ConstantClaim
	Properties          Properties
	CoordinatePrecision float64
}

// Result is the outcome of reconciling one item.
type Result struct {
	Changed bool
	// Diff is a human-readable before/after diff, empty when nothing changed.
	Diff string
}

// Reconciler computes the desired state of station items.
type Reconciler struct {
	network   Network
	locations *LocationResolver
	overrides Overrides
}

// NewReconciler creates a Reconciler for a network.
func NewReconciler(network Network, locations *LocationResolver, overrides Overrides) *Reconciler {
	return &Reconciler{network: network, locations: locations, overrides: overrides}
}

// StationName returns the name written for a record: the override name when
// one exists, the normalized feed name otherwise.
func (r *Reconciler) StationName(rec StationRecord) string {
	if name, ok := r.overrides.Name(rec.ID); ok {
		return name
	}
	return NormalizeName(rec.Name)
}

// Reconcile applies the desired state of rec to item in place and reports
// whether the serialized item changed. An unknown municipality returns an
// *UnknownMunicipalityError and leaves the item untouched.
func (r *Reconciler) Reconcile(item *Item, rec StationRecord) (Result, error) {
	locationID, err := r.locations.Resolve(rec.Municipality)
	if err != nil {
		return Result{}, err
	}

	before := item.State()
	beforeJSON, err := before.Serialize()
	if err != nil {
		return Result{}, fmt.Errorf("serialize item %s: %w", item.ID, err)
	}

	n := r.network
	name := r.StationName(rec)

	item.SetLabel(n.LabelLanguage, fmt.Sprintf("%d - %s", rec.ID, name))
	item.SetLabel(n.AliasLanguage, StationLabel(n.Brand, rec.ID))
	for lang, desc := range n.Descriptions {
		item.SetDescription(lang, desc)
	}
	item.SetAliases(n.AliasLanguage, name)

	for _, c := range n.ConstantClaims {
		item.AddClaim(c.Property, ItemValue{ID: c.ItemID}, c.Policy)
	}
	item.AddClaim(n.Properties.Capacity, NewQuantity(rec.Capacity), Replace)
	item.AddClaim(n.Properties.StationID, ExternalIDValue{Value: strconv.Itoa(rec.ID)}, Replace)
	item.AddClaim(n.Properties.Coordinate, GlobeCoordinateValue{
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Precision: n.CoordinatePrecision,
		Globe:     EarthGlobe,
	}, Replace)

	item.AddClaim(n.Properties.LocatedIn, ItemValue{ID: locationID}, KeepExisting)

	after := item.State()
	afterJSON, err := after.Serialize()
	if err != nil {
		return Result{}, fmt.Errorf("serialize item %s: %w", item.ID, err)
	}

	if bytes.Equal(beforeJSON, afterJSON) {
		return Result{}, nil
	}
	return Result{Changed: true, Diff: cmp.Diff(before, after)}, nil
}
