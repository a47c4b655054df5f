package domain

import "context"

// --- fakes ---

type fakeSearcher struct {
	results []SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func hits(ids ...string) []SearchResult {
	out := make([]SearchResult, len(ids))
	for i, id := range ids {
		out[i] = SearchResult{ItemID: id}
	}
	return out
}

const testBrand = "Vélo'v"

func testOverrides() Overrides {
	return Overrides{
		2016: {ItemID: "Q62088312"},
		2023: {ItemID: "Q117288534", Name: "Perrache / Petit"},
		7052: {ItemID: "Q62087535"},
	}
}

func testNetwork() Network {
	return Network{
		Brand:         testBrand,
		LabelLanguage: "fr",
		AliasLanguage: "en",
		Descriptions: map[string]string{
			"fr": "station de vélopartage Vélo'v, région lyonnaise, France",
			"en": "Vélo'v bicycle-sharing station, Lyon region, France",
		},
		ConstantClaims: []ConstantClaim{
			{Property: "P31", ItemID: "Q61663696", Policy: AppendUnique},
			{Property: "P361", ItemID: "Q4096", Policy: AppendUnique},
			{Property: "P17", ItemID: "Q142", Policy: Replace},
			{Property: "P137", ItemID: "Q74877", Policy: AppendUnique},
		},
		Properties: Properties{
			Capacity:   "P1083",
			StationID:  "P11878",
			Coordinate: "P625",
			LocatedIn:  "P131",
		},
		CoordinatePrecision: 0.0001,
	}
}

func testLocations() *LocationResolver {
	return NewLocationResolver(map[string]string{
		"Bron":                   "Q1291",
		"Villeurbanne":           "Q582",
		"Lyon 2e Arrondissement": "Q3344",
		"Vénissieux":             "Q13598",
	})
}

func testReconciler() *Reconciler {
	return NewReconciler(testNetwork(), testLocations(), testOverrides())
}
