// Package domain models the reconciliation of Vélo'v bicycle-sharing
// stations against a Wikibase knowledge base (Wikidata).
//
// # Data Source
//
// Stations come from the Grand Lyon open-data service, layer
// pvo_patrimoine_voirie.pvostationvelov, served as one JSON document:
//
//	{"values": [{"idstation": "2023", "nom": "Perrache  Petit", "commune": "Lyon 2e Arrondissement",
//	             "nbbornettes": 20, "lat": 45.749, "lon": 4.826, ...}]}
//
// Station names carry irregular spacing and are normalized before use: the
// name is trimmed and every run of whitespace is collapsed to one space.
// Municipality names are matched exactly (after trim and NFC normalization)
// against the administrative location table of the network profile.
//
// # Matching
//
// Every station label on the knowledge base embeds the station number
// ("Station Vélo'v 2023"), so a full-text search on that phrase finds the
// existing item for most stations. Search is noisy: historical items can
// share a label, in which case the station is skipped and recorded for
// manual triage unless an [Override] pins its item id. See [Matcher.Match].
//
// # Desired State
//
// The [Reconciler] recomputes the whole target state of an item from the
// record on every run. Claims are applied property by property through a
// [MergePolicy]:
//
//	Replace       single-valued facts (capacity, coordinates, station id, country)
//	KeepExisting  administrative location (P131): historical values are never overwritten
//	AppendUnique  multi-valued facts (instance of, part of, operator)
//
// An item is written only when its serialized state differs from the state
// it had before reconciliation, so re-running the sync on unchanged data is
// a no-op.
package domain
