package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/velov-sync/internal/domain"
	"github.com/couchcryptid/velov-sync/internal/profile"
)

func newCheckCmd(a *app, f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the feed snapshot against the network profile",
		Long: `check loads the feed snapshot and the network profile and reports the
problems a sync would hit: municipalities missing from the location table
(fatal for a sync), duplicate station ids and overrides for stations that
left the feed. Wikidata is not contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(cmd.Context(), f.refresh)
			if err != nil {
				return err
			}
			records, err := snap.Stations(cmd.Context())
			if err != nil {
				return err
			}
			report := checkStations(records, a.profile)
			report.write(cmd.OutOrStdout())
			if !report.ok() {
				return fmt.Errorf("%d unknown municipalities", len(report.unknownMunicipalities))
			}
			return nil
		},
	}
}

type checkReport struct {
	stations int
	// unknownMunicipalities maps each unresolvable name to its station ids.
	unknownMunicipalities map[string][]int
	duplicateIDs          []int
	staleOverrides        []int
}

func checkStations(records []domain.StationRecord, prof *profile.Profile) checkReport {
	locations := prof.Locations()
	report := checkReport{
		stations:              len(records),
		unknownMunicipalities: map[string][]int{},
	}

	seen := make(map[int]bool, len(records))
	for _, rec := range records {
		if seen[rec.ID] {
			report.duplicateIDs = append(report.duplicateIDs, rec.ID)
		}
		seen[rec.ID] = true
		if _, err := locations.Resolve(rec.Municipality); err != nil {
			report.unknownMunicipalities[rec.Municipality] = append(report.unknownMunicipalities[rec.Municipality], rec.ID)
		}
	}
	for id := range prof.OverrideTable() {
		if !seen[id] {
			report.staleOverrides = append(report.staleOverrides, id)
		}
	}
	slices.Sort(report.staleOverrides)
	return report
}

// ok reports whether a sync could run through the whole snapshot.
func (r checkReport) ok() bool {
	return len(r.unknownMunicipalities) == 0
}

func (r checkReport) write(w io.Writer) {
	fmt.Fprintf(w, "stations: %d\n", r.stations)
	for _, name := range slices.Sorted(maps.Keys(r.unknownMunicipalities)) {
		fmt.Fprintf(w, "unknown municipality %q: stations %v\n", name, r.unknownMunicipalities[name])
	}
	if len(r.duplicateIDs) > 0 {
		fmt.Fprintf(w, "duplicate station ids: %v\n", r.duplicateIDs)
	}
	if len(r.staleOverrides) > 0 {
		fmt.Fprintf(w, "overrides for stations not in the feed: %v\n", r.staleOverrides)
	}
	if r.ok() {
		fmt.Fprintln(w, "ok")
	}
}
