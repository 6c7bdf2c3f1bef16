// Package normalize cleans raw weekly storage and capacity snapshots into
// the canonical tabular schemas consumed by the estimation and rollforward
// pipeline. Raw snapshots arrive with varying column names across known
// aliases; normalization resolves those deterministically, defaults the
// stratum to the "none" sentinel, and fails with a *SchemaError when a
// mandatory identity column cannot be resolved.
package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"eiasa/internal/estimate"
)

// RawRow is one row of a raw tabular snapshot, keyed by source column name.
type RawRow map[string]string

// Column aliases for raw weekly snapshots. First match in the list wins.
var (
	weeklyDateAliases   = []string{"date_reported", "period", "date"}
	weeklyVolumeAliases = []string{"working_gas_volume", "value"}
	weeklyRegionAliases = []string{"region", "area", "duoarea"}
)

// rawDateFormats are the date layouts accepted in raw snapshots.
var rawDateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
}

// NormalizeWeekly converts raw weekly snapshot rows into canonical
// WeeklyObservation rows: aliases resolved, stratum defaulted, rows sorted
// by (region, stratum, date_reported), and delta_from_prior_week computed
// as the per-group first difference of working_gas_volume. The first row of
// each group gets delta = 0. Rows with unparseable dates or volumes are
// skipped with a warning rather than failing the whole snapshot.
//
// Returns a *SchemaError when the region column is unresolvable.
func NormalizeWeekly(rows []RawRow) ([]estimate.WeeklyObservation, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	dateCol := resolveAlias(rows[0], weeklyDateAliases)
	volumeCol := resolveAlias(rows[0], weeklyVolumeAliases)
	regionCol := resolveAlias(rows[0], weeklyRegionAliases)

	var missing []string
	if regionCol == "" {
		missing = append(missing, "region")
	}
	if dateCol == "" {
		missing = append(missing, "date_reported")
	}
	if volumeCol == "" {
		missing = append(missing, "working_gas_volume")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Columns: missing}
	}

	var obs []estimate.WeeklyObservation
	for i, row := range rows {
		date, err := parseRawDate(row[dateCol])
		if err != nil {
			slog.Warn("skipping weekly row with unparseable date",
				"row", i+1,
				"value", row[dateCol],
				"error", err,
			)
			continue
		}
		volume, err := strconv.ParseFloat(row[volumeCol], 64)
		if err != nil {
			slog.Warn("skipping weekly row with unparseable volume",
				"row", i+1,
				"value", row[volumeCol],
				"error", err,
			)
			continue
		}
		obs = append(obs, estimate.WeeklyObservation{
			DateReported:     date,
			Region:           row[regionCol],
			Stratum:          estimate.ParseStratum(row["stratum"]),
			WorkingGasVolume: volume,
		})
	}

	sort.SliceStable(obs, func(i, j int) bool {
		if obs[i].Region != obs[j].Region {
			return obs[i].Region < obs[j].Region
		}
		if obs[i].Stratum != obs[j].Stratum {
			return obs[i].Stratum < obs[j].Stratum
		}
		return obs[i].DateReported.Before(obs[j].DateReported)
	})

	computeDeltas(obs)
	return obs, nil
}

// computeDeltas fills DeltaFromPriorWeek as the first difference of
// WorkingGasVolume within each (region, stratum) group of a sorted slice.
// The first row of each group keeps delta = 0.
func computeDeltas(obs []estimate.WeeklyObservation) {
	type groupKey struct {
		region  string
		stratum estimate.Stratum
	}
	prev := make(map[groupKey]float64)
	seen := make(map[groupKey]bool)

	for i := range obs {
		key := groupKey{obs[i].Region, obs[i].Stratum}
		if seen[key] {
			obs[i].DeltaFromPriorWeek = obs[i].WorkingGasVolume - prev[key]
		} else {
			obs[i].DeltaFromPriorWeek = 0
			seen[key] = true
		}
		prev[key] = obs[i].WorkingGasVolume
	}
}

// resolveAlias returns the first alias present in the row, or "" when none
// matches.
func resolveAlias(row RawRow, aliases []string) string {
	for _, alias := range aliases {
		if _, ok := row[alias]; ok {
			return alias
		}
	}
	return ""
}

// parseRawDate attempts the accepted raw date layouts in order.
func parseRawDate(s string) (time.Time, error) {
	for _, layout := range rawDateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", s)
}
