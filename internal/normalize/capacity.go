package normalize

import (
	"log/slog"
	"sort"
	"strconv"

	"eiasa/internal/estimate"
)

// capacityRenames maps raw capacity column names to canonical ones.
var capacityRenames = map[string]string{
	"area":    "region",
	"duoarea": "region",
	"period":  "year",
}

// capacityRequired are the canonical columns a capacity snapshot must carry
// after renaming. Stratum is exempt because it is defaulted.
var capacityRequired = []string{"region", "year", "working_capacity", "design_capacity"}

// NormalizeCapacity converts raw capacity snapshot rows into canonical
// CapacitySnapshot rows: raw fields renamed to canonical names, stratum
// defaulted to the "none" sentinel, output sorted by (region, stratum,
// year). Fails with a *SchemaError listing every missing required column.
func NormalizeCapacity(rows []RawRow) ([]estimate.CapacitySnapshot, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	renamed := make([]RawRow, len(rows))
	for i, row := range rows {
		out := make(RawRow, len(row))
		for col, val := range row {
			canonical, ok := capacityRenames[col]
			if !ok {
				out[col] = val
				continue
			}
			// A raw column never overrides a canonical one already present.
			if _, exists := row[canonical]; !exists {
				out[canonical] = val
			}
		}
		renamed[i] = out
	}

	var missing []string
	for _, col := range capacityRequired {
		if _, ok := renamed[0][col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Columns: missing}
	}

	var snaps []estimate.CapacitySnapshot
	for i, row := range renamed {
		year, err := strconv.Atoi(row["year"])
		if err != nil {
			slog.Warn("skipping capacity row with unparseable year",
				"row", i+1,
				"value", row["year"],
				"error", err,
			)
			continue
		}
		working, err := strconv.ParseFloat(row["working_capacity"], 64)
		if err != nil {
			slog.Warn("skipping capacity row with unparseable working capacity",
				"row", i+1,
				"value", row["working_capacity"],
				"error", err,
			)
			continue
		}
		design, err := strconv.ParseFloat(row["design_capacity"], 64)
		if err != nil {
			slog.Warn("skipping capacity row with unparseable design capacity",
				"row", i+1,
				"value", row["design_capacity"],
				"error", err,
			)
			continue
		}
		snaps = append(snaps, estimate.CapacitySnapshot{
			Region:          row["region"],
			Stratum:         estimate.ParseStratum(row["stratum"]),
			Year:            year,
			WorkingCapacity: working,
			DesignCapacity:  design,
		})
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].Region != snaps[j].Region {
			return snaps[i].Region < snaps[j].Region
		}
		if snaps[i].Stratum != snaps[j].Stratum {
			return snaps[i].Stratum < snaps[j].Stratum
		}
		return snaps[i].Year < snaps[j].Year
	})

	return snaps, nil
}
