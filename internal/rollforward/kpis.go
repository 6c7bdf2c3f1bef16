package rollforward

import (
	"time"

	"eiasa/internal/estimate"
)

// KPIRecord holds capacity-utilization and benchmark metrics for one
// monthly rollforward row. Pointer fields are nil when the metric is
// unknown; an absent capacity match is explicitly "unknown", never zero.
type KPIRecord struct {
	MonthEnd          time.Time        `json:"month_end"`
	Region            string           `json:"region"`
	Stratum           estimate.Stratum `json:"stratum"`
	EndingVolume      float64          `json:"ending_volume"`
	WorkingCapacity   *float64         `json:"working_capacity,omitempty"`
	PercentOfCapacity *float64         `json:"percent_of_capacity,omitempty"`

	// ZScoreVs5Yr is the month-end z-score against the 5-year average.
	// Defined but not yet computed: always nil in this version. Populating
	// it requires the five-year history series, which the weekly feed does
	// not yet carry through normalization.
	ZScoreVs5Yr *float64 `json:"zscore_vs_5yr,omitempty"`
}

// ComputeKPIs derives KPIs from a rollforward row and optional capacity
// data. The capacity row with the latest year per (region, stratum) is
// used; with no match or no capacity data, PercentOfCapacity stays nil.
func ComputeKPIs(roll Monthly, capacity []estimate.CapacitySnapshot) KPIRecord {
	record := KPIRecord{
		MonthEnd:     roll.MonthEnd,
		Region:       roll.Region,
		Stratum:      roll.Stratum,
		EndingVolume: roll.EndingVolume,
	}

	var latest *estimate.CapacitySnapshot
	for i := range capacity {
		snap := &capacity[i]
		if snap.Region != roll.Region || estimate.ParseStratum(string(snap.Stratum)) != roll.Stratum {
			continue
		}
		if latest == nil || snap.Year > latest.Year {
			latest = snap
		}
	}
	if latest == nil || latest.WorkingCapacity == 0 {
		return record
	}

	working := latest.WorkingCapacity
	pct := roll.EndingVolume / working * 100.0
	record.WorkingCapacity = &working
	record.PercentOfCapacity = &pct
	return record
}

// ComputeAllKPIs derives KPIs for every rollforward row.
func ComputeAllKPIs(rolls []Monthly, capacity []estimate.CapacitySnapshot) []KPIRecord {
	records := make([]KPIRecord, len(rolls))
	for i, roll := range rolls {
		records[i] = ComputeKPIs(roll, capacity)
	}
	return records
}
