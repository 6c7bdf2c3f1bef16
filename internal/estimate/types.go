package estimate

import (
	"sort"
	"time"
)

// Stratum is a sub-classification of storage facility type within a region,
// e.g. salt-cavern vs. non-salt. StratumNone denotes unclassified/aggregate
// storage and is used wherever a source omits the field, so that absent and
// literal values never mismatch.
type Stratum string

// StratumNone is the sentinel for unclassified/aggregate storage.
const StratumNone Stratum = "none"

// ParseStratum maps a raw stratum string to a Stratum, substituting
// StratumNone for the empty string.
func ParseStratum(s string) Stratum {
	if s == "" {
		return StratumNone
	}
	return Stratum(s)
}

// String returns the string representation of the stratum.
func (s Stratum) String() string {
	if s == "" {
		return string(StratumNone)
	}
	return string(s)
}

// WeeklyObservation is a single normalized weekly working-gas report for a
// (region, stratum) group. Volumes are in Bcf. Rows are immutable once
// created and ordered by DateReported ascending within a group.
type WeeklyObservation struct {
	DateReported       time.Time `json:"date_reported"`
	Region             string    `json:"region"`
	Stratum            Stratum   `json:"stratum"`
	WorkingGasVolume   float64   `json:"working_gas_volume"`
	DeltaFromPriorWeek float64   `json:"delta_from_prior_week"`
}

// CapacitySnapshot is an annual working/design capacity report for a
// (region, stratum) group. Capacities are in Bcf.
type CapacitySnapshot struct {
	Region          string  `json:"region"`
	Stratum         Stratum `json:"stratum"`
	Year            int     `json:"year"`
	WorkingCapacity float64 `json:"working_capacity"`
	DesignCapacity  float64 `json:"design_capacity"`
}

// LedgerEntry is an externally supplied operational ledger row covering the
// gap window. Read-only input to the OperationalLedger estimator.
type LedgerEntry struct {
	Date             time.Time `json:"date"`
	Region           string    `json:"region"`
	Stratum          Stratum   `json:"stratum"`
	InjectionVolume  float64   `json:"injection_volume"`
	WithdrawalVolume float64   `json:"withdrawal_volume"`
	Notes            string    `json:"notes,omitempty"`
}

// GapEstimate is the detailed result of a single gap estimation. Value is
// the expected net volume change over the gap window. DataPresent reports
// whether any qualifying data backed the estimate, letting callers tell a
// legitimate zero apart from a silent no-data zero.
type GapEstimate struct {
	Value        float64   `json:"value"`
	DataPresent  bool      `json:"data_present"`
	GapDays      int       `json:"gap_days"`
	LastReported time.Time `json:"last_reported"`
}

// Estimator is the common contract for gap estimators: the expected net
// volume change between the last reported date at or before asOf and the
// accounting month-end for the (region, stratum) group. Returns 0.0, never
// an error, when no qualifying data exists.
type Estimator interface {
	EstimateGap(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) float64
}

// MonthEnd returns the calendar month-end of d, truncated to a date in UTC.
func MonthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// PreviousMonthEnd returns the calendar month-end of the month before d.
func PreviousMonthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 0, 0, 0, 0, 0, time.UTC)
}

// GapDays returns the whole days between the last reported date and the
// month-end, floored at 0.
func GapDays(lastReported, monthEnd time.Time) int {
	days := int(monthEnd.Sub(lastReported).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// selectSeries filters observations to the (region, stratum) group and
// returns them sorted by DateReported ascending. The input slice is never
// mutated.
func selectSeries(obs []WeeklyObservation, region string, stratum Stratum) []WeeklyObservation {
	var series []WeeklyObservation
	for _, o := range obs {
		if o.Region == region && ParseStratum(string(o.Stratum)) == ParseStratum(string(stratum)) {
			series = append(series, o)
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].DateReported.Before(series[j].DateReported)
	})
	return series
}

// atOrBefore trims a date-sorted series to observations reported at or
// before asOf.
func atOrBefore(series []WeeklyObservation, asOf time.Time) []WeeklyObservation {
	n := sort.Search(len(series), func(i int) bool {
		return series[i].DateReported.After(asOf)
	})
	return series[:n]
}

// lastReported returns the maximum reported date at or before asOf within
// the group. The second return is false when no qualifying date exists.
func lastReported(series []WeeklyObservation, asOf time.Time) (time.Time, bool) {
	trimmed := atOrBefore(series, asOf)
	if len(trimmed) == 0 {
		return time.Time{}, false
	}
	return trimmed[len(trimmed)-1].DateReported, true
}
