// Package rollforward reconciles beginning to ending month-end storage
// inventory for a (region, stratum) group: beginning volume plus in-month
// injections, minus in-month withdrawals, plus the blended gap estimate for
// the days not covered by weekly reports.
package rollforward

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"eiasa/internal/estimate"
)

// Monthly is one monthly rollforward row for a (region, stratum, month_end)
// request. Derived entirely from weekly observations and estimator outputs;
// recomputable idempotently from the same inputs.
type Monthly struct {
	MonthEnd             time.Time        `json:"month_end"`
	Region               string           `json:"region"`
	Stratum              estimate.Stratum `json:"stratum"`
	BeginningVolume      float64          `json:"beginning_volume"`
	EstimatedInjections  float64          `json:"estimated_injections"`
	EstimatedWithdrawals float64          `json:"estimated_withdrawals"`
	GapEstimate          float64          `json:"gap_estimate"`
	GapDays              int              `json:"gap_days"`
	EndingVolume         float64          `json:"ending_volume"`
}

// Build produces the monthly rollforward for one (region, stratum) group.
//
// Semantics:
//   - month_end is the calendar month-end of asOf.
//   - beginning_volume is the reported volume at or before the previous
//     month-end; 0.0 when none exists (valid cold start, not an error).
//   - in-month signed weekly deltas split into injections (positive) and
//     withdrawals (negated negatives).
//   - gap_days is last reported date to month-end, floored at 0.
//   - gap_estimate is the blended estimator output for the same inputs.
//   - ending_volume = beginning + injections - withdrawals + gap_estimate.
//
// The result is a pure function of its arguments: no wall clock, no
// randomness, bit-for-bit reproducible.
func Build(obs []estimate.WeeklyObservation, asOf time.Time, weights estimate.Weights, region string, stratum estimate.Stratum, ledger []estimate.LedgerEntry) Monthly {
	return BuildWithEstimator(obs, asOf, estimate.NewBlended(weights, ledger), region, stratum)
}

// BuildWithEstimator is Build with a caller-assembled gap estimator, for
// callers that tune estimator internals beyond the blend weights.
func BuildWithEstimator(obs []estimate.WeeklyObservation, asOf time.Time, blend estimate.Estimator, region string, stratum estimate.Stratum) Monthly {
	monthEnd := estimate.MonthEnd(asOf)
	prevMonthEnd := estimate.PreviousMonthEnd(asOf)
	stratum = estimate.ParseStratum(string(stratum))

	var series []estimate.WeeklyObservation
	for _, o := range obs {
		if o.Region == region && estimate.ParseStratum(string(o.Stratum)) == stratum {
			series = append(series, o)
		}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].DateReported.Before(series[j].DateReported)
	})

	var beginning float64
	for _, o := range series {
		if o.DateReported.After(prevMonthEnd) {
			break
		}
		beginning = o.WorkingGasVolume
	}

	var injections, withdrawals float64
	for _, o := range series {
		if o.DateReported.Year() != monthEnd.Year() || o.DateReported.Month() != monthEnd.Month() {
			continue
		}
		if o.DeltaFromPriorWeek > 0 {
			injections += o.DeltaFromPriorWeek
		} else {
			withdrawals -= o.DeltaFromPriorWeek
		}
	}

	var gapDays int
	for _, o := range series {
		if !o.DateReported.After(asOf) {
			gapDays = estimate.GapDays(o.DateReported, monthEnd)
		}
	}

	gap := blend.EstimateGap(obs, asOf, region, stratum)

	return Monthly{
		MonthEnd:             monthEnd,
		Region:               region,
		Stratum:              stratum,
		BeginningVolume:      beginning,
		EstimatedInjections:  injections,
		EstimatedWithdrawals: withdrawals,
		GapEstimate:          gap,
		GapDays:              gapDays,
		EndingVolume:         beginning + injections - withdrawals + gap,
	}
}

// Group identifies one (region, stratum) series.
type Group struct {
	Region  string
	Stratum estimate.Stratum
}

// Groups returns the distinct (region, stratum) groups present in the
// observations, sorted for stable iteration.
func Groups(obs []estimate.WeeklyObservation) []Group {
	seen := make(map[Group]bool)
	var groups []Group
	for _, o := range obs {
		g := Group{Region: o.Region, Stratum: estimate.ParseStratum(string(o.Stratum))}
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Region != groups[j].Region {
			return groups[i].Region < groups[j].Region
		}
		return groups[i].Stratum < groups[j].Stratum
	})
	return groups
}

// BuildAll computes rollforwards for every group concurrently. Group
// results are independent and order-insensitive, so the only coordination
// needed is the slot each result is written to; output order matches the
// sorted group order regardless of scheduling.
func BuildAll(ctx context.Context, obs []estimate.WeeklyObservation, asOf time.Time, weights estimate.Weights, groups []Group, ledger []estimate.LedgerEntry) ([]Monthly, error) {
	return BuildAllWithEstimator(ctx, obs, asOf, estimate.NewBlended(weights, ledger), groups)
}

// BuildAllWithEstimator is BuildAll with a caller-assembled gap estimator.
func BuildAllWithEstimator(ctx context.Context, obs []estimate.WeeklyObservation, asOf time.Time, blend estimate.Estimator, groups []Group) ([]Monthly, error) {
	results := make([]Monthly, len(groups))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, g := range groups {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = BuildWithEstimator(obs, asOf, blend, g.Region, g.Stratum)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
