package rollforward

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eiasa/internal/estimate"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weeklySeries() []estimate.WeeklyObservation {
	return []estimate.WeeklyObservation{
		{DateReported: date(2025, 7, 18), Region: "US", Stratum: estimate.StratumNone, WorkingGasVolume: 3080, DeltaFromPriorWeek: 0},
		{DateReported: date(2025, 7, 25), Region: "US", Stratum: estimate.StratumNone, WorkingGasVolume: 3100, DeltaFromPriorWeek: 20},
		{DateReported: date(2025, 8, 1), Region: "US", Stratum: estimate.StratumNone, WorkingGasVolume: 3150, DeltaFromPriorWeek: 50},
		{DateReported: date(2025, 8, 8), Region: "US", Stratum: estimate.StratumNone, WorkingGasVolume: 3130, DeltaFromPriorWeek: -20},
	}
}

func TestBuild(t *testing.T) {
	asOf := date(2025, 8, 31)
	weights := estimate.DefaultWeights()

	t.Run("rollforward invariant holds", func(t *testing.T) {
		roll := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil)

		assert.Equal(t, date(2025, 8, 31), roll.MonthEnd)
		want := roll.BeginningVolume + roll.EstimatedInjections - roll.EstimatedWithdrawals + roll.GapEstimate
		assert.InDelta(t, want, roll.EndingVolume, 1e-9)
	})

	t.Run("beginning is last volume at or before previous month-end", func(t *testing.T) {
		roll := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil)
		assert.InDelta(t, 3100.0, roll.BeginningVolume, 1e-9)
	})

	t.Run("in-month deltas split by sign", func(t *testing.T) {
		roll := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil)
		assert.InDelta(t, 50.0, roll.EstimatedInjections, 1e-9)
		assert.InDelta(t, 20.0, roll.EstimatedWithdrawals, 1e-9)
	})

	t.Run("gap days run from last report to month-end", func(t *testing.T) {
		roll := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil)
		assert.Equal(t, 23, roll.GapDays) // Aug 8 -> Aug 31
	})

	t.Run("cold start with no history", func(t *testing.T) {
		roll := Build(nil, asOf, weights, "US", estimate.StratumNone, nil)

		assert.Zero(t, roll.BeginningVolume)
		assert.Zero(t, roll.EstimatedInjections)
		assert.Zero(t, roll.EstimatedWithdrawals)
		assert.Zero(t, roll.GapEstimate)
		assert.Zero(t, roll.GapDays)
		assert.Zero(t, roll.EndingVolume)
	})

	t.Run("idempotent for identical inputs", func(t *testing.T) {
		obs := weeklySeries()
		ledger := []estimate.LedgerEntry{
			{Date: date(2025, 8, 15), Region: "US", Stratum: estimate.StratumNone, InjectionVolume: 1.25},
		}
		first := Build(obs, asOf, weights, "US", estimate.StratumNone, ledger)
		second := Build(obs, asOf, weights, "US", estimate.StratumNone, ledger)
		assert.Equal(t, first, second)
	})

	t.Run("ledger feeds the gap estimate", func(t *testing.T) {
		ledger := []estimate.LedgerEntry{
			{Date: date(2025, 8, 15), Region: "US", Stratum: estimate.StratumNone, InjectionVolume: 4.0, WithdrawalVolume: 1.0},
		}
		with := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, ledger)
		without := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil)

		// Method C contributes weights.C * (4 - 1) on top of the ledgerless blend.
		assert.InDelta(t, weights.C*3.0, with.GapEstimate-without.GapEstimate, 1e-9)
	})

	t.Run("empty stratum treated as sentinel", func(t *testing.T) {
		roll := Build(weeklySeries(), asOf, weights, "US", "", nil)
		assert.Equal(t, estimate.StratumNone, roll.Stratum)
		assert.InDelta(t, 3100.0, roll.BeginningVolume, 1e-9)
	})
}

func TestBuildWithEstimator(t *testing.T) {
	asOf := date(2025, 8, 31)
	weights := estimate.DefaultWeights()

	t.Run("default blend matches Build", func(t *testing.T) {
		blend := estimate.NewBlended(weights, nil)
		got := BuildWithEstimator(weeklySeries(), asOf, blend, "US", estimate.StratumNone)
		assert.Equal(t, Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil), got)
	})

	t.Run("custom lookback changes the gap estimate", func(t *testing.T) {
		short := estimate.Blended{
			Weights: weights,
			A:       estimate.HistoricalAverage{LookbackWeeks: 1},
			B:       estimate.SeasonalMonthly{},
			C:       estimate.OperationalLedger{},
		}
		got := BuildWithEstimator(weeklySeries(), asOf, short, "US", estimate.StratumNone)
		def := Build(weeklySeries(), asOf, weights, "US", estimate.StratumNone, nil)
		assert.NotEqual(t, def.GapEstimate, got.GapEstimate)
	})
}

func TestGroups(t *testing.T) {
	obs := []estimate.WeeklyObservation{
		{Region: "US", Stratum: "salt"},
		{Region: "East", Stratum: estimate.StratumNone},
		{Region: "US", Stratum: "salt"},
		{Region: "US", Stratum: ""},
	}

	groups := Groups(obs)
	assert.Equal(t, []Group{
		{Region: "East", Stratum: estimate.StratumNone},
		{Region: "US", Stratum: estimate.StratumNone},
		{Region: "US", Stratum: "salt"},
	}, groups)
}

func TestBuildAll(t *testing.T) {
	obs := append(weeklySeries(),
		estimate.WeeklyObservation{DateReported: date(2025, 7, 25), Region: "East", Stratum: "salt", WorkingGasVolume: 400, DeltaFromPriorWeek: 0},
		estimate.WeeklyObservation{DateReported: date(2025, 8, 1), Region: "East", Stratum: "salt", WorkingGasVolume: 410, DeltaFromPriorWeek: 10},
	)
	asOf := date(2025, 8, 31)
	weights := estimate.DefaultWeights()

	t.Run("matches sequential builds in group order", func(t *testing.T) {
		groups := Groups(obs)
		got, err := BuildAll(context.Background(), obs, asOf, weights, groups, nil)
		require.NoError(t, err)
		require.Len(t, got, len(groups))

		for i, g := range groups {
			assert.Equal(t, Build(obs, asOf, weights, g.Region, g.Stratum, nil), got[i])
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := BuildAll(ctx, obs, asOf, weights, Groups(obs), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestComputeKPIs(t *testing.T) {
	roll := Monthly{
		MonthEnd:     date(2025, 8, 31),
		Region:       "US",
		Stratum:      estimate.StratumNone,
		EndingVolume: 3298.0,
	}

	t.Run("percent of capacity from latest year", func(t *testing.T) {
		capacity := []estimate.CapacitySnapshot{
			{Region: "US", Stratum: estimate.StratumNone, Year: 2024, WorkingCapacity: 3700},
			{Region: "US", Stratum: estimate.StratumNone, Year: 2025, WorkingCapacity: 3800},
			{Region: "East", Stratum: estimate.StratumNone, Year: 2025, WorkingCapacity: 900},
		}

		kpi := ComputeKPIs(roll, capacity)
		require.NotNil(t, kpi.PercentOfCapacity)
		assert.InDelta(t, 86.79, *kpi.PercentOfCapacity, 0.01)
		require.NotNil(t, kpi.WorkingCapacity)
		assert.InDelta(t, 3800.0, *kpi.WorkingCapacity, 1e-9)
	})

	t.Run("no capacity data leaves percent unknown", func(t *testing.T) {
		kpi := ComputeKPIs(roll, nil)
		assert.Nil(t, kpi.PercentOfCapacity)
		assert.Nil(t, kpi.WorkingCapacity)
	})

	t.Run("no matching group leaves percent unknown", func(t *testing.T) {
		capacity := []estimate.CapacitySnapshot{
			{Region: "East", Stratum: estimate.StratumNone, Year: 2025, WorkingCapacity: 900},
		}
		kpi := ComputeKPIs(roll, capacity)
		assert.Nil(t, kpi.PercentOfCapacity)
	})

	t.Run("zscore stub stays unset", func(t *testing.T) {
		capacity := []estimate.CapacitySnapshot{
			{Region: "US", Stratum: estimate.StratumNone, Year: 2025, WorkingCapacity: 3800},
		}
		kpi := ComputeKPIs(roll, capacity)
		assert.Nil(t, kpi.ZScoreVs5Yr)
	})
}
