package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eiasa/internal/estimate"
)

func TestNormalizeWeekly(t *testing.T) {
	t.Run("resolves aliases and computes group deltas", func(t *testing.T) {
		rows := []RawRow{
			{"period": "2025-08-01", "value": "3150", "area": "US"},
			{"period": "2025-07-25", "value": "3100", "area": "US"},
			{"period": "2025-08-01", "value": "410", "area": "East", "stratum": "salt"},
			{"period": "2025-07-25", "value": "400", "area": "East", "stratum": "salt"},
		}

		obs, err := NormalizeWeekly(rows)
		require.NoError(t, err)
		require.Len(t, obs, 4)

		// Sorted by (region, stratum, date); first row of each group delta 0.
		assert.Equal(t, "East", obs[0].Region)
		assert.Equal(t, estimate.Stratum("salt"), obs[0].Stratum)
		assert.Zero(t, obs[0].DeltaFromPriorWeek)
		assert.InDelta(t, 10.0, obs[1].DeltaFromPriorWeek, 1e-9)

		assert.Equal(t, "US", obs[2].Region)
		assert.Equal(t, estimate.StratumNone, obs[2].Stratum)
		assert.Equal(t, time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC), obs[2].DateReported)
		assert.Zero(t, obs[2].DeltaFromPriorWeek)
		assert.InDelta(t, 50.0, obs[3].DeltaFromPriorWeek, 1e-9)
	})

	t.Run("canonical column names win over aliases", func(t *testing.T) {
		rows := []RawRow{
			{"date_reported": "2025-08-01", "period": "1999-01-01", "working_gas_volume": "3150", "region": "US"},
		}

		obs, err := NormalizeWeekly(rows)
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), obs[0].DateReported)
		assert.InDelta(t, 3150.0, obs[0].WorkingGasVolume, 1e-9)
	})

	t.Run("unresolvable region is a schema error", func(t *testing.T) {
		rows := []RawRow{{"period": "2025-08-01", "value": "3150"}}

		_, err := NormalizeWeekly(rows)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Contains(t, schemaErr.Columns, "region")
	})

	t.Run("unparseable rows are skipped", func(t *testing.T) {
		rows := []RawRow{
			{"period": "2025-08-01", "value": "3150", "area": "US"},
			{"period": "not-a-date", "value": "3200", "area": "US"},
			{"period": "2025-08-08", "value": "n/a", "area": "US"},
		}

		obs, err := NormalizeWeekly(rows)
		require.NoError(t, err)
		assert.Len(t, obs, 1)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		obs, err := NormalizeWeekly(nil)
		require.NoError(t, err)
		assert.Empty(t, obs)
	})
}

func TestNormalizeCapacity(t *testing.T) {
	t.Run("renames and defaults stratum", func(t *testing.T) {
		rows := []RawRow{
			{"area": "US", "year": "2025", "working_capacity": "3800", "design_capacity": "4500"},
			{"area": "US", "year": "2024", "working_capacity": "3750", "design_capacity": "4500"},
		}

		snaps, err := NormalizeCapacity(rows)
		require.NoError(t, err)
		require.Len(t, snaps, 2)

		// Sorted by year within the group.
		assert.Equal(t, 2024, snaps[0].Year)
		assert.Equal(t, "US", snaps[0].Region)
		assert.Equal(t, estimate.StratumNone, snaps[0].Stratum)
		assert.InDelta(t, 3800.0, snaps[1].WorkingCapacity, 1e-9)
		assert.InDelta(t, 4500.0, snaps[1].DesignCapacity, 1e-9)
	})

	t.Run("accepts EIA column names", func(t *testing.T) {
		rows := []RawRow{
			{"duoarea": "R10", "period": "2025", "working_capacity": "980", "design_capacity": "1200"},
		}

		snaps, err := NormalizeCapacity(rows)
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "R10", snaps[0].Region)
		assert.Equal(t, 2025, snaps[0].Year)
	})

	t.Run("schema error lists every missing column", func(t *testing.T) {
		rows := []RawRow{{"area": "US"}}

		_, err := NormalizeCapacity(rows)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.ElementsMatch(t, []string{"year", "working_capacity", "design_capacity"}, schemaErr.Columns)
		assert.Contains(t, err.Error(), "working_capacity")
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		snaps, err := NormalizeCapacity(nil)
		require.NoError(t, err)
		assert.Empty(t, snaps)
	})
}
