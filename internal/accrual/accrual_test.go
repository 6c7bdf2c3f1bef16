package accrual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eiasa/internal/estimate"
	"eiasa/internal/rollforward"
)

func referenceRoll() rollforward.Monthly {
	return rollforward.Monthly{
		MonthEnd:             time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
		Region:               "US",
		Stratum:              estimate.StratumNone,
		EstimatedInjections:  0.25,
		EstimatedWithdrawals: 0.05,
		EndingVolume:         3298.0,
	}
}

func referenceInputs() Inputs {
	return Inputs{
		WACOGPerUnit:         3.25,
		VolumeToEnergyFactor: 1_037_000,
		FixedTariff:          120_000,
		InjectionTariff:      0.02,
		WithdrawalTariff:     0.03,
		ScenarioBand:         0.10,
	}
}

// TestCalculateReferenceChain verifies the exact arithmetic chain of the
// reference close: 3298 Bcf at 1,037,000 MMBtu/Bcf and $3.25 WACOG.
func TestCalculateReferenceChain(t *testing.T) {
	record := Calculate(referenceRoll(), referenceInputs())

	inventory := 3298.0 * 1_037_000 * 3.25
	variable := 0.25*1_037_000*0.02 + 0.05*1_037_000*0.03
	base := inventory + variable + 120_000

	assert.InDelta(t, inventory, record.InventoryAccrual, 1e-6)
	assert.InDelta(t, variable, record.VariableFees, 1e-6)
	assert.InDelta(t, 120_000.0, record.FixedDemand, 1e-9)
	assert.Zero(t, record.PenaltyEstimate)
	assert.InDelta(t, base, record.TotalAccrualBase, 1e-6)
	assert.InDelta(t, base*0.9, record.TotalAccrualLow, 1e-6)
	assert.InDelta(t, base*1.1, record.TotalAccrualHigh, 1e-6)

	// Magnitude check against the published figure.
	assert.InDelta(t, 1.1122e10, record.InventoryAccrual, 0.001e10)
}

func TestCalculateBandInvariant(t *testing.T) {
	bands := []float64{0, 0.05, 0.10, 0.25, 0.5, 0.99}

	for _, band := range bands {
		in := referenceInputs()
		in.ScenarioBand = band
		record := Calculate(referenceRoll(), in)

		assert.InDelta(t, record.TotalAccrualBase*(1-band), record.TotalAccrualLow, 1e-9*record.TotalAccrualBase)
		assert.InDelta(t, record.TotalAccrualBase*(1+band), record.TotalAccrualHigh, 1e-9*record.TotalAccrualBase)
	}
}

func TestCalculatePenaltyExpectedValue(t *testing.T) {
	in := referenceInputs()
	in.PenaltyProbability = 0.2
	in.PenaltyAmount = 500_000

	record := Calculate(referenceRoll(), in)
	assert.InDelta(t, 100_000.0, record.PenaltyEstimate, 1e-9)
}

func TestCalculateCarriesIdentity(t *testing.T) {
	record := Calculate(referenceRoll(), referenceInputs())

	assert.Equal(t, "US", record.Region)
	assert.Equal(t, estimate.StratumNone, record.Stratum)
	assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), record.MonthEnd)
}

func TestCalculateTrustsCallerWithoutValidation(t *testing.T) {
	// The plain path accepts out-of-range input untouched: a negative
	// tariff flows straight through the arithmetic.
	in := referenceInputs()
	in.InjectionTariff = -0.02

	record := Calculate(referenceRoll(), in)
	assert.Negative(t, record.VariableFees)
}

func TestCalculateAll(t *testing.T) {
	rolls := []rollforward.Monthly{referenceRoll(), referenceRoll()}
	records := CalculateAll(rolls, referenceInputs())

	require.Len(t, records, 2)
	assert.Equal(t, records[0], records[1])
}

func TestNewInputsDefaults(t *testing.T) {
	in := NewInputs(3.25)

	assert.InDelta(t, DefaultVolumeToEnergyFactor, in.VolumeToEnergyFactor, 1e-9)
	assert.InDelta(t, 0.10, in.ScenarioBand, 1e-9)
	assert.InDelta(t, 3.25, in.WACOGPerUnit, 1e-9)
}

func TestInputsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Inputs)
		wantErr bool
	}{
		{"reference inputs pass", func(in *Inputs) {}, false},
		{"zero wacog rejected", func(in *Inputs) { in.WACOGPerUnit = 0 }, true},
		{"negative tariff rejected", func(in *Inputs) { in.InjectionTariff = -0.01 }, true},
		{"band of one rejected", func(in *Inputs) { in.ScenarioBand = 1.0 }, true},
		{"band just under one accepted", func(in *Inputs) { in.ScenarioBand = 0.999 }, false},
		{"probability above one rejected", func(in *Inputs) { in.PenaltyProbability = 1.5 }, true},
		{"negative penalty amount rejected", func(in *Inputs) { in.PenaltyAmount = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := referenceInputs()
			tt.mutate(&in)

			err := in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
