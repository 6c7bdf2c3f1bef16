package accrual

import (
	"time"

	"eiasa/internal/estimate"
	"eiasa/internal/rollforward"
)

// Record is the monetary accrual derived 1:1 from a monthly rollforward row
// and an Inputs configuration. Purely computed, no independent identity.
type Record struct {
	MonthEnd         time.Time        `json:"month_end"`
	Region           string           `json:"region"`
	Stratum          estimate.Stratum `json:"stratum"`
	InventoryAccrual float64          `json:"inventory_accrual"`
	VariableFees     float64          `json:"variable_fees"`
	FixedDemand      float64          `json:"fixed_demand"`
	PenaltyEstimate  float64          `json:"penalty_estimate"`
	TotalAccrualLow  float64          `json:"total_accrual_low"`
	TotalAccrualBase float64          `json:"total_accrual_base"`
	TotalAccrualHigh float64          `json:"total_accrual_high"`
}

// Calculate converts a monthly rollforward into accrual lines:
//
//	inventory_accrual = ending_volume * factor * wacog
//	variable_fees     = inj*factor*inj_tariff + wd*factor*wd_tariff
//	fixed_demand      = fixed_tariff (passthrough, not prorated)
//	penalty_estimate  = probability * amount (expected value)
//	base              = sum of the above
//	low/high          = base * (1 -/+ scenario_band)
func Calculate(roll rollforward.Monthly, in Inputs) Record {
	inventory := roll.EndingVolume * in.VolumeToEnergyFactor * in.WACOGPerUnit

	injEnergy := roll.EstimatedInjections * in.VolumeToEnergyFactor
	wdEnergy := roll.EstimatedWithdrawals * in.VolumeToEnergyFactor
	variable := injEnergy*in.InjectionTariff + wdEnergy*in.WithdrawalTariff

	penalty := in.PenaltyProbability * in.PenaltyAmount
	base := inventory + variable + in.FixedTariff + penalty

	return Record{
		MonthEnd:         roll.MonthEnd,
		Region:           roll.Region,
		Stratum:          roll.Stratum,
		InventoryAccrual: inventory,
		VariableFees:     variable,
		FixedDemand:      in.FixedTariff,
		PenaltyEstimate:  penalty,
		TotalAccrualLow:  base * (1 - in.ScenarioBand),
		TotalAccrualBase: base,
		TotalAccrualHigh: base * (1 + in.ScenarioBand),
	}
}

// CalculateAll converts every rollforward row with the same inputs.
func CalculateAll(rolls []rollforward.Monthly, in Inputs) []Record {
	records := make([]Record, len(rolls))
	for i, roll := range rolls {
		records[i] = Calculate(roll, in)
	}
	return records
}
