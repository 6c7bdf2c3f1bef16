// Package accrual converts physical month-end inventory and flows into
// monetary accrual lines: inventory value at WACOG, variable injection and
// withdrawal fees, fixed demand charges, expected penalties, and low/base/
// high scenario bands.
package accrual

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultVolumeToEnergyFactor converts Bcf to MMBtu.
const DefaultVolumeToEnergyFactor = 1_037_000.0

// Inputs is the caller-supplied accrual configuration for one calculation.
// The plain Calculate path performs no validation: any numeric input is
// accepted, and callers are trusted. Callers wanting range enforcement opt
// in through Validate before calculating; inputs are never silently fixed
// up either way.
type Inputs struct {
	WACOGPerUnit         float64 `json:"wacog_per_unit" yaml:"wacog_per_unit" validate:"gt=0"`
	VolumeToEnergyFactor float64 `json:"volume_to_energy_factor" yaml:"volume_to_energy_factor" validate:"gt=0"`
	FixedTariff          float64 `json:"fixed_tariff" yaml:"fixed_tariff" validate:"gte=0"`
	InjectionTariff      float64 `json:"injection_tariff" yaml:"injection_tariff" validate:"gte=0"`
	WithdrawalTariff     float64 `json:"withdrawal_tariff" yaml:"withdrawal_tariff" validate:"gte=0"`
	ScenarioBand         float64 `json:"scenario_band" yaml:"scenario_band" validate:"gte=0,lt=1"`
	PenaltyProbability   float64 `json:"penalty_probability" yaml:"penalty_probability" validate:"gte=0,lte=1"`
	PenaltyAmount        float64 `json:"penalty_amount" yaml:"penalty_amount" validate:"gte=0"`
}

// NewInputs returns Inputs with the documented fallback constants applied:
// the default Bcf-to-MMBtu factor and a 10% scenario band.
func NewInputs(wacogPerUnit float64) Inputs {
	return Inputs{
		WACOGPerUnit:         wacogPerUnit,
		VolumeToEnergyFactor: DefaultVolumeToEnergyFactor,
		ScenarioBand:         0.10,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate is the opt-in strict mode: it rejects non-positive WACOG or
// conversion factors, negative tariffs, out-of-range scenario bands, and
// penalty probabilities outside [0, 1].
func (in Inputs) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("validate accrual inputs: %w", err)
	}
	return nil
}
