package estimate

import "time"

// Weights holds the blend weights for the three estimators. Weights are
// caller-supplied and are NOT normalized: they need not sum to 1, and the
// blend is the raw weighted sum. Silently rescaling caller input would hide
// configuration mistakes, so the engine takes the weights at face value.
type Weights struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// DefaultWeights returns the production blend: the operational ledger
// carries half the weight, recent history 30%, seasonality 20%.
func DefaultWeights() Weights {
	return Weights{A: 0.3, B: 0.2, C: 0.5}
}

// Blended combines the three gap estimators as wA*A + wB*B + wC*C.
type Blended struct {
	Weights Weights
	A       Estimator
	B       Estimator
	C       Estimator
}

// NewBlended wires the standard estimator set: default-lookback historical
// average, seasonal monthly average, and an operational ledger over the
// supplied entries.
func NewBlended(weights Weights, ledger []LedgerEntry) Blended {
	return Blended{
		Weights: weights,
		A:       NewHistoricalAverage(),
		B:       SeasonalMonthly{},
		C:       OperationalLedger{Entries: ledger},
	}
}

// EstimateGap implements Estimator.
func (e Blended) EstimateGap(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) float64 {
	a := e.A.EstimateGap(obs, asOf, region, stratum)
	b := e.B.EstimateGap(obs, asOf, region, stratum)
	c := e.C.EstimateGap(obs, asOf, region, stratum)
	return e.Weights.A*a + e.Weights.B*b + e.Weights.C*c
}

// EstimateGapDetail reports the blended value with presence information
// aggregated across components: DataPresent is true when any component had
// qualifying data.
func (e Blended) EstimateGapDetail(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) GapEstimate {
	series := selectSeries(obs, region, stratum)
	last, ok := lastReported(series, asOf)

	detail := GapEstimate{Value: e.EstimateGap(obs, asOf, region, stratum)}
	if ok {
		detail.LastReported = last
		detail.GapDays = GapDays(last, MonthEnd(asOf))
	}

	for _, est := range []Estimator{e.A, e.B, e.C} {
		d, hasDetail := est.(interface {
			EstimateGapDetail([]WeeklyObservation, time.Time, string, Stratum) GapEstimate
		})
		if hasDetail && d.EstimateGapDetail(obs, asOf, region, stratum).DataPresent {
			detail.DataPresent = true
			break
		}
	}
	return detail
}
