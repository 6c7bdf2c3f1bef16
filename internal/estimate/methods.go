package estimate

import "time"

// DefaultLookbackWeeks is the historical-average lookback applied when a
// HistoricalAverage estimator is built with a non-positive lookback.
const DefaultLookbackWeeks = 4

// daysPerWeek converts weekly deltas into daily rates.
const daysPerWeek = 7.0

// HistoricalAverage estimates the gap from the average daily rate of the
// most recent weekly deltas. The rate is sum(delta)/(7*count) over the
// lookback tail, projected over the gap days.
type HistoricalAverage struct {
	LookbackWeeks int
}

// NewHistoricalAverage returns a HistoricalAverage with the default
// four-week lookback.
func NewHistoricalAverage() HistoricalAverage {
	return HistoricalAverage{LookbackWeeks: DefaultLookbackWeeks}
}

// EstimateGap implements Estimator.
func (e HistoricalAverage) EstimateGap(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) float64 {
	return e.EstimateGapDetail(obs, asOf, region, stratum).Value
}

// EstimateGapDetail reports the estimate together with data-presence
// information.
func (e HistoricalAverage) EstimateGapDetail(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) GapEstimate {
	series := atOrBefore(selectSeries(obs, region, stratum), asOf)
	if len(series) == 0 {
		return GapEstimate{}
	}

	last := series[len(series)-1].DateReported
	g := GapDays(last, MonthEnd(asOf))

	lookback := e.LookbackWeeks
	if lookback <= 0 {
		lookback = DefaultLookbackWeeks
	}
	tail := series
	if len(tail) > lookback {
		tail = tail[len(tail)-lookback:]
	}

	var sum float64
	for _, o := range tail {
		sum += o.DeltaFromPriorWeek
	}
	avgDaily := sum / (daysPerWeek * float64(len(tail)))

	return GapEstimate{
		Value:        avgDaily * float64(g),
		DataPresent:  true,
		GapDays:      g,
		LastReported: last,
	}
}

// SeasonalMonthly estimates the gap from the average daily rate of the
// target calendar month, pooled across every historical year in the series.
// Pooling by calendar month number is deliberate: it treats all Augusts as
// one season regardless of year.
type SeasonalMonthly struct{}

// EstimateGap implements Estimator.
func (e SeasonalMonthly) EstimateGap(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) float64 {
	return e.EstimateGapDetail(obs, asOf, region, stratum).Value
}

// EstimateGapDetail reports the estimate together with data-presence
// information. DataPresent is false when the target month has no historical
// daily-rate entries.
func (e SeasonalMonthly) EstimateGapDetail(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) GapEstimate {
	series := atOrBefore(selectSeries(obs, region, stratum), asOf)
	if len(series) == 0 {
		return GapEstimate{}
	}

	last := series[len(series)-1].DateReported
	g := GapDays(last, MonthEnd(asOf))

	// Mean daily rate per calendar month across all history.
	var sums [13]float64
	var counts [13]int
	for _, o := range series {
		m := int(o.DateReported.Month())
		sums[m] += o.DeltaFromPriorWeek / daysPerWeek
		counts[m]++
	}

	target := int(asOf.Month())
	if counts[target] == 0 {
		return GapEstimate{GapDays: g, LastReported: last}
	}
	rate := sums[target] / float64(counts[target])

	return GapEstimate{
		Value:        rate * float64(g),
		DataPresent:  true,
		GapDays:      g,
		LastReported: last,
	}
}

// OperationalLedger estimates the gap as the net injections minus
// withdrawals recorded in an operational ledger over the gap window:
// entries strictly after the last reported date and up to and including
// the month-end, matched on (region, stratum). A missing or empty ledger
// contributes 0.0.
type OperationalLedger struct {
	Entries []LedgerEntry
}

// EstimateGap implements Estimator.
func (e OperationalLedger) EstimateGap(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) float64 {
	return e.EstimateGapDetail(obs, asOf, region, stratum).Value
}

// EstimateGapDetail reports the estimate together with data-presence
// information. DataPresent is true only when at least one ledger entry
// fell inside the gap window for the group.
func (e OperationalLedger) EstimateGapDetail(obs []WeeklyObservation, asOf time.Time, region string, stratum Stratum) GapEstimate {
	series := selectSeries(obs, region, stratum)
	last, ok := lastReported(series, asOf)
	if !ok {
		return GapEstimate{}
	}

	monthEnd := MonthEnd(asOf)
	g := GapDays(last, monthEnd)
	if !monthEnd.After(last) {
		// Month already fully covered by weekly data; nothing to bridge.
		return GapEstimate{GapDays: g, LastReported: last}
	}

	want := ParseStratum(string(stratum))
	var net float64
	matched := 0
	for _, entry := range e.Entries {
		if entry.Region != region || ParseStratum(string(entry.Stratum)) != want {
			continue
		}
		if !entry.Date.After(last) || entry.Date.After(monthEnd) {
			continue
		}
		net += entry.InjectionVolume - entry.WithdrawalVolume
		matched++
	}
	if matched == 0 {
		return GapEstimate{GapDays: g, LastReported: last}
	}

	return GapEstimate{
		Value:        net,
		DataPresent:  true,
		GapDays:      g,
		LastReported: last,
	}
}
