// Package estimate implements the blended gap-estimation engine for
// month-end natural-gas storage inventory.
//
// Weekly working-gas reports arrive on Fridays, so the accounting month-end
// usually falls a few days past the last data point. This package bridges
// that gap with three independent estimators of the expected net volume
// change over the uncovered window:
//
//  1. HistoricalAverage: average daily rate over a recent lookback of
//     weekly deltas, projected over the gap days.
//  2. SeasonalMonthly: average daily rate for the target calendar month,
//     pooled across all historical years, projected over the gap days.
//  3. OperationalLedger: net injections minus withdrawals taken directly
//     from an operational ledger covering the gap window.
//
// Blended combines the three with caller-supplied weights.
//
// Every estimator is a pure function of its inputs. Absence of qualifying
// data is not an error: estimators degrade to a 0.0 contribution so the
// rollforward pipeline never blocks on missing history. Callers that need
// to distinguish "no data" from "computed zero" use the EstimateGapDetail
// variants, which report whether data was present.
package estimate
