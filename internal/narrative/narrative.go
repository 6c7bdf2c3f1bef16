// Package narrative renders the monthly close results into short markdown
// summaries for two audiences: a CFO-facing accrual summary and an
// operations-facing flow summary.
package narrative

import (
	"fmt"
	"strings"
	"time"

	"eiasa/internal/accrual"
	"eiasa/internal/estimate"
	"eiasa/internal/rollforward"
)

// Inputs carries everything the narrative templates reference. Assembled
// from the rollforward, KPI, and accrual rows for the selected group plus
// commentary fields supplied by the analyst.
type Inputs struct {
	MonthEnd        time.Time
	EndingVolume    float64
	PercentCapacity *float64
	ZScoreText      string
	GapDays         int
	Weights         estimate.Weights

	InventoryAccrual float64
	VariableFees     float64
	FixedDemand      float64
	Penalties        float64
	TotalLow         float64
	TotalBase        float64
	TotalHigh        float64
	BandPct          float64

	Injections  float64
	Withdrawals float64
	GapEstimate float64

	DominantMethod string
	Rationale      string
	HotspotRegion  string
	HotspotStratum estimate.Stratum
	HotspotDriver  string
	NomAdjust      float64
	ScenarioName   string
	TariffInj      float64
	TariffWd       float64
}

// BuildInputs assembles narrative inputs from computed rows. Commentary
// fields get standing defaults so the rendered summaries always read
// complete; callers override them before rendering when the analyst has
// month-specific commentary.
func BuildInputs(roll rollforward.Monthly, kpi rollforward.KPIRecord, acc accrual.Record, weights estimate.Weights, bandPct float64) Inputs {
	return Inputs{
		MonthEnd:         roll.MonthEnd,
		EndingVolume:     roll.EndingVolume,
		PercentCapacity:  kpi.PercentOfCapacity,
		ZScoreText:       "near the 5-year average",
		GapDays:          roll.GapDays,
		Weights:          weights,
		InventoryAccrual: acc.InventoryAccrual,
		VariableFees:     acc.VariableFees,
		FixedDemand:      acc.FixedDemand,
		Penalties:        acc.PenaltyEstimate,
		TotalLow:         acc.TotalAccrualLow,
		TotalBase:        acc.TotalAccrualBase,
		TotalHigh:        acc.TotalAccrualHigh,
		BandPct:          bandPct,
		Injections:       roll.EstimatedInjections,
		Withdrawals:      roll.EstimatedWithdrawals,
		GapEstimate:      roll.GapEstimate,
		DominantMethod:   "Method C (Ops)",
		Rationale:        "recent nominations/injections during the gap window",
		HotspotRegion:    roll.Region,
		HotspotStratum:   roll.Stratum,
		HotspotDriver:    "South-Central salt variability",
		NomAdjust:        0.10,
		ScenarioName:     "cold-snap",
		TariffInj:        0.02,
		TariffWd:         0.03,
	}
}

// CFOSummary renders the finance-facing close narrative.
func (n Inputs) CFOSummary() string {
	lines := []string{
		fmt.Sprintf("As of %s, estimated working gas is **%s Bcf**, which is **%s of working capacity**.",
			n.MonthEnd.Format("2006-01-02"), comma(n.EndingVolume), pctOrDash(n.PercentCapacity)),
		fmt.Sprintf("We used the **Base** scenario with blended estimator weights **C:A:B = %v:%v:%v**, projecting **%d** gap day(s) from the last weekly report.",
			n.Weights.C, n.Weights.A, n.Weights.B, n.GapDays),
		"",
		fmt.Sprintf("**Accrual summary (USD):** Inventory **$%s**, Variable fees **$%s**, Fixed demand **$%s**, Penalties (expected) **$%s**.",
			comma(n.InventoryAccrual), comma(n.VariableFees), comma(n.FixedDemand), comma(n.Penalties)),
		fmt.Sprintf("Total Base accrual **$%s**, with sensitivity band ±%.1f%% (**$%s – $%s**).",
			comma(n.TotalBase), n.BandPct*100, comma(n.TotalLow), comma(n.TotalHigh)),
		"",
		fmt.Sprintf("Context: storage stands **%s** relative to the 5-year average; risk this month is primarily driven by **%s**. We expect any true-up to fall within the sensitivity band.",
			n.ZScoreText, n.HotspotDriver),
	}
	return strings.Join(lines, "\n")
}

// OpsSummary renders the operations-facing flow narrative.
func (n Inputs) OpsSummary() string {
	lines := []string{
		fmt.Sprintf("For %s, projected **injections = %s Bcf** and **withdrawals = %s Bcf** (net gap delta %s Bcf).",
			n.MonthEnd.Format("2006-01-02"), comma2(n.Injections), comma2(n.Withdrawals), comma2(n.GapEstimate)),
		fmt.Sprintf("The blended estimator emphasized **%s** due to %s.", n.DominantMethod, n.Rationale),
		"",
		"Hotspots:",
		fmt.Sprintf("- Region: **%s** (%s).", n.HotspotRegion, n.HotspotStratum),
		fmt.Sprintf("  Driver: %s; recommend adjusting nominations by **%s Bcf** under **%s** scenario.",
			n.HotspotDriver, comma2(n.NomAdjust), n.ScenarioName),
		"",
		"Operational asks:",
		fmt.Sprintf("- Confirm ops file coverage for %d gap day(s).", n.GapDays),
		fmt.Sprintf("- Validate tariff assumptions (inj %v, wd %v).", n.TariffInj, n.TariffWd),
		"- Flag any expected imbalance penalties beyond the base estimate.",
	}
	return strings.Join(lines, "\n")
}

// comma formats n with thousands separators and no decimals.
func comma(n float64) string {
	return groupDigits(fmt.Sprintf("%.0f", n))
}

// comma2 formats n with thousands separators and two decimals.
func comma2(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	dot := strings.Index(s, ".")
	return groupDigits(s[:dot]) + s[dot:]
}

// pctOrDash renders an optional percentage, "n/a" when unknown.
func pctOrDash(n *float64) string {
	if n == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *n)
}

// groupDigits inserts commas into the integer part of a formatted number.
func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
