// Command close-pack runs the monthly close: it builds rollforwards, KPIs,
// and accruals from the silver tables, writes the gold tables, renders the
// Excel close pack, and emits the CFO and operations narratives.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"eiasa/internal/accrual"
	"eiasa/internal/config"
	"eiasa/internal/estimate"
	"eiasa/internal/exporter"
	"eiasa/internal/infrastructure"
	"eiasa/internal/narrative"
	"eiasa/internal/rollforward"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	asOfFlag := flag.String("asof", "", "close as-of date (YYYY-MM-DD, defaults to today)")
	narrRegion := flag.String("narrative-region", "", "region for the narrative summaries (defaults to the first group)")
	narrStratum := flag.String("narrative-stratum", "", "stratum for the narrative summaries")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		logger.Error("resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("ensure directories", "error", err)
		os.Exit(1)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if *asOfFlag != "" {
		if asOf, err = time.Parse("2006-01-02", *asOfFlag); err != nil {
			logger.Error("parse asof date", "error", err)
			os.Exit(1)
		}
	}

	ctx := infrastructure.WithTraceID(context.Background(), uuid.NewString())
	metrics := infrastructure.NewMetrics()

	start := time.Now()
	err = run(ctx, cfg, paths, asOf, *narrRegion, *narrStratum, logger)
	metrics.ObserveStage("close_pack", err, time.Since(start))
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, paths *config.Paths, asOf time.Time, narrRegion, narrStratum string, logger *slog.Logger) error {
	obs, err := exporter.ReadWeeklyCSV(paths.WeeklyCSV)
	if err != nil {
		logger.ErrorContext(ctx, "read weekly table", "error", err)
		return err
	}
	capacity, err := exporter.ReadCapacityCSV(paths.CapacityCSV)
	if err != nil {
		logger.ErrorContext(ctx, "read capacity table", "error", err)
		return err
	}
	ledger, err := exporter.ReadLedgerCSV(paths.LedgerCSV)
	if err != nil {
		logger.ErrorContext(ctx, "read operational ledger", "error", err)
		return err
	}
	logger.InfoContext(ctx, "silver tables loaded",
		slog.Int("observations", len(obs)),
		slog.Int("capacity_rows", len(capacity)),
		slog.Int("ledger_entries", len(ledger)))

	weights := estimate.Weights{
		A: cfg.Estimation.WeightA,
		B: cfg.Estimation.WeightB,
		C: cfg.Estimation.WeightC,
	}
	blend := estimate.Blended{
		Weights: weights,
		A:       estimate.HistoricalAverage{LookbackWeeks: cfg.Estimation.LookbackWeeks},
		B:       estimate.SeasonalMonthly{},
		C:       estimate.OperationalLedger{Entries: ledger},
	}

	groups := rollforward.Groups(obs)
	rolls, err := rollforward.BuildAllWithEstimator(ctx, obs, asOf, blend, groups)
	if err != nil {
		logger.ErrorContext(ctx, "build rollforwards", "error", err)
		return err
	}
	kpis := rollforward.ComputeAllKPIs(rolls, capacity)

	inputs := accrual.Inputs{
		WACOGPerUnit:         cfg.Accrual.WACOGPerUnit,
		VolumeToEnergyFactor: cfg.Accrual.VolumeToEnergyFactor,
		FixedTariff:          cfg.Accrual.FixedDemandCharges,
		InjectionTariff:      cfg.Accrual.InjectionTariff,
		WithdrawalTariff:     cfg.Accrual.WithdrawalTariff,
		ScenarioBand:         cfg.Accrual.ScenarioBand,
		PenaltyProbability:   cfg.Accrual.PenaltyProbability,
		PenaltyAmount:        cfg.Accrual.PenaltyAmount,
	}
	if err := inputs.Validate(); err != nil {
		logger.ErrorContext(ctx, "validate accrual inputs", "error", err)
		return err
	}
	accruals := accrual.CalculateAll(rolls, inputs)

	if err := exporter.WriteRollforwardCSV(paths.RollforwardCSV, rolls); err != nil {
		logger.ErrorContext(ctx, "write rollforward table", "error", err)
		return err
	}
	if err := exporter.WriteKPIsCSV(paths.KPIsCSV, kpis); err != nil {
		logger.ErrorContext(ctx, "write kpi table", "error", err)
		return err
	}
	if err := exporter.WriteAccrualsCSV(paths.AccrualsCSV, accruals); err != nil {
		logger.ErrorContext(ctx, "write accrual table", "error", err)
		return err
	}
	logger.InfoContext(ctx, "gold tables written",
		slog.Int("groups", len(groups)),
		slog.String("gold_dir", paths.GoldDir))

	pack := exporter.ClosePack{
		Rollforward: rolls,
		KPIs:        kpis,
		Accruals:    accruals,
		Assumptions: map[string]interface{}{
			"as_of":                   asOf.Format("2006-01-02"),
			"weights_a":               weights.A,
			"weights_b":               weights.B,
			"weights_c":               weights.C,
			"lookback_weeks":          cfg.Estimation.LookbackWeeks,
			"wacog_per_unit":          inputs.WACOGPerUnit,
			"volume_to_energy_factor": inputs.VolumeToEnergyFactor,
			"injection_tariff":        inputs.InjectionTariff,
			"withdrawal_tariff":       inputs.WithdrawalTariff,
			"fixed_demand_charges":    inputs.FixedTariff,
			"penalty_probability":     inputs.PenaltyProbability,
			"penalty_amount":          inputs.PenaltyAmount,
			"scenario_band":           inputs.ScenarioBand,
		},
	}
	runID, err := exporter.WriteClosePack(paths.ClosePackXLSX, pack)
	if err != nil {
		logger.ErrorContext(ctx, "write close pack workbook", "error", err)
		return err
	}
	logger.InfoContext(ctx, "close pack written",
		slog.String("run_id", runID),
		slog.String("path", paths.ClosePackXLSX))

	if err := writeNarratives(ctx, paths, rolls, kpis, accruals, weights, inputs, narrRegion, narrStratum, logger); err != nil {
		return err
	}
	return nil
}

// writeNarratives renders the CFO and operations summaries for one group.
func writeNarratives(ctx context.Context, paths *config.Paths, rolls []rollforward.Monthly, kpis []rollforward.KPIRecord, accruals []accrual.Record, weights estimate.Weights, inputs accrual.Inputs, region, stratum string, logger *slog.Logger) error {
	if len(rolls) == 0 {
		logger.WarnContext(ctx, "no rollforward rows, skipping narratives")
		return nil
	}

	idx := 0
	if region != "" {
		idx = -1
		want := estimate.ParseStratum(stratum)
		for i, roll := range rolls {
			if roll.Region == region && (stratum == "" || roll.Stratum == want) {
				idx = i
				break
			}
		}
		if idx < 0 {
			logger.WarnContext(ctx, "narrative group not found, using first group",
				slog.String("region", region), slog.String("stratum", stratum))
			idx = 0
		}
	}

	n := narrative.BuildInputs(rolls[idx], kpis[idx], accruals[idx], weights, inputs.ScenarioBand)
	n.TariffInj = inputs.InjectionTariff
	n.TariffWd = inputs.WithdrawalTariff
	if err := os.WriteFile(paths.CFOSummaryMD, []byte(n.CFOSummary()+"\n"), 0o644); err != nil {
		logger.ErrorContext(ctx, "write CFO summary", "error", err)
		return err
	}
	if err := os.WriteFile(paths.OpsSummaryMD, []byte(n.OpsSummary()+"\n"), 0o644); err != nil {
		logger.ErrorContext(ctx, "write ops summary", "error", err)
		return err
	}

	logger.InfoContext(ctx, "narratives written",
		slog.String("region", rolls[idx].Region),
		slog.String("stratum", rolls[idx].Stratum.String()))
	return nil
}
