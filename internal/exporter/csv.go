// Package exporter reads and writes the flat columnar tables that cross
// the pipeline boundary (weekly observations, capacity, operational
// ledger, rollforward, KPIs, accruals) and renders the monthly close pack
// workbook. Column layouts are part of the external contract and must stay
// stable.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"eiasa/internal/accrual"
	"eiasa/internal/estimate"
	"eiasa/internal/normalize"
	"eiasa/internal/rollforward"
)

const dateLayout = "2006-01-02"

// formatFloat renders floats with minimal round-trip-safe precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeCSV writes a header plus records to path, creating parent
// directories as needed.
func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// readCSV reads path and returns the header and data records.
func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// ReadRawCSV loads an arbitrary raw snapshot into normalize.RawRow rows,
// keyed by the file's own header names.
func ReadRawCSV(path string) ([]normalize.RawRow, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rows := make([]normalize.RawRow, 0, len(records))
	for _, record := range records {
		row := make(normalize.RawRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRawCSV persists raw rows as fetched, with a header built from the
// sorted union of the row keys so the layout is reproducible.
func WriteRawCSV(path string, rows []normalize.RawRow) error {
	seen := make(map[string]bool)
	var header []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}
	sort.Strings(header)

	records := make([][]string, len(rows))
	for i, row := range rows {
		record := make([]string, len(header))
		for j, col := range header {
			record[j] = row[col]
		}
		records[i] = record
	}
	return writeCSV(path, header, records)
}

var weeklyHeader = []string{"date_reported", "region", "stratum", "working_gas_volume", "delta_from_prior_week"}

// WriteWeeklyCSV persists canonical weekly observations.
func WriteWeeklyCSV(path string, obs []estimate.WeeklyObservation) error {
	records := make([][]string, len(obs))
	for i, o := range obs {
		records[i] = []string{
			o.DateReported.Format(dateLayout),
			o.Region,
			o.Stratum.String(),
			formatFloat(o.WorkingGasVolume),
			formatFloat(o.DeltaFromPriorWeek),
		}
	}
	return writeCSV(path, weeklyHeader, records)
}

// ReadWeeklyCSV loads canonical weekly observations.
func ReadWeeklyCSV(path string) ([]estimate.WeeklyObservation, error) {
	_, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	obs := make([]estimate.WeeklyObservation, 0, len(records))
	for i, r := range records {
		if len(r) < 5 {
			return nil, fmt.Errorf("weekly row %d: expected 5 columns, got %d", i+2, len(r))
		}
		date, err := time.Parse(dateLayout, r[0])
		if err != nil {
			return nil, fmt.Errorf("weekly row %d: parse date: %w", i+2, err)
		}
		volume, err := strconv.ParseFloat(r[3], 64)
		if err != nil {
			return nil, fmt.Errorf("weekly row %d: parse volume: %w", i+2, err)
		}
		delta, err := strconv.ParseFloat(r[4], 64)
		if err != nil {
			return nil, fmt.Errorf("weekly row %d: parse delta: %w", i+2, err)
		}
		obs = append(obs, estimate.WeeklyObservation{
			DateReported:       date,
			Region:             r[1],
			Stratum:            estimate.ParseStratum(r[2]),
			WorkingGasVolume:   volume,
			DeltaFromPriorWeek: delta,
		})
	}
	return obs, nil
}

var capacityHeader = []string{"region", "stratum", "year", "working_capacity", "design_capacity"}

// WriteCapacityCSV persists canonical capacity snapshots.
func WriteCapacityCSV(path string, snaps []estimate.CapacitySnapshot) error {
	records := make([][]string, len(snaps))
	for i, s := range snaps {
		records[i] = []string{
			s.Region,
			s.Stratum.String(),
			strconv.Itoa(s.Year),
			formatFloat(s.WorkingCapacity),
			formatFloat(s.DesignCapacity),
		}
	}
	return writeCSV(path, capacityHeader, records)
}

// ReadCapacityCSV loads canonical capacity snapshots.
func ReadCapacityCSV(path string) ([]estimate.CapacitySnapshot, error) {
	_, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	snaps := make([]estimate.CapacitySnapshot, 0, len(records))
	for i, r := range records {
		if len(r) < 5 {
			return nil, fmt.Errorf("capacity row %d: expected 5 columns, got %d", i+2, len(r))
		}
		year, err := strconv.Atoi(r[2])
		if err != nil {
			return nil, fmt.Errorf("capacity row %d: parse year: %w", i+2, err)
		}
		working, err := strconv.ParseFloat(r[3], 64)
		if err != nil {
			return nil, fmt.Errorf("capacity row %d: parse working capacity: %w", i+2, err)
		}
		design, err := strconv.ParseFloat(r[4], 64)
		if err != nil {
			return nil, fmt.Errorf("capacity row %d: parse design capacity: %w", i+2, err)
		}
		snaps = append(snaps, estimate.CapacitySnapshot{
			Region:          r[0],
			Stratum:         estimate.ParseStratum(r[1]),
			Year:            year,
			WorkingCapacity: working,
			DesignCapacity:  design,
		})
	}
	return snaps, nil
}

// ReadLedgerCSV loads the externally supplied operational ledger. A missing
// file is not an error: the ledger legitimately may not exist, in which
// case the ledger estimator contributes zero.
func ReadLedgerCSV(path string) ([]estimate.LedgerEntry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	_, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	entries := make([]estimate.LedgerEntry, 0, len(records))
	for i, r := range records {
		if len(r) < 5 {
			return nil, fmt.Errorf("ledger row %d: expected at least 5 columns, got %d", i+2, len(r))
		}
		date, err := time.Parse(dateLayout, r[0])
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: parse date: %w", i+2, err)
		}
		injection, err := parseOptionalFloat(r[3])
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: parse injection volume: %w", i+2, err)
		}
		withdrawal, err := parseOptionalFloat(r[4])
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: parse withdrawal volume: %w", i+2, err)
		}
		entry := estimate.LedgerEntry{
			Date:             date,
			Region:           r[1],
			Stratum:          estimate.ParseStratum(r[2]),
			InjectionVolume:  injection,
			WithdrawalVolume: withdrawal,
		}
		if len(r) > 5 {
			entry.Notes = r[5]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseOptionalFloat treats an empty cell as zero.
func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

var rollforwardHeader = []string{
	"month_end", "region", "stratum", "beginning_volume", "estimated_injections",
	"estimated_withdrawals", "gap_estimate", "gap_days", "ending_volume",
}

// WriteRollforwardCSV persists monthly rollforward rows.
func WriteRollforwardCSV(path string, rolls []rollforward.Monthly) error {
	records := make([][]string, len(rolls))
	for i, r := range rolls {
		records[i] = rollforwardRecord(r)
	}
	return writeCSV(path, rollforwardHeader, records)
}

func rollforwardRecord(r rollforward.Monthly) []string {
	return []string{
		r.MonthEnd.Format(dateLayout),
		r.Region,
		r.Stratum.String(),
		formatFloat(r.BeginningVolume),
		formatFloat(r.EstimatedInjections),
		formatFloat(r.EstimatedWithdrawals),
		formatFloat(r.GapEstimate),
		strconv.Itoa(r.GapDays),
		formatFloat(r.EndingVolume),
	}
}

// ReadRollforwardCSV loads monthly rollforward rows.
func ReadRollforwardCSV(path string) ([]rollforward.Monthly, error) {
	_, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	rolls := make([]rollforward.Monthly, 0, len(records))
	for i, r := range records {
		if len(r) < 9 {
			return nil, fmt.Errorf("rollforward row %d: expected 9 columns, got %d", i+2, len(r))
		}
		monthEnd, err := time.Parse(dateLayout, r[0])
		if err != nil {
			return nil, fmt.Errorf("rollforward row %d: parse month end: %w", i+2, err)
		}
		values := make([]float64, 0, 5)
		for _, idx := range []int{3, 4, 5, 6, 8} {
			v, err := strconv.ParseFloat(r[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("rollforward row %d: parse %s: %w", i+2, rollforwardHeader[idx], err)
			}
			values = append(values, v)
		}
		gapDays, err := strconv.Atoi(r[7])
		if err != nil {
			return nil, fmt.Errorf("rollforward row %d: parse gap days: %w", i+2, err)
		}
		rolls = append(rolls, rollforward.Monthly{
			MonthEnd:             monthEnd,
			Region:               r[1],
			Stratum:              estimate.ParseStratum(r[2]),
			BeginningVolume:      values[0],
			EstimatedInjections:  values[1],
			EstimatedWithdrawals: values[2],
			GapEstimate:          values[3],
			GapDays:              gapDays,
			EndingVolume:         values[4],
		})
	}
	return rolls, nil
}

var kpiHeader = []string{
	"month_end", "region", "stratum", "ending_volume", "working_capacity",
	"percent_of_capacity", "zscore_vs_5yr",
}

// WriteKPIsCSV persists KPI rows. Unknown metrics are written as empty
// cells, never zeros.
func WriteKPIsCSV(path string, kpis []rollforward.KPIRecord) error {
	records := make([][]string, len(kpis))
	for i, k := range kpis {
		records[i] = kpiRecord(k)
	}
	return writeCSV(path, kpiHeader, records)
}

func kpiRecord(k rollforward.KPIRecord) []string {
	return []string{
		k.MonthEnd.Format(dateLayout),
		k.Region,
		k.Stratum.String(),
		formatFloat(k.EndingVolume),
		optionalFloat(k.WorkingCapacity),
		optionalFloat(k.PercentOfCapacity),
		optionalFloat(k.ZScoreVs5Yr),
	}
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// ReadKPIsCSV loads KPI rows. Empty optional cells come back as nil.
func ReadKPIsCSV(path string) ([]rollforward.KPIRecord, error) {
	_, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	kpis := make([]rollforward.KPIRecord, 0, len(records))
	for i, r := range records {
		if len(r) < 7 {
			return nil, fmt.Errorf("kpi row %d: expected 7 columns, got %d", i+2, len(r))
		}
		monthEnd, err := time.Parse(dateLayout, r[0])
		if err != nil {
			return nil, fmt.Errorf("kpi row %d: parse month end: %w", i+2, err)
		}
		ending, err := strconv.ParseFloat(r[3], 64)
		if err != nil {
			return nil, fmt.Errorf("kpi row %d: parse ending volume: %w", i+2, err)
		}
		working, err := optionalFloatCell(r[4])
		if err != nil {
			return nil, fmt.Errorf("kpi row %d: parse working capacity: %w", i+2, err)
		}
		pct, err := optionalFloatCell(r[5])
		if err != nil {
			return nil, fmt.Errorf("kpi row %d: parse percent of capacity: %w", i+2, err)
		}
		zscore, err := optionalFloatCell(r[6])
		if err != nil {
			return nil, fmt.Errorf("kpi row %d: parse zscore: %w", i+2, err)
		}
		kpis = append(kpis, rollforward.KPIRecord{
			MonthEnd:          monthEnd,
			Region:            r[1],
			Stratum:           estimate.ParseStratum(r[2]),
			EndingVolume:      ending,
			WorkingCapacity:   working,
			PercentOfCapacity: pct,
			ZScoreVs5Yr:       zscore,
		})
	}
	return kpis, nil
}

// optionalFloatCell parses a cell that may legitimately be empty.
func optionalFloatCell(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

var accrualHeader = []string{
	"month_end", "region", "stratum", "inventory_accrual", "variable_fees",
	"fixed_demand", "penalty_estimate", "total_accrual_low", "total_accrual_base",
	"total_accrual_high",
}

// WriteAccrualsCSV persists accrual rows.
func WriteAccrualsCSV(path string, records []accrual.Record) error {
	rows := make([][]string, len(records))
	for i, a := range records {
		rows[i] = accrualRecord(a)
	}
	return writeCSV(path, accrualHeader, rows)
}

// ReadAccrualsCSV loads accrual rows.
func ReadAccrualsCSV(path string) ([]accrual.Record, error) {
	_, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]accrual.Record, 0, len(records))
	for i, r := range records {
		if len(r) < 10 {
			return nil, fmt.Errorf("accrual row %d: expected 10 columns, got %d", i+2, len(r))
		}
		monthEnd, err := time.Parse(dateLayout, r[0])
		if err != nil {
			return nil, fmt.Errorf("accrual row %d: parse month end: %w", i+2, err)
		}
		values := make([]float64, 7)
		for j := 0; j < 7; j++ {
			v, err := strconv.ParseFloat(r[j+3], 64)
			if err != nil {
				return nil, fmt.Errorf("accrual row %d: parse %s: %w", i+2, accrualHeader[j+3], err)
			}
			values[j] = v
		}
		out = append(out, accrual.Record{
			MonthEnd:         monthEnd,
			Region:           r[1],
			Stratum:          estimate.ParseStratum(r[2]),
			InventoryAccrual: values[0],
			VariableFees:     values[1],
			FixedDemand:      values[2],
			PenaltyEstimate:  values[3],
			TotalAccrualLow:  values[4],
			TotalAccrualBase: values[5],
			TotalAccrualHigh: values[6],
		})
	}
	return out, nil
}

func accrualRecord(a accrual.Record) []string {
	return []string{
		a.MonthEnd.Format(dateLayout),
		a.Region,
		a.Stratum.String(),
		formatFloat(a.InventoryAccrual),
		formatFloat(a.VariableFees),
		formatFloat(a.FixedDemand),
		formatFloat(a.PenaltyEstimate),
		formatFloat(a.TotalAccrualLow),
		formatFloat(a.TotalAccrualBase),
		formatFloat(a.TotalAccrualHigh),
	}
}
