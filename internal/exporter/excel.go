package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"eiasa/internal/accrual"
	"eiasa/internal/rollforward"
)

// ClosePack bundles the inputs of the monthly close workbook.
type ClosePack struct {
	Rollforward []rollforward.Monthly
	KPIs        []rollforward.KPIRecord
	Accruals    []accrual.Record
	Assumptions map[string]interface{}

	// GeneratedAt stamps the Audit_Log sheet; the zero value defaults to
	// the current UTC time at write.
	GeneratedAt time.Time
}

// WriteClosePack renders the monthly close pack workbook with Rollforward,
// KPIs, Accruals, Assumptions, and Audit_Log sheets. Returns the run ID
// recorded in the audit log.
func WriteClosePack(path string, pack ClosePack) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Rollforward", rollforwardHeader, rollRows(pack.Rollforward)); err != nil {
		return "", err
	}
	if err := writeSheet(f, "KPIs", kpiHeader, kpiRows(pack.KPIs)); err != nil {
		return "", err
	}
	if err := writeSheet(f, "Accruals", accrualHeader, accrualRows(pack.Accruals)); err != nil {
		return "", err
	}
	if err := writeAssumptions(f, pack.Assumptions); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	generatedAt := pack.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	audit := [][]interface{}{{runID, generatedAt.Format(time.RFC3339)}}
	if err := writeSheet(f, "Audit_Log", []string{"run_id", "generated_at"}, audit); err != nil {
		return "", err
	}

	// Drop the default sheet so the workbook opens on Rollforward.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save close pack: %w", err)
	}
	return runID, nil
}

// writeSheet creates a sheet and fills it with a header row plus records.
func writeSheet(f *excelize.File, name string, header []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &headerRow); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve %s cell: %w", name, err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

// writeAssumptions renders the assumptions map as a two-column sheet with
// sorted keys for reproducible layout.
func writeAssumptions(f *excelize.File, assumptions map[string]interface{}) error {
	keys := sortedKeys(assumptions)
	rows := make([][]interface{}, len(keys))
	for i, k := range keys {
		rows[i] = []interface{}{k, fmt.Sprintf("%v", assumptions[k])}
	}
	return writeSheet(f, "Assumptions", []string{"assumption", "value"}, rows)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func rollRows(rolls []rollforward.Monthly) [][]interface{} {
	rows := make([][]interface{}, len(rolls))
	for i, r := range rolls {
		rows[i] = []interface{}{
			r.MonthEnd.Format(dateLayout), r.Region, r.Stratum.String(),
			r.BeginningVolume, r.EstimatedInjections, r.EstimatedWithdrawals,
			r.GapEstimate, r.GapDays, r.EndingVolume,
		}
	}
	return rows
}

func kpiRows(kpis []rollforward.KPIRecord) [][]interface{} {
	rows := make([][]interface{}, len(kpis))
	for i, k := range kpis {
		rows[i] = []interface{}{
			k.MonthEnd.Format(dateLayout), k.Region, k.Stratum.String(),
			k.EndingVolume, optionalCell(k.WorkingCapacity),
			optionalCell(k.PercentOfCapacity), optionalCell(k.ZScoreVs5Yr),
		}
	}
	return rows
}

func accrualRows(records []accrual.Record) [][]interface{} {
	rows := make([][]interface{}, len(records))
	for i, a := range records {
		rows[i] = []interface{}{
			a.MonthEnd.Format(dateLayout), a.Region, a.Stratum.String(),
			a.InventoryAccrual, a.VariableFees, a.FixedDemand, a.PenaltyEstimate,
			a.TotalAccrualLow, a.TotalAccrualBase, a.TotalAccrualHigh,
		}
	}
	return rows
}

// optionalCell maps a nil metric to an empty cell rather than a zero.
func optionalCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
