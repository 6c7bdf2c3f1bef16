package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig anchors the pipeline directory tree. BaseDir defaults to the
// current working directory; everything else hangs off it.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR" default:"."`
	BronzeDir  string `yaml:"bronze_dir" envconfig:"BRONZE_DIR" default:"data/bronze"`
	SilverDir  string `yaml:"silver_dir" envconfig:"SILVER_DIR" default:"data/silver"`
	GoldDir    string `yaml:"gold_dir" envconfig:"GOLD_DIR" default:"data/gold"`
	OutputsDir string `yaml:"outputs_dir" envconfig:"OUTPUTS_DIR" default:"outputs"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Paths is the single source of truth for every file the pipeline reads or
// writes. All members are absolute once Resolve has run.
type Paths struct {
	BaseDir    string
	BronzeDir  string
	SilverDir  string
	GoldDir    string
	OutputsDir string
	LogsDir    string

	// Bronze snapshots, as fetched.
	RawWeeklyCSV   string
	RawCapacityCSV string

	// Silver canonical tables.
	WeeklyCSV   string
	CapacityCSV string
	LedgerCSV   string

	// Gold computed tables.
	RollforwardCSV string
	KPIsCSV        string
	AccrualsCSV    string

	// Deliverables.
	ClosePackXLSX string
	CFOSummaryMD  string
	OpsSummaryMD  string
}

// Resolve expands the configured directories into the full path set. A
// relative BaseDir resolves against the current working directory.
func (pc PathsConfig) Resolve() (*Paths, error) {
	base, err := filepath.Abs(pc.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	join := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	bronze := join(pc.BronzeDir)
	silver := join(pc.SilverDir)
	gold := join(pc.GoldDir)
	outputs := join(pc.OutputsDir)
	logs := join(pc.LogsDir)

	return &Paths{
		BaseDir:    base,
		BronzeDir:  bronze,
		SilverDir:  silver,
		GoldDir:    gold,
		OutputsDir: outputs,
		LogsDir:    logs,

		RawWeeklyCSV:   filepath.Join(bronze, "weekly_storage_raw.csv"),
		RawCapacityCSV: filepath.Join(bronze, "capacity_raw.csv"),

		WeeklyCSV:   filepath.Join(silver, "weekly_observations.csv"),
		CapacityCSV: filepath.Join(silver, "capacity.csv"),
		LedgerCSV:   filepath.Join(silver, "operational_ledger.csv"),

		RollforwardCSV: filepath.Join(gold, "monthly_rollforward.csv"),
		KPIsCSV:        filepath.Join(gold, "kpis.csv"),
		AccrualsCSV:    filepath.Join(gold, "accruals.csv"),

		ClosePackXLSX: filepath.Join(outputs, "monthly_close_pack.xlsx"),
		CFOSummaryMD:  filepath.Join(outputs, "cfo_summary.md"),
		OpsSummaryMD:  filepath.Join(outputs, "ops_summary.md"),
	}, nil
}

// EnsureDirectories creates every pipeline directory that does not exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.BronzeDir, p.SilverDir, p.GoldDir, p.OutputsDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
