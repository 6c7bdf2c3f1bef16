package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "https://api.eia.gov/v2", cfg.EIA.BaseURL)
	assert.Equal(t, 4, cfg.Estimation.LookbackWeeks)
	assert.InDelta(t, 0.3, cfg.Estimation.WeightA, 1e-9)
	assert.InDelta(t, 0.2, cfg.Estimation.WeightB, 1e-9)
	assert.InDelta(t, 0.5, cfg.Estimation.WeightC, 1e-9)
	assert.InDelta(t, 3.25, cfg.Accrual.WACOGPerUnit, 1e-9)
	assert.InDelta(t, 1_037_000, cfg.Accrual.VolumeToEnergyFactor, 1e-9)
	assert.InDelta(t, 0.10, cfg.Accrual.ScenarioBand, 1e-9)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EIASA_SERVER_PORT", "9090")
	t.Setenv("EIASA_ESTIMATION_WEIGHT_C", "0.7")
	t.Setenv("EIASA_EIA_REQUEST_TIMEOUT", "45s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.7, cfg.Estimation.WeightC, 1e-9)
	assert.Equal(t, 45*time.Second, cfg.EIA.RequestTimeout)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eiasa.yaml")
	data := "accrual:\n  wacog_per_unit: 2.85\n  scenario_band: 0.15\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 2.85, cfg.Accrual.WACOGPerUnit, 1e-9)
	assert.InDelta(t, 0.15, cfg.Accrual.ScenarioBand, 1e-9)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"zero lookback", func(c *Config) { c.Estimation.LookbackWeeks = 0 }, "lookback"},
		{"negative wacog", func(c *Config) { c.Accrual.WACOGPerUnit = -1 }, "wacog"},
		{"band at one", func(c *Config) { c.Accrual.ScenarioBand = 1.0 }, "band"},
		{"probability above one", func(c *Config) { c.Accrual.PenaltyProbability = 1.5 }, "probability"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	pc := PathsConfig{
		BaseDir:    base,
		BronzeDir:  "data/bronze",
		SilverDir:  "data/silver",
		GoldDir:    "data/gold",
		OutputsDir: "outputs",
		LogsDir:    "logs",
	}

	paths, err := pc.Resolve()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data", "silver", "weekly_observations.csv"), paths.WeeklyCSV)
	assert.Equal(t, filepath.Join(base, "data", "gold", "monthly_rollforward.csv"), paths.RollforwardCSV)
	assert.Equal(t, filepath.Join(base, "outputs", "monthly_close_pack.xlsx"), paths.ClosePackXLSX)

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.BronzeDir, paths.SilverDir, paths.GoldDir, paths.OutputsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestResolveAbsoluteOverride(t *testing.T) {
	abs := t.TempDir()
	pc := PathsConfig{BaseDir: t.TempDir(), BronzeDir: abs, SilverDir: "s", GoldDir: "g", OutputsDir: "o", LogsDir: "l"}

	paths, err := pc.Resolve()
	require.NoError(t, err)
	assert.Equal(t, abs, paths.BronzeDir)
}
