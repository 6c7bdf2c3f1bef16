package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Defaults come from the
// struct tags, the environment (EIASA_ prefix) overrides them, and a YAML
// file, when present, overrides both.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	EIA        EIAConfig        `yaml:"eia" envconfig:"EIA"`
	Estimation EstimationConfig `yaml:"estimation" envconfig:"ESTIMATION"`
	Accrual    AccrualConfig    `yaml:"accrual" envconfig:"ACCRUAL"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/eiasa.log"`
}

// EIAConfig contains the EIA v2 API client configuration.
type EIAConfig struct {
	APIKey         string        `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://api.eia.gov/v2"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     int           `yaml:"max_retries" envconfig:"MAX_RETRIES" default:"3"`
	RetryBackoff   time.Duration `yaml:"retry_backoff" envconfig:"RETRY_BACKOFF" default:"2s"`
	RequestsPerSec float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" default:"5"`
}

// EstimationConfig contains gap estimation parameters.
type EstimationConfig struct {
	WeightA       float64 `yaml:"weight_a" envconfig:"WEIGHT_A" default:"0.3"`
	WeightB       float64 `yaml:"weight_b" envconfig:"WEIGHT_B" default:"0.2"`
	WeightC       float64 `yaml:"weight_c" envconfig:"WEIGHT_C" default:"0.5"`
	LookbackWeeks int     `yaml:"lookback_weeks" envconfig:"LOOKBACK_WEEKS" default:"4"`
}

// AccrualConfig contains the financial assumptions for the monthly close.
type AccrualConfig struct {
	WACOGPerUnit         float64 `yaml:"wacog_per_unit" envconfig:"WACOG_PER_UNIT" default:"3.25"`
	InjectionTariff      float64 `yaml:"injection_tariff" envconfig:"INJECTION_TARIFF" default:"0"`
	WithdrawalTariff     float64 `yaml:"withdrawal_tariff" envconfig:"WITHDRAWAL_TARIFF" default:"0"`
	FixedDemandCharges   float64 `yaml:"fixed_demand_charges" envconfig:"FIXED_DEMAND_CHARGES" default:"0"`
	PenaltyProbability   float64 `yaml:"penalty_probability" envconfig:"PENALTY_PROBABILITY" default:"0"`
	PenaltyAmount        float64 `yaml:"penalty_amount" envconfig:"PENALTY_AMOUNT" default:"0"`
	ScenarioBand         float64 `yaml:"scenario_band" envconfig:"SCENARIO_BAND" default:"0.10"`
	VolumeToEnergyFactor float64 `yaml:"volume_to_energy_factor" envconfig:"VOLUME_TO_ENERGY_FACTOR" default:"1037000"`
}

// Load builds the configuration from defaults, environment variables, and
// an optional YAML file. An empty configFile skips the file overlay.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("EIASA", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if configFile != "" {
		if err := overlayFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// overlayFile unmarshals the YAML file over cfg. Only keys present in the
// file are touched.
func overlayFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Estimation.LookbackWeeks < 1 {
		return fmt.Errorf("lookback weeks must be positive, got %d", c.Estimation.LookbackWeeks)
	}
	if c.Accrual.WACOGPerUnit <= 0 {
		return fmt.Errorf("wacog per unit must be positive, got %v", c.Accrual.WACOGPerUnit)
	}
	if c.Accrual.VolumeToEnergyFactor <= 0 {
		return fmt.Errorf("volume to energy factor must be positive, got %v", c.Accrual.VolumeToEnergyFactor)
	}
	if c.Accrual.ScenarioBand < 0 || c.Accrual.ScenarioBand >= 1 {
		return fmt.Errorf("scenario band must be in [0, 1), got %v", c.Accrual.ScenarioBand)
	}
	if c.Accrual.PenaltyProbability < 0 || c.Accrual.PenaltyProbability > 1 {
		return fmt.Errorf("penalty probability must be in [0, 1], got %v", c.Accrual.PenaltyProbability)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
