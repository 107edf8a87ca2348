package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PortfolioSentinel/internal/model"
)

// Allocation is the stock/cash/hedge split attached to an alert level.
type Allocation struct {
	Stock float64 `yaml:"stock"`
	Cash  float64 `yaml:"cash"`
	Hedge float64 `yaml:"hedge"`
}

// Config holds all application configuration.
type Config struct {
	Engine     Engine `yaml:"engine"`
	DataSource struct {
		Provider string        `yaml:"provider"` // yahoo, rest or mock
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron"`
	} `yaml:"schedule"`
	Portfolio struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"portfolio"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Gemini struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Alerts map[string]Allocation `yaml:"alerts"`
	Proxy  string                `yaml:"proxy"`
}

// DefaultAlerts returns the allocation split for each alert level.
func DefaultAlerts() map[string]Allocation {
	return map[string]Allocation{
		string(model.AlertGreen):  {Stock: 80, Cash: 20, Hedge: 0},
		string(model.AlertYellow): {Stock: 60, Cash: 35, Hedge: 5},
		string(model.AlertOrange): {Stock: 40, Cash: 45, Hedge: 15},
		string(model.AlertRed):    {Stock: 20, Cash: 50, Hedge: 30},
	}
}

// Load reads an optional .env file and the YAML config, then applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{Engine: DefaultEngine(), Alerts: DefaultAlerts()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SENTINEL_DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SENTINEL_DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SENTINEL_DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_EVALUATE"); v != "" {
		cfg.Schedule.EvaluateCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("PORTFOLIO_FILE"); v != "" {
		cfg.Portfolio.StateFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SENTINEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "rest"
		}
	}
	if cfg.DataSource.CacheTTL == 0 {
		cfg.DataSource.CacheTTL = 15 * time.Minute
	}
	if cfg.Schedule.EvaluateCron == "" {
		cfg.Schedule.EvaluateCron = "0 30 22 * * 1-5"
	}
	if cfg.Portfolio.StateFile == "" {
		cfg.Portfolio.StateFile = "data/portfolio.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/sentinel.db"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks the configuration once at startup.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Portfolio.StateFile == "" {
		return fmt.Errorf("portfolio.state_file is required")
	}
	for level, a := range c.Alerts {
		if _, err := model.ParseAlertLevel(level); err != nil {
			return fmt.Errorf("alerts: %w", err)
		}
		if a.Stock < 0 || a.Cash < 0 || a.Hedge < 0 {
			return fmt.Errorf("alerts.%s must not be negative", level)
		}
		if sum := a.Stock + a.Cash + a.Hedge; !(math.Abs(sum-100) <= 1e-6) {
			return fmt.Errorf("alerts.%s must sum to 100, got %v", level, sum)
		}
	}
	return nil
}

// AllocationFor returns the split configured for level.
func (c *Config) AllocationFor(level model.AlertLevel) (Allocation, bool) {
	a, ok := c.Alerts[string(level)]
	return a, ok
}
