// Package config loads the engine configuration from a YAML file with
// sensible defaults, letting deployments tune the asset set and driver
// probabilities without rebuilding.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/swarmtrade/sim-engine/internal/model"
)

// AssetConfig describes one synthetic asset in the YAML file.
type AssetConfig struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Symbol     string          `yaml:"symbol"`
	BasePrice  decimal.Decimal `yaml:"base_price"`
	Volatility float64         `yaml:"volatility"`
	Supply     int64           `yaml:"supply"`
	Demand     int64           `yaml:"demand"`
}

// Config holds all engine settings. Sensitive or deploy-specific values
// (PORT, DATABASE_URL, REDIS_URL) come from the environment instead.
type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
		WriteTimeoutSec int    `yaml:"write_timeout_sec"`
		IdleTimeoutSec  int    `yaml:"idle_timeout_sec"`
	} `yaml:"server"`

	Simulation struct {
		SeedAgents       int           `yaml:"seed_agents"`        // agents added at startup
		MarketUpdateProb float64       `yaml:"market_update_prob"` // per-tick
		TradeProb        float64       `yaml:"trade_prob"`         // per-tick
		Assets           []AssetConfig `yaml:"assets"`             // empty → built-in set
	} `yaml:"simulation"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeoutSec = 10
	cfg.Server.WriteTimeoutSec = 10
	cfg.Server.IdleTimeoutSec = 60
	cfg.Simulation.SeedAgents = 5
	cfg.Simulation.MarketUpdateProb = 0.3
	cfg.Simulation.TradeProb = 0.5
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads and parses the YAML file at path, applied over defaults.
// A missing file is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Assets converts the configured asset list to domain assets, with the
// current price starting at the base price. Empty when unconfigured so
// the sim falls back to its built-in set.
func (c *Config) Assets() []model.Asset {
	assets := make([]model.Asset, 0, len(c.Simulation.Assets))
	for _, a := range c.Simulation.Assets {
		assets = append(assets, model.Asset{
			ID:           a.ID,
			Name:         a.Name,
			Symbol:       a.Symbol,
			BasePrice:    a.BasePrice,
			Volatility:   a.Volatility,
			Supply:       a.Supply,
			Demand:       a.Demand,
			CurrentPrice: a.BasePrice,
		})
	}
	return assets
}
