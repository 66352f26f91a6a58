package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmtrade/sim-engine/internal/config"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Simulation.SeedAgents)
	assert.Equal(t, 0.3, cfg.Simulation.MarketUpdateProb)
	assert.Equal(t, 0.5, cfg.Simulation.TradeProb)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Simulation.Assets)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
simulation:
  seed_agents: 0
  trade_prob: 0.8
  assets:
    - id: asset-x
      name: Exotic Token
      symbol: EXO
      base_price: "12.50"
      volatility: 0.2
      supply: 1000
      demand: 500
logging:
  level: debug
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0, cfg.Simulation.SeedAgents)
	assert.Equal(t, 0.8, cfg.Simulation.TradeProb)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.3, cfg.Simulation.MarketUpdateProb)
	assert.Equal(t, 10, cfg.Server.ReadTimeoutSec)
	assert.Equal(t, "debug", cfg.Logging.Level)

	require.Len(t, cfg.Simulation.Assets, 1)
	assert.Equal(t, "EXO", cfg.Simulation.Assets[0].Symbol)
	assert.True(t, cfg.Simulation.Assets[0].BasePrice.Equal(decimal.RequireFromString("12.50")))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestAssets_ConvertsToDomain(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Assets = []config.AssetConfig{{
		ID:         "asset-x",
		Name:       "Exotic Token",
		Symbol:     "EXO",
		BasePrice:  decimal.RequireFromString("12.50"),
		Volatility: 0.2,
		Supply:     1000,
		Demand:     500,
	}}

	assets := cfg.Assets()
	require.Len(t, assets, 1)
	assert.Equal(t, "asset-x", assets[0].ID)
	assert.True(t, assets[0].CurrentPrice.Equal(assets[0].BasePrice),
		"current price starts at base price")
}

func TestAssets_EmptyWhenUnconfigured(t *testing.T) {
	assert.Empty(t, config.Default().Assets())
}
