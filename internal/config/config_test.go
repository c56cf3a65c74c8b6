package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 4343, cfg.Server.Port)
	require.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	require.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "demo", cfg.Auth.APIToken)
	require.Equal(t, "normal", cfg.Sim.LatencyProfile)
	require.Zero(t, cfg.Sim.ErrorRate)
	require.Empty(t, cfg.Sim.SeedPath)
	require.Equal(t, 100, cfg.Worker.PoolSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "5000")
	t.Setenv("SIM_LATENCY_PROFILE", "slow")
	t.Setenv("SIM_ERROR_RATE", "0.25")
	t.Setenv("AUTH_API_TOKEN", "sekrit")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "slow", cfg.Sim.LatencyProfile)
	require.InDelta(t, 0.25, cfg.Sim.ErrorRate, 1e-9)
	require.Equal(t, "sekrit", cfg.Auth.APIToken)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{APIToken: "demo"},
		Sim:  SimConfig{ErrorRate: 0.5},
	}
	require.NoError(t, cfg.Validate())

	cfg.Sim.ErrorRate = 1.5
	require.Error(t, cfg.Validate())

	cfg.Sim.ErrorRate = 0
	cfg.Auth.APIToken = ""
	require.Error(t, cfg.Validate())
}
