package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("POSITION_MANAGER_PRIVATE_KEY", "0xabc")
	t.Setenv("POSITION_MANAGER_GAS_LIMIT", "500000")
	t.Setenv("POSITION_MANAGER_CONFIRMATION_TIMEOUT", "3m")
	t.Setenv("POSITION_MANAGER_APPROVE_MAX", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(56), cfg.ChainID)
	assert.Equal(t, "0xabc", cfg.PrivateKey)
	assert.True(t, cfg.ApproveMax)
	assert.Equal(t, 3*time.Minute, cfg.ConfirmationTimeout)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.NoError(t, cfg.RequireSigner())
	assert.Same(t, cfg, Get())

	params := cfg.ChainParams()
	require.NotNil(t, params.GasLimit)
	assert.Equal(t, uint64(500000), *params.GasLimit)
	assert.Nil(t, params.GasPrice)
	assert.Equal(t, rate.Limit(10), params.RateLimit)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())

	content := "chain_id: 97\nrpc_rate_limit: 0\ntheme: light\nvaults_file: /tmp/vaults.yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".position-manager.yaml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(97), cfg.ChainID)
	assert.Equal(t, "light", cfg.Display().Theme)
	assert.Equal(t, "/tmp/vaults.yaml", cfg.VaultsFile)
	assert.Equal(t, rate.Inf, cfg.ChainParams().RateLimit)
	assert.Error(t, cfg.RequireSigner())
}

func TestValidate(t *testing.T) {
	valid := Config{ChainID: 56, PollInterval: time.Second}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.ChainID = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.ConfirmationTimeout = -time.Second
	assert.Error(t, bad.Validate())

	bad = valid
	bad.PollInterval = 0
	assert.Error(t, bad.Validate())
}
