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
	cfg, err := LoadFrom([]string{t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "6137", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Wallet.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.History.TxInterval)

	assert.Equal(t, "sepolia", cfg.Ethereum.DefaultActiveNetwork)
	sep, ok := cfg.Ethereum.Networks["sepolia"]
	require.True(t, ok)
	assert.Equal(t, uint64(11155111), sep.ChainID)
	assert.Equal(t, "0xaa36a7", sep.ChainIDHex)

	require.Len(t, cfg.Tokens["sepolia"], 1)
	assert.Equal(t, uint8(6), cfg.Tokens["sepolia"][0].Decimals)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
Server:
  port: "7000"
Ethereum:
  defaultActiveNetwork: Polygon
`), 0o600))
	t.Setenv("WALLETKIT_SERVER_HOST", "0.0.0.0")
	t.Setenv("WALLETKIT_INFURA_KEY", "abc")

	cfg, err := LoadFrom([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "polygon", cfg.Ethereum.DefaultActiveNetwork)

	poly := cfg.Ethereum.Networks["polygon"]
	require.NotEmpty(t, poly.RPCs)
	assert.Equal(t, "https://polygon.infura.io/v3/abc", poly.RPCs[0].URL)
	assert.Equal(t, "infura", cfg.Ethereum.PreferredRPCName)

	kc := cfg.KitConfig()
	assert.Equal(t, cfg.Ethereum.DefaultActiveNetwork, kc.Chains.DefaultActiveNetwork)
	assert.True(t, kc.History.Enabled)
}

func TestTokenListMerged(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "tokens.yaml")
	require.NoError(t, os.WriteFile(list, []byte(`
networks:
  sepolia:
    - address: "0xFF34B3d4Aee8ddCd6F9AFFFB6Fe49bD371b8a357"
      symbol: DAI
      decimals: 18
`), 0o600))
	t.Setenv("WALLETKIT_WALLET_TOKENLISTPATH", list)

	cfg, err := LoadFrom([]string{dir})
	require.NoError(t, err)
	assert.Len(t, cfg.Tokens["sepolia"], 2)
}
