// Package config loads the wallet kit's settings: embedded defaults, then
// config.yaml from the usual locations, then .env and WALLETKIT_* overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/assets"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/kit"
)

//go:embed default.yaml
var EmbeddedConfigYAML []byte

type ServerSettings struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type WalletSettings struct {
	KeystorePath  string        `mapstructure:"keystorePath"`
	AssetsPath    string        `mapstructure:"assetsPath"`
	TokenListPath string        `mapstructure:"tokenListPath"`
	PollInterval  time.Duration `mapstructure:"pollInterval"`
	InfuraKey     string        `mapstructure:"infuraKey"`
}

type HistorySettings struct {
	Enabled        bool          `mapstructure:"enabled"`
	TxInterval     time.Duration `mapstructure:"txInterval"`
	NFTInterval    time.Duration `mapstructure:"nftInterval"`
	MockLatency    time.Duration `mapstructure:"mockLatency"`
	NFTMockLatency time.Duration `mapstructure:"nftMockLatency"`
}

type Config struct {
	Server   ServerSettings                      `mapstructure:"Server"`
	Wallet   WalletSettings                      `mapstructure:"Wallet"`
	History  HistorySettings                     `mapstructure:"History"`
	Ethereum chains.AllChainsConfig              `mapstructure:"Ethereum"`
	Tokens   map[string][]assets.TokenDefinition `mapstructure:"Tokens"`
}

func infuraRPC(chain string, key string) string {
	return fmt.Sprintf("https://%s.infura.io/v3/%s", chain, key)
}

// SearchPaths are the directories checked for config.yaml, lowest priority last.
func SearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
}

func Load() (*Config, error) {
	return LoadFrom(SearchPaths())
}

// LoadFrom merges the embedded defaults with the first config.yaml found in paths.
func LoadFrom(paths []string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType(constants.ConfigFileExt)
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	v.SetConfigName(constants.ConfigFile)
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("merge config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// AutomaticEnv only applies to keys viper already knows about.
	if key := strings.TrimSpace(os.Getenv(constants.EnvPrefix + "_INFURA_KEY")); key != "" {
		cfg.Wallet.InfuraKey = key
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize canonicalizes network keys and token addresses, merges the
// optional token list file and applies the Infura key.
func (c *Config) Normalize() error {
	c.Ethereum.Normalize()
	if len(c.Ethereum.Networks) == 0 {
		return errors.New("config: no networks configured")
	}

	tokens, err := assets.NormalizeDefinitions(c.Tokens)
	if err != nil {
		return fmt.Errorf("config: Tokens: %w", err)
	}
	if c.Wallet.TokenListPath != "" {
		extra, err := assets.LoadTokenList(c.Wallet.TokenListPath)
		if err != nil {
			return err
		}
		for nk, defs := range extra {
			tokens[nk] = append(tokens[nk], defs...)
		}
	}
	c.Tokens = tokens

	if c.Wallet.InfuraKey != "" {
		if err := c.InjectInfuraKey(c.Wallet.InfuraKey); err != nil {
			return err
		}
	}
	return nil
}

// InjectInfuraKey puts an Infura endpoint first in every network's RPC list.
func (c *Config) InjectInfuraKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("infura api key is empty")
	}

	for netName, net := range c.Ethereum.Networks {
		infura := chains.RPC{Name: "infura", URL: infuraRPC(netName, key)}
		rpcs := []chains.RPC{infura}
		for _, r := range net.RPCs {
			if !strings.EqualFold(r.Name, infura.Name) {
				rpcs = append(rpcs, r)
			}
		}
		net.RPCs = rpcs
		// write back (map value copy)
		c.Ethereum.Networks[netName] = net
	}
	c.Ethereum.PreferredRPCName = "infura"
	return nil
}

// KitConfig maps the file settings onto the kit's runtime config.
func (c *Config) KitConfig() kit.Config {
	return kit.Config{
		Chains:       c.Ethereum,
		Tokens:       c.Tokens,
		AssetsPath:   c.Wallet.AssetsPath,
		PollInterval: c.Wallet.PollInterval,
		History: kit.HistoryConfig{
			Enabled:        c.History.Enabled,
			TxInterval:     c.History.TxInterval,
			NFTInterval:    c.History.NFTInterval,
			MockLatency:    c.History.MockLatency,
			NFTMockLatency: c.History.NFTMockLatency,
		},
	}
}
