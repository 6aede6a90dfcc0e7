// Package kit wires the chain service, the embedded wallet and one instance of
// every wallet data operation for a session.
package kit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/assets"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/balance"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/history"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/network"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/signer"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/transfer"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

type HistoryConfig struct {
	Enabled        bool
	TxInterval     time.Duration
	NFTInterval    time.Duration
	MockLatency    time.Duration
	NFTMockLatency time.Duration
}

type Config struct {
	Chains chains.AllChainsConfig
	// network -> default tokens
	Tokens       map[string][]assets.TokenDefinition
	AssetsPath   string
	PollInterval time.Duration
	History      HistoryConfig

	// Dial overrides chains.DialHTTP.
	Dial chains.DialFunc
	// Indexer overrides the mock indexer.
	Indexer history.Indexer
}

type Kit struct {
	Chains   *chains.Service
	Wallet   wallet.Wallet
	Registry *assets.Registry

	Balance  *balance.Fetcher
	Assets   *assets.Fetcher
	Transfer *transfer.Executor
	Signer   *signer.Signer
	Network  *network.Accessor

	Transactions *history.Poller[[]history.TransactionRecord]
	NFTs         *history.Poller[[]history.NFT]
}

// New builds a kit. key may be nil, in which case every account operation
// reports wallet.ErrNoWallet.
func New(ctx context.Context, cfg Config, key *wallet.Key) (*Kit, error) {
	dial := cfg.Dial
	if dial == nil {
		dial = chains.DialHTTP
	}
	svc, err := chains.NewService(ctx, cfg.Chains, dial)
	if err != nil {
		return nil, fmt.Errorf("kit: chains: %w", err)
	}

	k := &Kit{
		Chains:   svc,
		Balance:  balance.New(),
		Assets:   assets.NewFetcher(),
		Transfer: transfer.New(),
		Signer:   signer.New(),
		Network:  network.New(),
	}
	if cfg.PollInterval > 0 {
		k.Transfer.PollInterval = cfg.PollInterval
	}

	if key != nil {
		w, err := wallet.NewEmbedded(key, svc)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		k.Wallet = w
	}

	reg, err := assets.NewRegistry(cfg.AssetsPath, svc)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	if err := reg.Load(); err != nil {
		if !errors.Is(err, assets.ErrCorruptStore) {
			_ = svc.Close()
			return nil, fmt.Errorf("kit: assets registry: %w", err)
		}
		log.Warn("assets registry unreadable, starting empty", "path", reg.Path(), "error", err)
	}
	for netName, defs := range cfg.Tokens {
		if err := reg.Seed(netName, defs); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("kit: seed %s tokens: %w", netName, err)
		}
	}
	k.Registry = reg

	idx := cfg.Indexer
	if idx == nil {
		m := history.NewMockIndexer()
		if cfg.History.MockLatency > 0 {
			m.TxLatency = cfg.History.MockLatency
		}
		if cfg.History.NFTMockLatency > 0 {
			m.NFTLatency = cfg.History.NFTMockLatency
		}
		idx = m
	}
	k.Transactions = history.NewTransactionPoller(idx, history.Options{
		RefreshInterval: orDefault(cfg.History.TxInterval, history.DefaultHistoryInterval),
		Enabled:         cfg.History.Enabled,
	})
	k.NFTs = history.NewNFTPoller(idx, history.Options{
		RefreshInterval: orDefault(cfg.History.NFTInterval, history.DefaultNFTInterval),
		Enabled:         cfg.History.Enabled,
	})

	active, err := svc.Active()
	if err == nil {
		log.Info("wallet kit ready", "network", active.NetworkName, "chainId", active.ChainID, "connected", k.Wallet != nil)
	}
	return k, nil
}

// ActiveNetwork returns the normalized name of the active network.
func (k *Kit) ActiveNetwork() string {
	active, err := k.Chains.Active()
	if err != nil {
		return ""
	}
	return active.NetworkName
}

// Tokens lists the registry's tokens for the active network.
func (k *Kit) Tokens() []assets.TokenDefinition {
	return k.Registry.List(k.ActiveNetwork())
}

// StartPolling starts the history and NFT pollers for the connected wallet.
func (k *Kit) StartPolling(ctx context.Context) {
	k.Transactions.Start(ctx, k.Wallet)
	k.NFTs.Start(ctx, k.Wallet)
}

func (k *Kit) Close() error {
	k.Transactions.Stop()
	k.NFTs.Stop()
	return k.Chains.Close()
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}
