// Package network reads the wallet's active chain and requests switches.
package network

import (
	"context"

	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

// Info is the normalized view of a wallet's chain.
type Info struct {
	ChainID uint64 `json:"chainId"`
	Raw     string `json:"raw"`
	Name    string `json:"name"`
}

// Accessor tracks the last switch request.
type Accessor struct {
	slot state.Slot[uint64]
}

func New() *Accessor { return &Accessor{} }

func (a *Accessor) State() state.Snapshot[uint64] { return a.slot.Snapshot() }

// ChainID normalizes the wallet's raw chain identifier. ok is false when no
// wallet is connected or the identifier cannot be parsed.
func ChainID(w wallet.Wallet) (uint64, bool) {
	if !wallet.Connected(w) {
		return 0, false
	}
	id, err := chains.ParseChainID(w.ChainID())
	if err != nil {
		return 0, false
	}
	return id, true
}

func Name(w wallet.Wallet) string {
	id, ok := ChainID(w)
	if !ok {
		return ""
	}
	return chains.ChainName(id)
}

func Describe(w wallet.Wallet) (Info, bool) {
	id, ok := ChainID(w)
	if !ok {
		return Info{}, false
	}
	return Info{ChainID: id, Raw: w.ChainID(), Name: chains.ChainName(id)}, true
}

// Switch asks the wallet to move to chainID. Failures are recorded and returned
// as-is; there is no retry.
func (a *Accessor) Switch(ctx context.Context, w wallet.Wallet, chainID uint64) error {
	t := a.slot.Begin()

	if !wallet.Connected(w) {
		a.slot.Fail(t, 0, wallet.ErrNoWallet)
		return wallet.ErrNoWallet
	}

	if err := w.SwitchChain(ctx, chainID); err != nil {
		log.Warn("chain switch failed", "chainId", chainID, "error", err)
		a.slot.Fail(t, 0, err)
		return err
	}

	log.Info("chain switched", "chainId", chainID, "name", chains.ChainName(chainID))
	a.slot.Resolve(t, chainID)
	return nil
}
