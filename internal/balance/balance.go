// Package balance reads the connected account's native or ERC-20 balance.
package balance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"golang.org/x/sync/errgroup"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/erc20"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/units"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

// Fetcher owns the balance slot. The zero value is ready to use.
type Fetcher struct {
	slot state.Slot[string]
}

func New() *Fetcher { return &Fetcher{} }

// State returns the last balance (decimal string, "" when unknown), loading flag and error.
func (f *Fetcher) State() state.Snapshot[string] { return f.slot.Snapshot() }

// Fetch reads the balance of w's account. With token nil the native balance
// is returned in 18-decimal units; otherwise the token's own decimals are used.
// A newer Fetch supersedes an older one still in flight.
func (f *Fetcher) Fetch(ctx context.Context, w wallet.Wallet, token *common.Address) (string, error) {
	t := f.slot.Begin()

	if !wallet.Connected(w) {
		f.slot.Fail(t, "", wallet.ErrNoWallet)
		return "", wallet.ErrNoWallet
	}

	out, err := read(ctx, w, token)
	if err != nil {
		log.Warn("balance fetch failed", "address", w.Address().Hex(), "error", err)
		f.slot.Fail(t, "", err)
		return "", err
	}

	f.slot.Resolve(t, out)
	return out, nil
}

func read(ctx context.Context, w wallet.Wallet, token *common.Address) (string, error) {
	client, err := w.Client(ctx)
	if err != nil {
		return "", err
	}
	owner := w.Address()

	if token == nil || *token == common.HexToAddress(constants.NativeAddr) {
		wei, err := client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return "", fmt.Errorf("balance: native: %w", err)
		}
		return units.FormatUnits(wei, constants.NativeDecimals), nil
	}

	var (
		dec uint8
		raw *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := erc20.Decimals(gctx, client, *token)
		dec = d
		return err
	})
	g.Go(func() error {
		b, err := erc20.BalanceOf(gctx, client, *token, owner)
		raw = b
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("balance: token %s: %w", token.Hex(), err)
	}
	return units.FormatUnits(raw, dec), nil
}
