package assets

import (
	"context"
	"fmt"
	"math/big"

	"github.com/quantumauth-io/quantum-go-utils/log"
	"golang.org/x/sync/errgroup"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/erc20"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/units"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

// Fetcher reads balances for a list of tokens. The zero value is ready to use.
type Fetcher struct {
	slot state.Slot[[]Asset]
}

func NewFetcher() *Fetcher { return &Fetcher{} }

func (f *Fetcher) State() state.Snapshot[[]Asset] { return f.slot.Snapshot() }

// Fetch reads balanceOf for every token concurrently and returns the assets in
// input order. An empty list or a disconnected wallet yields an empty result
// without touching the network. One failed read fails the whole batch and the
// previously fetched list is kept.
func (f *Fetcher) Fetch(ctx context.Context, w wallet.Wallet, tokens []TokenDefinition) ([]Asset, error) {
	t := f.slot.Begin()

	if len(tokens) == 0 || !wallet.Connected(w) {
		out := []Asset{}
		f.slot.Resolve(t, out)
		return out, nil
	}

	out, err := fetchAll(ctx, w, tokens)
	if err != nil {
		log.Warn("asset fetch failed", "address", w.Address().Hex(), "tokens", len(tokens), "error", err)
		f.slot.Fail(t, f.slot.Snapshot().Value, err)
		return nil, err
	}

	f.slot.Resolve(t, out)
	return out, nil
}

func fetchAll(ctx context.Context, w wallet.Wallet, tokens []TokenDefinition) ([]Asset, error) {
	client, err := w.Client(ctx)
	if err != nil {
		return nil, err
	}
	owner := w.Address()

	out := make([]Asset, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, tok := range tokens {
		g.Go(func() error {
			raw, err := erc20.BalanceOf(gctx, client, tok.Addr(), owner)
			if err != nil {
				return fmt.Errorf("assets: %s balance: %w", tok.Symbol, err)
			}
			out[i] = Asset{
				TokenDefinition: tok,
				Balance:         units.FormatUnits(raw, tok.Decimals),
				BalanceRaw:      new(big.Int).Set(raw),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
