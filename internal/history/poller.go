package history

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

const (
	DefaultHistoryInterval = 30 * time.Second
	DefaultNFTInterval     = 60 * time.Second
)

// FetchFunc loads one snapshot for account.
type FetchFunc[T any] func(ctx context.Context, account common.Address) (T, error)

type Options struct {
	// RefreshInterval <= 0 disables periodic refresh.
	RefreshInterval time.Duration
	Enabled         bool
}

// Poller fetches immediately on Start and then every RefreshInterval until
// Stop or the Start context ends.
type Poller[T any] struct {
	name  string
	fetch FetchFunc[T]
	opt   Options

	slot state.Slot[T]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller[T any](name string, fetch FetchFunc[T], opt Options) *Poller[T] {
	return &Poller[T]{name: name, fetch: fetch, opt: opt}
}

// NewTransactionPoller polls idx.Transactions.
func NewTransactionPoller(idx Indexer, opt Options) *Poller[[]TransactionRecord] {
	return NewPoller[[]TransactionRecord]("transactions", idx.Transactions, opt)
}

// NewNFTPoller polls idx.NFTs.
func NewNFTPoller(idx Indexer, opt Options) *Poller[[]NFT] {
	return NewPoller[[]NFT]("nfts", idx.NFTs, opt)
}

func (p *Poller[T]) State() state.Snapshot[T] { return p.slot.Snapshot() }

// Refresh runs one fetch now. A disconnected wallet or a disabled poller is a no-op.
func (p *Poller[T]) Refresh(ctx context.Context, w wallet.Wallet) (T, error) {
	var zero T
	if !wallet.Connected(w) || !p.opt.Enabled {
		return p.slot.Snapshot().Value, nil
	}

	t := p.slot.Begin()
	v, err := p.fetch(ctx, w.Address())
	if err != nil {
		log.Warn("history refresh failed", "source", p.name, "error", err)
		p.slot.Fail(t, p.slot.Snapshot().Value, err)
		return zero, err
	}
	p.slot.Resolve(t, v)
	return v, nil
}

// Start fetches once and, when an interval is set, keeps refreshing in the
// background. Calling Start again replaces the previous loop.
func (p *Poller[T]) Start(ctx context.Context, w wallet.Wallet) {
	p.Stop()
	if !wallet.Connected(w) || !p.opt.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		_, _ = p.Refresh(ctx, w)

		if p.opt.RefreshInterval <= 0 {
			return
		}
		ticker := time.NewTicker(p.opt.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = p.Refresh(ctx, w)
			}
		}
	}()
}

// Stop tears down the background loop and waits for it to exit.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
