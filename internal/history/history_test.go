package history

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet/wallettest"
)

func TestMockIndexer(t *testing.T) {
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	idx := &MockIndexer{Now: func() time.Time { return now }}

	txs, err := idx.Transactions(context.Background(), common.Address{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, DirectionSend, txs[0].Direction)
	assert.Equal(t, now.Add(-time.Hour), txs[0].Timestamp)
	assert.Equal(t, "USDC", txs[1].Symbol)

	nfts, err := idx.NFTs(context.Background(), common.Address{})
	require.NoError(t, err)
	require.Len(t, nfts, 1)
	assert.Equal(t, TokenTypeERC721, nfts[0].TokenType)
}

func TestMockIndexerHonoursContext(t *testing.T) {
	idx := &MockIndexer{TxLatency: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.Transactions(ctx, common.Address{})
	assert.ErrorIs(t, err, context.Canceled)
}

func countingFetch(n *atomic.Int32, err error) FetchFunc[int] {
	return func(ctx context.Context, account common.Address) (int, error) {
		v := n.Add(1)
		if err != nil {
			return 0, err
		}
		return int(v), nil
	}
}

func TestPollerRefreshesPeriodically(t *testing.T) {
	var n atomic.Int32
	p := NewPoller("test", countingFetch(&n, nil), Options{RefreshInterval: 5 * time.Millisecond, Enabled: true})

	p.Start(context.Background(), wallettest.New(nil))
	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	stopped := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, n.Load())
	assert.Equal(t, state.StatusResolved, p.State().Status)
}

func TestPollerSkipsWhenDisabledOrDisconnected(t *testing.T) {
	var n atomic.Int32
	disabled := NewPoller("test", countingFetch(&n, nil), Options{RefreshInterval: time.Millisecond})
	disabled.Start(context.Background(), wallettest.New(nil))
	_, err := disabled.Refresh(context.Background(), wallettest.New(nil))
	require.NoError(t, err)
	disabled.Stop()

	enabled := NewPoller("test", countingFetch(&n, nil), Options{Enabled: true})
	enabled.Start(context.Background(), nil)
	_, err = enabled.Refresh(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, n.Load())
	assert.Equal(t, state.StatusIdle, enabled.State().Status)
}

func TestPollerManualRefreshWithoutInterval(t *testing.T) {
	var n atomic.Int32
	p := NewPoller("test", countingFetch(&n, nil), Options{Enabled: true})

	v, err := p.Refresh(context.Background(), wallettest.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = p.Refresh(context.Background(), wallettest.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestPollerFailureKeepsPreviousValue(t *testing.T) {
	var n atomic.Int32
	fail := false
	boom := errors.New("indexer down")
	p := NewPoller[int]("test", func(ctx context.Context, account common.Address) (int, error) {
		n.Add(1)
		if fail {
			return 0, boom
		}
		return 7, nil
	}, Options{Enabled: true})

	w := wallettest.New(nil)
	_, err := p.Refresh(context.Background(), w)
	require.NoError(t, err)

	fail = true
	_, err = p.Refresh(context.Background(), w)
	assert.ErrorIs(t, err, boom)

	snap := p.State()
	assert.Equal(t, state.StatusFailed, snap.Status)
	assert.Equal(t, 7, snap.Value)
}

func TestTransactionPollerUsesIndexer(t *testing.T) {
	p := NewTransactionPoller(&MockIndexer{}, Options{Enabled: true})
	txs, err := p.Refresh(context.Background(), wallettest.New(nil))
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	n := NewNFTPoller(&MockIndexer{}, Options{Enabled: true})
	nfts, err := n.Refresh(context.Background(), wallettest.New(nil))
	require.NoError(t, err)
	assert.Len(t, nfts, 1)
}
