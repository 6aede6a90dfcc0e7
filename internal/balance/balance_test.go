package balance

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains/chainstest"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet/wallettest"
)

var usdc = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")

func TestFetchNative(t *testing.T) {
	rpc := &chainstest.Client{}
	w := wallettest.New(rpc)
	rpc.Balances = map[common.Address]*big.Int{w.Address(): big.NewInt(1_500_000_000_000_000_000)}

	f := New()
	got, err := f.Fetch(context.Background(), w, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.5", got)

	snap := f.State()
	assert.Equal(t, state.StatusResolved, snap.Status)
	assert.False(t, snap.Loading())
	assert.Equal(t, "1.5", snap.Value)
}

func TestFetchToken(t *testing.T) {
	rpc := &chainstest.Client{}
	w := wallettest.New(rpc)
	rpc.Call = chainstest.ERC20(map[common.Address]*chainstest.Token{
		usdc: {Symbol: "USDC", Decimals: 6, Balances: map[common.Address]*big.Int{w.Address(): big.NewInt(100000000)}},
	})

	got, err := New().Fetch(context.Background(), w, &usdc)
	require.NoError(t, err)
	assert.Equal(t, "100", got)
	assert.Equal(t, 2, rpc.Calls("eth_call"))
	assert.Zero(t, rpc.Calls("eth_getBalance"))
}

func TestFetchNoWallet(t *testing.T) {
	f := New()
	got, err := f.Fetch(context.Background(), nil, nil)
	assert.ErrorIs(t, err, wallet.ErrNoWallet)
	assert.EqualError(t, err, "no wallet connected")
	assert.Empty(t, got)

	snap := f.State()
	assert.False(t, snap.Loading())
	assert.ErrorIs(t, snap.Err, wallet.ErrNoWallet)
}

func TestFetchFailureClearsBalance(t *testing.T) {
	rpc := &chainstest.Client{}
	w := wallettest.New(rpc)
	f := New()

	_, err := f.Fetch(context.Background(), w, nil)
	require.NoError(t, err)

	boom := errors.New("rpc unavailable")
	rpc.BalanceErr = boom
	_, err = f.Fetch(context.Background(), w, nil)
	assert.ErrorIs(t, err, boom)

	snap := f.State()
	assert.Equal(t, state.StatusFailed, snap.Status)
	assert.Empty(t, snap.Value)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, 2, rpc.Calls("eth_getBalance"))
}
