package transfer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains/chainstest"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/erc20"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet/wallettest"
)

const recipient = "0x00000000000000000000000000000000000000aa"

var usdc = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")

func u8(v uint8) *uint8 { return &v }

func fastExecutor() *Executor {
	e := New()
	e.PollInterval = time.Millisecond
	return e
}

func TestEstimateNative(t *testing.T) {
	rpc := &chainstest.Client{GasEstimate: 21000, GasPrice: big.NewInt(1_000_000_000)}
	w := wallettest.New(rpc)
	e := fastExecutor()

	est, err := e.Estimate(context.Background(), w, Params{To: recipient, Amount: "0.5"})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), est.GasUnits)
	assert.Equal(t, "21000000000000", est.FeeWei.String())
	assert.Equal(t, "0.000021", est.Fee)

	msgs := rpc.EstimateMsgs()
	require.Len(t, msgs, 1)
	assert.Equal(t, w.Address(), msgs[0].From)
	assert.Equal(t, common.HexToAddress(recipient), *msgs[0].To)
	assert.Equal(t, "500000000000000000", msgs[0].Value.String())

	view := e.EstimateState()
	assert.False(t, view.Unavailable)
	assert.Equal(t, est, view.Estimate)
}

func TestEstimateToken(t *testing.T) {
	rpc := &chainstest.Client{GasEstimate: 65000, GasPrice: big.NewInt(2)}
	w := wallettest.New(rpc)

	_, err := fastExecutor().Estimate(context.Background(), w, Params{To: recipient, Amount: "1.25", TokenAddress: usdc.Hex(), Decimals: u8(6)})
	require.NoError(t, err)

	msgs := rpc.EstimateMsgs()
	require.Len(t, msgs, 1)
	assert.Equal(t, usdc, *msgs[0].To)
	assert.Zero(t, msgs[0].Value.Sign())

	a := erc20.ABI()
	m, err := a.MethodById(msgs[0].Data[:4])
	require.NoError(t, err)
	assert.Equal(t, "transfer", m.Name)
	args, err := m.Inputs.Unpack(msgs[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_250_000), args[1])
}

func TestEstimateFailureIsNotUserVisible(t *testing.T) {
	boom := errors.New("execution reverted")
	rpc := &chainstest.Client{EstimateErr: boom}
	e := fastExecutor()

	_, err := e.Estimate(context.Background(), wallettest.New(rpc), Params{To: recipient, Amount: "1"})
	assert.ErrorIs(t, err, ErrEstimateUnavailable)
	assert.ErrorIs(t, err, boom)

	assert.True(t, e.EstimateState().Unavailable)
	assert.NoError(t, e.State().Err)
	assert.Equal(t, state.StatusIdle, e.State().Status)
}

func TestEstimateNoWallet(t *testing.T) {
	_, err := fastExecutor().Estimate(context.Background(), nil, Params{To: recipient, Amount: "1"})
	assert.ErrorIs(t, err, wallet.ErrNoWallet)
}

func TestSendNative1559(t *testing.T) {
	rpc := &chainstest.Client{
		ChainIDValue:   big.NewInt(11155111),
		GasEstimate:    21000,
		BaseFee:        big.NewInt(10),
		TipCap:         big.NewInt(2),
		Nonce:          7,
		ReceiptPending: 2,
	}
	w := wallettest.New(rpc)
	e := fastExecutor()

	hash, err := e.Send(context.Background(), w, Params{To: recipient, Amount: "1"})
	require.NoError(t, err)

	sent := rpc.Sent()
	require.Len(t, sent, 1)
	tx := sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, "22", tx.GasFeeCap().String())
	assert.Equal(t, "2", tx.GasTipCap().String())
	assert.Equal(t, "1000000000000000000", tx.Value().String())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(11155111)), tx)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), from)
	assert.Equal(t, 3, rpc.Calls("eth_getTransactionReceipt"))

	snap := e.State()
	assert.False(t, snap.Loading())
	assert.NoError(t, snap.Err)
	assert.Equal(t, hash, snap.Value)
}

func TestSendTokenLegacy(t *testing.T) {
	rpc := &chainstest.Client{GasEstimate: 50000, GasPrice: big.NewInt(5)}
	w := wallettest.New(rpc)

	_, err := fastExecutor().Send(context.Background(), w, Params{To: recipient, Amount: "3", TokenAddress: usdc.Hex(), Decimals: u8(6)})
	require.NoError(t, err)

	tx := rpc.Sent()[0]
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, usdc, *tx.To())
	assert.Equal(t, "5", tx.GasPrice().String())
	assert.Zero(t, tx.Value().Sign())
}

func TestSendRejectedSurfacesOriginalError(t *testing.T) {
	rejected := errors.New("User rejected transaction")
	rpc := &chainstest.Client{GasEstimate: 21000}
	w := wallettest.New(rpc)
	w.SignErr = rejected
	e := fastExecutor()

	hash, err := e.Send(context.Background(), w, Params{To: recipient, Amount: "1"})
	assert.Equal(t, rejected, err)
	assert.Equal(t, "User rejected transaction", err.Error())
	assert.Equal(t, common.Hash{}, hash)
	assert.Zero(t, rpc.Calls("eth_sendRawTransaction"))

	snap := e.State()
	assert.False(t, snap.Loading())
	assert.Equal(t, common.Hash{}, snap.Value)
	assert.Equal(t, rejected, snap.Err)
}

func TestSendNodeErrorUnchanged(t *testing.T) {
	nodeErr := errors.New("insufficient funds for gas * price + value")
	rpc := &chainstest.Client{GasEstimate: 21000, SendErr: nodeErr}

	_, err := fastExecutor().Send(context.Background(), wallettest.New(rpc), Params{To: recipient, Amount: "1"})
	assert.Equal(t, nodeErr, err)
}

func TestSendRevertedReceipt(t *testing.T) {
	rpc := &chainstest.Client{GasEstimate: 21000, Receipt: &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(3)}}
	e := fastExecutor()

	hash, err := e.Send(context.Background(), wallettest.New(rpc), Params{To: recipient, Amount: "1"})
	assert.ErrorIs(t, err, ErrTransactionReverted)
	assert.NotEqual(t, common.Hash{}, hash)
	assert.Equal(t, hash, e.State().Value)
}

func TestSendNoWalletMakesNoCalls(t *testing.T) {
	e := fastExecutor()
	_, err := e.Send(context.Background(), nil, Params{To: recipient, Amount: "1"})
	assert.ErrorIs(t, err, wallet.ErrNoWallet)
	assert.False(t, e.State().Loading())
}

func TestSendValidationBeforeNetwork(t *testing.T) {
	cases := []Params{
		{To: "", Amount: "1"},
		{To: "not-an-address", Amount: "1"},
		{To: recipient, Amount: ""},
		{To: recipient, Amount: "-1"},
		{To: recipient, Amount: "0.1234567", Decimals: u8(6)},
		{To: recipient, Amount: "1", TokenAddress: "0xzz"},
	}
	for _, p := range cases {
		rpc := &chainstest.Client{}
		_, err := fastExecutor().Send(context.Background(), wallettest.New(rpc), p)
		assert.ErrorIs(t, err, ErrInvalidParams, "%+v", p)
		assert.Zero(t, rpc.TotalCalls(), "%+v", p)
	}
}

func TestSendWaitHonoursContext(t *testing.T) {
	rpc := &chainstest.Client{GasEstimate: 21000, ReceiptPending: 1 << 30}
	e := fastExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	hash, err := e.Send(ctx, wallettest.New(rpc), Params{To: recipient, Amount: "1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEqual(t, common.Hash{}, hash)
	assert.False(t, e.State().Loading())
}

func TestOverlappingSendsBothConfirm(t *testing.T) {
	rpc := &chainstest.Client{GasEstimate: 21000, ReceiptPending: 20}
	w := wallettest.New(rpc)
	e := New()
	e.PollInterval = 5 * time.Millisecond

	type result struct {
		hash common.Hash
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		h, err := e.Send(context.Background(), w, Params{To: recipient, Amount: "1"})
		firstDone <- result{h, err}
	}()

	// wait until the first transfer is on the wire and polling for its receipt
	require.Eventually(t, func() bool { return len(rpc.Sent()) == 1 }, time.Second, time.Millisecond)

	second, err := e.Send(context.Background(), w, Params{To: recipient, Amount: "2"})
	require.NoError(t, err)

	var first result
	select {
	case first = <-firstDone:
	case <-time.After(2 * time.Second):
		t.Fatal("first send never returned")
	}
	require.NoError(t, first.err)

	sent := rpc.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, sent[0].Hash(), first.hash)
	assert.Equal(t, sent[1].Hash(), second)
	assert.NotEqual(t, first.hash, second)
	assert.Equal(t, second, e.State().Value)
}
