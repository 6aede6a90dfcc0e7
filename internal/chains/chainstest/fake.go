// Package chainstest provides an in-memory chains.Client for tests.
package chainstest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CallFunc answers eth_call requests.
type CallFunc func(msg ethereum.CallMsg) ([]byte, error)

// Client is a scriptable chains.Client. Zero values answer with zeros.
type Client struct {
	mu sync.Mutex

	ChainIDValue   *big.Int
	Balances       map[common.Address]*big.Int
	BalanceErr     error
	Call           CallFunc
	GasEstimate    uint64
	EstimateErr    error
	GasPrice       *big.Int
	GasPriceErr    error
	TipCap         *big.Int
	BaseFee        *big.Int
	Nonce          uint64
	SendErr        error
	Receipt        *types.Receipt
	ReceiptErr     error
	ReceiptPending int // TransactionReceipt answers NotFound this many times first

	calls   map[string]int
	sent    []*types.Transaction
	estMsgs []ethereum.CallMsg
}

func (c *Client) record(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[method]++
}

// Calls returns how many times method was invoked.
func (c *Client) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// TotalCalls returns the number of RPC calls of any kind.
func (c *Client) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *Client) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

func (c *Client) EstimateMsgs() []ethereum.CallMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ethereum.CallMsg(nil), c.estMsgs...)
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.record("eth_chainId")
	if c.ChainIDValue == nil {
		return big.NewInt(1), nil
	}
	return new(big.Int).Set(c.ChainIDValue), nil
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.record("eth_getBalance")
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	if b, ok := c.Balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.record("eth_call")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Call == nil {
		return make([]byte, 32), nil
	}
	return c.Call(msg)
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.record("eth_estimateGas")
	c.mu.Lock()
	c.estMsgs = append(c.estMsgs, msg)
	c.mu.Unlock()
	if c.EstimateErr != nil {
		return 0, c.EstimateErr
	}
	return c.GasEstimate, nil
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	c.record("eth_gasPrice")
	if c.GasPriceErr != nil {
		return nil, c.GasPriceErr
	}
	if c.GasPrice == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(c.GasPrice), nil
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	c.record("eth_maxPriorityFeePerGas")
	if c.TipCap == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(c.TipCap), nil
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.record("eth_getBlockByNumber")
	h := &types.Header{Number: big.NewInt(1)}
	if c.BaseFee != nil {
		h.BaseFee = new(big.Int).Set(c.BaseFee)
	}
	return h, nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.record("eth_getTransactionCount")
	return c.Nonce, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.record("eth_sendRawTransaction")
	if c.SendErr != nil {
		return c.SendErr
	}
	c.mu.Lock()
	c.sent = append(c.sent, tx)
	c.mu.Unlock()
	return nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.record("eth_getTransactionReceipt")
	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}

	c.mu.Lock()
	pending := c.ReceiptPending > 0
	if pending {
		c.ReceiptPending--
	}
	c.mu.Unlock()
	if pending {
		return nil, ethereum.NotFound
	}

	if c.Receipt != nil {
		r := *c.Receipt
		r.TxHash = txHash
		return &r, nil
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash, BlockNumber: big.NewInt(1)}, nil
}
