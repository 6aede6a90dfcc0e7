// Package transfer estimates and sends native and ERC-20 transfers from the
// connected account and waits for their receipts.
package transfer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/erc20"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/units"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

const DefaultPollInterval = 2 * time.Second

// EstimateView is what the executor exposes about the last fee preview.
type EstimateView struct {
	Estimate    *GasEstimate `json:"estimate,omitempty"`
	Unavailable bool         `json:"unavailable"`
}

type Executor struct {
	PollInterval time.Duration

	send     state.Slot[common.Hash]
	estimate state.Slot[EstimateView]
}

func New() *Executor {
	return &Executor{PollInterval: DefaultPollInterval}
}

// State reports the send cycle: loading, last error and last tx hash.
func (e *Executor) State() state.Snapshot[common.Hash] { return e.send.Snapshot() }

// EstimateState never carries an error; failed previews show as Unavailable.
func (e *Executor) EstimateState() EstimateView { return e.estimate.Snapshot().Value }

// Estimate previews the fee of p. Failures are logged and returned wrapping
// both ErrEstimateUnavailable and the cause; they never populate the
// executor's error state.
func (e *Executor) Estimate(ctx context.Context, w wallet.Wallet, p Params) (*GasEstimate, error) {
	if !wallet.Connected(w) {
		return nil, wallet.ErrNoWallet
	}
	t := e.estimate.Begin()

	est, err := estimate(ctx, w, p)
	if err != nil {
		log.Warn("gas estimation failed", "to", p.To, "token", p.TokenAddress, "error", err)
		e.estimate.Resolve(t, EstimateView{Unavailable: true})
		return nil, fmt.Errorf("%w: %w", ErrEstimateUnavailable, err)
	}

	e.estimate.Resolve(t, EstimateView{Estimate: est})
	return est, nil
}

func estimate(ctx context.Context, w wallet.Wallet, p Params) (*GasEstimate, error) {
	pp, err := p.prepare()
	if err != nil {
		return nil, err
	}
	client, err := w.Client(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := callMsg(w.Address(), pp)
	if err != nil {
		return nil, err
	}

	gas, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, errors.Wrap(err, "estimate gas")
	}
	price, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "gas price")
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
	return &GasEstimate{
		GasUnits:    gas,
		GasPriceWei: price,
		FeeWei:      fee,
		Fee:         units.FormatUnits(fee, constants.NativeDecimals),
	}, nil
}

// Send signs and submits p, then blocks until the receipt is observed or ctx
// ends. Errors from the wallet or the node are returned unchanged. A mined
// but reverted transaction returns its hash with ErrTransactionReverted.
func (e *Executor) Send(ctx context.Context, w wallet.Wallet, p Params) (common.Hash, error) {
	t := e.send.Begin()

	if !wallet.Connected(w) {
		e.send.Fail(t, common.Hash{}, wallet.ErrNoWallet)
		return common.Hash{}, wallet.ErrNoWallet
	}

	pp, err := p.prepare()
	if err != nil {
		e.send.Fail(t, common.Hash{}, err)
		return common.Hash{}, err
	}

	client, err := w.Client(ctx)
	if err != nil {
		e.send.Fail(t, common.Hash{}, err)
		return common.Hash{}, err
	}

	signed, err := buildAndSign(ctx, client, w, pp)
	if err != nil {
		log.Warn("transfer not submitted", "to", pp.to.Hex(), "error", err)
		e.send.Fail(t, common.Hash{}, err)
		return common.Hash{}, err
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		log.Warn("transfer rejected by node", "to", pp.to.Hex(), "error", err)
		e.send.Fail(t, common.Hash{}, err)
		return common.Hash{}, err
	}

	hash := signed.Hash()
	e.send.Set(t, hash)
	log.Info("transfer submitted", "hash", hash.Hex(), "to", pp.to.Hex(), "nonce", signed.Nonce())

	rcpt, err := waitReceipt(ctx, client, hash, e.pollInterval())
	if err != nil {
		e.send.Fail(t, hash, err)
		return hash, err
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		err := errors.Wrapf(ErrTransactionReverted, "tx %s", hash.Hex())
		e.send.Fail(t, hash, err)
		return hash, err
	}

	log.Info("transfer confirmed", "hash", hash.Hex(), "block", rcpt.BlockNumber, "gasUsed", rcpt.GasUsed)
	e.send.Resolve(t, hash)
	return hash, nil
}

func (e *Executor) pollInterval() time.Duration {
	if e.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return e.PollInterval
}

func callMsg(from common.Address, pp prepared) (ethereum.CallMsg, error) {
	if pp.token == nil {
		to := pp.to
		return ethereum.CallMsg{From: from, To: &to, Value: pp.amount}, nil
	}
	data, err := erc20.PackTransfer(pp.to, pp.amount)
	if err != nil {
		return ethereum.CallMsg{}, err
	}
	return ethereum.CallMsg{From: from, To: pp.token, Value: big.NewInt(0), Data: data}, nil
}

func buildAndSign(ctx context.Context, client chains.Client, w wallet.Wallet, pp prepared) (*types.Transaction, error) {
	from := w.Address()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}
	msg, err := callMsg(from, pp)
	if err != nil {
		return nil, err
	}
	gas, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, err
	}

	var tx *types.Transaction
	if header, err := client.HeaderByNumber(ctx, nil); err == nil && header != nil && header.BaseFee != nil {
		tip, err := client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, err
		}
		feeCap := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
		feeCap.Add(feeCap, tip)
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			Gas:       gas,
			To:        msg.To,
			Value:     msg.Value,
			Data:      msg.Data,
			GasTipCap: tip,
			GasFeeCap: feeCap,
		})
	} else {
		price, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			Gas:      gas,
			GasPrice: price,
			To:       msg.To,
			Value:    msg.Value,
			Data:     msg.Data,
		})
	}

	return w.SignTx(ctx, tx, chainID)
}

func waitReceipt(ctx context.Context, client chains.Client, hash common.Hash, every time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		rcpt, err := client.TransactionReceipt(ctx, hash)
		if err == nil && rcpt != nil {
			return rcpt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
