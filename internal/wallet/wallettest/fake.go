// Package wallettest provides a scriptable wallet.Wallet for tests.
package wallettest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains/chainstest"
)

// Wallet signs with a real key and talks to a chainstest.Client.
type Wallet struct {
	mu sync.Mutex

	Key          *ecdsa.PrivateKey
	RPC          *chainstest.Client
	ChainIDValue string

	ClientErr error
	SignErr   error
	SwitchErr error

	switched []uint64
}

// New returns a wallet with a fresh key on chain id 1.
func New(rpc *chainstest.Client) *Wallet {
	k, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	if rpc == nil {
		rpc = &chainstest.Client{}
	}
	return &Wallet{Key: k, RPC: rpc, ChainIDValue: "eip155:1"}
}

func (w *Wallet) Address() common.Address { return crypto.PubkeyToAddress(w.Key.PublicKey) }

func (w *Wallet) ChainID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ChainIDValue
}

func (w *Wallet) SwitchChain(ctx context.Context, chainID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.SwitchErr != nil {
		return w.SwitchErr
	}
	w.switched = append(w.switched, chainID)
	w.ChainIDValue = chains.FormatCAIP2("eip155", chainID)
	return nil
}

// Switched lists successful SwitchChain targets.
func (w *Wallet) Switched() []uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uint64(nil), w.switched...)
}

func (w *Wallet) Client(ctx context.Context) (chains.Client, error) {
	if w.ClientErr != nil {
		return nil, w.ClientErr
	}
	return w.RPC, nil
}

func (w *Wallet) SignHash(ctx context.Context, digest32 []byte) ([]byte, error) {
	if w.SignErr != nil {
		return nil, w.SignErr
	}
	return crypto.Sign(digest32, w.Key)
}

func (w *Wallet) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if w.SignErr != nil {
		return nil, w.SignErr
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.Key)
}
