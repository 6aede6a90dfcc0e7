// Package wallet defines the connected-wallet contract used by every fetcher
// and ships an embedded implementation backed by an encrypted local key.
package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
)

// ErrNoWallet is returned by account-requiring operations when no wallet is connected.
var ErrNoWallet = errors.New("no wallet connected")

// Wallet is the active account. Callers pass it explicitly; a nil Wallet means
// no connection.
type Wallet interface {
	Address() common.Address
	// ChainID returns the raw chain identifier, e.g. "eip155:137".
	ChainID() string
	SwitchChain(ctx context.Context, chainID uint64) error
	Client(ctx context.Context) (chains.Client, error)
	// SignHash signs a 32 byte digest. V is 0/1.
	SignHash(ctx context.Context, digest32 []byte) ([]byte, error)
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Connected reports whether w holds a usable wallet. Typed nil pointers count as
// disconnected.
func Connected(w Wallet) bool {
	if w == nil {
		return false
	}
	if e, ok := w.(*Embedded); ok && e == nil {
		return false
	}
	return true
}

func EnsureDigest32(d []byte) error {
	if len(d) != 32 {
		return fmt.Errorf("digest must be 32 bytes, got %d", len(d))
	}
	return nil
}

// SigToV27 converts V 0/1 -> 27/28.
// If V is already 27/28, it leaves it unchanged.
func SigToV27(sig65 []byte) ([]byte, error) {
	if len(sig65) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig65))
	}
	out := make([]byte, 65)
	copy(out, sig65)

	switch out[64] {
	case 0, 1:
		out[64] += 27
	case 27, 28:
	default:
		return nil, fmt.Errorf("unexpected v value %d", out[64])
	}
	return out, nil
}
