// Package signer produces EIP-191 personal and EIP-712 typed-data signatures
// from the connected account.
package signer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/state"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/wallet"
)

// Signer keeps the last signature ("0x" + 65 bytes, V 27/28).
type Signer struct {
	slot state.Slot[string]
}

func New() *Signer { return &Signer{} }

func (s *Signer) State() state.Snapshot[string] { return s.slot.Snapshot() }

func (s *Signer) SignMessage(ctx context.Context, w wallet.Wallet, message string) (string, error) {
	return s.sign(ctx, w, "personal", func() ([]byte, error) {
		return HashPersonalMessage([]byte(message)), nil
	})
}

func (s *Signer) SignTypedData(ctx context.Context, w wallet.Wallet, td apitypes.TypedData) (string, error) {
	return s.sign(ctx, w, "typed", func() ([]byte, error) {
		return TypedDataDigest(td)
	})
}

// SignTypedDataJSON accepts the eth_signTypedData_v4 JSON payload.
func (s *Signer) SignTypedDataJSON(ctx context.Context, w wallet.Wallet, raw []byte) (string, error) {
	return s.sign(ctx, w, "typed", func() ([]byte, error) {
		var td apitypes.TypedData
		if err := json.Unmarshal(raw, &td); err != nil {
			return nil, fmt.Errorf("invalid typed data json: %w", err)
		}
		return TypedDataDigest(td)
	})
}

func (s *Signer) sign(ctx context.Context, w wallet.Wallet, kind string, digest func() ([]byte, error)) (string, error) {
	t := s.slot.Begin()

	if !wallet.Connected(w) {
		s.slot.Fail(t, "", wallet.ErrNoWallet)
		return "", wallet.ErrNoWallet
	}
	// last signature is cleared at the start of every request
	s.slot.Set(t, "")

	d, err := digest()
	if err != nil {
		s.slot.Fail(t, "", err)
		return "", err
	}

	sig, err := w.SignHash(ctx, d)
	if err != nil {
		log.Warn("signature request failed", "kind", kind, "address", w.Address().Hex(), "error", err)
		s.slot.Fail(t, "", err)
		return "", err
	}
	sig, err = wallet.SigToV27(sig)
	if err != nil {
		s.slot.Fail(t, "", err)
		return "", err
	}

	out := hexutil.Encode(sig)
	s.slot.Resolve(t, out)
	return out, nil
}

// HashPersonalMessage is keccak256("\x19Ethereum Signed Message:\n" + len(msg) + msg).
func HashPersonalMessage(msg []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return crypto.Keccak256([]byte(prefix), msg)
}

// TypedDataDigest is the EIP-712 v4 digest keccak256(0x1901 || domainSeparator || hashStruct(message)).
func TypedDataDigest(td apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("domain hash: %w", err)
	}
	msgHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("message hash: %w", err)
	}
	return crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, msgHash), nil
}

// Recover returns the address that produced sigHex over digest. V may be 0/1 or 27/28.
func Recover(digest []byte, sigHex string) (common.Address, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return common.Address{}, err
	}
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
