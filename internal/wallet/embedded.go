package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/chains"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
)

// Embedded is a local wallet: one secp256k1 key plus the chain service that
// tracks the active network.
type Embedded struct {
	addr   common.Address
	key    *ecdsa.PrivateKey
	chains *chains.Service
}

var _ Wallet = (*Embedded)(nil)

func NewEmbedded(k *Key, svc *chains.Service) (*Embedded, error) {
	if k == nil {
		return nil, fmt.Errorf("wallet: nil key")
	}
	if svc == nil {
		return nil, fmt.Errorf("wallet: nil chain service")
	}
	pk, err := k.privateKey()
	if err != nil {
		return nil, err
	}
	addr := crypto.PubkeyToAddress(pk.PublicKey)
	if k.AddressHex != "" && k.Address() != addr {
		return nil, fmt.Errorf("wallet: key file address %s does not match key (%s)", k.AddressHex, addr.Hex())
	}
	return &Embedded{addr: addr, key: pk, chains: svc}, nil
}

func (e *Embedded) Address() common.Address { return e.addr }

func (e *Embedded) ChainID() string {
	active, err := e.chains.Active()
	if err != nil {
		return ""
	}
	return chains.FormatCAIP2(constants.CAIP2Namespace, active.ChainID)
}

func (e *Embedded) SwitchChain(ctx context.Context, chainID uint64) error {
	_, err := e.chains.SwitchChainByID(ctx, chainID)
	return err
}

func (e *Embedded) Client(ctx context.Context) (chains.Client, error) {
	return e.chains.ActiveHTTP(ctx)
}

func (e *Embedded) SignHash(ctx context.Context, digest32 []byte) ([]byte, error) {
	if err := EnsureDigest32(digest32); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return crypto.Sign(digest32, e.key)
}

func (e *Embedded) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), e.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}
