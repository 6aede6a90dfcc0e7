// Package erc20 reads ERC-20 token state and packs transfer call data.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const abiJSON = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var parsed = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(err)
	}
	return a
}()

// ABI returns the parsed minimal ERC-20 ABI.
func ABI() abi.ABI { return parsed }

// Caller is the subset of chains.Client the readers need.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Metadata is what a token reports about itself.
type Metadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

func BalanceOf(ctx context.Context, c Caller, token, owner common.Address) (*big.Int, error) {
	out, err := call(ctx, c, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("erc20: balanceOf: unexpected type %T", out[0])
	}
	return v, nil
}

func Decimals(ctx context.Context, c Caller, token common.Address) (uint8, error) {
	out, err := call(ctx, c, token, "decimals")
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("erc20: decimals: unexpected type %T", out[0])
	}
	return v, nil
}

func Symbol(ctx context.Context, c Caller, token common.Address) (string, error) {
	return callString(ctx, c, token, "symbol")
}

func Name(ctx context.Context, c Caller, token common.Address) (string, error) {
	return callString(ctx, c, token, "name")
}

// FetchMetadata reads symbol and decimals; name is optional and left empty if
// the token does not implement it.
func FetchMetadata(ctx context.Context, c Caller, token common.Address) (Metadata, error) {
	sym, err := Symbol(ctx, c, token)
	if err != nil {
		return Metadata{}, err
	}
	dec, err := Decimals(ctx, c, token)
	if err != nil {
		return Metadata{}, err
	}
	md := Metadata{Symbol: sym, Decimals: dec}
	if n, err := Name(ctx, c, token); err == nil {
		md.Name = n
	}
	return md, nil
}

// PackTransfer returns call data for transfer(to, amount).
func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := parsed.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("erc20: pack transfer: %w", err)
	}
	return data, nil
}

func callString(ctx context.Context, c Caller, token common.Address, method string) (string, error) {
	out, err := call(ctx, c, token, method)
	if err != nil {
		return "", err
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("erc20: %s: unexpected type %T", method, out[0])
	}
	return v, nil
}

func call(ctx context.Context, c Caller, token common.Address, method string, args ...any) ([]any, error) {
	input, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("erc20: pack %s: %w", method, err)
	}
	raw, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("erc20: %s: %w", method, err)
	}
	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("erc20: unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("erc20: %s: empty result", method)
	}
	return out, nil
}
