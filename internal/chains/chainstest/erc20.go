package chainstest

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/erc20"
)

// Token is the state of a fake ERC-20 contract.
type Token struct {
	Symbol   string
	Name     string
	Decimals uint8
	Balances map[common.Address]*big.Int
	Err      error // returned for every call to this token
}

// ERC20 answers balanceOf/decimals/symbol/name for the given tokens.
func ERC20(tokens map[common.Address]*Token) CallFunc {
	a := erc20.ABI()
	return func(msg ethereum.CallMsg) ([]byte, error) {
		if msg.To == nil {
			return nil, fmt.Errorf("call without target")
		}
		tok, ok := tokens[*msg.To]
		if !ok {
			return nil, fmt.Errorf("execution reverted")
		}
		if tok.Err != nil {
			return nil, tok.Err
		}
		if len(msg.Data) < 4 {
			return nil, fmt.Errorf("short call data")
		}
		m, err := a.MethodById(msg.Data[:4])
		if err != nil {
			return nil, err
		}
		switch m.Name {
		case "balanceOf":
			args, err := m.Inputs.Unpack(msg.Data[4:])
			if err != nil {
				return nil, err
			}
			bal := tok.Balances[args[0].(common.Address)]
			if bal == nil {
				bal = big.NewInt(0)
			}
			return m.Outputs.Pack(bal)
		case "decimals":
			return m.Outputs.Pack(tok.Decimals)
		case "symbol":
			return m.Outputs.Pack(tok.Symbol)
		case "name":
			if tok.Name == "" {
				return nil, fmt.Errorf("execution reverted")
			}
			return m.Outputs.Pack(tok.Name)
		}
		return nil, fmt.Errorf("unsupported method %s", m.Name)
	}
}
