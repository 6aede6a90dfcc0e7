package transfer

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-wallet-kit/internal/constants"
	"github.com/quantumauth-io/quantum-wallet-kit/internal/units"
)

var (
	ErrInvalidParams       = errors.New("invalid transfer params")
	ErrEstimateUnavailable = errors.New("estimate unavailable")
	ErrTransactionReverted = errors.New("transaction reverted")
)

// Params describes a native or ERC-20 transfer. Amount is in human units.
type Params struct {
	To           string `json:"to"`
	Amount       string `json:"amount"`
	TokenAddress string `json:"tokenAddress,omitempty"`
	Decimals     *uint8 `json:"decimals,omitempty"` // default 18
}

// GasEstimate is a fee preview. Fee is FeeWei in native units.
type GasEstimate struct {
	GasUnits    uint64   `json:"gasUnits"`
	GasPriceWei *big.Int `json:"gasPriceWei"`
	FeeWei      *big.Int `json:"feeWei"`
	Fee         string   `json:"fee"`
}

type prepared struct {
	to     common.Address
	token  *common.Address
	amount *big.Int
}

func (p Params) decimals() uint8 {
	if p.Decimals == nil {
		return constants.NativeDecimals
	}
	return *p.Decimals
}

func (p Params) prepare() (prepared, error) {
	to := strings.TrimSpace(p.To)
	if to == "" {
		return prepared{}, errors.Wrap(ErrInvalidParams, "recipient is required")
	}
	if !common.IsHexAddress(to) {
		return prepared{}, errors.Wrapf(ErrInvalidParams, "invalid recipient %q", p.To)
	}
	if strings.TrimSpace(p.Amount) == "" {
		return prepared{}, errors.Wrap(ErrInvalidParams, "amount is required")
	}
	amount, err := units.ParseUnits(p.Amount, p.decimals())
	if err != nil {
		return prepared{}, errors.Wrapf(ErrInvalidParams, "amount: %v", err)
	}

	out := prepared{to: common.HexToAddress(to), amount: amount}
	if tok := strings.TrimSpace(p.TokenAddress); tok != "" {
		if !common.IsHexAddress(tok) {
			return prepared{}, errors.Wrapf(ErrInvalidParams, "invalid token address %q", p.TokenAddress)
		}
		a := common.HexToAddress(tok)
		if a != common.HexToAddress(constants.NativeAddr) {
			out.token = &a
		}
	}
	return out, nil
}
