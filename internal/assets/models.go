package assets

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenDefinition describes a token. Supplied by config or a token list file.
type TokenDefinition struct {
	Address  string `json:"address" yaml:"address" mapstructure:"address"` // checksummed
	Symbol   string `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	Name     string `json:"name,omitempty" yaml:"name" mapstructure:"name"`
	Decimals uint8  `json:"decimals" yaml:"decimals" mapstructure:"decimals"`

	LogoURI string `json:"logoUri,omitempty" yaml:"logoUri" mapstructure:"logoUri"`
}

func (t TokenDefinition) Addr() common.Address { return common.HexToAddress(t.Address) }

// Asset is a TokenDefinition with the account's balance at fetch time.
type Asset struct {
	TokenDefinition

	Balance    string   `json:"balance"`
	BalanceRaw *big.Int `json:"balanceRaw"`
}

// Store is the on-disk registry layout.
type Store struct {
	// network -> address -> token
	Networks map[string]map[string]TokenDefinition `json:"networks"`
	Schema   int                                   `json:"schema"`
}
