package chains

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var explorers = map[uint64]string{
	1:        "https://etherscan.io",
	11155111: "https://sepolia.etherscan.io",
	17000:    "https://holesky.etherscan.io",
	42161:    "https://arbiscan.io",
	421614:   "https://sepolia.arbiscan.io",
	10:       "https://optimistic.etherscan.io",
	11155420: "https://sepolia-optimistic.etherscan.io",
	8453:     "https://basescan.org",
	84532:    "https://sepolia.basescan.org",
	137:      "https://polygonscan.com",
	80001:    "https://mumbai.polygonscan.com",
	534352:   "https://scrollscan.com",
	534351:   "https://sepolia.scrollscan.com",
}

// ExplorerURL returns the block explorer base URL for chainID, or "".
func ExplorerURL(chainID uint64) string {
	return explorers[chainID]
}

// TxURL links hash under the explorer base URL, or "" without one.
func TxURL(explorer string, hash common.Hash) string {
	if explorer == "" {
		return ""
	}
	return strings.TrimRight(explorer, "/") + "/tx/" + hash.Hex()
}

// ExplorerTxURL prefers the configured explorer of the network with chainID
// and falls back to the built-in table.
func (s *Service) ExplorerTxURL(chainID uint64, hash common.Hash) string {
	if resolved, err := s.ResolveNetworkByChainID(chainID); err == nil && resolved.Explorer != "" {
		return TxURL(resolved.Explorer, hash)
	}
	return TxURL(ExplorerURL(chainID), hash)
}
