package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TokenList is the file format accepted by LoadTokenList:
//
//	networks:
//	  sepolia:
//	    - address: 0x...
//	      symbol: USDC
//	      decimals: 6
type TokenList struct {
	Networks map[string][]TokenDefinition `json:"networks" yaml:"networks"`
}

// LoadTokenList reads a YAML (.yaml/.yml) or JSON token list and returns the
// definitions keyed by normalized network name with checksummed addresses.
func LoadTokenList(path string) (map[string][]TokenDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}

	var tl TokenList
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &tl)
	case ".json":
		err = json.Unmarshal(b, &tl)
	default:
		return nil, fmt.Errorf("token list %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse token list %s: %w", path, err)
	}

	return NormalizeDefinitions(tl.Networks)
}

// NormalizeDefinitions lowercases network keys and checksums addresses.
func NormalizeDefinitions(in map[string][]TokenDefinition) (map[string][]TokenDefinition, error) {
	out := make(map[string][]TokenDefinition, len(in))
	for netKey, defs := range in {
		nk := normalizeNetworkKey(netKey)
		if nk == "" {
			continue
		}
		for i, d := range defs {
			addr, err := normalizeAddress(d.Address)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", nk, i, err)
			}
			if d.Symbol == "" {
				return nil, fmt.Errorf("%s[%d]: symbol must not be empty", nk, i)
			}
			d.Address = addr
			out[nk] = append(out[nk], d)
		}
	}
	return out, nil
}
