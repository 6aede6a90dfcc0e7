package chains

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrInvalidChainID = errors.New("invalid chain id")

var knownChainNames = map[uint64]string{
	1:        "Ethereum",
	11155111: "Sepolia",
	137:      "Polygon",
	80001:    "Mumbai",
	8453:     "Base",
	84532:    "Base Sepolia",
	10:       "Optimism",
	42161:    "Arbitrum",
}

// ParseChainID extracts the numeric chain id from whatever a wallet reports:
// integer types, decimal strings, 0x-prefixed hex strings, or namespaced
// strings of the form "<namespace>:<id>" (e.g. "eip155:137").
func ParseChainID(v any) (uint64, error) {
	switch id := v.(type) {
	case uint64:
		return id, nil
	case uint:
		return uint64(id), nil
	case uint32:
		return uint64(id), nil
	case int:
		return fromSigned(int64(id))
	case int32:
		return fromSigned(int64(id))
	case int64:
		return fromSigned(id)
	case float64:
		if id < 0 || id != math.Trunc(id) || id > math.MaxUint64 {
			return 0, errors.Wrapf(ErrInvalidChainID, "%v", id)
		}
		return uint64(id), nil
	case string:
		return parseChainIDString(id)
	case fmt.Stringer:
		return parseChainIDString(id.String())
	default:
		return 0, errors.Wrapf(ErrInvalidChainID, "unsupported type %T", v)
	}
}

func parseChainIDString(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return 0, errors.Wrapf(ErrInvalidChainID, "%q", raw)
	}

	var (
		id  uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		id, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidChainID, "%q", raw)
	}
	return id, nil
}

func fromSigned(id int64) (uint64, error) {
	if id < 0 {
		return 0, errors.Wrapf(ErrInvalidChainID, "%d", id)
	}
	return uint64(id), nil
}

// FormatChainIDHex renders a chain id as a 0x quantity ("0x89" for 137).
func FormatChainIDHex(id uint64) string {
	return "0x" + strconv.FormatUint(id, 16)
}

// FormatCAIP2 renders a chain id in the "<namespace>:<id>" form wallets report.
func FormatCAIP2(namespace string, id uint64) string {
	return namespace + ":" + strconv.FormatUint(id, 10)
}

// ChainName returns a display name for well-known chains.
func ChainName(id uint64) string {
	if name, ok := knownChainNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Chain ID: %d", id)
}
