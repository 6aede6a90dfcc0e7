// Package units converts between human-readable token amounts and
// smallest-unit integers, and formats amounts and addresses for display.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyAmount     = errors.New("amount is empty")
	ErrNegativeAmount  = errors.New("amount is negative")
	ErrTooManyDecimals = errors.New("amount has more fractional digits than the token supports")
)

// SmallAmountLabel is shown instead of amounts below SmallAmountThreshold.
const SmallAmountLabel = "< 0.0001"

var SmallAmountThreshold = decimal.RequireFromString("0.0001")

// ParseUnits converts a decimal string such as "1.5" into the token's
// smallest-unit integer.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, ErrEmptyAmount
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q with %d decimals", ErrTooManyDecimals, amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders a smallest-unit integer with full precision and no
// trailing zeros.
//
//	FormatUnits(100000000, 6)   -> "100"
//	FormatUnits(21000e9, 18)    -> "0.000021"
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// FormatUnitsTrim converts a token balance to a human string:
// - divides by 10^decimals
// - trims to maxFrac decimal places
// - removes trailing zeros
//
// Examples:
//
//	balance=1234500000000000000, decimals=18 -> "1.2345"
//	balance=1000000000000000000, decimals=18 -> "1"
//	balance=1, decimals=18, maxFrac=4 -> "0"
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	ten := big.NewInt(10)
	base := new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)

	intPart, fracPart := new(big.Int).QuoRem(amount, base, new(big.Int))
	fracPart.Abs(fracPart)

	if fracPart.Sign() == 0 || maxFrac <= 0 {
		return intPart.String()
	}

	fracStr := fracPart.String()
	if len(fracStr) < int(decimals) {
		fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	}
	if len(fracStr) > maxFrac {
		fracStr = fracStr[:maxFrac]
	}

	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return intPart.String()
	}
	return intPart.String() + "." + fracStr
}

// FormatTokenAmount formats an already human-readable amount for display:
// "0" for zero or unparsable input, SmallAmountLabel for dust, otherwise at
// most displayDecimals fractional digits with grouped thousands.
func FormatTokenAmount(value string, displayDecimals int) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || d.IsZero() {
		return "0"
	}
	if d.LessThan(SmallAmountThreshold) {
		return SmallAmountLabel
	}
	if displayDecimals < 0 {
		displayDecimals = 0
	}

	f, _ := d.Truncate(int32(displayDecimals)).Float64()
	return humanize.CommafWithDigits(f, displayDecimals)
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// FormatCurrency renders a fiat value with two decimals and grouped thousands,
// "$1,234.57" for ("1234.567", "USD"). Unparsable input renders as zero.
// Unknown currency codes are used as a prefix: "CHF 10.00".
func FormatCurrency(value, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	prefix, ok := currencySymbols[code]
	if !ok {
		prefix = code + " "
	}

	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		d = decimal.Zero
	}
	d = d.Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole).StringFixed(2)[1:] // ".xx"
	return sign + prefix + humanize.BigComma(whole.BigInt()) + frac
}

// FormatRawTokenAmount is FormatTokenAmount for smallest-unit integers.
func FormatRawTokenAmount(raw *big.Int, decimals uint8, displayDecimals int) string {
	return FormatTokenAmount(FormatUnits(raw, decimals), displayDecimals)
}

// TruncateAddress shortens an address to its first chars hex digits and last
// chars characters: "0x1234...5678" for chars=4. Addresses too short to
// shorten are returned as-is.
func TruncateAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if chars <= 0 || len(address) < chars*2+2 {
		return address
	}
	return address[:chars+2] + "..." + address[len(address)-chars:]
}
