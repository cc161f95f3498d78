// Package units converts between display decimals and the chain's smallest
// unit.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the scale of one ether in wei.
const EtherDecimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits converts a decimal string like "0.025" into an integer amount
// scaled by 10^decimals. More fractional digits than decimals is an error.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, value)
	}

	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, value, decimals)
	}

	return scaled.BigInt(), nil
}

// FormatUnits renders an integer amount scaled by 10^decimals as a plain
// decimal string without trailing zeros.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseEther converts an ether decimal string to wei.
func ParseEther(value string) (*big.Int, error) {
	return ParseUnits(value, EtherDecimals)
}

// FormatEther converts wei to an ether decimal string.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}
