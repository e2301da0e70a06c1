// Package units converts between decimal token amounts and their smallest-unit
// (wei-equivalent) integer representation. All arithmetic is string and big.Int
// based; floats would silently lose precision at 18 decimals.
package units

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the fixed scaling used by VET and B3TR.
const Decimals = 18

var scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ParseVET converts a decimal VET amount such as "1.5" to its wei string,
// "1500000000000000000". A trailing unit token as produced by FormatVET is
// accepted and ignored. Fractional digits beyond 18 are rejected.
func ParseVET(amount string) (string, error) {
	return parseDecimal(amount)
}

// FormatVET renders a wei amount for display with four fractional digits and
// the VET suffix: "1500000000000000000" becomes "1.5000 VET".
func FormatVET(wei string) (string, error) {
	return formatUnit(wei, "VET")
}

// FormatB3TR renders a reward amount in B3TR with four fractional digits.
func FormatB3TR(wei string) (string, error) {
	return formatUnit(wei, "B3TR")
}

func parseDecimal(amount string) (string, error) {
	s := strings.TrimSpace(amount)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "", fmt.Errorf("empty amount")
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return "", fmt.Errorf("amount %q has more than %d decimal places", amount, Decimals)
	}

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok || wholeInt.Sign() < 0 {
		return "", fmt.Errorf("invalid amount %q", amount)
	}

	padded := frac + strings.Repeat("0", Decimals-len(frac))
	fracInt := big.NewInt(0)
	if padded != "" {
		fracInt, ok = new(big.Int).SetString(padded, 10)
		if !ok {
			return "", fmt.Errorf("invalid amount %q", amount)
		}
	}

	wholeInt.Mul(wholeInt, scale)
	wholeInt.Add(wholeInt, fracInt)
	return wholeInt.String(), nil
}

func formatUnit(wei, symbol string) (string, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(wei), 10)
	if !ok || n.Sign() < 0 {
		return "", fmt.Errorf("invalid wei amount %q", wei)
	}

	quo, rem := new(big.Int).QuoRem(n, scale, new(big.Int))
	frac := fmt.Sprintf("%018s", rem.String())[:4]
	return fmt.Sprintf("%s.%s %s", quo.String(), frac, symbol), nil
}

// IsSmallestUnit reports whether s is a plain non-negative integer string, the
// only form the mirror stores for amounts.
func IsSmallestUnit(s string) bool {
	n, ok := new(big.Int).SetString(s, 10)
	return ok && n.Sign() >= 0
}
