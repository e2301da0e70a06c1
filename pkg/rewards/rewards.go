// Package rewards estimates B3TR rewards for bill payments.
//
// The estimate mirrors the contract's formula so the UI can show a figure
// before the paying transaction is mined; the authoritative reward is read
// back from the chain afterwards.
package rewards

import (
	"fmt"
	"math/big"
)

// BaseRateBps is the reward rate in basis points: 1% of the paid amount.
const BaseRateBps = 100

var bpsDenominator = big.NewInt(10000)

// Calculate returns the expected B3TR reward for a payment of the given
// smallest-unit amount. Social impact bills earn a 2x multiplier.
func Calculate(amount string, socialImpact bool) (string, error) {
	n, ok := new(big.Int).SetString(amount, 10)
	if !ok || n.Sign() < 0 {
		return "", fmt.Errorf("invalid amount %q", amount)
	}

	reward := new(big.Int).Mul(n, big.NewInt(BaseRateBps))
	reward.Quo(reward, bpsDenominator)
	if socialImpact {
		reward.Mul(reward, big.NewInt(2))
	}
	return reward.String(), nil
}

// MultiplierText describes the reward multiplier for display.
func MultiplierText(socialImpact bool) string {
	if socialImpact {
		return "2x Social Impact Bonus"
	}
	return "Standard Reward"
}
