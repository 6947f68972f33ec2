// Package swapmath implements the constant product market maker pricing used
// by the chain's asset conversion pallet. All on-chain amounts are computed
// with big.Int in raw base units; conversion to human scaled decimals happens
// only at the display boundary.
package swapmath

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FeeScale is the denominator of the liquidity fee: a fee of 30 means 3%.
const FeeScale = 1000

var feeScale = big.NewInt(FeeScale)

// AmountOut returns the output amount of a swap against the given reserves,
// net of the liquidity fee:
//
//	withFee = amountIn * (1000 - feePerMille)
//	out     = withFee * reserveOut / (reserveIn * 1000 + withFee)
//
// A zero or negative input, or a zero reserve on either side, yields zero
// without attempting the division.
func AmountOut(amountIn, reserveIn, reserveOut *big.Int, feePerMille uint64) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return new(big.Int)
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	if feePerMille >= FeeScale {
		return new(big.Int)
	}

	withFee := new(big.Int).Mul(
		amountIn,
		big.NewInt(int64(FeeScale-feePerMille)),
	)
	numerator := new(big.Int).Mul(withFee, reserveOut)
	denominator := new(big.Int).Add(
		new(big.Int).Mul(reserveIn, feeScale),
		withFee,
	)
	return numerator.Div(numerator, denominator)
}

// Quote returns the amount of the first asset matching the given amount of
// the second at the current reserve ratio (used for proportional liquidity
// provisioning, no fee involved).
func Quote(amount2, reserve1, reserve2 *big.Int) *big.Int {
	if amount2 == nil || reserve1 == nil || reserve2 == nil {
		return new(big.Int)
	}
	if reserve2.Sign() <= 0 || amount2.Sign() <= 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount2, reserve1)
	return out.Div(out, reserve2)
}

// PriceImpactBps returns the price impact of a swap in basis points: how far
// the post-trade spot price moves from the pre-trade one.
func PriceImpactBps(amountIn, reserveIn, reserveOut *big.Int) int64 {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return 0
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return 0
	}

	tenThousand := big.NewInt(10000)
	newReserveIn := new(big.Int).Add(reserveIn, amountIn)

	// Raw constant product output, fee excluded: the impact measures the
	// curve movement, not the fee.
	out := new(big.Int).Mul(amountIn, reserveOut)
	out.Div(out, newReserveIn)

	priceBefore := new(big.Int).Mul(reserveOut, tenThousand)
	priceBefore.Div(priceBefore, reserveIn)
	if priceBefore.Sign() == 0 {
		return 0
	}

	priceAfter := new(big.Int).Mul(new(big.Int).Sub(reserveOut, out), tenThousand)
	priceAfter.Div(priceAfter, newReserveIn)

	impact := new(big.Int).Sub(priceBefore, priceAfter)
	impact.Abs(impact)
	impact.Mul(impact, tenThousand)
	impact.Div(impact, priceBefore)
	return impact.Int64()
}

// MinimumReceived applies a slippage tolerance, expressed in basis points,
// to an expected output amount.
func MinimumReceived(amountOut *big.Int, slippageBps uint64) *big.Int {
	if amountOut == nil || amountOut.Sign() <= 0 || slippageBps >= 10000 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amountOut, big.NewInt(int64(10000-slippageBps)))
	return out.Div(out, big.NewInt(10000))
}

// ToDisplay converts a raw base unit amount to a human scaled decimal using
// the asset's configured decimals.
func ToDisplay(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}

// FromDisplay converts a human scaled decimal to raw base units, truncating
// any precision beyond the asset's decimals.
func FromDisplay(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}
