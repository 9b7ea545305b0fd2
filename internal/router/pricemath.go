package router

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Q96 square-root price bounds of the concentrated-liquidity protocol. A
// price pinned at either bound is degenerate and must not contribute quotes.
var (
	MinSqrtRatio    = big.NewInt(4295128739)
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)
)

const sqrtPriceResolution = 96

// QuoteFromSqrtPrice converts a pool's Q64.96 square-root price into the
// expected output for amountIn at the current marginal price. Tick crossing
// is deliberately ignored: this prices routes for comparison, execution is
// re-priced by the pool itself.
//
//	token0 in:  amountOut = amountIn * sqrtP^2 / 2^192
//	token1 in:  amountOut = amountIn * 2^192 / sqrtP^2
//
// Both are computed as two sequential multiply-then-shift (or shift-then-
// divide) steps so no intermediate needs more than 256 bits in the common
// case. Returns 0 for a nil, non-positive or bound-pinned price.
func QuoteFromSqrtPrice(amountIn, sqrtPriceX96 *big.Int, token0IsInput bool) *big.Int {
	if amountIn == nil || amountIn.Sign() <= 0 || sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return new(big.Int)
	}
	if sqrtPriceX96.Cmp(MinSqrtRatio) <= 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return new(big.Int)
	}

	if out, ok := quoteU256(amountIn, sqrtPriceX96, token0IsInput); ok {
		return out
	}
	return quoteBig(amountIn, sqrtPriceX96, token0IsInput)
}

// quoteU256 is the allocation-light fast path on 256-bit words. It bails out
// (ok=false) whenever an intermediate would overflow, in which case the
// arbitrary-precision path takes over.
func quoteU256(amountIn, sqrtPriceX96 *big.Int, token0IsInput bool) (*big.Int, bool) {
	var amt, sqrt, tmp uint256.Int
	if overflow := amt.SetFromBig(amountIn); overflow {
		return nil, false
	}
	if overflow := sqrt.SetFromBig(sqrtPriceX96); overflow {
		return nil, false
	}

	if token0IsInput {
		if _, overflow := tmp.MulOverflow(&amt, &sqrt); overflow {
			return nil, false
		}
		tmp.Rsh(&tmp, sqrtPriceResolution)
		if _, overflow := tmp.MulOverflow(&tmp, &sqrt); overflow {
			return nil, false
		}
		tmp.Rsh(&tmp, sqrtPriceResolution)
		return tmp.ToBig(), true
	}

	// amountIn << 96 must still fit.
	if amt.BitLen()+sqrtPriceResolution > 256 {
		return nil, false
	}
	tmp.Lsh(&amt, sqrtPriceResolution)
	tmp.Div(&tmp, &sqrt)
	if tmp.BitLen()+sqrtPriceResolution > 256 {
		return nil, false
	}
	tmp.Lsh(&tmp, sqrtPriceResolution)
	tmp.Div(&tmp, &sqrt)
	return tmp.ToBig(), true
}

func quoteBig(amountIn, sqrtPriceX96 *big.Int, token0IsInput bool) *big.Int {
	out := new(big.Int)
	if token0IsInput {
		out.Mul(amountIn, sqrtPriceX96)
		out.Rsh(out, sqrtPriceResolution)
		out.Mul(out, sqrtPriceX96)
		out.Rsh(out, sqrtPriceResolution)
		return out
	}
	out.Lsh(amountIn, sqrtPriceResolution)
	out.Div(out, sqrtPriceX96)
	out.Lsh(out, sqrtPriceResolution)
	out.Div(out, sqrtPriceX96)
	return out
}
