package router

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/driftgate/bridge-router/internal/chain"
	"github.com/driftgate/bridge-router/internal/domain"
)

// HybridQuoter prices one hop across every pool variant of the pair and keeps
// the strict maximum. Individual pool failures are tolerated: a variant that
// cannot be priced simply contributes nothing, and only the total absence of
// usable liquidity surfaces as a nil quote.
type HybridQuoter struct {
	backend chain.Backend
	locator *Locator
}

func NewHybridQuoter(backend chain.Backend, locator *Locator) *HybridQuoter {
	return &HybridQuoter{backend: backend, locator: locator}
}

// BestPool returns the variant with the highest expected output for the pair,
// or nil when no variant holds usable liquidity. The returned quote is a
// marginal-price estimate for concentrated pools and the pool's own quote for
// constant-product pools.
func (q *HybridQuoter) BestPool(ctx context.Context, s *Settings, tokenIn, tokenOut common.Address, amountIn *big.Int) *domain.HopQuote {
	if amountIn == nil || amountIn.Sign() <= 0 || tokenIn == tokenOut {
		return nil
	}

	var best *domain.HopQuote
	consider := func(desc *domain.PoolDescriptor, out *big.Int) {
		if desc == nil || out == nil || out.Sign() <= 0 {
			return
		}
		if best == nil || out.Cmp(best.AmountOut) > 0 {
			best = &domain.HopQuote{
				Pool:      *desc,
				AmountIn:  new(big.Int).Set(amountIn),
				AmountOut: out,
			}
		}
	}

	for _, spacing := range s.TickSpacings {
		desc := q.locator.FindCL(ctx, s, tokenIn, tokenOut, spacing)
		if desc == nil {
			continue
		}
		consider(desc, q.quoteCL(ctx, desc, tokenIn, amountIn))
	}
	for _, stable := range []bool{true, false} {
		desc := q.locator.FindCP(ctx, s, tokenIn, tokenOut, stable)
		if desc == nil {
			continue
		}
		consider(desc, q.quoteCP(ctx, desc, tokenIn, amountIn))
	}
	return best
}

// QuotePool prices one already-resolved pool. Used when the caller pinned the
// path and no variant search is wanted.
func (q *HybridQuoter) QuotePool(ctx context.Context, desc *domain.PoolDescriptor, tokenIn common.Address, amountIn *big.Int) *big.Int {
	if desc == nil || amountIn == nil || amountIn.Sign() <= 0 {
		return nil
	}
	if desc.Family == domain.FamilyConcentrated {
		return q.quoteCL(ctx, desc, tokenIn, amountIn)
	}
	return q.quoteCP(ctx, desc, tokenIn, amountIn)
}

func (q *HybridQuoter) quoteCL(ctx context.Context, desc *domain.PoolDescriptor, tokenIn common.Address, amountIn *big.Int) *big.Int {
	pool := q.backend.CLPool(desc.Address)
	slot0, err := pool.Slot0(ctx)
	if err != nil {
		log.Debug().Err(err).Str("pool", desc.Address.Hex()).Msg("[quoter] slot0 read failed")
		return nil
	}
	// A locked pool is mid-swap; its price is not trustworthy.
	if !slot0.Unlocked {
		return nil
	}
	token0, _, err := pool.Tokens(ctx)
	if err != nil {
		return nil
	}
	return QuoteFromSqrtPrice(amountIn, slot0.SqrtPriceX96, tokenIn == token0)
}

func (q *HybridQuoter) quoteCP(ctx context.Context, desc *domain.PoolDescriptor, tokenIn common.Address, amountIn *big.Int) *big.Int {
	out, err := q.backend.CPPool(desc.Address).GetAmountOut(ctx, amountIn, tokenIn)
	if err != nil {
		log.Debug().Err(err).Str("pool", desc.Address.Hex()).Msg("[quoter] cp quote failed")
		return nil
	}
	return out
}
