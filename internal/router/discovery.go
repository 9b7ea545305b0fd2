package router

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	commonerr "github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/domain"
)

// RouteDiscovery finds the best conversion path from an arbitrary token to
// the target asset. The search is bounded: direct, through the primary
// intermediate, or through the secondary then the primary intermediate. Each
// leg independently picks its best pool variant, and the candidate with the
// highest terminal output wins.
type RouteDiscovery struct {
	quoter *HybridQuoter
}

func NewRouteDiscovery(quoter *HybridQuoter) *RouteDiscovery {
	return &RouteDiscovery{quoter: quoter}
}

// DiscoverRoute returns the best viable route for amountIn of tokenIn, or
// ErrNoRoute when no candidate path reaches the target asset.
func (d *RouteDiscovery) DiscoverRoute(ctx context.Context, s *Settings, tokenIn common.Address, amountIn *big.Int) (*domain.RouteCandidate, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, commonerr.ErrZeroAmount
	}
	if tokenIn == s.TargetAsset {
		return nil, commonerr.ErrSameToken
	}

	paths := [][]common.Address{
		{tokenIn, s.TargetAsset},
		{tokenIn, s.PrimaryIntermediate, s.TargetAsset},
	}
	if s.SecondaryIntermediate != (common.Address{}) {
		paths = append(paths, []common.Address{tokenIn, s.SecondaryIntermediate, s.PrimaryIntermediate, s.TargetAsset})
	}

	var best *domain.RouteCandidate
	for _, path := range paths {
		candidate := d.evaluate(ctx, s, path, amountIn)
		if candidate == nil {
			continue
		}
		if best == nil || candidate.AmountOut.Cmp(best.AmountOut) > 0 {
			best = candidate
		}
	}
	if best == nil {
		return nil, commonerr.ErrNoRoute
	}
	return best, nil
}

// evaluate quotes the path leg by leg, feeding each leg's output into the
// next. A path revisiting a token, or any leg without liquidity, disqualifies
// the whole candidate.
func (d *RouteDiscovery) evaluate(ctx context.Context, s *Settings, path []common.Address, amountIn *big.Int) *domain.RouteCandidate {
	seen := map[common.Address]bool{}
	for _, token := range path {
		if seen[token] {
			return nil
		}
		seen[token] = true
	}

	candidate := &domain.RouteCandidate{
		Pools: make([]domain.PoolDescriptor, 0, len(path)-1),
		Path:  path,
	}
	amount := amountIn
	for i := 0; i+1 < len(path); i++ {
		hop := d.quoter.BestPool(ctx, s, path[i], path[i+1], amount)
		if hop == nil {
			return nil
		}
		candidate.Pools = append(candidate.Pools, hop.Pool)
		amount = hop.AmountOut
	}
	candidate.AmountOut = amount
	return candidate
}
