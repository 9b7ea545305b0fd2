package router

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/driftgate/bridge-router/internal/chain"
	"github.com/driftgate/bridge-router/internal/domain"
)

// Locator resolves the pool backing a (pair, family, discriminator) triple.
// Absence is an expected outcome during search, so the locator never fails a
// lookup: read errors and empty pools all collapse to nil.
type Locator struct {
	backend chain.Backend
}

func NewLocator(backend chain.Backend) *Locator {
	return &Locator{backend: backend}
}

// FindCL resolves a concentrated-liquidity pool for the pair at one tick
// spacing, probing every configured factory deployment. Pools with zero
// liquidity count as absent.
func (l *Locator) FindCL(ctx context.Context, s *Settings, tokenIn, tokenOut common.Address, tickSpacing int32) *domain.PoolDescriptor {
	for _, factory := range s.CLFactories {
		pool, err := l.backend.CLFactory(factory).PoolFor(ctx, tokenIn, tokenOut, tickSpacing)
		if err != nil {
			log.Debug().Err(err).Str("factory", factory.Hex()).Msg("[locator] cl factory lookup failed")
			continue
		}
		if pool == nil || pool.Address() == (common.Address{}) {
			continue
		}
		liquidity, err := pool.Liquidity(ctx)
		if err != nil || liquidity == nil || liquidity.Sign() == 0 {
			continue
		}
		return &domain.PoolDescriptor{
			Address:     pool.Address(),
			Family:      domain.FamilyConcentrated,
			TokenIn:     tokenIn,
			TokenOut:    tokenOut,
			TickSpacing: tickSpacing,
			Factory:     factory,
		}
	}
	return nil
}

// FindCP resolves the constant-product pair for the given stability flag.
// Pairs with a dry reserve on either side count as absent.
func (l *Locator) FindCP(ctx context.Context, s *Settings, tokenIn, tokenOut common.Address, stable bool) *domain.PoolDescriptor {
	pool, err := l.backend.CPFactory(s.CPFactory).PairFor(ctx, tokenIn, tokenOut, stable)
	if err != nil {
		log.Debug().Err(err).Bool("stable", stable).Msg("[locator] cp factory lookup failed")
		return nil
	}
	if pool == nil || pool.Address() == (common.Address{}) {
		return nil
	}
	reserve0, reserve1, err := pool.Reserves(ctx)
	if err != nil || reserve0 == nil || reserve1 == nil || reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return nil
	}
	family := domain.FamilyVolatile
	if stable {
		family = domain.FamilyStable
	}
	return &domain.PoolDescriptor{
		Address:  pool.Address(),
		Family:   family,
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Stable:   stable,
		Factory:  s.CPFactory,
	}
}

// Resolve re-checks one caller-supplied hop against the relevant factory and
// returns its descriptor, or nil if the hop's pool does not exist.
func (l *Locator) Resolve(ctx context.Context, s *Settings, hop domain.PathHop) *domain.PoolDescriptor {
	if hop.Family == domain.FamilyConcentrated {
		return l.FindCL(ctx, s, hop.TokenIn, hop.TokenOut, hop.TickSpacing)
	}
	return l.FindCP(ctx, s, hop.TokenIn, hop.TokenOut, hop.Stable)
}
