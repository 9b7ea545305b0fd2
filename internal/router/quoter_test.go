package router

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftgate/bridge-router/internal/domain"
)

func newTestSettings() Settings {
	return NewSettingsStore(testRouterConfig()).Snapshot()
}

func TestBestPoolPicksHighestVariant(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	// CL pool pays ~2x, CP pool pays ~1x. The quoter must pick the CL pool.
	cl := b.addCLPool(tokenTKA, tokenPRI, 100, sqrtPriceTwo(), big.NewInt(1_000_000))
	b.addCPPool(tokenTKA, tokenPRI, false, big.NewInt(1_000_000), big.NewInt(1_000_000))

	quoter := NewHybridQuoter(b, NewLocator(b))
	quote := quoter.BestPool(context.Background(), &s, tokenTKA, tokenPRI, big.NewInt(1_000))

	require.NotNil(t, quote)
	require.Equal(t, cl.addr, quote.Pool.Address)
	require.Equal(t, domain.FamilyConcentrated, quote.Pool.Family)
	require.True(t, quote.AmountOut.Cmp(big.NewInt(1_900)) > 0)
}

func TestBestPoolSkipsLockedPool(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	cl := b.addCLPool(tokenTKA, tokenPRI, 100, sqrtPriceTwo(), big.NewInt(1_000_000))
	cl.unlocked = false
	cp := b.addCPPool(tokenTKA, tokenPRI, false, big.NewInt(1_000_000), big.NewInt(1_000_000))

	quoter := NewHybridQuoter(b, NewLocator(b))
	quote := quoter.BestPool(context.Background(), &s, tokenTKA, tokenPRI, big.NewInt(1_000))

	// The locked pool pays better but must not contribute.
	require.NotNil(t, quote)
	require.Equal(t, cp.addr, quote.Pool.Address)
}

func TestBestPoolIgnoresZeroLiquidity(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	b.addCLPool(tokenTKA, tokenPRI, 100, sqrtPriceTwo(), new(big.Int))

	quoter := NewHybridQuoter(b, NewLocator(b))
	quote := quoter.BestPool(context.Background(), &s, tokenTKA, tokenPRI, big.NewInt(1_000))
	require.Nil(t, quote)
}

func TestBestPoolNoPools(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	quoter := NewHybridQuoter(b, NewLocator(b))
	require.Nil(t, quoter.BestPool(context.Background(), &s, tokenTKA, tokenPRI, big.NewInt(1_000)))
	require.Nil(t, quoter.BestPool(context.Background(), &s, tokenTKA, tokenTKA, big.NewInt(1_000)))
	require.Nil(t, quoter.BestPool(context.Background(), &s, tokenTKA, tokenPRI, new(big.Int)))
}

func TestBestPoolStableBeatsVolatile(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	b.addCPPool(tokenTKA, tokenPRI, false, big.NewInt(2_000_000), big.NewInt(1_000_000))
	stable := b.addCPPool(tokenTKA, tokenPRI, true, big.NewInt(1_000_000), big.NewInt(1_000_000))

	quoter := NewHybridQuoter(b, NewLocator(b))
	quote := quoter.BestPool(context.Background(), &s, tokenTKA, tokenPRI, big.NewInt(1_000))

	require.NotNil(t, quote)
	require.Equal(t, stable.addr, quote.Pool.Address)
	require.Equal(t, domain.FamilyStable, quote.Pool.Family)
}
