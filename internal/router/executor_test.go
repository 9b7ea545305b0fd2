package router

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	commonerr "github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/domain"
)

func clRoute(pool *fakeCLPool, tokenIn, tokenOut common.Address) *domain.RouteCandidate {
	return &domain.RouteCandidate{
		Pools: []domain.PoolDescriptor{{
			Address:     pool.addr,
			Family:      domain.FamilyConcentrated,
			TokenIn:     tokenIn,
			TokenOut:    tokenOut,
			TickSpacing: 100,
			Factory:     clFactoryA,
		}},
		Path:      []common.Address{tokenIn, tokenOut},
		AmountOut: big.NewInt(1),
	}
}

func TestExecutePathSettlementPaysPool(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	pool := b.addCLPool(tokenTKA, tokenPRI, 100, sqrtPriceTwo(), big.NewInt(1_000_000))
	b.mint(tokenTKA, selfAddr, 100)
	b.mint(tokenPRI, pool.addr, 1_000)

	exec := NewSwapExecutor(b)
	out, err := exec.ExecutePath(context.Background(), &s, clRoute(pool, tokenTKA, tokenPRI), big.NewInt(100))

	require.NoError(t, err)
	require.True(t, out.Cmp(big.NewInt(190)) > 0)
	// The settlement callback paid the pool the full input.
	require.Equal(t, 0, b.balance(tokenTKA, pool.addr).Cmp(big.NewInt(100)))
	require.Equal(t, 0, b.balance(tokenTKA, selfAddr).Sign())
	require.Equal(t, 0, b.balance(tokenPRI, selfAddr).Cmp(out))
}

func TestExecutePathRejectsForeignCallback(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	pool := b.addCLPool(tokenTKA, tokenPRI, 100, sqrtPriceTwo(), big.NewInt(1_000_000))
	pool.settleCallerOverride = common.HexToAddress("0x00000000000000000000000000000000000000EE")
	b.mint(tokenTKA, selfAddr, 100)
	b.mint(tokenPRI, pool.addr, 1_000)

	exec := NewSwapExecutor(b)
	_, err := exec.ExecutePath(context.Background(), &s, clRoute(pool, tokenTKA, tokenPRI), big.NewInt(100))

	require.ErrorIs(t, err, commonerr.ErrUnauthorizedCallback)
	// No funds moved.
	require.Equal(t, 0, b.balance(tokenTKA, selfAddr).Cmp(big.NewInt(100)))
	require.Equal(t, 0, b.balance(tokenTKA, pool.addr).Sign())
}

func TestExecutePathRejectsReplayedCallback(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	pool := b.addCLPool(tokenTKA, tokenPRI, 100, sqrtPriceTwo(), big.NewInt(1_000_000))
	b.mint(tokenTKA, selfAddr, 200)
	b.mint(tokenPRI, pool.addr, 1_000)

	exec := NewSwapExecutor(b)
	_, err := exec.ExecutePath(context.Background(), &s, clRoute(pool, tokenTKA, tokenPRI), big.NewInt(100))
	require.NoError(t, err)

	// The slot is cleared; replaying the captured callback must fail even
	// from the pool that was authorized a moment ago.
	err = pool.lastSettle(pool.addr, big.NewInt(50), big.NewInt(-50))
	require.ErrorIs(t, err, commonerr.ErrUnauthorizedCallback)
	// The replay moved nothing.
	require.Equal(t, 0, b.balance(tokenTKA, selfAddr).Cmp(big.NewInt(100)))
}

func TestExecutePathConstantProductHop(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()

	pool := b.addCPPool(tokenTKA, tokenPRI, false, big.NewInt(1_000_000), big.NewInt(1_000_000))
	b.mint(tokenTKA, selfAddr, 1_000)
	b.mint(tokenPRI, pool.addr, 1_000_000)

	route := &domain.RouteCandidate{
		Pools: []domain.PoolDescriptor{{
			Address:  pool.addr,
			Family:   domain.FamilyVolatile,
			TokenIn:  tokenTKA,
			TokenOut: tokenPRI,
			Factory:  cpFactoryA,
		}},
		Path:      []common.Address{tokenTKA, tokenPRI},
		AmountOut: big.NewInt(1),
	}

	exec := NewSwapExecutor(b)
	out, err := exec.ExecutePath(context.Background(), &s, route, big.NewInt(1_000))

	require.NoError(t, err)
	require.True(t, out.Cmp(big.NewInt(990)) > 0)
	require.Equal(t, 0, b.balance(tokenPRI, selfAddr).Cmp(out))
	// The periphery router was granted the allowance it pulled against.
	require.Contains(t, b.token(tokenTKA).approveCalls, cpRouterA)
}

func TestExecutePathRejectsBrokenRoute(t *testing.T) {
	b := newFakeBackend()
	s := newTestSettings()
	exec := NewSwapExecutor(b)

	_, err := exec.ExecutePath(context.Background(), &s, &domain.RouteCandidate{}, big.NewInt(1))
	require.ErrorIs(t, err, commonerr.ErrInvalidPath)
}
