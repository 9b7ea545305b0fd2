package router

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/driftgate/bridge-router/internal/chain"
	commonerr "github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/domain"
	"github.com/driftgate/bridge-router/internal/metrics"
)

// CallbackAuthorization is the single-slot guard around concentrated-pool
// settlement. The slot holds exactly the pool whose swap is in flight; any
// callback from another identity, or arriving while the slot is clear, is
// rejected. Cleared as soon as settlement has paid the pool.
type CallbackAuthorization struct {
	mu       sync.Mutex
	expected common.Address
	armed    bool
}

func (a *CallbackAuthorization) arm(pool common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expected = pool
	a.armed = true
}

func (a *CallbackAuthorization) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expected = common.Address{}
	a.armed = false
}

func (a *CallbackAuthorization) verify(caller common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.armed || caller != a.expected {
		metrics.CallbackRejections.Inc()
		return fmt.Errorf("%w: callback from %s", commonerr.ErrUnauthorizedCallback, caller.Hex())
	}
	return nil
}

// SwapExecutor runs a resolved route hop by hop, holding every intermediate
// balance on the router's own account.
type SwapExecutor struct {
	backend chain.Backend
	auth    CallbackAuthorization
}

func NewSwapExecutor(backend chain.Backend) *SwapExecutor {
	return &SwapExecutor{backend: backend}
}

// ExecutePath swaps amountIn of route.Path[0] through every pool in order and
// returns the terminal output amount.
func (e *SwapExecutor) ExecutePath(ctx context.Context, s *Settings, route *domain.RouteCandidate, amountIn *big.Int) (*big.Int, error) {
	if !route.Viable() {
		return nil, commonerr.ErrInvalidPath
	}
	amount := amountIn
	for i, pool := range route.Pools {
		out, err := e.executeHop(ctx, s, pool, route.Path[i], route.Path[i+1], amount)
		if err != nil {
			return nil, fmt.Errorf("hop %d via %s: %w", i, pool.Address.Hex(), err)
		}
		amount = out
	}
	return amount, nil
}

func (e *SwapExecutor) executeHop(ctx context.Context, s *Settings, pool domain.PoolDescriptor, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, commonerr.ErrZeroAmount
	}
	if pool.Family == domain.FamilyConcentrated {
		return e.executeCL(ctx, pool, tokenIn, amountIn)
	}
	return e.executeCP(ctx, s, pool, tokenIn, tokenOut, amountIn)
}

// executeCL runs one concentrated-liquidity swap. The input is paid inside
// the settlement callback, which only the pool armed in the authorization
// slot may deliver. The price limit is pinned one step inside the usable
// range so the pool itself re-prices the trade.
func (e *SwapExecutor) executeCL(ctx context.Context, pool domain.PoolDescriptor, tokenIn common.Address, amountIn *big.Int) (*big.Int, error) {
	handle := e.backend.CLPool(pool.Address)
	token0, _, err := handle.Tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pool tokens: %w", err)
	}
	zeroForOne := tokenIn == token0

	limit := new(big.Int)
	if zeroForOne {
		limit.Add(MinSqrtRatio, big.NewInt(1))
	} else {
		limit.Sub(MaxSqrtRatio, big.NewInt(1))
	}

	settle := func(caller common.Address, amount0Delta, amount1Delta *big.Int) error {
		if err := e.auth.verify(caller); err != nil {
			return err
		}
		owed := amount0Delta
		if !zeroForOne {
			owed = amount1Delta
		}
		if owed == nil || owed.Sign() <= 0 {
			return fmt.Errorf("%w: settlement demands nothing", commonerr.ErrUnauthorizedCallback)
		}
		if err := e.backend.Token(tokenIn).Transfer(ctx, pool.Address, owed); err != nil {
			return fmt.Errorf("pay pool: %w", err)
		}
		e.auth.clear()
		return nil
	}

	e.auth.arm(pool.Address)
	defer e.auth.clear()

	amount0, amount1, err := handle.Swap(ctx, e.backend.Self(), zeroForOne, amountIn, limit, settle)
	if err != nil {
		return nil, err
	}

	out := amount1
	if !zeroForOne {
		out = amount0
	}
	// Output deltas are negative from the pool's perspective.
	return new(big.Int).Neg(out), nil
}

// executeCP delegates to the constant-product periphery router. Per-hop
// minimum output is zero; slippage is enforced once against the terminal
// amount.
func (e *SwapExecutor) executeCP(ctx context.Context, s *Settings, pool domain.PoolDescriptor, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	if err := e.backend.Token(tokenIn).Approve(ctx, s.CPRouter, amountIn); err != nil {
		return nil, fmt.Errorf("approve cp router: %w", err)
	}
	deadline := big.NewInt(time.Now().Unix() + s.DeadlineSeconds)
	out, err := e.backend.CPRouter(s.CPRouter).SwapExactTokensForTokens(
		ctx, amountIn, new(big.Int), tokenIn, tokenOut, pool.Stable, e.backend.Self(), deadline,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
