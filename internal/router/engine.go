package router

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/driftgate/bridge-router/internal/chain"
	commonerr "github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/domain"
	"github.com/driftgate/bridge-router/internal/metrics"
)

const slippageDenominator = 10_000

// Engine is the swap-and-bridge orchestrator. One operation runs at a time:
// the engine holds custody of intermediate balances, so overlapping
// operations could observe each other's funds.
type Engine struct {
	backend   chain.Backend
	settings  *SettingsStore
	locator   *Locator
	quoter    *HybridQuoter
	discovery *RouteDiscovery
	executor  *SwapExecutor
	bridge    *BridgeCoordinator

	busy atomic.Bool
}

func NewEngine(backend chain.Backend, settings *SettingsStore) *Engine {
	locator := NewLocator(backend)
	quoter := NewHybridQuoter(backend, locator)
	return &Engine{
		backend:   backend,
		settings:  settings,
		locator:   locator,
		quoter:    quoter,
		discovery: NewRouteDiscovery(quoter),
		executor:  NewSwapExecutor(backend),
		bridge:    NewBridgeCoordinator(backend),
	}
}

func (e *Engine) Settings() *SettingsStore {
	return e.settings
}

func (e *Engine) enter() error {
	if !e.busy.CompareAndSwap(false, true) {
		metrics.ReentrancyRejections.Inc()
		return commonerr.ErrReentrancy
	}
	return nil
}

func (e *Engine) exit() {
	e.busy.Store(false)
}

// QuoteSwap prices the best route from tokenIn to the target asset without
// touching any funds.
func (e *Engine) QuoteSwap(ctx context.Context, tokenIn common.Address, amountIn *big.Int) (*domain.RouteCandidate, error) {
	started := time.Now()
	s := e.settings.Snapshot()

	// The native sentinel quotes as its wrapped representation.
	if tokenIn == domain.NativeSentinel {
		tokenIn = s.WrappedNative
	}

	route, err := e.discovery.DiscoverRoute(ctx, &s, tokenIn, amountIn)
	metrics.QuoteDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("swap", "error").Inc()
		return nil, err
	}
	metrics.QuoteRequests.WithLabelValues("swap", "ok").Inc()
	return route, nil
}

// QuoteBridgeFee reports the current native fee for delivery to the
// configured recipient domain.
func (e *Engine) QuoteBridgeFee(ctx context.Context) (*domain.BridgeQuote, error) {
	s := e.settings.Snapshot()
	fee, err := e.bridge.QuoteFee(ctx, &s)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("bridge_fee", "error").Inc()
		return nil, err
	}
	metrics.QuoteRequests.WithLabelValues("bridge_fee", "ok").Inc()
	return &domain.BridgeQuote{Fee: fee, RecipientDomain: s.RecipientDomain}, nil
}

// SwapAndBridgeToken pulls amountIn of tokenIn from payer, converts it to the
// target asset along path (or the best discovered route when path is empty)
// and bridges the proceeds. value is the native currency supplied for the
// bridge fee.
func (e *Engine) SwapAndBridgeToken(ctx context.Context, payer common.Address, tokenIn common.Address, amountIn *big.Int, path []domain.PathHop, minOut *big.Int, recipient [32]byte, value *big.Int) (*domain.SwapResult, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()
	return e.swapAndBridge(ctx, "token", payer, tokenIn, amountIn, path, minOut, recipient, value, true)
}

// SwapAndBridgeWithPermit is SwapAndBridgeToken with the allowance granted in
// the same operation via an off-chain signature. A rejected permit is
// tolerated when the existing allowance already covers amountIn, so a
// front-run permit cannot block the swap.
func (e *Engine) SwapAndBridgeWithPermit(ctx context.Context, payer common.Address, tokenIn common.Address, amountIn *big.Int, permit domain.Permit, path []domain.PathHop, minOut *big.Int, recipient [32]byte, value *big.Int) (*domain.SwapResult, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if err := e.applyPermit(ctx, payer, tokenIn, amountIn, permit); err != nil {
		return nil, err
	}
	return e.swapAndBridge(ctx, "permit", payer, tokenIn, amountIn, path, minOut, recipient, value, true)
}

// SwapAndBridgeNative wraps the supplied native value (minus the bridge fee),
// converts it and bridges the proceeds. value must exceed the quoted fee.
func (e *Engine) SwapAndBridgeNative(ctx context.Context, payer common.Address, value *big.Int, path []domain.PathHop, minOut *big.Int, recipient [32]byte) (*domain.SwapResult, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if value == nil || value.Sign() <= 0 {
		return nil, commonerr.ErrZeroAmount
	}
	s := e.settings.Snapshot()

	fee, err := e.bridge.QuoteFee(ctx, &s)
	if err != nil {
		return nil, err
	}
	if value.Cmp(fee) <= 0 {
		return nil, fmt.Errorf("%w: value %s covers no principal beyond fee %s", commonerr.ErrInsufficientFee, value, fee)
	}
	wrapAmount := new(big.Int).Sub(value, fee)
	if err := e.backend.WrappedNative(s.WrappedNative).Deposit(ctx, wrapAmount); err != nil {
		return nil, fmt.Errorf("wrap native: %w", err)
	}

	// The wrapped principal is already in custody; only the fee portion of
	// value remains native.
	return e.swapAndBridge(ctx, "native", payer, s.WrappedNative, wrapAmount, path, minOut, recipient, fee, false)
}

func (e *Engine) applyPermit(ctx context.Context, payer, tokenIn common.Address, amountIn *big.Int, permit domain.Permit) error {
	token := e.backend.Token(tokenIn)
	permitErr := token.Permit(ctx, payer, e.backend.Self(), permit.Value, permit.Deadline, permit.V, permit.R, permit.S)
	if permitErr == nil {
		return nil
	}
	allowance, err := token.Allowance(ctx, payer, e.backend.Self())
	if err != nil || allowance == nil || allowance.Cmp(amountIn) < 0 {
		return fmt.Errorf("%w: %v", commonerr.ErrPermitInvalid, permitErr)
	}
	log.Warn().Err(permitErr).Str("token", tokenIn.Hex()).
		Msg("[engine] permit rejected but allowance suffices, continuing")
	return nil
}

// swapAndBridge is the shared core. All validation and pricing runs before
// the first state-changing call; pullFunds is false when the principal is
// already in custody.
func (e *Engine) swapAndBridge(ctx context.Context, entry string, payer, tokenIn common.Address, amountIn *big.Int, path []domain.PathHop, minOut *big.Int, recipient [32]byte, value *big.Int, pullFunds bool) (*domain.SwapResult, error) {
	started := time.Now()
	result, err := e.run(ctx, payer, tokenIn, amountIn, path, minOut, recipient, value, pullFunds)
	metrics.SwapDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SwapRequests.WithLabelValues(entry, "error").Inc()
		return nil, err
	}
	metrics.SwapRequests.WithLabelValues(entry, "ok").Inc()
	metrics.BridgeTransfers.Inc()
	if result.Refunded.Sign() > 0 {
		metrics.BridgeRefunds.Inc()
	}
	metrics.SwapHops.Observe(float64(result.Hops))

	log.Info().
		Str("entry", entry).
		Str("payer", payer.Hex()).
		Str("token_in", tokenIn.Hex()).
		Str("amount_in", amountIn.String()).
		Str("amount_out", result.AmountOut.String()).
		Int("hops", result.Hops).
		Uint32("domain", result.Domain).
		Str("fee_paid", result.FeePaid.String()).
		Str("transfer_id", fmt.Sprintf("%#x", result.TransferID)).
		Msg("[engine] swap bridged")
	return result, nil
}

func (e *Engine) run(ctx context.Context, payer, tokenIn common.Address, amountIn *big.Int, path []domain.PathHop, minOut *big.Int, recipient [32]byte, value *big.Int, pullFunds bool) (*domain.SwapResult, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, commonerr.ErrZeroAmount
	}
	s := e.settings.Snapshot()

	var route *domain.RouteCandidate
	switch {
	case tokenIn == s.TargetAsset:
		if pullFunds {
			// Direct token entry with the target asset has nothing to swap.
			return nil, commonerr.ErrSameToken
		}
		// Wrapped native already is the target asset; bridge as-is.
	case len(path) > 0:
		resolved, err := e.resolvePath(ctx, &s, tokenIn, path, amountIn)
		if err != nil {
			return nil, err
		}
		route = resolved
	default:
		discovered, err := e.discovery.DiscoverRoute(ctx, &s, tokenIn, amountIn)
		if err != nil {
			return nil, err
		}
		route = discovered
	}

	// The fee must be checked before any funds move.
	fee, err := e.bridge.QuoteFee(ctx, &s)
	if err != nil {
		return nil, err
	}
	if value == nil || value.Cmp(fee) < 0 {
		return nil, fmt.Errorf("%w: need %s, have %s", commonerr.ErrInsufficientFee, fee, value)
	}

	floor := effectiveMinimum(minOut, route, s.MaxSlippageBps)

	if pullFunds {
		if err := e.backend.Token(tokenIn).TransferFrom(ctx, payer, e.backend.Self(), amountIn); err != nil {
			return nil, fmt.Errorf("pull funds: %w", err)
		}
	}

	amountOut := amountIn
	hops := 0
	if route != nil {
		out, err := e.executor.ExecutePath(ctx, &s, route, amountIn)
		if err != nil {
			return nil, err
		}
		amountOut = out
		hops = route.Hops()
	}
	if floor != nil && amountOut.Cmp(floor) < 0 {
		return nil, fmt.Errorf("%w: got %s, floor %s", commonerr.ErrOutputBelowMinimum, amountOut, floor)
	}

	outcome, err := e.bridge.BridgeOut(ctx, &s, amountOut, recipient, value, payer)
	if err != nil {
		return nil, err
	}

	return &domain.SwapResult{
		Payer:      payer,
		TokenIn:    tokenIn,
		AmountIn:   amountIn,
		AmountOut:  amountOut,
		Hops:       hops,
		Recipient:  recipient,
		Domain:     s.RecipientDomain,
		FeePaid:    outcome.FeePaid,
		Refunded:   outcome.Refunded,
		TransferID: outcome.TransferID,
	}, nil
}

// resolvePath validates a caller-pinned path: contiguous hops from tokenIn to
// the target asset, every hop backed by an existing pool. The expected output
// is quoted along the way for the slippage floor.
func (e *Engine) resolvePath(ctx context.Context, s *Settings, tokenIn common.Address, path []domain.PathHop, amountIn *big.Int) (*domain.RouteCandidate, error) {
	if len(path) == 0 {
		return nil, commonerr.ErrPathTooShort
	}
	if path[0].TokenIn != tokenIn || path[len(path)-1].TokenOut != s.TargetAsset {
		return nil, fmt.Errorf("%w: path endpoints do not match", commonerr.ErrInvalidPath)
	}

	route := &domain.RouteCandidate{
		Pools: make([]domain.PoolDescriptor, 0, len(path)),
		Path:  make([]common.Address, 0, len(path)+1),
	}
	route.Path = append(route.Path, tokenIn)
	amount := amountIn
	for i, hop := range path {
		if hop.TokenIn != route.Path[len(route.Path)-1] {
			return nil, fmt.Errorf("%w: hop %d is not contiguous", commonerr.ErrInvalidPath, i)
		}
		desc := e.locator.Resolve(ctx, s, hop)
		if desc == nil {
			return nil, fmt.Errorf("%w: hop %d (%s -> %s)", commonerr.ErrNoPoolFound, i, hop.TokenIn.Hex(), hop.TokenOut.Hex())
		}
		route.Pools = append(route.Pools, *desc)
		route.Path = append(route.Path, hop.TokenOut)
		if out := e.quoter.QuotePool(ctx, desc, hop.TokenIn, amount); out != nil {
			amount = out
		}
	}
	route.AmountOut = amount
	return route, nil
}

// effectiveMinimum combines the caller's floor with the configured slippage
// ceiling against the quoted output. The stricter of the two wins.
func effectiveMinimum(minOut *big.Int, route *domain.RouteCandidate, maxSlippageBps uint16) *big.Int {
	var quoted *big.Int
	if route != nil && route.AmountOut != nil {
		quoted = new(big.Int).Mul(route.AmountOut, big.NewInt(int64(slippageDenominator-int(maxSlippageBps))))
		quoted.Div(quoted, big.NewInt(slippageDenominator))
	}
	switch {
	case minOut == nil || minOut.Sign() <= 0:
		return quoted
	case quoted == nil || minOut.Cmp(quoted) > 0:
		return minOut
	default:
		return quoted
	}
}
