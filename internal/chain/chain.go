// Package chain defines the on-chain collaborators the route engine talks
// to: liquidity pools of both families, their factories, the constant-product
// periphery router, fungible tokens, the wrapped-native contract and the
// cross-chain bridge hub. The engine only ever sees these interfaces; the
// production implementation in chain/evm binds them over go-ethereum, tests
// substitute in-memory pools.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Slot0 is a concentrated-liquidity pool's price snapshot.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
	// Unlocked is false while the pool is mid-swap. A locked pool must not
	// contribute quotes.
	Unlocked bool
}

// SettlementFunc receives the settlement callback of a concentrated-liquidity
// swap. caller is the identity the callback arrives from; positive deltas are
// owed to the pool, negative deltas were paid out by it. The callee must
// transfer the owed input to the pool before returning.
type SettlementFunc func(caller common.Address, amount0Delta, amount1Delta *big.Int) error

// ConcentratedPool is one tick-based pool. Implementations that settle
// directly invoke settle synchronously before Swap returns; implementations
// that delegate to an on-chain periphery settle there and never call it.
type ConcentratedPool interface {
	Address() common.Address
	Tokens(ctx context.Context) (token0, token1 common.Address, err error)
	Slot0(ctx context.Context) (Slot0, error)
	Liquidity(ctx context.Context) (*big.Int, error)
	Swap(ctx context.Context, recipient common.Address, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int, settle SettlementFunc) (amount0Delta, amount1Delta *big.Int, err error)
}

// CLFactory resolves concentrated-liquidity pools by pair and tick spacing.
// A nil pool with a nil error means no such pool exists.
type CLFactory interface {
	Address() common.Address
	PoolFor(ctx context.Context, tokenA, tokenB common.Address, tickSpacing int32) (ConcentratedPool, error)
}

// ConstantProductPool is a two-reserve pool, stable or volatile.
type ConstantProductPool interface {
	Address() common.Address
	Tokens(ctx context.Context) (token0, token1 common.Address, err error)
	Reserves(ctx context.Context) (reserve0, reserve1 *big.Int, err error)
	// GetAmountOut is the pool's own quoting entry point.
	GetAmountOut(ctx context.Context, amountIn *big.Int, tokenIn common.Address) (*big.Int, error)
}

// CPFactory resolves constant-product pairs. A nil pool with a nil error
// means no such pair exists.
type CPFactory interface {
	Address() common.Address
	PairFor(ctx context.Context, tokenA, tokenB common.Address, stable bool) (ConstantProductPool, error)
}

// CPRouter is the constant-product periphery's exact-input entry point.
type CPRouter interface {
	Address() common.Address
	SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, tokenIn, tokenOut common.Address, stable bool, recipient common.Address, deadline *big.Int) (*big.Int, error)
}

// Token is a fungible-token contract, optionally supporting the
// signature-based allowance grant.
type Token interface {
	Address() common.Address
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) error
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
	Permit(ctx context.Context, owner, spender common.Address, value, deadline *big.Int, v uint8, r, s [32]byte) error
}

// WrappedNative is the wrapped representation of the native currency.
type WrappedNative interface {
	Token
	Deposit(ctx context.Context, amount *big.Int) error
	Withdraw(ctx context.Context, amount *big.Int) error
}

// BridgeHub accepts a deposit on this chain and triggers delivery on the
// recipient domain.
type BridgeHub interface {
	Address() common.Address
	QuoteGasPayment(ctx context.Context, destinationDomain uint32, gasLimit *big.Int) (*big.Int, error)
	TransferRemote(ctx context.Context, destinationDomain uint32, recipient [32]byte, amount, fee, gasLimit *big.Int, finality uint8) (transferID [32]byte, err error)
}

// Backend hands out collaborator handles and moves the native currency the
// router holds during an operation.
type Backend interface {
	// Self is the router's own account, the recipient of intermediate hops.
	Self() common.Address

	CLFactory(addr common.Address) CLFactory
	CPFactory(addr common.Address) CPFactory
	CPRouter(addr common.Address) CPRouter
	CLPool(addr common.Address) ConcentratedPool
	CPPool(addr common.Address) ConstantProductPool
	Token(addr common.Address) Token
	WrappedNative(addr common.Address) WrappedNative
	BridgeHub(addr common.Address) BridgeHub

	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	SendNative(ctx context.Context, to common.Address, amount *big.Int) error
}
