package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NativeSentinel is the conventional placeholder address callers use for the
// chain's native currency. Internally it is always swapped for the wrapped
// representation before routing.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

type PoolFamily uint8

const (
	FamilyConcentrated PoolFamily = iota
	FamilyStable
	FamilyVolatile
)

func (f PoolFamily) String() string {
	switch f {
	case FamilyConcentrated:
		return "concentrated"
	case FamilyStable:
		return "stable"
	case FamilyVolatile:
		return "volatile"
	default:
		return "unknown"
	}
}

// IsConstantProduct reports whether the family settles through the
// constant-product periphery router rather than a pool callback.
func (f PoolFamily) IsConstantProduct() bool {
	return f == FamilyStable || f == FamilyVolatile
}

// PoolDescriptor identifies one concrete pool for a token pair. Descriptors
// are recomputed on every quote; pool state moves every block, so a cached
// descriptor is a stale descriptor.
type PoolDescriptor struct {
	Address  common.Address `json:"address"`
	Family   PoolFamily     `json:"family"`
	TokenIn  common.Address `json:"tokenIn"`
	TokenOut common.Address `json:"tokenOut"`

	// TickSpacing discriminates concentrated-liquidity variants.
	TickSpacing int32 `json:"tickSpacing,omitempty"`
	// Stable discriminates the constant-product variants.
	Stable bool `json:"stable,omitempty"`
	// Factory is the deployment that resolved this pool.
	Factory common.Address `json:"factory"`
}

func (d PoolDescriptor) IsZero() bool {
	return d.Address == (common.Address{})
}

// PathHop is one caller-supplied hop of an explicit route. The router
// re-resolves every hop against the relevant factory before executing it.
type PathHop struct {
	TokenIn     common.Address `json:"tokenIn" binding:"required"`
	TokenOut    common.Address `json:"tokenOut" binding:"required"`
	Family      PoolFamily     `json:"family"`
	TickSpacing int32          `json:"tickSpacing,omitempty"`
	Stable      bool           `json:"stable,omitempty"`
}

// RouteCandidate is one fully-quoted route from input to the target asset.
// It lives for the duration of a single call and is never persisted.
//
// Invariant: Path[0] is the input asset, Path[len-1] is the target asset,
// and len(Pools) == len(Path)-1.
type RouteCandidate struct {
	Pools     []PoolDescriptor
	Path      []common.Address
	AmountOut *big.Int
}

func (r *RouteCandidate) Hops() int {
	if r == nil {
		return 0
	}
	return len(r.Pools)
}

// Viable reports whether the candidate is structurally sound and carries a
// strictly positive quote.
func (r *RouteCandidate) Viable() bool {
	if r == nil || r.AmountOut == nil || r.AmountOut.Sign() <= 0 {
		return false
	}
	return len(r.Pools) >= 1 && len(r.Path) == len(r.Pools)+1
}
