package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// HopQuote is the quoted outcome of a single pool against a given input.
type HopQuote struct {
	Pool      PoolDescriptor
	AmountIn  *big.Int
	AmountOut *big.Int
}

// BridgeQuote is the fee estimate for one remote transfer. Ephemeral.
type BridgeQuote struct {
	Fee             *big.Int
	RecipientDomain uint32
	Recipient       [32]byte
}

// Permit carries an off-chain signature-based allowance grant.
type Permit struct {
	Value    *big.Int
	Deadline *big.Int
	V        uint8
	R        [32]byte
	S        [32]byte
}

// SwapResult is what a completed swap-and-bridge operation reports back.
type SwapResult struct {
	Payer      common.Address
	TokenIn    common.Address
	AmountIn   *big.Int
	AmountOut  *big.Int
	Hops       int
	Recipient  [32]byte
	Domain     uint32
	FeePaid    *big.Int
	Refunded   *big.Int
	TransferID [32]byte
}
