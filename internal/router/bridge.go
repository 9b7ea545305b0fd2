package router

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/driftgate/bridge-router/internal/chain"
	commonerr "github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/domain"
)

// BridgeCoordinator hands swap proceeds to the bridge hub and settles the
// native-currency fee, refunding whatever the hub did not consume.
type BridgeCoordinator struct {
	backend chain.Backend
}

func NewBridgeCoordinator(backend chain.Backend) *BridgeCoordinator {
	return &BridgeCoordinator{backend: backend}
}

// QuoteFee asks the hub what the delivery to the recipient domain costs in
// native currency.
func (b *BridgeCoordinator) QuoteFee(ctx context.Context, s *Settings) (*big.Int, error) {
	fee, err := b.backend.BridgeHub(s.BridgeHub).QuoteGasPayment(ctx, s.RecipientDomain, s.BridgeGasLimit)
	if err != nil {
		return nil, fmt.Errorf("quote gas payment: %w", err)
	}
	return fee, nil
}

// BridgeOutcome records what one completed bridge leg cost and returned.
type BridgeOutcome struct {
	TransferID [32]byte
	FeePaid    *big.Int
	Refunded   *big.Int
	Quote      domain.BridgeQuote
}

// BridgeOut ships amount of the target asset to recipient on the configured
// domain. The fee check runs before any value moves; leftover native funds go
// back to payer afterwards.
func (b *BridgeCoordinator) BridgeOut(ctx context.Context, s *Settings, amount *big.Int, recipient [32]byte, availableValue *big.Int, payer common.Address) (*BridgeOutcome, error) {
	fee, err := b.QuoteFee(ctx, s)
	if err != nil {
		return nil, err
	}
	if availableValue == nil || availableValue.Cmp(fee) < 0 {
		return nil, fmt.Errorf("%w: need %s", commonerr.ErrInsufficientFee, fee)
	}

	if err := b.backend.Token(s.TargetAsset).Approve(ctx, s.BridgeHub, amount); err != nil {
		return nil, fmt.Errorf("approve bridge hub: %w", err)
	}

	transferID, err := b.backend.BridgeHub(s.BridgeHub).TransferRemote(
		ctx, s.RecipientDomain, recipient, amount, fee, s.BridgeGasLimit, s.Finality,
	)
	if err != nil {
		return nil, fmt.Errorf("transfer remote: %w", err)
	}

	refunded := new(big.Int).Sub(availableValue, fee)
	if refunded.Sign() > 0 {
		if err := b.backend.SendNative(ctx, payer, refunded); err != nil {
			// The transfer already left; a failed refund must not unwind it.
			log.Error().Err(err).Str("payer", payer.Hex()).Str("amount", refunded.String()).
				Msg("[bridge] native refund failed")
			refunded = new(big.Int)
		}
	} else {
		refunded = new(big.Int)
	}

	return &BridgeOutcome{
		TransferID: transferID,
		FeePaid:    fee,
		Refunded:   refunded,
		Quote: domain.BridgeQuote{
			Fee:             fee,
			RecipientDomain: s.RecipientDomain,
			Recipient:       recipient,
		},
	}, nil
}
