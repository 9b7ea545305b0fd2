package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/driftgate/bridge-router/internal/chain"
)

// Deadline pad for periphery swaps issued by the transport itself.
const peripheryDeadlinePad = 10 * time.Minute

type clFactory struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (f *clFactory) Address() common.Address { return f.addr }

func (f *clFactory) PoolFor(ctx context.Context, tokenA, tokenB common.Address, tickSpacing int32) (chain.ConcentratedPool, error) {
	out, err := f.backend.call(ctx, f.contract, "getPool", tokenA, tokenB, big.NewInt(int64(tickSpacing)))
	if err != nil {
		return nil, err
	}
	addr := out[0].(common.Address)
	if addr == (common.Address{}) {
		return nil, nil
	}
	return f.backend.CLPool(addr), nil
}

type clPool struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (p *clPool) Address() common.Address { return p.addr }

func (p *clPool) Tokens(ctx context.Context) (common.Address, common.Address, error) {
	out0, err := p.backend.call(ctx, p.contract, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	out1, err := p.backend.call(ctx, p.contract, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return out0[0].(common.Address), out1[0].(common.Address), nil
}

func (p *clPool) Slot0(ctx context.Context) (chain.Slot0, error) {
	out, err := p.backend.call(ctx, p.contract, "slot0")
	if err != nil {
		return chain.Slot0{}, err
	}
	return chain.Slot0{
		SqrtPriceX96: out[0].(*big.Int),
		Tick:         int32(out[1].(*big.Int).Int64()),
		Unlocked:     out[5].(bool),
	}, nil
}

func (p *clPool) Liquidity(ctx context.Context) (*big.Int, error) {
	out, err := p.backend.call(ctx, p.contract, "liquidity")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Swap delegates to the concentrated-liquidity periphery router, which runs
// the pool's settlement callback on-chain. settle is therefore never invoked
// here; the output is observed as the recipient's balance delta.
func (p *clPool) Swap(ctx context.Context, recipient common.Address, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int, settle chain.SettlementFunc) (*big.Int, *big.Int, error) {
	token0, token1, err := p.Tokens(ctx)
	if err != nil {
		return nil, nil, err
	}
	tokenIn, tokenOut := token0, token1
	if !zeroForOne {
		tokenIn, tokenOut = token1, token0
	}

	spacingOut, err := p.backend.call(ctx, p.contract, "tickSpacing")
	if err != nil {
		return nil, nil, err
	}
	tickSpacing := spacingOut[0].(*big.Int)

	if err := p.backend.Token(tokenIn).Approve(ctx, p.backend.clSwapRouter, amountSpecified); err != nil {
		return nil, nil, fmt.Errorf("approve periphery: %w", err)
	}

	before, err := p.backend.Token(tokenOut).BalanceOf(ctx, recipient)
	if err != nil {
		return nil, nil, err
	}

	params := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		TickSpacing       *big.Int
		Recipient         common.Address
		Deadline          *big.Int
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		TickSpacing:       tickSpacing,
		Recipient:         recipient,
		Deadline:          big.NewInt(time.Now().Add(peripheryDeadlinePad).Unix()),
		AmountIn:          amountSpecified,
		AmountOutMinimum:  new(big.Int),
		SqrtPriceLimitX96: sqrtPriceLimitX96,
	}

	router := p.backend.bound(p.backend.clSwapRouter, clRouterABI)
	if _, err := p.backend.transact(ctx, router, nil, "exactInputSingle", params); err != nil {
		return nil, nil, err
	}

	after, err := p.backend.Token(tokenOut).BalanceOf(ctx, recipient)
	if err != nil {
		return nil, nil, err
	}
	received := new(big.Int).Sub(after, before)

	amountInDelta := new(big.Int).Set(amountSpecified)
	amountOutDelta := new(big.Int).Neg(received)
	if zeroForOne {
		return amountInDelta, amountOutDelta, nil
	}
	return amountOutDelta, amountInDelta, nil
}

type cpFactory struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (f *cpFactory) Address() common.Address { return f.addr }

func (f *cpFactory) PairFor(ctx context.Context, tokenA, tokenB common.Address, stable bool) (chain.ConstantProductPool, error) {
	out, err := f.backend.call(ctx, f.contract, "getPair", tokenA, tokenB, stable)
	if err != nil {
		return nil, err
	}
	addr := out[0].(common.Address)
	if addr == (common.Address{}) {
		return nil, nil
	}
	return f.backend.CPPool(addr), nil
}

type cpPair struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (p *cpPair) Address() common.Address { return p.addr }

func (p *cpPair) Tokens(ctx context.Context) (common.Address, common.Address, error) {
	out0, err := p.backend.call(ctx, p.contract, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	out1, err := p.backend.call(ctx, p.contract, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return out0[0].(common.Address), out1[0].(common.Address), nil
}

func (p *cpPair) Reserves(ctx context.Context) (*big.Int, *big.Int, error) {
	out, err := p.backend.call(ctx, p.contract, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	return out[0].(*big.Int), out[1].(*big.Int), nil
}

func (p *cpPair) GetAmountOut(ctx context.Context, amountIn *big.Int, tokenIn common.Address) (*big.Int, error) {
	out, err := p.backend.call(ctx, p.contract, "getAmountOut", amountIn, tokenIn)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

type cpRouter struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (r *cpRouter) Address() common.Address { return r.addr }

func (r *cpRouter) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, tokenIn, tokenOut common.Address, stable bool, recipient common.Address, deadline *big.Int) (*big.Int, error) {
	before, err := r.backend.Token(tokenOut).BalanceOf(ctx, recipient)
	if err != nil {
		return nil, err
	}

	routes := []struct {
		From   common.Address
		To     common.Address
		Stable bool
	}{
		{From: tokenIn, To: tokenOut, Stable: stable},
	}
	if _, err := r.backend.transact(ctx, r.contract, nil, "swapExactTokensForTokens", amountIn, amountOutMin, routes, recipient, deadline); err != nil {
		return nil, err
	}

	after, err := r.backend.Token(tokenOut).BalanceOf(ctx, recipient)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(after, before), nil
}

type erc20 struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (t *erc20) Address() common.Address { return t.addr }

func (t *erc20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	out, err := t.backend.call(ctx, t.contract, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (t *erc20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	out, err := t.backend.call(ctx, t.contract, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (t *erc20) Approve(ctx context.Context, spender common.Address, amount *big.Int) error {
	_, err := t.backend.transact(ctx, t.contract, nil, "approve", spender, amount)
	return err
}

func (t *erc20) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	_, err := t.backend.transact(ctx, t.contract, nil, "transfer", to, amount)
	return err
}

func (t *erc20) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	_, err := t.backend.transact(ctx, t.contract, nil, "transferFrom", from, to, amount)
	return err
}

func (t *erc20) Permit(ctx context.Context, owner, spender common.Address, value, deadline *big.Int, v uint8, r, s [32]byte) error {
	_, err := t.backend.transact(ctx, t.contract, nil, "permit", owner, spender, value, deadline, v, r, s)
	return err
}

type wrappedNative struct {
	erc20
	contract *bind.BoundContract
}

func (w *wrappedNative) Deposit(ctx context.Context, amount *big.Int) error {
	_, err := w.backend.transact(ctx, w.contract, amount, "deposit")
	return err
}

func (w *wrappedNative) Withdraw(ctx context.Context, amount *big.Int) error {
	_, err := w.backend.transact(ctx, w.contract, nil, "withdraw", amount)
	return err
}

type bridgeHub struct {
	backend  *Backend
	addr     common.Address
	contract *bind.BoundContract
}

func (h *bridgeHub) Address() common.Address { return h.addr }

func (h *bridgeHub) QuoteGasPayment(ctx context.Context, destinationDomain uint32, gasLimit *big.Int) (*big.Int, error) {
	out, err := h.backend.call(ctx, h.contract, "quoteGasPayment", destinationDomain, gasLimit)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// TransferRemote pays the fee as transaction value. The dispatching
// transaction's hash identifies the transfer in the journal; gasLimit and
// finality shape the quote, not the call.
func (h *bridgeHub) TransferRemote(ctx context.Context, destinationDomain uint32, recipient [32]byte, amount, fee, gasLimit *big.Int, finality uint8) ([32]byte, error) {
	receipt, err := h.backend.transact(ctx, h.contract, fee, "transferRemote", destinationDomain, recipient, amount)
	if err != nil {
		return [32]byte{}, err
	}
	return [32]byte(receipt.TxHash), nil
}
