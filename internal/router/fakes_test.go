package router

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/driftgate/bridge-router/internal/chain"
	"github.com/driftgate/bridge-router/internal/config"
)

// Test fixture addresses.
var (
	selfAddr    = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	payerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000BB")
	tokenTKA    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenPRI    = common.HexToAddress("0x0000000000000000000000000000000000000002")
	tokenSEC    = common.HexToAddress("0x0000000000000000000000000000000000000003")
	tokenTGT    = common.HexToAddress("0x0000000000000000000000000000000000000004")
	tokenWNAT   = common.HexToAddress("0x0000000000000000000000000000000000000005")
	clFactoryA  = common.HexToAddress("0x0000000000000000000000000000000000000010")
	cpFactoryA  = common.HexToAddress("0x0000000000000000000000000000000000000011")
	cpRouterA   = common.HexToAddress("0x0000000000000000000000000000000000000012")
	bridgeHubA  = common.HexToAddress("0x0000000000000000000000000000000000000013")
	clSwapA     = common.HexToAddress("0x0000000000000000000000000000000000000014")
	recipient32 = [32]byte{31: 0xCD}
)

// sqrtPriceX96 for a price of exactly 1.
func sqrtPriceOne() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 96)
}

// sqrtPriceX96 for a price of roughly 2 (floor(sqrt(2) * 2^96)).
func sqrtPriceTwo() *big.Int {
	p, _ := new(big.Int).SetString("112045541949572279837463876454", 10)
	return p
}

func testRouterConfig() *config.RouterConfig {
	return &config.RouterConfig{
		CLFactories:           []common.Address{clFactoryA},
		TickSpacings:          []int32{100},
		CLSwapRouter:          clSwapA,
		CPFactory:             cpFactoryA,
		CPRouter:              cpRouterA,
		WrappedNative:         tokenWNAT,
		TargetAsset:           tokenTGT,
		PrimaryIntermediate:   tokenPRI,
		SecondaryIntermediate: tokenSEC,
		BridgeHub:             bridgeHubA,
		RecipientDomain:       8453,
		BridgeGasLimit:        250_000,
		Finality:              1,
		DeadlineSeconds:       300,
		MaxSlippageBps:        500,
	}
}

type fakeBackend struct {
	self      common.Address
	clFactory *fakeCLFactory
	cpFactory *fakeCPFactory
	tokens    map[common.Address]*fakeToken
	clPools   map[common.Address]*fakeCLPool
	cpPools   map[common.Address]*fakeCPPool
	hub       *fakeHub
	wrapped   *fakeWrapped

	nativeSent map[common.Address]*big.Int
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{
		self:       selfAddr,
		tokens:     make(map[common.Address]*fakeToken),
		clPools:    make(map[common.Address]*fakeCLPool),
		cpPools:    make(map[common.Address]*fakeCPPool),
		nativeSent: make(map[common.Address]*big.Int),
	}
	b.clFactory = &fakeCLFactory{backend: b, pools: make(map[string]*fakeCLPool)}
	b.cpFactory = &fakeCPFactory{backend: b, pools: make(map[string]*fakeCPPool)}
	b.hub = &fakeHub{fee: big.NewInt(10)}
	b.wrapped = &fakeWrapped{fakeToken: b.token(tokenWNAT)}
	return b
}

func (b *fakeBackend) token(addr common.Address) *fakeToken {
	if t, ok := b.tokens[addr]; ok {
		return t
	}
	t := &fakeToken{
		addr:       addr,
		backend:    b,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
	b.tokens[addr] = t
	return t
}

func (b *fakeBackend) mint(token, owner common.Address, amount int64) {
	b.token(token).credit(owner, big.NewInt(amount))
}

func (b *fakeBackend) balance(token, owner common.Address) *big.Int {
	return b.token(token).balance(owner)
}

var nextPoolByte byte = 0x20

func newPoolAddress() common.Address {
	nextPoolByte++
	return common.HexToAddress(fmt.Sprintf("0x00000000000000000000000000000000000000%02x", nextPoolByte))
}

func (b *fakeBackend) addCLPool(token0, token1 common.Address, tickSpacing int32, sqrtPrice, liquidity *big.Int) *fakeCLPool {
	pool := &fakeCLPool{
		addr:      newPoolAddress(),
		backend:   b,
		token0:    token0,
		token1:    token1,
		sqrtPrice: sqrtPrice,
		liquidity: liquidity,
		unlocked:  true,
	}
	b.clPools[pool.addr] = pool
	b.clFactory.pools[clKey(token0, token1, tickSpacing)] = pool
	b.clFactory.pools[clKey(token1, token0, tickSpacing)] = pool
	return pool
}

func (b *fakeBackend) addCPPool(token0, token1 common.Address, stable bool, reserve0, reserve1 *big.Int) *fakeCPPool {
	pool := &fakeCPPool{
		addr:     newPoolAddress(),
		backend:  b,
		token0:   token0,
		token1:   token1,
		stable:   stable,
		reserve0: reserve0,
		reserve1: reserve1,
	}
	b.cpPools[pool.addr] = pool
	b.cpFactory.pools[cpKey(token0, token1, stable)] = pool
	b.cpFactory.pools[cpKey(token1, token0, stable)] = pool
	return pool
}

func (b *fakeBackend) Self() common.Address { return b.self }

func (b *fakeBackend) CLFactory(addr common.Address) chain.CLFactory { return b.clFactory }
func (b *fakeBackend) CPFactory(addr common.Address) chain.CPFactory { return b.cpFactory }
func (b *fakeBackend) CPRouter(addr common.Address) chain.CPRouter   { return &fakeCPRouter{backend: b} }

func (b *fakeBackend) CLPool(addr common.Address) chain.ConcentratedPool {
	return b.clPools[addr]
}

func (b *fakeBackend) CPPool(addr common.Address) chain.ConstantProductPool {
	return b.cpPools[addr]
}

func (b *fakeBackend) Token(addr common.Address) chain.Token { return b.token(addr) }

func (b *fakeBackend) WrappedNative(addr common.Address) chain.WrappedNative { return b.wrapped }

func (b *fakeBackend) BridgeHub(addr common.Address) chain.BridgeHub { return b.hub }

func (b *fakeBackend) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (b *fakeBackend) SendNative(ctx context.Context, to common.Address, amount *big.Int) error {
	prev, ok := b.nativeSent[to]
	if !ok {
		prev = new(big.Int)
	}
	b.nativeSent[to] = new(big.Int).Add(prev, amount)
	return nil
}

func clKey(tokenA, tokenB common.Address, tickSpacing int32) string {
	return fmt.Sprintf("%s-%s-%d", tokenA.Hex(), tokenB.Hex(), tickSpacing)
}

func cpKey(tokenA, tokenB common.Address, stable bool) string {
	return fmt.Sprintf("%s-%s-%t", tokenA.Hex(), tokenB.Hex(), stable)
}

type fakeCLFactory struct {
	backend *fakeBackend
	pools   map[string]*fakeCLPool
}

func (f *fakeCLFactory) Address() common.Address { return clFactoryA }

func (f *fakeCLFactory) PoolFor(ctx context.Context, tokenA, tokenB common.Address, tickSpacing int32) (chain.ConcentratedPool, error) {
	pool, ok := f.pools[clKey(tokenA, tokenB, tickSpacing)]
	if !ok {
		return nil, nil
	}
	return pool, nil
}

type fakeCPFactory struct {
	backend *fakeBackend
	pools   map[string]*fakeCPPool
}

func (f *fakeCPFactory) Address() common.Address { return cpFactoryA }

func (f *fakeCPFactory) PairFor(ctx context.Context, tokenA, tokenB common.Address, stable bool) (chain.ConstantProductPool, error) {
	pool, ok := f.pools[cpKey(tokenA, tokenB, stable)]
	if !ok {
		return nil, nil
	}
	return pool, nil
}

// fakeCLPool settles synchronously through the callback, like the real pool
// contract does. settleCallerOverride lets tests impersonate a different
// callback origin; lastSettle captures the callback for replay attempts.
type fakeCLPool struct {
	addr      common.Address
	backend   *fakeBackend
	token0    common.Address
	token1    common.Address
	sqrtPrice *big.Int
	liquidity *big.Int
	unlocked  bool

	settleCallerOverride common.Address
	lastSettle           chain.SettlementFunc
	swapCount            int
}

func (p *fakeCLPool) Address() common.Address { return p.addr }

func (p *fakeCLPool) Tokens(ctx context.Context) (common.Address, common.Address, error) {
	return p.token0, p.token1, nil
}

func (p *fakeCLPool) Slot0(ctx context.Context) (chain.Slot0, error) {
	return chain.Slot0{SqrtPriceX96: p.sqrtPrice, Unlocked: p.unlocked}, nil
}

func (p *fakeCLPool) Liquidity(ctx context.Context) (*big.Int, error) {
	return p.liquidity, nil
}

func (p *fakeCLPool) Swap(ctx context.Context, recipient common.Address, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *big.Int, settle chain.SettlementFunc) (*big.Int, *big.Int, error) {
	p.swapCount++
	p.lastSettle = settle

	out := QuoteFromSqrtPrice(amountSpecified, p.sqrtPrice, zeroForOne)

	var amount0, amount1 *big.Int
	if zeroForOne {
		amount0 = new(big.Int).Set(amountSpecified)
		amount1 = new(big.Int).Neg(out)
	} else {
		amount0 = new(big.Int).Neg(out)
		amount1 = new(big.Int).Set(amountSpecified)
	}

	caller := p.addr
	if p.settleCallerOverride != (common.Address{}) {
		caller = p.settleCallerOverride
	}
	if err := settle(caller, amount0, amount1); err != nil {
		return nil, nil, err
	}

	tokenOut := p.token1
	if !zeroForOne {
		tokenOut = p.token0
	}
	if err := p.backend.token(tokenOut).move(p.addr, recipient, out); err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// fakeCPPool quotes with the 30 bps constant-product formula regardless of
// the stable flag; curve fidelity is not what these tests check.
type fakeCPPool struct {
	addr     common.Address
	backend  *fakeBackend
	token0   common.Address
	token1   common.Address
	stable   bool
	reserve0 *big.Int
	reserve1 *big.Int
}

func (p *fakeCPPool) Address() common.Address { return p.addr }

func (p *fakeCPPool) Tokens(ctx context.Context) (common.Address, common.Address, error) {
	return p.token0, p.token1, nil
}

func (p *fakeCPPool) Reserves(ctx context.Context) (*big.Int, *big.Int, error) {
	return p.reserve0, p.reserve1, nil
}

func (p *fakeCPPool) GetAmountOut(ctx context.Context, amountIn *big.Int, tokenIn common.Address) (*big.Int, error) {
	reserveIn, reserveOut := p.reserve0, p.reserve1
	if tokenIn == p.token1 {
		reserveIn, reserveOut = p.reserve1, p.reserve0
	}
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(1000))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

type fakeCPRouter struct {
	backend *fakeBackend
}

func (r *fakeCPRouter) Address() common.Address { return cpRouterA }

func (r *fakeCPRouter) SwapExactTokensForTokens(ctx context.Context, amountIn, amountOutMin *big.Int, tokenIn, tokenOut common.Address, stable bool, recipient common.Address, deadline *big.Int) (*big.Int, error) {
	pool, ok := r.backend.cpFactory.pools[cpKey(tokenIn, tokenOut, stable)]
	if !ok {
		return nil, fmt.Errorf("no pair for %s/%s", tokenIn.Hex(), tokenOut.Hex())
	}
	out, err := pool.GetAmountOut(ctx, amountIn, tokenIn)
	if err != nil {
		return nil, err
	}
	if err := r.backend.token(tokenIn).move(r.backend.self, pool.addr, amountIn); err != nil {
		return nil, err
	}
	if err := r.backend.token(tokenOut).move(pool.addr, recipient, out); err != nil {
		return nil, err
	}
	return out, nil
}

type fakeToken struct {
	addr       common.Address
	backend    *fakeBackend
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int

	permitErr    error
	permitCalls  int
	pullCount    int
	approveCalls []common.Address
}

func (t *fakeToken) credit(owner common.Address, amount *big.Int) {
	t.balances[owner] = new(big.Int).Add(t.balance(owner), amount)
}

func (t *fakeToken) balance(owner common.Address) *big.Int {
	if b, ok := t.balances[owner]; ok {
		return b
	}
	return new(big.Int)
}

func (t *fakeToken) move(from, to common.Address, amount *big.Int) error {
	if t.balance(from).Cmp(amount) < 0 {
		return fmt.Errorf("token %s: insufficient balance of %s", t.addr.Hex(), from.Hex())
	}
	t.balances[from] = new(big.Int).Sub(t.balance(from), amount)
	t.credit(to, amount)
	return nil
}

func (t *fakeToken) setAllowance(owner, spender common.Address, amount *big.Int) {
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

func (t *fakeToken) Address() common.Address { return t.addr }

func (t *fakeToken) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return new(big.Int).Set(t.balance(owner)), nil
}

func (t *fakeToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	if inner, ok := t.allowances[owner]; ok {
		if a, ok := inner[spender]; ok {
			return new(big.Int).Set(a), nil
		}
	}
	return new(big.Int), nil
}

func (t *fakeToken) Approve(ctx context.Context, spender common.Address, amount *big.Int) error {
	t.approveCalls = append(t.approveCalls, spender)
	t.setAllowance(t.backend.self, spender, amount)
	return nil
}

func (t *fakeToken) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return t.move(t.backend.self, to, amount)
}

func (t *fakeToken) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	t.pullCount++
	allowance, _ := t.Allowance(ctx, from, t.backend.self)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("token %s: allowance too low", t.addr.Hex())
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.setAllowance(from, t.backend.self, new(big.Int).Sub(allowance, amount))
	return nil
}

func (t *fakeToken) Permit(ctx context.Context, owner, spender common.Address, value, deadline *big.Int, v uint8, r, s [32]byte) error {
	t.permitCalls++
	if t.permitErr != nil {
		return t.permitErr
	}
	t.setAllowance(owner, spender, value)
	return nil
}

type fakeWrapped struct {
	*fakeToken
	deposited *big.Int
}

func (w *fakeWrapped) Deposit(ctx context.Context, amount *big.Int) error {
	w.deposited = new(big.Int).Set(amount)
	w.credit(w.backend.self, amount)
	return nil
}

func (w *fakeWrapped) Withdraw(ctx context.Context, amount *big.Int) error {
	return w.move(w.backend.self, common.Address{}, amount)
}

type fakeHub struct {
	fee *big.Int

	quoteCalls    int
	transferCalls int
	lastAmount    *big.Int
	lastRecipient [32]byte
	lastDomain    uint32
	lastFee       *big.Int
	transferErr   error
}

func (h *fakeHub) Address() common.Address { return bridgeHubA }

func (h *fakeHub) QuoteGasPayment(ctx context.Context, destinationDomain uint32, gasLimit *big.Int) (*big.Int, error) {
	h.quoteCalls++
	return new(big.Int).Set(h.fee), nil
}

func (h *fakeHub) TransferRemote(ctx context.Context, destinationDomain uint32, recipient [32]byte, amount, fee, gasLimit *big.Int, finality uint8) ([32]byte, error) {
	if h.transferErr != nil {
		return [32]byte{}, h.transferErr
	}
	h.transferCalls++
	h.lastAmount = new(big.Int).Set(amount)
	h.lastRecipient = recipient
	h.lastDomain = destinationDomain
	h.lastFee = new(big.Int).Set(fee)

	var id [32]byte
	id[0] = byte(h.transferCalls)
	return id, nil
}
