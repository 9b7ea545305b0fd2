// Package evm binds the chain collaborator interfaces over go-ethereum.
// Reads go through eth_call; writes are signed by the router's account and
// awaited to a successful receipt before the engine proceeds.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/driftgate/bridge-router/internal/chain"
	"github.com/driftgate/bridge-router/internal/config"
)

const nativeTransferGas = 21_000

type Backend struct {
	client       *ethclient.Client
	auth         *bind.TransactOpts
	key          *ecdsa.PrivateKey
	self         common.Address
	chainID      *big.Int
	clSwapRouter common.Address
}

// Dial connects to the RPC endpoint and derives the router's account from
// the configured signer key.
func Dial(ctx context.Context, rpcCfg *config.RPCConfig, routerCfg *config.RouterConfig) (*Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcCfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(rpcCfg.SignerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signer key: %w", err)
	}
	chainID := big.NewInt(rpcCfg.ChainID)
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	return &Backend{
		client:       client,
		auth:         auth,
		key:          key,
		self:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:      chainID,
		clSwapRouter: routerCfg.CLSwapRouter,
	}, nil
}

func (b *Backend) Close() {
	b.client.Close()
}

func (b *Backend) Self() common.Address {
	return b.self
}

func (b *Backend) CLFactory(addr common.Address) chain.CLFactory {
	return &clFactory{backend: b, addr: addr, contract: b.bound(addr, clFactoryABI)}
}

func (b *Backend) CPFactory(addr common.Address) chain.CPFactory {
	return &cpFactory{backend: b, addr: addr, contract: b.bound(addr, cpFactoryABI)}
}

func (b *Backend) CPRouter(addr common.Address) chain.CPRouter {
	return &cpRouter{backend: b, addr: addr, contract: b.bound(addr, cpRouterABI)}
}

func (b *Backend) CLPool(addr common.Address) chain.ConcentratedPool {
	return &clPool{backend: b, addr: addr, contract: b.bound(addr, clPoolABI)}
}

func (b *Backend) CPPool(addr common.Address) chain.ConstantProductPool {
	return &cpPair{backend: b, addr: addr, contract: b.bound(addr, cpPairABI)}
}

func (b *Backend) Token(addr common.Address) chain.Token {
	return &erc20{backend: b, addr: addr, contract: b.bound(addr, erc20ABI)}
}

func (b *Backend) WrappedNative(addr common.Address) chain.WrappedNative {
	return &wrappedNative{
		erc20:    erc20{backend: b, addr: addr, contract: b.bound(addr, erc20ABI)},
		contract: b.bound(addr, wrappedNativeABI),
	}
}

func (b *Backend) BridgeHub(addr common.Address) chain.BridgeHub {
	return &bridgeHub{backend: b, addr: addr, contract: b.bound(addr, bridgeHubABI)}
}

func (b *Backend) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return b.client.BalanceAt(ctx, owner, nil)
}

func (b *Backend) SendNative(ctx context.Context, to common.Address, amount *big.Int) error {
	nonce, err := b.client.PendingNonceAt(ctx, b.self)
	if err != nil {
		return fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := b.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, amount, nativeTransferGas, gasPrice, nil)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(b.chainID), b.key)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	receipt, err := bind.WaitMined(ctx, b.client, signed)
	if err != nil {
		return fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("native transfer %s reverted", signed.Hash())
	}
	return nil
}

func (b *Backend) bound(addr common.Address, parsed abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(addr, parsed, b.client, b.client, b.client)
}

func (b *Backend) call(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// transact signs, sends and waits for one state-changing call. A reverted
// receipt is an error; the engine never continues past a failed write.
func (b *Backend) transact(ctx context.Context, contract *bind.BoundContract, value *big.Int, method string, args ...interface{}) (*types.Receipt, error) {
	opts := *b.auth
	opts.Context = ctx
	opts.Value = value

	tx, err := contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, b.client, tx)
	if err != nil {
		return nil, fmt.Errorf("%s: wait mined: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s: transaction %s reverted", method, tx.Hash())
	}
	return receipt, nil
}
