package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RouterConfig is the bootstrap RouterConfiguration: every address and
// parameter the engine needs before the persisted overrides (if any) are
// applied on top. Only the owner-restricted setters mutate it afterwards.
type RouterConfig struct {
	// Concentrated-liquidity deployments. Every factory is probed with every
	// supported tick spacing during pool location.
	CLFactories  []common.Address
	TickSpacings []int32
	// CLSwapRouter is the concentrated-liquidity periphery used by the EVM
	// transport. Pool settlement happens on-chain inside it.
	CLSwapRouter common.Address
	// Constant-product family.
	CPFactory common.Address
	CPRouter  common.Address

	WrappedNative common.Address
	TargetAsset   common.Address
	// Fixed intermediates for bounded-depth route discovery.
	PrimaryIntermediate   common.Address
	SecondaryIntermediate common.Address

	BridgeHub       common.Address
	RecipientDomain uint32
	BridgeGasLimit  int64
	Finality        uint8

	// DeadlineSeconds pads constant-product swap deadlines.
	DeadlineSeconds int64
	// MaxSlippageBps caps the caller-supplied minimum-output discount.
	MaxSlippageBps uint16

	// OwnerToken authorizes the admin configuration endpoints.
	OwnerToken string

	// DBPath is where configuration overrides persist across restarts.
	DBPath string
}

func (c *RouterConfig) Key() string {
	return ROUTER_CONFIG_KEY
}

func (c *RouterConfig) Load() error {
	c.CLFactories = envAddressList("CL_FACTORIES")
	c.TickSpacings = envInt32List("TICK_SPACINGS", []int32{1, 50, 100, 200, 2000})
	c.CLSwapRouter = envAddress("CL_SWAP_ROUTER")
	c.CPFactory = envAddress("CP_FACTORY")
	c.CPRouter = envAddress("CP_ROUTER")
	c.WrappedNative = envAddress("WRAPPED_NATIVE")
	c.TargetAsset = envAddress("TARGET_ASSET")
	c.PrimaryIntermediate = envAddress("PRIMARY_INTERMEDIATE")
	c.SecondaryIntermediate = envAddress("SECONDARY_INTERMEDIATE")
	c.BridgeHub = envAddress("BRIDGE_HUB")
	c.RecipientDomain = uint32(envInt("RECIPIENT_DOMAIN", 0))
	c.BridgeGasLimit = int64(envInt("BRIDGE_GAS_LIMIT", 250_000))
	c.Finality = uint8(envInt("BRIDGE_FINALITY", 1))
	c.DeadlineSeconds = int64(envInt("SWAP_DEADLINE_SECONDS", 300))
	c.MaxSlippageBps = uint16(envInt("MAX_SLIPPAGE_BPS", 500))
	c.OwnerToken = os.Getenv("OWNER_TOKEN")
	c.DBPath = os.Getenv("ROUTER_DB_PATH")
	return nil
}

func (c *RouterConfig) Validate() error {
	if len(c.CLFactories) == 0 || len(c.TickSpacings) == 0 {
		return errors.New("router config: no concentrated-liquidity factories")
	}
	zero := common.Address{}
	for _, a := range []common.Address{
		c.CLSwapRouter, c.CPFactory, c.CPRouter, c.WrappedNative, c.TargetAsset,
		c.PrimaryIntermediate, c.BridgeHub,
	} {
		if a == zero {
			return errors.New("router config: unset address")
		}
	}
	if c.RecipientDomain == 0 {
		return errors.New("router config: unset recipient domain")
	}
	return nil
}

func envAddress(key string) common.Address {
	return common.HexToAddress(os.Getenv(key))
}

func envAddressList(key string) []common.Address {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]common.Address, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, common.HexToAddress(p))
	}
	return out
}

func envInt32List(key string, def []int32) []int32 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		out = append(out, int32(n))
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
