package persistence

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/driftgate/bridge-router/internal/router"
)

func sampleSettings() router.Settings {
	return router.Settings{
		CLFactories: []common.Address{
			common.HexToAddress("0x0000000000000000000000000000000000000010"),
			common.HexToAddress("0x0000000000000000000000000000000000000011"),
		},
		TickSpacings:          []int32{1, 50, 100},
		CPFactory:             common.HexToAddress("0x0000000000000000000000000000000000000012"),
		CPRouter:              common.HexToAddress("0x0000000000000000000000000000000000000013"),
		WrappedNative:         common.HexToAddress("0x0000000000000000000000000000000000000001"),
		TargetAsset:           common.HexToAddress("0x0000000000000000000000000000000000000002"),
		PrimaryIntermediate:   common.HexToAddress("0x0000000000000000000000000000000000000003"),
		SecondaryIntermediate: common.HexToAddress("0x0000000000000000000000000000000000000004"),
		BridgeHub:             common.HexToAddress("0x0000000000000000000000000000000000000014"),
		RecipientDomain:       8453,
		BridgeGasLimit:        big.NewInt(250_000),
		Finality:              1,
		DeadlineSeconds:       300,
		MaxSlippageBps:        500,
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	original := sampleSettings()

	restored := storedToSettings(settingsToStored(original))

	require.Equal(t, original.CLFactories, restored.CLFactories)
	require.Equal(t, original.TickSpacings, restored.TickSpacings)
	require.Equal(t, original.CPFactory, restored.CPFactory)
	require.Equal(t, original.CPRouter, restored.CPRouter)
	require.Equal(t, original.WrappedNative, restored.WrappedNative)
	require.Equal(t, original.TargetAsset, restored.TargetAsset)
	require.Equal(t, original.PrimaryIntermediate, restored.PrimaryIntermediate)
	require.Equal(t, original.SecondaryIntermediate, restored.SecondaryIntermediate)
	require.Equal(t, original.BridgeHub, restored.BridgeHub)
	require.Equal(t, original.RecipientDomain, restored.RecipientDomain)
	require.Equal(t, 0, original.BridgeGasLimit.Cmp(restored.BridgeGasLimit))
	require.Equal(t, original.Finality, restored.Finality)
	require.Equal(t, original.DeadlineSeconds, restored.DeadlineSeconds)
	require.Equal(t, original.MaxSlippageBps, restored.MaxSlippageBps)
}

func TestSettingsRoundTripUnsetSecondary(t *testing.T) {
	original := sampleSettings()
	original.SecondaryIntermediate = common.Address{}

	stored := settingsToStored(original)
	require.Empty(t, stored.SecondaryIntermediate)

	restored := storedToSettings(stored)
	require.Equal(t, common.Address{}, restored.SecondaryIntermediate)
}

func TestSettingsToStoredNilGasLimit(t *testing.T) {
	original := sampleSettings()
	original.BridgeGasLimit = nil

	stored := settingsToStored(original)
	require.Equal(t, "0", stored.BridgeGasLimit)

	restored := storedToSettings(stored)
	require.Equal(t, int64(0), restored.BridgeGasLimit.Int64())
}
