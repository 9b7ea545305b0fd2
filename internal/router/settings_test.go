package router

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	commonerr "github.com/driftgate/bridge-router/internal/common"
)

func TestSnapshotIsIsolated(t *testing.T) {
	st := NewSettingsStore(testRouterConfig())

	snap := st.Snapshot()
	snap.CLFactories[0] = common.Address{}
	snap.TickSpacings[0] = -1
	snap.BridgeGasLimit.SetInt64(0)

	fresh := st.Snapshot()
	require.Equal(t, clFactoryA, fresh.CLFactories[0])
	require.Equal(t, int32(100), fresh.TickSpacings[0])
	require.Equal(t, int64(250_000), fresh.BridgeGasLimit.Int64())
}

func TestSettersRejectZeroValues(t *testing.T) {
	st := NewSettingsStore(testRouterConfig())
	zero := common.Address{}

	require.ErrorIs(t, st.SetBridgeHub(zero), commonerr.ErrUnsetAddress)
	require.ErrorIs(t, st.SetCPRouter(zero), commonerr.ErrUnsetAddress)
	require.ErrorIs(t, st.SetCPFactory(zero), commonerr.ErrUnsetAddress)
	require.ErrorIs(t, st.SetCLFactories(nil), commonerr.ErrUnsetAddress)
	require.ErrorIs(t, st.SetCLFactories([]common.Address{clFactoryA, zero}), commonerr.ErrUnsetAddress)
	require.ErrorIs(t, st.SetIntermediates(zero, tokenSEC), commonerr.ErrUnsetAddress)
	require.ErrorIs(t, st.SetRecipientDomain(0), commonerr.ErrUnsetAddress)

	// Nothing was applied.
	s := st.Snapshot()
	require.Equal(t, bridgeHubA, s.BridgeHub)
	require.Equal(t, cpRouterA, s.CPRouter)
	require.Equal(t, []common.Address{clFactoryA}, s.CLFactories)
	require.Equal(t, tokenPRI, s.PrimaryIntermediate)
	require.Equal(t, uint32(8453), s.RecipientDomain)
}

func TestSettersApplyAndPersist(t *testing.T) {
	st := NewSettingsStore(testRouterConfig())

	var persisted []Settings
	st.SetPersist(func(s Settings) { persisted = append(persisted, s) })

	newHub := common.HexToAddress("0x00000000000000000000000000000000000000F1")
	newFactory := common.HexToAddress("0x00000000000000000000000000000000000000F2")

	require.NoError(t, st.SetBridgeHub(newHub))
	require.NoError(t, st.SetCLFactories([]common.Address{clFactoryA, newFactory}))
	require.NoError(t, st.SetIntermediates(tokenPRI, common.Address{}))
	require.NoError(t, st.SetRecipientDomain(10))
	st.SetBridgeGasLimit(500_000)
	st.SetFinality(3)
	st.SetDeadlineSeconds(600)
	st.SetMaxSlippageBps(250)

	s := st.Snapshot()
	require.Equal(t, newHub, s.BridgeHub)
	require.Equal(t, []common.Address{clFactoryA, newFactory}, s.CLFactories)
	// Clearing the secondary intermediate is allowed; it just shortens the
	// discovery depth.
	require.Equal(t, common.Address{}, s.SecondaryIntermediate)
	require.Equal(t, uint32(10), s.RecipientDomain)
	require.Equal(t, int64(500_000), s.BridgeGasLimit.Int64())
	require.Equal(t, uint8(3), s.Finality)
	require.Equal(t, int64(600), s.DeadlineSeconds)
	require.Equal(t, uint16(250), s.MaxSlippageBps)

	require.Len(t, persisted, 8)
	last := persisted[len(persisted)-1]
	require.Equal(t, newHub, last.BridgeHub)
	require.Equal(t, uint16(250), last.MaxSlippageBps)

	// The persisted snapshot is its own copy.
	persisted[1].CLFactories[0] = common.Address{}
	require.Equal(t, clFactoryA, st.Snapshot().CLFactories[0])
}

func TestRestoreReplacesState(t *testing.T) {
	st := NewSettingsStore(testRouterConfig())

	restored := st.Snapshot()
	restored.RecipientDomain = 42161
	restored.MaxSlippageBps = 100
	st.Restore(restored)

	s := st.Snapshot()
	require.Equal(t, uint32(42161), s.RecipientDomain)
	require.Equal(t, uint16(100), s.MaxSlippageBps)
	require.Equal(t, tokenTGT, s.TargetAsset)
}
