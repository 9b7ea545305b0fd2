package router

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	commonerr "github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/config"
)

// Settings is one immutable snapshot of the live router configuration. Every
// operation takes its snapshot at entry so a concurrent admin update can never
// split a single swap across two configurations.
type Settings struct {
	CLFactories  []common.Address
	TickSpacings []int32
	CPFactory    common.Address
	CPRouter     common.Address

	WrappedNative common.Address
	TargetAsset   common.Address

	PrimaryIntermediate   common.Address
	SecondaryIntermediate common.Address

	BridgeHub       common.Address
	RecipientDomain uint32
	BridgeGasLimit  *big.Int
	Finality        uint8

	DeadlineSeconds int64
	MaxSlippageBps  uint16
}

// SettingsStore is the single mutable home of the router configuration. Reads
// are snapshots; writes go through owner-restricted setters that validate and
// then hand the new state to the persistence hook.
type SettingsStore struct {
	mu      sync.RWMutex
	s       Settings
	persist func(Settings)
}

func NewSettingsStore(cfg *config.RouterConfig) *SettingsStore {
	return &SettingsStore{
		s: Settings{
			CLFactories:           append([]common.Address(nil), cfg.CLFactories...),
			TickSpacings:          append([]int32(nil), cfg.TickSpacings...),
			CPFactory:             cfg.CPFactory,
			CPRouter:              cfg.CPRouter,
			WrappedNative:         cfg.WrappedNative,
			TargetAsset:           cfg.TargetAsset,
			PrimaryIntermediate:   cfg.PrimaryIntermediate,
			SecondaryIntermediate: cfg.SecondaryIntermediate,
			BridgeHub:             cfg.BridgeHub,
			RecipientDomain:       cfg.RecipientDomain,
			BridgeGasLimit:        big.NewInt(cfg.BridgeGasLimit),
			Finality:              cfg.Finality,
			DeadlineSeconds:       cfg.DeadlineSeconds,
			MaxSlippageBps:        cfg.MaxSlippageBps,
		},
	}
}

// SetPersist registers the hook called after every successful mutation.
func (st *SettingsStore) SetPersist(fn func(Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.persist = fn
}

// Restore replaces the whole state with a previously persisted one. Used once
// at startup, before the store is shared.
func (st *SettingsStore) Restore(s Settings) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = s
}

func (st *SettingsStore) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.s
	s.CLFactories = append([]common.Address(nil), st.s.CLFactories...)
	s.TickSpacings = append([]int32(nil), st.s.TickSpacings...)
	s.BridgeGasLimit = new(big.Int).Set(st.s.BridgeGasLimit)
	return s
}

func (st *SettingsStore) mutate(fn func(*Settings)) {
	st.mu.Lock()
	fn(&st.s)
	snapshot := st.s
	snapshot.CLFactories = append([]common.Address(nil), st.s.CLFactories...)
	snapshot.TickSpacings = append([]int32(nil), st.s.TickSpacings...)
	snapshot.BridgeGasLimit = new(big.Int).Set(st.s.BridgeGasLimit)
	persist := st.persist
	st.mu.Unlock()
	if persist != nil {
		persist(snapshot)
	}
}

func requireAddress(a common.Address) error {
	if a == (common.Address{}) {
		return commonerr.ErrUnsetAddress
	}
	return nil
}

func (st *SettingsStore) SetBridgeHub(a common.Address) error {
	if err := requireAddress(a); err != nil {
		return err
	}
	st.mutate(func(s *Settings) { s.BridgeHub = a })
	return nil
}

func (st *SettingsStore) SetCPRouter(a common.Address) error {
	if err := requireAddress(a); err != nil {
		return err
	}
	st.mutate(func(s *Settings) { s.CPRouter = a })
	return nil
}

func (st *SettingsStore) SetCPFactory(a common.Address) error {
	if err := requireAddress(a); err != nil {
		return err
	}
	st.mutate(func(s *Settings) { s.CPFactory = a })
	return nil
}

func (st *SettingsStore) SetCLFactories(addrs []common.Address) error {
	if len(addrs) == 0 {
		return commonerr.ErrUnsetAddress
	}
	for _, a := range addrs {
		if err := requireAddress(a); err != nil {
			return err
		}
	}
	st.mutate(func(s *Settings) { s.CLFactories = append([]common.Address(nil), addrs...) })
	return nil
}

func (st *SettingsStore) SetIntermediates(primary, secondary common.Address) error {
	if err := requireAddress(primary); err != nil {
		return err
	}
	st.mutate(func(s *Settings) {
		s.PrimaryIntermediate = primary
		s.SecondaryIntermediate = secondary
	})
	return nil
}

func (st *SettingsStore) SetRecipientDomain(d uint32) error {
	if d == 0 {
		return commonerr.ErrUnsetAddress
	}
	st.mutate(func(s *Settings) { s.RecipientDomain = d })
	return nil
}

func (st *SettingsStore) SetBridgeGasLimit(limit int64) {
	st.mutate(func(s *Settings) { s.BridgeGasLimit = big.NewInt(limit) })
}

func (st *SettingsStore) SetDeadlineSeconds(sec int64) {
	st.mutate(func(s *Settings) { s.DeadlineSeconds = sec })
}

func (st *SettingsStore) SetFinality(f uint8) {
	st.mutate(func(s *Settings) { s.Finality = f })
}

func (st *SettingsStore) SetMaxSlippageBps(bps uint16) {
	st.mutate(func(s *Settings) { s.MaxSlippageBps = bps })
}
