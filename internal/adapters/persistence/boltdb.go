package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/driftgate/bridge-router/internal/domain"
	"github.com/driftgate/bridge-router/internal/router"
)

const (
	SettingsBucket  = "settings"
	TransfersBucket = "transfers"

	settingsKey = "current"

	DefaultDBPath = "./data/bridge-router.db"
)

// StoredSettings is the persisted shape of the live router configuration.
// Big integers travel as decimal strings, addresses as hex.
type StoredSettings struct {
	CLFactories  []string `json:"clFactories"`
	TickSpacings []int32  `json:"tickSpacings"`
	CPFactory    string   `json:"cpFactory"`
	CPRouter     string   `json:"cpRouter"`

	WrappedNative string `json:"wrappedNative"`
	TargetAsset   string `json:"targetAsset"`

	PrimaryIntermediate   string `json:"primaryIntermediate"`
	SecondaryIntermediate string `json:"secondaryIntermediate,omitempty"`

	BridgeHub       string `json:"bridgeHub"`
	RecipientDomain uint32 `json:"recipientDomain"`
	BridgeGasLimit  string `json:"bridgeGasLimit"`
	Finality        uint8  `json:"finality"`

	DeadlineSeconds int64  `json:"deadlineSeconds"`
	MaxSlippageBps  uint16 `json:"maxSlippageBps"`
}

// StoredTransfer is one completed swap-and-bridge operation, journaled for
// operator inspection.
type StoredTransfer struct {
	TransferID string `json:"transferId"`
	Payer      string `json:"payer"`
	TokenIn    string `json:"tokenIn"`
	AmountIn   string `json:"amountIn"`
	AmountOut  string `json:"amountOut"`
	Hops       int    `json:"hops"`
	Domain     uint32 `json:"domain"`
	FeePaid    string `json:"feePaid"`
	Refunded   string `json:"refunded"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[routerStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSettings overwrites the persisted configuration snapshot.
func (s *Storage) SaveSettings(settings router.Settings) error {
	stored := settingsToStored(settings)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return s.db.Set(SettingsBucket, []byte(settingsKey), data)
}

// LoadSettings returns the persisted configuration, or (nil, nil) when none
// has been saved yet.
func (s *Storage) LoadSettings() (*router.Settings, error) {
	data, err := s.db.List(SettingsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	raw, ok := data[settingsKey]
	if !ok {
		return nil, nil
	}

	var stored StoredSettings
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	settings := storedToSettings(&stored)
	return &settings, nil
}

// SaveTransfer journals one completed operation, keyed by transfer ID.
func (s *Storage) SaveTransfer(result *domain.SwapResult) error {
	stored := StoredTransfer{
		TransferID: fmt.Sprintf("%#x", result.TransferID),
		Payer:      result.Payer.Hex(),
		TokenIn:    result.TokenIn.Hex(),
		AmountIn:   result.AmountIn.String(),
		AmountOut:  result.AmountOut.String(),
		Hops:       result.Hops,
		Domain:     result.Domain,
		FeePaid:    result.FeePaid.String(),
		Refunded:   result.Refunded.String(),
	}
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %w", err)
	}
	return s.db.Set(TransfersBucket, []byte(stored.TransferID), data)
}

// LoadAllTransfers returns the journaled operations, skipping unreadable
// entries.
func (s *Storage) LoadAllTransfers() ([]StoredTransfer, error) {
	data, err := s.db.List(TransfersBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}

	transfers := make([]StoredTransfer, 0, len(data))
	for key, value := range data {
		var stored StoredTransfer
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Str("key", key).Err(err).Msg("[routerStorage] failed to unmarshal transfer, skipping")
			continue
		}
		transfers = append(transfers, stored)
	}
	return transfers, nil
}

func (s *Storage) GetTransferCount() (int, error) {
	data, err := s.db.List(TransfersBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func settingsToStored(settings router.Settings) *StoredSettings {
	factories := make([]string, len(settings.CLFactories))
	for i, a := range settings.CLFactories {
		factories[i] = a.Hex()
	}

	gasLimit := "0"
	if settings.BridgeGasLimit != nil {
		gasLimit = settings.BridgeGasLimit.String()
	}

	secondary := ""
	if settings.SecondaryIntermediate != (common.Address{}) {
		secondary = settings.SecondaryIntermediate.Hex()
	}

	return &StoredSettings{
		CLFactories:           factories,
		TickSpacings:          settings.TickSpacings,
		CPFactory:             settings.CPFactory.Hex(),
		CPRouter:              settings.CPRouter.Hex(),
		WrappedNative:         settings.WrappedNative.Hex(),
		TargetAsset:           settings.TargetAsset.Hex(),
		PrimaryIntermediate:   settings.PrimaryIntermediate.Hex(),
		SecondaryIntermediate: secondary,
		BridgeHub:             settings.BridgeHub.Hex(),
		RecipientDomain:       settings.RecipientDomain,
		BridgeGasLimit:        gasLimit,
		Finality:              settings.Finality,
		DeadlineSeconds:       settings.DeadlineSeconds,
		MaxSlippageBps:        settings.MaxSlippageBps,
	}
}

func storedToSettings(stored *StoredSettings) router.Settings {
	factories := make([]common.Address, len(stored.CLFactories))
	for i, a := range stored.CLFactories {
		factories[i] = common.HexToAddress(a)
	}

	gasLimit := new(big.Int)
	gasLimit.SetString(stored.BridgeGasLimit, 10)

	return router.Settings{
		CLFactories:           factories,
		TickSpacings:          stored.TickSpacings,
		CPFactory:             common.HexToAddress(stored.CPFactory),
		CPRouter:              common.HexToAddress(stored.CPRouter),
		WrappedNative:         common.HexToAddress(stored.WrappedNative),
		TargetAsset:           common.HexToAddress(stored.TargetAsset),
		PrimaryIntermediate:   common.HexToAddress(stored.PrimaryIntermediate),
		SecondaryIntermediate: common.HexToAddress(stored.SecondaryIntermediate),
		BridgeHub:             common.HexToAddress(stored.BridgeHub),
		RecipientDomain:       stored.RecipientDomain,
		BridgeGasLimit:        gasLimit,
		Finality:              stored.Finality,
		DeadlineSeconds:       stored.DeadlineSeconds,
		MaxSlippageBps:        stored.MaxSlippageBps,
	}
}
