// Package engine hosts the swap-and-bridge engine inside the service
// container: it dials the chain backend, restores persisted configuration
// and exposes the orchestrator to the transport layer.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/driftgate/bridge-router/internal/adapters/persistence"
	"github.com/driftgate/bridge-router/internal/chain/evm"
	"github.com/driftgate/bridge-router/internal/config"
	"github.com/driftgate/bridge-router/internal/router"
)

const ENGINE_SERVICE = "engine-service"

const dialTimeout = 15 * time.Second

type Service struct {
	container.BaseDIInstance

	cfg     *config.RouterConfig
	backend *evm.Backend
	store   *router.SettingsStore
	storage *persistence.Storage
	engine  *router.Engine
}

func (svc *Service) ID() string {
	return ENGINE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcCfg := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	svc.cfg = c.GetConfig(config.ROUTER_CONFIG_KEY).(*config.RouterConfig)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	backend, err := evm.Dial(ctx, rpcCfg, svc.cfg)
	if err != nil {
		return err
	}
	svc.backend = backend

	svc.store = router.NewSettingsStore(svc.cfg)

	storage, err := persistence.NewStorage(svc.cfg.DBPath)
	if err != nil {
		return err
	}
	svc.storage = storage

	// Persisted overrides win over the bootstrap environment.
	if persisted, err := storage.LoadSettings(); err != nil {
		log.Warn().Err(err).Msg("[engineService] failed to load persisted settings, using bootstrap")
	} else if persisted != nil {
		svc.store.Restore(*persisted)
		log.Info().Msg("[engineService] restored persisted settings")
	}

	svc.store.SetPersist(func(s router.Settings) {
		if err := storage.SaveSettings(s); err != nil {
			log.Error().Err(err).Msg("[engineService] failed to persist settings")
		}
	})

	svc.engine = router.NewEngine(backend, svc.store)
	return nil
}

func (svc *Service) Start() error {
	log.Info().Str("self", svc.backend.Self().Hex()).Msg("[engineService] started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage != nil {
		if err := svc.storage.Close(); err != nil {
			log.Error().Err(err).Msg("[engineService] failed to close storage")
		}
	}
	if svc.backend != nil {
		svc.backend.Close()
	}
	return nil
}

func (svc *Service) Engine() *router.Engine {
	return svc.engine
}

func (svc *Service) Storage() *persistence.Storage {
	return svc.storage
}

func (svc *Service) OwnerToken() string {
	return svc.cfg.OwnerToken
}
