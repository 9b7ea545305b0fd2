package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/driftgate/bridge-router/internal/common"
	"github.com/driftgate/bridge-router/internal/config"
	"github.com/driftgate/bridge-router/internal/http"
	"github.com/driftgate/bridge-router/internal/services/engine"
)

// @title Driftgate Bridge Router API
// @version 1.0
// @description Swap-and-bridge router: converts any token to the target asset across
// @description concentrated-liquidity and constant-product pools, then bridges the
// @description proceeds to the configured destination domain.
// @description
// @description ## Entry points
// @description - **/swap/token**: pre-approved token, optional pinned path
// @description - **/swap/permit**: token with a same-call signature allowance
// @description - **/swap/native**: native currency, wrapped minus the bridge fee
// @description
// @description Amounts are in smallest token units as decimal strings.
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Price routes and bridge fees without moving funds
// @tag.name swap
// @tag.description Execute swap-and-bridge operations
// @tag.name admin
// @tag.description Owner-restricted live configuration
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	generalCfg := &config.GeneralConfig{}
	conf := container.NewConf(
		generalCfg,
		&config.RPCConfig{},
		&config.RouterConfig{},
	)

	dic, err := container.New(
		conf,

		&engine.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	common.SetupLogger(generalCfg.LogLevel, generalCfg.Env)

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
