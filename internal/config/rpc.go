package config

import (
	"errors"
	"os"
	"slices"
)

type RPCConfig struct {
	RPCUrl    string
	ChainID   int64
	SignerKey string // hex-encoded private key for the router's account
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = os.Getenv("RPC_URL")
	r.ChainID = int64(envInt("CHAIN_ID", 0))
	r.SignerKey = os.Getenv("SIGNER_KEY")
	return nil
}

func (r *RPCConfig) Validate() error {
	if slices.Contains([]string{r.RPCUrl, r.SignerKey}, "") || r.ChainID == 0 {
		return errors.New("invalid rpc config")
	}
	return nil
}
