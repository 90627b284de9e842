package chain

import (
	"context"
	"fmt"

	"github.com/abacus-network/abacus-deploy/chain/evm"
)

// Provider is an interface for connection providers that can initialize the connection
// config of a single chain.
type Provider interface {
	Initialize(ctx context.Context) (evm.ConnectionConfig, error)
	Name() string
	ChainName() string
}

// NewRegistryFromProviders initializes every provider and builds a Registry from the
// resulting configs. Providers are initialized in order and the first failure aborts, closing
// the clients of the providers initialized before it.
func NewRegistryFromProviders(ctx context.Context, providers ...Provider) (Registry, error) {
	configs := make(map[string]evm.ConnectionConfig, len(providers))
	for _, p := range providers {
		if _, ok := configs[p.ChainName()]; ok {
			closeClients(configs)
			return Registry{}, fmt.Errorf("duplicate provider for chain %s", p.ChainName())
		}

		cfg, err := p.Initialize(ctx)
		if err != nil {
			closeClients(configs)
			return Registry{}, fmt.Errorf("failed to initialize %s for chain %s: %w",
				p.Name(), p.ChainName(), err,
			)
		}
		configs[p.ChainName()] = cfg
	}

	reg, err := NewRegistry(configs)
	if err != nil {
		closeClients(configs)
		return Registry{}, err
	}

	return reg, nil
}

// closeClients closes every client which holds a connection, such as an *ethclient.Client.
func closeClients(configs map[string]evm.ConnectionConfig) {
	for _, cfg := range configs {
		if c, ok := cfg.Client.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
