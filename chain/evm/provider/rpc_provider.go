package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/ethclient"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/abacus-network/abacus-deploy/chain"
	"github.com/abacus-network/abacus-deploy/chain/evm"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

const (
	// Default retry configuration for dialing RPC endpoints
	RPCDefaultDialRetryAttempts = 1
	RPCDefaultDialRetryDelay    = 1000 * time.Millisecond
	RPCDefaultDialTimeout       = 10 * time.Second

	// Default timeout for health checks
	RPCDefaultHealthCheckTimeout = 2 * time.Second
)

// URLSchemePreference selects which URL of an RPC is dialed.
type URLSchemePreference string

const (
	URLSchemePreferenceNone URLSchemePreference = ""
	URLSchemePreferenceWS   URLSchemePreference = "ws"
	URLSchemePreferenceHTTP URLSchemePreference = "http"
)

// RPC is a single RPC endpoint of a chain.
type RPC struct {
	Name               string
	WSURL              string
	HTTPURL            string
	PreferredURLScheme URLSchemePreference
}

// Endpoint returns the URL to dial. HTTP is used unless websockets are preferred.
func (r RPC) Endpoint() string {
	if r.PreferredURLScheme == URLSchemePreferenceWS && r.WSURL != "" {
		return r.WSURL
	}
	if r.HTTPURL == "" {
		return r.WSURL
	}

	return r.HTTPURL
}

// DialConfig holds the retry settings used when dialing an RPC.
type DialConfig struct {
	Attempts uint
	Delay    time.Duration
	Timeout  time.Duration
}

func defaultDialConfig() DialConfig {
	return DialConfig{
		Attempts: RPCDefaultDialRetryAttempts,
		Delay:    RPCDefaultDialRetryDelay,
		Timeout:  RPCDefaultDialTimeout,
	}
}

// withDefaults fills every zero field of c from the defaults.
func (c DialConfig) withDefaults() DialConfig {
	def := defaultDialConfig()
	if c.Attempts == 0 {
		c.Attempts = def.Attempts
	}
	if c.Delay == 0 {
		c.Delay = def.Delay
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}

	return c
}

// RPCConnectionProviderConfig holds the configuration to initialize the RPCConnectionProvider.
type RPCConnectionProviderConfig struct {
	// Required: At least one RPC must be provided to connect to the EVM node. RPCs are tried in
	// order and the first healthy one is used.
	RPCs []RPC
	// Optional: ChainSelector identifies the chain. When set, the chain ID used to sign is
	// derived from it and checked against the node; otherwise the node's chain ID is used.
	ChainSelector uint64
	// Optional: A generator for the deployer key. Without one the connection is read-only.
	DeployerTransactorGen TransactorGenerator
	// Optional: Overrides are applied to every transactor handed out by the connection.
	Overrides evm.Overrides
	// Optional: Confirmations is the number of blocks to wait for after inclusion.
	Confirmations uint64
	// Optional: BlockExplorerURL is the base URL for explorer links.
	BlockExplorerURL string
	// Optional: Observer receives transaction events. Defaults to logging through Logger.
	Observer evm.Observer
	// Optional: DialConfig overrides the dial retry defaults. Zero fields keep their default.
	DialConfig *DialConfig
	// Optional: Logger is the logger to use. If not provided, a default logger will be used.
	Logger logger.Logger
}

// validate checks if the RPCConnectionProviderConfig is valid.
func (c RPCConnectionProviderConfig) validate() error {
	if len(c.RPCs) == 0 {
		return fmt.Errorf("at least one RPC is required: %w", evm.ErrMissingConfiguration)
	}
	for i, rpc := range c.RPCs {
		if rpc.Endpoint() == "" {
			return fmt.Errorf("rpc %d (%s) has no URL: %w", i, rpc.Name, evm.ErrMissingConfiguration)
		}
	}

	return nil
}

var _ chain.Provider = (*RPCConnectionProvider)(nil)

// RPCConnectionProvider builds the connection config of a chain reached over JSON-RPC.
type RPCConnectionProvider struct {
	chainName string
	config    RPCConnectionProviderConfig

	connection *evm.ConnectionConfig
}

// NewRPCConnectionProvider creates a new RPCConnectionProvider for the named chain.
func NewRPCConnectionProvider(chainName string, config RPCConnectionProviderConfig) *RPCConnectionProvider {
	return &RPCConnectionProvider{
		chainName: chainName,
		config:    config,
	}
}

// Initialize dials the RPCs, resolves the chain ID, generates the deployer transactor and
// returns the resulting connection config.
func (p *RPCConnectionProvider) Initialize(ctx context.Context) (evm.ConnectionConfig, error) {
	if p.connection != nil {
		return *p.connection, nil // Already initialized
	}

	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return evm.ConnectionConfig{}, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}
	lggr := p.config.Logger.Named(p.chainName)

	if err := p.config.validate(); err != nil {
		return evm.ConnectionConfig{}, fmt.Errorf("failed to validate provider config: %w", err)
	}

	dialCfg := defaultDialConfig()
	if p.config.DialConfig != nil {
		dialCfg = p.config.DialConfig.withDefaults()
	}

	client, err := p.dialFirstHealthy(ctx, dialCfg, lggr)
	if err != nil {
		return evm.ConnectionConfig{}, err
	}

	chainID, err := p.resolveChainID(ctx, client)
	if err != nil {
		client.Close()
		return evm.ConnectionConfig{}, err
	}

	cfg := evm.ConnectionConfig{
		Client:           client,
		Selector:         p.config.ChainSelector,
		Overrides:        p.config.Overrides,
		Confirmations:    p.config.Confirmations,
		BlockExplorerURL: p.config.BlockExplorerURL,
		Observer:         p.config.Observer,
	}
	if cfg.Observer == nil {
		cfg.Observer = evm.LogObserver(lggr)
	}

	if p.config.DeployerTransactorGen != nil {
		deployerKey, gerr := p.config.DeployerTransactorGen.Generate(chainID)
		if gerr != nil {
			client.Close()
			return evm.ConnectionConfig{}, fmt.Errorf("failed to generate deployer key: %w", gerr)
		}
		cfg.Signer = deployerKey
		lggr.Infow("Connected", "chainID", chainID, "deployer", deployerKey.From.Hex())
	} else {
		lggr.Infow("Connected read-only", "chainID", chainID)
	}

	p.connection = &cfg

	return cfg, nil
}

// Name returns the name of the RPCConnectionProvider.
func (*RPCConnectionProvider) Name() string {
	return "EVM RPC Connection Provider"
}

// ChainName returns the chain name the provider builds a connection for.
func (p *RPCConnectionProvider) ChainName() string {
	return p.chainName
}

// dialFirstHealthy dials each RPC in order and returns the first one which passes a health
// check.
func (p *RPCConnectionProvider) dialFirstHealthy(
	ctx context.Context, dialCfg DialConfig, lggr logger.Logger,
) (*ethclient.Client, error) {
	var errs []error
	for i, rpc := range p.config.RPCs {
		client, err := dialWithRetry(ctx, rpc, dialCfg, lggr)
		if err != nil {
			lggr.Warnf("failed to dial client %d for RPC '%s', trying with the next one: %v", i, rpc.Name, err)
			errs = append(errs, err)

			continue
		}
		if err := healthCheck(ctx, client); err != nil {
			lggr.Warnf("health check failed for client %d for RPC '%s', trying with the next one: %v", i, rpc.Name, err)
			client.Close()
			errs = append(errs, err)

			continue
		}

		return client, nil
	}

	return nil, fmt.Errorf("no valid RPC clients created: %w", errors.Join(errs...))
}

// resolveChainID returns the chain ID derived from the selector, checking it against the
// node, or the node's chain ID when no selector is configured.
func (p *RPCConnectionProvider) resolveChainID(ctx context.Context, client *ethclient.Client) (*big.Int, error) {
	nodeID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID from node: %w", err)
	}
	if p.config.ChainSelector == 0 {
		return nodeID, nil
	}

	chainIDStr, err := chainsel.GetChainIDFromSelector(p.config.ChainSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID from selector %d: %w", p.config.ChainSelector, err)
	}

	chainID, ok := new(big.Int).SetString(chainIDStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to convert chain ID %s to big.Int", chainIDStr)
	}
	if chainID.Cmp(nodeID) != 0 {
		return nil, fmt.Errorf("chain ID mismatch: selector %d is chain %s, node reports %s",
			p.config.ChainSelector, chainID, nodeID,
		)
	}

	return chainID, nil
}

func dialWithRetry(ctx context.Context, rpc RPC, cfg DialConfig, lggr logger.Logger) (*ethclient.Client, error) {
	endpoint := rpc.Endpoint()

	return retry.DoWithData(func() (*ethclient.Client, error) {
		dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		client, err := ethclient.DialContext(dialCtx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", rpc.Name, err)
		}

		return client, nil
	},
		retry.Context(ctx),
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			lggr.Debugw("Retrying dial", "rpc", rpc.Name, "attempt", n+1, "err", err)
		}),
	)
}

// healthCheck performs a basic health check on the RPC client by calling eth_blockNumber.
func healthCheck(ctx context.Context, client *ethclient.Client) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, RPCDefaultHealthCheckTimeout)
	defer cancel()

	if _, err := client.BlockNumber(timeoutCtx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}
