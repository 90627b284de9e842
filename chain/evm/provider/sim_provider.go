package provider

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"

	"github.com/abacus-network/abacus-deploy/chain"
	"github.com/abacus-network/abacus-deploy/chain/evm"
)

var (
	// simChainID is the chain ID for the simulated EVM chain. This is always set to 1337 across
	// all instances of EVM Simulated Chains.
	simChainID = params.AllDevChainProtocolChanges.ChainID
	// prefundAmountWei is the amount of wei the deployer account is prefunded with
	// (1,000,000 Ether).
	prefundAmountWei = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether))
)

// SimConnectionProviderConfig holds the configuration to initialize the SimConnectionProvider.
type SimConnectionProviderConfig struct {
	// Optional: BlockTime configures the time between blocks being committed. By default, this is
	// set to 0s, meaning that blocks are not mined automatically and you must call Commit to
	// produce a new block.
	BlockTime time.Duration
	// Optional: ChainSelector is reported by the connection. The simulated chain always has
	// chain ID 1337 whatever the selector.
	ChainSelector uint64
	// Optional: ReadOnly omits the deployer signer from the connection. The deployer account is
	// still prefunded.
	ReadOnly bool
	// Optional: Confirmations is the number of blocks to wait for after inclusion.
	Confirmations uint64
	// Optional: BlockExplorerURL is the base URL for explorer links.
	BlockExplorerURL string
	// Optional: Observer receives transaction events.
	Observer evm.Observer
	// Optional: PollInterval overrides evm.DefaultPollInterval.
	PollInterval time.Duration
}

var _ chain.Provider = (*SimConnectionProvider)(nil)

// SimConnectionProvider manages a simulated EVM chain backed by go-ethereum's in memory
// simulated backend.
type SimConnectionProvider struct {
	chainName string
	config    SimConnectionProviderConfig

	client   *SimClient
	backend  *simulated.Backend
	deployer *bind.TransactOpts
	stop     context.CancelFunc

	connection *evm.ConnectionConfig
}

// NewSimConnectionProvider creates a new SimConnectionProvider for the named chain.
func NewSimConnectionProvider(chainName string, config SimConnectionProviderConfig) *SimConnectionProvider {
	return &SimConnectionProvider{
		chainName: chainName,
		config:    config,
	}
}

// Initialize starts the simulated chain with a prefunded deployer account and returns the
// connection config. Auto mining, when configured, stops when ctx is done or on Close.
func (p *SimConnectionProvider) Initialize(ctx context.Context) (evm.ConnectionConfig, error) {
	if p.connection != nil {
		return *p.connection, nil // Already initialized
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return evm.ConnectionConfig{}, fmt.Errorf("failed to generate deployer key: %w", err)
	}

	deployer, err := bind.NewKeyedTransactorWithChainID(key, simChainID)
	if err != nil {
		return evm.ConnectionConfig{}, fmt.Errorf("failed to create deployer transactor: %w", err)
	}

	genesis := types.GenesisAlloc{
		deployer.From: {Balance: prefundAmountWei},
	}

	p.backend = simulated.NewBackend(genesis, simulated.WithBlockGasLimit(50_000_000))
	p.client = NewSimClient(p.backend)
	p.client.Commit() // Commit the genesis block
	p.deployer = deployer

	mineCtx, cancel := context.WithCancel(ctx)
	p.stop = cancel
	if p.config.BlockTime > 0 {
		go autoMine(mineCtx, p.client, p.config.BlockTime)
	}

	cfg := evm.ConnectionConfig{
		Client:           p.client,
		Selector:         p.config.ChainSelector,
		Confirmations:    p.config.Confirmations,
		BlockExplorerURL: p.config.BlockExplorerURL,
		Observer:         p.config.Observer,
		PollInterval:     p.config.PollInterval,
	}
	if !p.config.ReadOnly {
		cfg.Signer = deployer
	}
	p.connection = &cfg

	return cfg, nil
}

// Name returns the name of the SimConnectionProvider.
func (*SimConnectionProvider) Name() string {
	return "Simulated EVM Connection Provider"
}

// ChainName returns the chain name the provider builds a connection for.
func (p *SimConnectionProvider) ChainName() string {
	return p.chainName
}

// Client returns the simulated client. You must call Initialize before using this method.
func (p *SimConnectionProvider) Client() *SimClient {
	return p.client
}

// Deployer returns the prefunded deployer transactor. You must call Initialize before using
// this method.
func (p *SimConnectionProvider) Deployer() *bind.TransactOpts {
	return p.deployer
}

// Close stops auto mining and shuts the simulated backend down.
func (p *SimConnectionProvider) Close() error {
	if p.stop != nil {
		p.stop()
	}
	if p.backend == nil {
		return nil
	}

	return p.backend.Close()
}

// autoMine commits a new block every blockTime until ctx is done.
func autoMine(ctx context.Context, client *SimClient, blockTime time.Duration) {
	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			client.Commit()
		case <-ctx.Done():
			return
		}
	}
}
