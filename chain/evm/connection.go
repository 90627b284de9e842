package evm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UnknownExplorer is used in place of a block explorer URL when none is configured.
const UnknownExplorer = "UNKNOWN_EXPLORER"

// DefaultPollInterval is the interval at which receipts and the chain head are polled while
// waiting for a transaction. It matches the value hardcoded in go-ethereum's bind.WaitMined.
const DefaultPollInterval = 1 * time.Second

// ConnectionConfig holds the configuration to build a Connection.
type ConnectionConfig struct {
	// Required: Client is the RPC client used for reads and to watch transactions.
	Client OnchainClient
	// Optional: Selector is the chain selector of the chain, 0 when unknown.
	Selector uint64
	// Optional: Signer signs transactions. A connection without a signer is read-only.
	Signer *bind.TransactOpts
	// Optional: Overrides are applied to every transactor returned by TransactOpts.
	Overrides Overrides
	// Optional: Confirmations is the number of blocks to wait for after inclusion.
	Confirmations uint64
	// Optional: BlockExplorerURL is the base URL used to format transaction and address links.
	// Defaults to UnknownExplorer.
	BlockExplorerURL string
	// Optional: Observer receives transaction progress events. Defaults to a no-op.
	Observer Observer
	// Optional: PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration
}

// Connection is a per-chain helper bundling an RPC client, an optional signer and the
// settings used to submit and confirm transactions. It is immutable after construction and
// safe for concurrent use.
type Connection struct {
	name          string
	selector      uint64
	client        OnchainClient
	signer        *bind.TransactOpts
	overrides     Overrides
	confirmations uint64
	explorerURL   string
	observer      Observer
	pollInterval  time.Duration
}

// NewConnection builds a Connection for the named chain.
func NewConnection(name string, cfg ConnectionConfig) (*Connection, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("chain %s: client: %w", name, ErrMissingConfiguration)
	}

	c := &Connection{
		name:          name,
		selector:      cfg.Selector,
		client:        cfg.Client,
		overrides:     cfg.Overrides,
		confirmations: cfg.Confirmations,
		explorerURL:   strings.TrimRight(cfg.BlockExplorerURL, "/"),
		observer:      cfg.Observer,
		pollInterval:  cfg.PollInterval,
	}
	if cfg.Signer != nil {
		signer := *cfg.Signer
		c.signer = &signer
	}
	if c.explorerURL == "" {
		c.explorerURL = UnknownExplorer
	}
	if c.observer == nil {
		c.observer = nopObserver
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}

	return c, nil
}

// Name returns the chain name the connection was registered under.
func (c *Connection) Name() string {
	return c.name
}

// Selector returns the chain selector, or 0 when it is unknown.
func (c *Connection) Selector() uint64 {
	return c.selector
}

// Client returns the underlying RPC client.
func (c *Connection) Client() OnchainClient {
	return c.client
}

// Confirmations returns the number of blocks waited for after inclusion.
func (c *Connection) Confirmations() uint64 {
	return c.confirmations
}

// Overrides returns the transaction overrides of the connection.
func (c *Connection) Overrides() Overrides {
	return c.overrides
}

// BlockExplorerURL returns the base explorer URL, or UnknownExplorer.
func (c *Connection) BlockExplorerURL() string {
	return c.explorerURL
}

// ActiveHandle returns the signer backed handle when a signer is configured, otherwise the
// read-only client handle.
func (c *Connection) ActiveHandle() Handle {
	h := Handle{Client: c.client}
	if c.signer != nil {
		signer := *c.signer
		h.Signer = &signer
	}

	return h
}

// Address returns the signer address. The boolean is false for a read-only connection.
func (c *Connection) Address() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}

	return c.signer.From, true
}

// TxURL formats the explorer link for a transaction hash.
func (c *Connection) TxURL(hash common.Hash) string {
	return fmt.Sprintf("%s/tx/%s", c.explorerURL, hash.Hex())
}

// AddressURL formats the explorer link for the signer address.
func (c *Connection) AddressURL() (string, error) {
	addr, ok := c.Address()
	if !ok {
		return "", fmt.Errorf("chain %s: address url: %w", c.name, ErrReadOnlyConnection)
	}

	return fmt.Sprintf("%s/address/%s", c.explorerURL, addr.Hex()), nil
}

// TransactOpts returns a copy of the signer bound to ctx with the connection overrides
// applied. It is the transactor to hand to contract bindings.
func (c *Connection) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("chain %s: transact opts: %w", c.name, ErrReadOnlyConnection)
	}

	opts := *c.signer
	opts.Context = ctx
	c.overrides.apply(&opts)

	return &opts, nil
}

// SubmitAndConfirm waits for a transaction returned by a binding call to reach the
// configured confirmation depth and returns its receipt.
//
// It accepts the (tx, err) pair of the binding call directly, so a failed submission is
// returned unchanged. There is no timeout and no retry: the call blocks until the receipt is
// available at depth, the transaction reverts, or ctx is done.
func (c *Connection) SubmitAndConfirm(ctx context.Context, tx *types.Transaction, err error) (*types.Receipt, error) {
	if err != nil {
		return nil, err
	}
	if c.signer == nil {
		return nil, fmt.Errorf("chain %s: submit: %w", c.name, ErrReadOnlyConnection)
	}
	if tx == nil {
		return nil, fmt.Errorf("chain %s: tx was nil, nothing to confirm: %w", c.name, ErrTransactionFailed)
	}

	c.observer(Event{
		Kind:          EventPending,
		Chain:         c.name,
		TxHash:        tx.Hash(),
		URL:           c.TxURL(tx.Hash()),
		Confirmations: c.confirmations,
	})

	receipt, err := waitConfirmed(ctx, c.client, c.signer.From, tx, c.confirmations, c.pollInterval)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", c.name, err)
	}

	c.observer(Event{
		Kind:          EventConfirmed,
		Chain:         c.name,
		TxHash:        tx.Hash(),
		URL:           c.TxURL(tx.Hash()),
		Confirmations: c.confirmations,
		BlockNumber:   receipt.BlockNumber.Uint64(),
	})

	return receipt, nil
}
