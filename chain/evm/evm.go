package evm

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

var (
	// ErrMissingConfiguration is returned when a connection is built without a required field.
	ErrMissingConfiguration = errors.New("missing configuration")
	// ErrReadOnlyConnection is returned when a write or signing operation is attempted on a
	// connection that has no signer.
	ErrReadOnlyConnection = errors.New("connection is read-only")
	// ErrTransactionFailed is returned when a submitted transaction could not be confirmed or
	// reverted on chain.
	ErrTransactionFailed = errors.New("transaction failed")
)

// OnchainClient is an EVM chain client.
// For EVM specifically we can use existing geth interface to abstract chain clients. Head
// tracking is required to wait for confirmation depth.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Handle is the object contract calls are routed through. Signer is nil when the connection
// is read-only.
type Handle struct {
	Client OnchainClient
	Signer *bind.TransactOpts
}

// ReadOnly reports whether the handle can only be used for calls.
func (h Handle) ReadOnly() bool {
	return h.Signer == nil
}
