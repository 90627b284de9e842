package contracts

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContractType names a core contract.
type ContractType string

const (
	UpgradeBeaconControllerType ContractType = "UpgradeBeaconController"
	XAppConnectionManagerType   ContractType = "XAppConnectionManager"
	UpdaterManagerType          ContractType = "UpdaterManager"
	GovernanceRouterType        ContractType = "GovernanceRouter"
	HomeType                    ContractType = "Home"
	ReplicaType                 ContractType = "Replica"
	UpgradeBeaconType           ContractType = "UpgradeBeacon"
)

// String returns the contract type name.
func (t ContractType) String() string {
	return string(t)
}

// ErrUnknownContractType is returned when an ABI is requested for a type this package does not
// know.
var ErrUnknownContractType = errors.New("unknown contract type")

// Handle is implemented by every typed contract binding.
type Handle interface {
	Address() common.Address
	Type() ContractType
}

// Contract is a contract of a known type bound at an address. Binding never touches the
// network.
type Contract struct {
	address common.Address
	typ     ContractType
	backend bind.ContractBackend
	bound   *bind.BoundContract
}

var _ Handle = (*Contract)(nil)

func newContract(typ ContractType, address common.Address, backend bind.ContractBackend) *Contract {
	return &Contract{
		address: address,
		typ:     typ,
		backend: backend,
		bound:   bind.NewBoundContract(address, parsedABIs[typ], backend, backend, backend),
	}
}

// Address returns the address the contract is bound to.
func (c *Contract) Address() common.Address {
	return c.address
}

// Type returns the contract type.
func (c *Contract) Type() ContractType {
	return c.typ
}

// Backend returns the backend calls are sent through.
func (c *Contract) Backend() bind.ContractBackend {
	return c.backend
}

func (c *Contract) transact(opts *bind.TransactOpts, method string, args ...any) (*types.Transaction, error) {
	tx, err := c.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s at %s: %w", c.typ, method, c.address, err)
	}

	return tx, nil
}

// call performs a read-only call which returns a single value and converts it to T.
func call[T any](ctx context.Context, c *Contract, method string, args ...any) (T, error) {
	var (
		zero T
		out  []any
	)

	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return zero, fmt.Errorf("%s.%s at %s: %w", c.typ, method, c.address, err)
	}
	if len(out) == 0 {
		return zero, fmt.Errorf("%s.%s at %s: empty result", c.typ, method, c.address)
	}

	return *abi.ConvertType(out[0], new(T)).(*T), nil
}

// Ownable exposes the methods of an Ownable contract.
type Ownable struct {
	*Contract
}

// Owner returns the current owner.
func (o Ownable) Owner(ctx context.Context) (common.Address, error) {
	return call[common.Address](ctx, o.Contract, "owner")
}

// TransferOwnership transfers ownership to newOwner.
func (o Ownable) TransferOwnership(opts *bind.TransactOpts, newOwner common.Address) (*types.Transaction, error) {
	return o.transact(opts, "transferOwnership", newOwner)
}
