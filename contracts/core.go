package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UpgradeBeaconController owns the upgrade beacons and is the only account allowed to change
// their implementation.
type UpgradeBeaconController struct {
	Ownable
}

// NewUpgradeBeaconController binds an UpgradeBeaconController at address.
func NewUpgradeBeaconController(address common.Address, backend bind.ContractBackend) *UpgradeBeaconController {
	return &UpgradeBeaconController{Ownable{newContract(UpgradeBeaconControllerType, address, backend)}}
}

// Upgrade points beacon at a new implementation.
func (c *UpgradeBeaconController) Upgrade(
	opts *bind.TransactOpts, beacon, implementation common.Address,
) (*types.Transaction, error) {
	return c.transact(opts, "upgrade", beacon, implementation)
}

// XAppConnectionManager tracks the home and the enrolled replicas of a chain.
type XAppConnectionManager struct {
	Ownable
}

// NewXAppConnectionManager binds an XAppConnectionManager at address.
func NewXAppConnectionManager(address common.Address, backend bind.ContractBackend) *XAppConnectionManager {
	return &XAppConnectionManager{Ownable{newContract(XAppConnectionManagerType, address, backend)}}
}

// LocalDomain returns the domain of the chain the manager lives on.
func (c *XAppConnectionManager) LocalDomain(ctx context.Context) (uint32, error) {
	return call[uint32](ctx, c.Contract, "localDomain")
}

// Home returns the home contract the manager points at.
func (c *XAppConnectionManager) Home(ctx context.Context) (common.Address, error) {
	return call[common.Address](ctx, c.Contract, "home")
}

// DomainToReplica returns the replica enrolled for domain, or the zero address.
func (c *XAppConnectionManager) DomainToReplica(ctx context.Context, domain uint32) (common.Address, error) {
	return call[common.Address](ctx, c.Contract, "domainToReplica", domain)
}

// ReplicaToDomain returns the domain a replica is enrolled for, or 0.
func (c *XAppConnectionManager) ReplicaToDomain(ctx context.Context, replica common.Address) (uint32, error) {
	return call[uint32](ctx, c.Contract, "replicaToDomain", replica)
}

// EnrollReplica enrolls replica for domain.
func (c *XAppConnectionManager) EnrollReplica(
	opts *bind.TransactOpts, replica common.Address, domain uint32,
) (*types.Transaction, error) {
	return c.transact(opts, "enrollReplica", replica, domain)
}

// UpdaterManager stores the updater of the home.
type UpdaterManager struct {
	Ownable
}

// NewUpdaterManager binds an UpdaterManager at address.
func NewUpdaterManager(address common.Address, backend bind.ContractBackend) *UpdaterManager {
	return &UpdaterManager{Ownable{newContract(UpdaterManagerType, address, backend)}}
}

// Updater returns the current updater.
func (c *UpdaterManager) Updater(ctx context.Context) (common.Address, error) {
	return call[common.Address](ctx, c.Contract, "updater")
}

// SetUpdater replaces the updater.
func (c *UpdaterManager) SetUpdater(opts *bind.TransactOpts, updater common.Address) (*types.Transaction, error) {
	return c.transact(opts, "setUpdater", updater)
}

// GovernanceRouter relays governance messages between domains.
type GovernanceRouter struct {
	*Contract
}

// NewGovernanceRouter binds a GovernanceRouter at address.
func NewGovernanceRouter(address common.Address, backend bind.ContractBackend) *GovernanceRouter {
	return &GovernanceRouter{newContract(GovernanceRouterType, address, backend)}
}

// LocalDomain returns the domain of the chain the router lives on.
func (c *GovernanceRouter) LocalDomain(ctx context.Context) (uint32, error) {
	return call[uint32](ctx, c.Contract, "localDomain")
}

// Governor returns the governor address. It is zero on non governor domains.
func (c *GovernanceRouter) Governor(ctx context.Context) (common.Address, error) {
	return call[common.Address](ctx, c.Contract, "governor")
}

// GovernorDomain returns the domain the governor lives on.
func (c *GovernanceRouter) GovernorDomain(ctx context.Context) (uint32, error) {
	return call[uint32](ctx, c.Contract, "governorDomain")
}

// Home accepts outbound messages of its chain.
type Home struct {
	Ownable
}

// NewHome binds a Home at address.
func NewHome(address common.Address, backend bind.ContractBackend) *Home {
	return &Home{Ownable{newContract(HomeType, address, backend)}}
}

// LocalDomain returns the domain of the home.
func (c *Home) LocalDomain(ctx context.Context) (uint32, error) {
	return call[uint32](ctx, c.Contract, "localDomain")
}

// Updater returns the updater signing home updates.
func (c *Home) Updater(ctx context.Context) (common.Address, error) {
	return call[common.Address](ctx, c.Contract, "updater")
}

// Replica receives messages from one remote domain.
type Replica struct {
	Ownable
}

// NewReplica binds a Replica at address.
func NewReplica(address common.Address, backend bind.ContractBackend) *Replica {
	return &Replica{Ownable{newContract(ReplicaType, address, backend)}}
}

// LocalDomain returns the domain the replica lives on.
func (c *Replica) LocalDomain(ctx context.Context) (uint32, error) {
	return call[uint32](ctx, c.Contract, "localDomain")
}

// RemoteDomain returns the domain the replica mirrors.
func (c *Replica) RemoteDomain(ctx context.Context) (uint32, error) {
	return call[uint32](ctx, c.Contract, "remoteDomain")
}

// Updater returns the updater of the remote home.
func (c *Replica) Updater(ctx context.Context) (common.Address, error) {
	return call[common.Address](ctx, c.Contract, "updater")
}

// UpgradeBeacon stores the implementation address used by its proxies.
type UpgradeBeacon struct {
	*Contract
}

// NewUpgradeBeacon binds an UpgradeBeacon at address.
func NewUpgradeBeacon(address common.Address, backend bind.ContractBackend) *UpgradeBeacon {
	return &UpgradeBeacon{newContract(UpgradeBeaconType, address, backend)}
}

// Implementation returns the implementation the beacon currently points at. The beacon has no
// ABI: any call not made by its controller returns the implementation as a single word.
func (c *UpgradeBeacon) Implementation(ctx context.Context) (common.Address, error) {
	to := c.address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s at %s: %w", c.typ, c.address, err)
	}
	if len(out) != common.HashLength {
		return common.Address{}, fmt.Errorf("%s at %s: unexpected result length %d", c.typ, c.address, len(out))
	}

	return common.BytesToAddress(out), nil
}
