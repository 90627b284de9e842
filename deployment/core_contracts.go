package deployment

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/abacus-network/abacus-deploy/contracts"
)

// Address book labels of the beacon proxy roles.
const (
	LabelImplementation = "implementation"
	LabelProxy          = "proxy"
	LabelBeacon         = "beacon"

	domainLabelPrefix = "domain:"
)

// DomainLabel returns the address book label of a replica's remote domain.
func DomainLabel(domain uint32) string {
	return domainLabelPrefix + strconv.FormatUint(uint64(domain), 10)
}

func parseDomainLabel(label string) (uint32, bool) {
	raw, ok := strings.CutPrefix(label, domainLabelPrefix)
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}

	return uint32(d), true
}

// CoreContracts is the full set of core contract handles of one chain. It is only ever built
// complete, by CoreContractsFromAddresses or CoreContractsFromAddressBook.
type CoreContracts struct {
	upgradeBeaconController *contracts.UpgradeBeaconController
	xAppConnectionManager   *contracts.XAppConnectionManager
	updaterManager          *contracts.UpdaterManager
	governanceRouter        BeaconProxy[*contracts.GovernanceRouter]
	home                    BeaconProxy[*contracts.Home]
	replicas                ReplicaSet
}

// CoreContractsFromAddresses binds every contract of the record to backend. The whole record is
// checked first: a missing address fails with ErrMissingConfiguration and a malformed one with
// ErrInvalidAddress, before any handle is built.
func CoreContractsFromAddresses(addresses CoreContractAddresses, backend bind.ContractBackend) (*CoreContracts, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend: %w", ErrMissingConfiguration)
	}

	parsed, err := addresses.parse()
	if err != nil {
		return nil, fmt.Errorf("invalid core contract addresses: %w", err)
	}

	replicas := make(map[uint32]ReplicaProxy, len(parsed.replicas))
	for domain, triple := range parsed.replicas {
		replicas[domain] = bindBeaconProxy[*contracts.Replica](triple, backend, contracts.NewReplica)
	}

	return &CoreContracts{
		upgradeBeaconController: contracts.NewUpgradeBeaconController(parsed.upgradeBeaconController, backend),
		xAppConnectionManager:   contracts.NewXAppConnectionManager(parsed.xAppConnectionManager, backend),
		updaterManager:          contracts.NewUpdaterManager(parsed.updaterManager, backend),
		governanceRouter: bindBeaconProxy[*contracts.GovernanceRouter](
			parsed.governanceRouter, backend, contracts.NewGovernanceRouter,
		),
		home:     bindBeaconProxy[*contracts.Home](parsed.home, backend, contracts.NewHome),
		replicas: NewReplicaSet(replicas),
	}, nil
}

// UpgradeBeaconController returns the controller which owns every upgrade beacon.
func (c *CoreContracts) UpgradeBeaconController() *contracts.UpgradeBeaconController {
	return c.upgradeBeaconController
}

// XAppConnectionManager returns the connection manager of the chain's xApps.
func (c *CoreContracts) XAppConnectionManager() *contracts.XAppConnectionManager {
	return c.xAppConnectionManager
}

// UpdaterManager returns the updater manager of the home.
func (c *CoreContracts) UpdaterManager() *contracts.UpdaterManager {
	return c.updaterManager
}

// GovernanceRouter returns the beacon proxied governance router.
func (c *CoreContracts) GovernanceRouter() BeaconProxy[*contracts.GovernanceRouter] {
	return c.governanceRouter
}

// Home returns the beacon proxied home.
func (c *CoreContracts) Home() BeaconProxy[*contracts.Home] {
	return c.home
}

// Replicas returns the replicas keyed by remote domain. It is empty, never nil, when the
// chain has no replicas.
func (c *CoreContracts) Replicas() ReplicaSet {
	return c.replicas
}

// ToAddresses returns the address record of every held contract. It is the inverse of
// CoreContractsFromAddresses, with addresses in EIP55 form.
func (c *CoreContracts) ToAddresses() CoreContractAddresses {
	out := CoreContractAddresses{
		UpgradeBeaconController: c.upgradeBeaconController.Address().Hex(),
		XAppConnectionManager:   c.xAppConnectionManager.Address().Hex(),
		UpdaterManager:          c.updaterManager.Address().Hex(),
		GovernanceRouter:        c.governanceRouter.ToAddresses(),
		Home:                    c.home.ToAddresses(),
		Replicas:                c.replicas.ToAddresses(),
	}

	return out
}

// addressRecorder is implemented by every BeaconProxy instantiation.
type addressRecorder interface {
	ToAddresses() ProxiedAddress
}

// addressBookEntries collects the address book entries of every contract. Replicas share
// their implementation and beacon, so labels of an address seen twice are merged.
func (c *CoreContracts) addressBookEntries(version semver.Version) (map[common.Address]TypeAndVersion, error) {
	entries := make(map[common.Address]TypeAndVersion)
	add := func(addr common.Address, typ contracts.ContractType, labels ...string) error {
		tv, ok := entries[addr]
		if !ok {
			entries[addr] = NewTypeAndVersion(typ, version, labels...)
			return nil
		}
		if tv.Type != typ {
			return fmt.Errorf("address %s is used as both %s and %s", addr, tv.Type, typ)
		}
		tv.Labels.Add(labels...)

		return nil
	}
	addProxy := func(b addressRecorder, typ contracts.ContractType, extra ...string) error {
		p := b.ToAddresses()

		return errors.Join(
			add(common.HexToAddress(p.Implementation), typ, withLabels(extra, LabelImplementation)...),
			add(common.HexToAddress(p.Proxy), typ, withLabels(extra, LabelProxy)...),
			add(common.HexToAddress(p.Beacon), contracts.UpgradeBeaconType, withLabels(extra, LabelBeacon, typ.String())...),
		)
	}

	errs := []error{
		add(c.upgradeBeaconController.Address(), contracts.UpgradeBeaconControllerType),
		add(c.xAppConnectionManager.Address(), contracts.XAppConnectionManagerType),
		add(c.updaterManager.Address(), contracts.UpdaterManagerType),
		addProxy(c.governanceRouter, contracts.GovernanceRouterType),
		addProxy(c.home, contracts.HomeType),
	}
	for domain, r := range c.replicas.All() {
		errs = append(errs, addProxy(r, contracts.ReplicaType, DomainLabel(domain)))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return entries, nil
}

func withLabels(extra []string, labels ...string) []string {
	return append(labels, extra...)
}

// SaveToAddressBook records every contract in ab under chainSelector. Beacon proxy members are
// labelled with their role, replicas with their remote domain. Nothing is written when any
// address is already present in ab.
func (c *CoreContracts) SaveToAddressBook(ab AddressBook, chainSelector uint64, version semver.Version) error {
	entries, err := c.addressBookEntries(version)
	if err != nil {
		return err
	}

	book := NewMemoryAddressBook()
	for _, addr := range slices.SortedFunc(maps.Keys(entries), func(a, b common.Address) int {
		return a.Cmp(b)
	}) {
		if err := book.Save(chainSelector, addr.Hex(), entries[addr]); err != nil {
			return err
		}
	}

	existing, err := ab.AddressesForChain(chainSelector)
	if err != nil && !errors.Is(err, ErrChainNotFound) {
		return err
	}
	for addr := range entries {
		if _, ok := existing[addr.Hex()]; ok {
			return fmt.Errorf("address %s already exists for chain %d", addr.Hex(), chainSelector)
		}
	}

	return ab.Merge(book)
}

// CoreContractsFromAddressBook rebuilds the core contracts of chainSelector from entries written
// by SaveToAddressBook. Entries which cannot be found are reported as missing configuration.
func CoreContractsFromAddressBook(ab AddressBook, chainSelector uint64, backend bind.ContractBackend) (*CoreContracts, error) {
	addrs, err := ab.AddressesForChain(chainSelector)
	if err != nil {
		return nil, err
	}

	// A failed search leaves the field empty so that the record check reports it.
	search := func(typ contracts.ContractType, labels ...string) string {
		addr, _ := SearchAddressBook(ab, chainSelector, typ, labels...)
		return addr
	}
	searchProxy := func(typ contracts.ContractType, extra ...string) ProxiedAddress {
		return ProxiedAddress{
			Implementation: search(typ, withLabels(extra, LabelImplementation)...),
			Proxy:          search(typ, withLabels(extra, LabelProxy)...),
			Beacon:         search(contracts.UpgradeBeaconType, withLabels(extra, LabelBeacon, typ.String())...),
		}
	}

	record := CoreContractAddresses{
		UpgradeBeaconController: search(contracts.UpgradeBeaconControllerType),
		XAppConnectionManager:   search(contracts.XAppConnectionManagerType),
		UpdaterManager:          search(contracts.UpdaterManagerType),
		GovernanceRouter:        searchProxy(contracts.GovernanceRouterType),
		Home:                    searchProxy(contracts.HomeType),
		Replicas:                make(map[uint32]ProxiedAddress),
	}

	for _, tv := range addrs {
		if tv.Type != contracts.ReplicaType || !tv.Labels.Contains(LabelProxy) {
			continue
		}
		for label := range tv.Labels {
			domain, ok := parseDomainLabel(label)
			if !ok {
				continue
			}
			record.Replicas[domain] = searchProxy(contracts.ReplicaType, DomainLabel(domain))
		}
	}

	return CoreContractsFromAddresses(record, backend)
}
