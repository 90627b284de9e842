package deployment

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/abacus-network/abacus-deploy/contracts"
)

var (
	ErrInvalidChainSelector = errors.New("invalid chain selector")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrChainNotFound        = errors.New("chain not found")
	ErrAddressNotFound      = errors.New("address not found")
)

// TypeAndVersion describes what is deployed at an address book entry.
type TypeAndVersion struct {
	Type    contracts.ContractType `json:"Type"`
	Version semver.Version         `json:"Version"`
	Labels  LabelSet               `json:"Labels,omitempty"`
}

func (tv TypeAndVersion) String() string {
	if len(tv.Labels) == 0 {
		return fmt.Sprintf("%s %s", tv.Type, tv.Version.String())
	}

	return fmt.Sprintf("%s %s %s", tv.Type, tv.Version.String(), tv.Labels.String())
}

func (tv TypeAndVersion) Equal(other TypeAndVersion) bool {
	if tv.Type != other.Type {
		return false
	}
	if !tv.Version.Equal(&other.Version) {
		return false
	}

	return tv.Labels.Equal(other.Labels)
}

// TypeAndVersionFromString parses the form produced by String: a type, a semver version and
// optional labels, separated by whitespace.
func TypeAndVersionFromString(s string) (TypeAndVersion, error) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return TypeAndVersion{}, fmt.Errorf("invalid type and version string: %s", s)
	}
	v, err := semver.NewVersion(parts[1])
	if err != nil {
		return TypeAndVersion{}, err
	}

	return TypeAndVersion{
		Type:    contracts.ContractType(parts[0]),
		Version: *v,
		Labels:  NewLabelSet(parts[2:]...),
	}, nil
}

func MustTypeAndVersionFromString(s string) TypeAndVersion {
	tv, err := TypeAndVersionFromString(s)
	if err != nil {
		panic(err)
	}

	return tv
}

func NewTypeAndVersion(t contracts.ContractType, v semver.Version, labels ...string) TypeAndVersion {
	return TypeAndVersion{
		Type:    t,
		Version: v,
		Labels:  NewLabelSet(labels...),
	}
}

// AddressBook stores contract addresses across chains, keyed by chain selector.
// EVM addresses are always stored in EIP55 format.
type AddressBook interface {
	Save(chainSelector uint64, address string, tv TypeAndVersion) error
	Addresses() (map[uint64]map[string]TypeAndVersion, error)
	AddressesForChain(chain uint64) (map[string]TypeAndVersion, error)
	// Allows for merging address books (e.g. new deployments with existing ones)
	Merge(other AddressBook) error
	Remove(ab AddressBook) error
}

var _ AddressBook = (*AddressBookMap)(nil)

// AddressBookMap is an in memory AddressBook. Chains and addresses are kept sorted.
type AddressBookMap struct {
	addressesByChain *treemap.Map // map[uint64]*treemap.Map[string]TypeAndVersion
	mtx              sync.RWMutex
}

// NewMemoryAddressBook returns an empty AddressBookMap.
func NewMemoryAddressBook() *AddressBookMap {
	return &AddressBookMap{
		addressesByChain: treemap.NewWith(utils.UInt64Comparator),
	}
}

// NewMemoryAddressBookFromMap returns an AddressBookMap holding the given addresses. Entries are
// validated the same way Save validates them.
func NewMemoryAddressBookFromMap(addressesByChain map[uint64]map[string]TypeAndVersion) (*AddressBookMap, error) {
	ab := NewMemoryAddressBook()
	for chainSelector, addresses := range addressesByChain {
		for address, tv := range addresses {
			if err := ab.save(chainSelector, address, tv); err != nil {
				return nil, err
			}
		}
	}

	return ab, nil
}

func normalizeAddress(chainSelector uint64, address string) (string, error) {
	family, err := chainsel.GetSelectorFamily(chainSelector)
	if err != nil {
		return "", fmt.Errorf("chain selector %d: %w", chainSelector, ErrInvalidChainSelector)
	}
	if family != chainsel.FamilyEVM {
		return "", fmt.Errorf("chain selector %d is a %s chain, only EVM chains are supported: %w",
			chainSelector, family, ErrInvalidChainSelector,
		)
	}
	if address == "" || address == (common.Address{}).Hex() {
		return "", fmt.Errorf("address cannot be empty: %w", ErrInvalidAddress)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("address %s is not a valid Ethereum address: %w", address, ErrInvalidAddress)
	}

	return common.HexToAddress(address).Hex(), nil
}

// save stores an address for a chain selector. It errors if the address is already present.
func (m *AddressBookMap) save(chainSelector uint64, address string, tv TypeAndVersion) error {
	address, err := normalizeAddress(chainSelector, address)
	if err != nil {
		return err
	}

	if tv.Type == "" {
		return errors.New("type cannot be empty")
	}

	chainAddresses, exists := m.addressesByChain.Get(chainSelector)
	if !exists {
		chainAddresses = treemap.NewWithStringComparator()
		m.addressesByChain.Put(chainSelector, chainAddresses)
	}

	chainMap := chainAddresses.(*treemap.Map)
	if _, exists := chainMap.Get(address); exists {
		return fmt.Errorf("address %s already exists for chain %d", address, chainSelector)
	}
	chainMap.Put(address, TypeAndVersion{Type: tv.Type, Version: tv.Version, Labels: tv.Labels.Clone()})

	return nil
}

// Save stores an address for a chain selector. It errors if the address is already present.
func (m *AddressBookMap) Save(chainSelector uint64, address string, tv TypeAndVersion) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.save(chainSelector, address, tv)
}

func (m *AddressBookMap) Addresses() (map[uint64]map[string]TypeAndVersion, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	result := make(map[uint64]map[string]TypeAndVersion)

	it := m.addressesByChain.Iterator()
	for it.Next() {
		result[it.Key().(uint64)] = chainEntries(it.Value().(*treemap.Map))
	}

	return result, nil
}

func (m *AddressBookMap) AddressesForChain(chainSelector uint64) (map[string]TypeAndVersion, error) {
	if _, err := chainsel.GetChainIDFromSelector(chainSelector); err != nil {
		return nil, fmt.Errorf("chain selector %d: %w", chainSelector, ErrInvalidChainSelector)
	}

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	chainAddresses, exists := m.addressesByChain.Get(chainSelector)
	if !exists {
		return nil, fmt.Errorf("chain selector %d: %w", chainSelector, ErrChainNotFound)
	}

	return chainEntries(chainAddresses.(*treemap.Map)), nil
}

func chainEntries(chainMap *treemap.Map) map[string]TypeAndVersion {
	result := make(map[string]TypeAndVersion, chainMap.Size())

	it := chainMap.Iterator()
	for it.Next() {
		tv := it.Value().(TypeAndVersion)
		tv.Labels = tv.Labels.Clone()
		result[it.Key().(string)] = tv
	}

	return result
}

// Merge merges the addresses from another address book into this one.
// It errors on any existing addresses.
func (m *AddressBookMap) Merge(ab AddressBook) error {
	addresses, err := ab.Addresses()
	if err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	for chainSelector, chainAddresses := range addresses {
		for address, tv := range chainAddresses {
			if err := m.save(chainSelector, address, tv); err != nil {
				return err
			}
		}
	}

	return nil
}

// Remove removes the addresses of ab from this address book. Nothing is removed unless every
// address of ab is present.
func (m *AddressBookMap) Remove(ab AddressBook) error {
	addresses, err := ab.Addresses()
	if err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	for chainSelector, chainAddresses := range addresses {
		chainMap, exists := m.addressesByChain.Get(chainSelector)
		if !exists {
			return fmt.Errorf("chain selector %d: %w", chainSelector, ErrChainNotFound)
		}

		treeMap := chainMap.(*treemap.Map)
		for address := range chainAddresses {
			if _, exists := treeMap.Get(address); !exists {
				return fmt.Errorf("address %s on chain %d: %w", address, chainSelector, ErrAddressNotFound)
			}
		}
	}

	for chainSelector, chainAddresses := range addresses {
		chainMap, _ := m.addressesByChain.Get(chainSelector)
		treeMap := chainMap.(*treemap.Map)
		for address := range chainAddresses {
			treeMap.Remove(address)
		}
	}

	return nil
}

// SearchAddressBook returns the lowest address on chain whose entry has the given type and
// carries every given label.
func SearchAddressBook(ab AddressBook, chain uint64, typ contracts.ContractType, labels ...string) (string, error) {
	matches, err := FilterAddressBook(ab, chain, typ, labels...)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s %v on chain %d: %w", typ, labels, chain, ErrAddressNotFound)
	}

	return matches[0], nil
}

// FilterAddressBook returns the sorted addresses on chain whose entry has the given type and
// carries every given label.
func FilterAddressBook(ab AddressBook, chain uint64, typ contracts.ContractType, labels ...string) ([]string, error) {
	addrs, err := ab.AddressesForChain(chain)
	if err != nil {
		return nil, err
	}

	var matches []string
	for addr, tv := range addrs {
		if tv.Type == typ && tv.Labels.Contains(labels...) {
			matches = append(matches, addr)
		}
	}
	slices.Sort(matches)

	return matches, nil
}

// AddressBookContains reports whether address is stored for chain.
func AddressBookContains(ab AddressBook, chain uint64, address string) (bool, error) {
	addrs, err := ab.AddressesForChain(chain)
	if err != nil {
		return false, err
	}

	normalized, err := normalizeAddress(chain, address)
	if err != nil {
		return false, err
	}
	_, ok := addrs[normalized]

	return ok, nil
}
