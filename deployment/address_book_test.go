package deployment

import (
	"strings"
	"sync"
	"testing"

	"github.com/Masterminds/semver/v3"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abacus-network/abacus-deploy/contracts"
)

var (
	version1_0_0 = *semver.MustParse("1.0.0")
	version1_1_0 = *semver.MustParse("1.1.0")
)

func TestTypeAndVersion_String(t *testing.T) {
	t.Parallel()

	tv := NewTypeAndVersion(contracts.HomeType, version1_0_0)
	assert.Equal(t, "Home 1.0.0", tv.String())

	tv = NewTypeAndVersion(contracts.UpgradeBeaconType, version1_0_0, LabelBeacon, "Home")
	assert.Equal(t, "UpgradeBeacon 1.0.0 Home beacon", tv.String())

	parsed, err := TypeAndVersionFromString(tv.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(tv))
}

func TestTypeAndVersionFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    TypeAndVersion
		wantErr string
	}{
		{
			name: "type and version",
			give: "Replica 1.1.0",
			want: NewTypeAndVersion(contracts.ReplicaType, version1_1_0),
		},
		{
			name: "with labels",
			give: "Replica 1.1.0 proxy domain:2000",
			want: NewTypeAndVersion(contracts.ReplicaType, version1_1_0, LabelProxy, DomainLabel(2000)),
		},
		{
			name:    "missing version",
			give:    "Replica",
			wantErr: "invalid type and version string: Replica",
		},
		{
			name:    "bad version",
			give:    "Replica one",
			wantErr: "Invalid Semantic Version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := TypeAndVersionFromString(tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}

	assert.Panics(t, func() { MustTypeAndVersionFromString("bad") })
}

func TestAddressBook_Save(t *testing.T) {
	t.Parallel()

	var (
		mainnet = chainsel.ETHEREUM_MAINNET.Selector
		addr    = testAddr("home")
		tv      = NewTypeAndVersion(contracts.HomeType, version1_0_0, LabelProxy)
	)

	tests := []struct {
		name     string
		selector uint64
		address  string
		tv       TypeAndVersion
		wantErr  error
		wantMsg  string
	}{
		{
			name:     "unknown chain selector",
			selector: 1,
			address:  addr,
			tv:       tv,
			wantErr:  ErrInvalidChainSelector,
		},
		{
			name:     "non EVM chain selector",
			selector: chainsel.SOLANA_MAINNET.Selector,
			address:  addr,
			tv:       tv,
			wantErr:  ErrInvalidChainSelector,
		},
		{
			name:     "empty address",
			selector: mainnet,
			address:  "",
			tv:       tv,
			wantErr:  ErrInvalidAddress,
		},
		{
			name:     "zero address",
			selector: mainnet,
			address:  "0x0000000000000000000000000000000000000000",
			tv:       tv,
			wantErr:  ErrInvalidAddress,
		},
		{
			name:     "malformed address",
			selector: mainnet,
			address:  "0x1234",
			tv:       tv,
			wantErr:  ErrInvalidAddress,
		},
		{
			name:     "empty type",
			selector: mainnet,
			address:  addr,
			tv:       TypeAndVersion{Version: version1_0_0},
			wantMsg:  "type cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ab := NewMemoryAddressBook()
			err := ab.Save(tt.selector, tt.address, tt.tv)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				require.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

func TestAddressBook_SaveNormalizesAddresses(t *testing.T) {
	t.Parallel()

	var (
		mainnet = chainsel.ETHEREUM_MAINNET.Selector
		addr    = testAddr("home")
		tv      = NewTypeAndVersion(contracts.HomeType, version1_0_0)
	)

	ab := NewMemoryAddressBook()
	require.NoError(t, ab.Save(mainnet, strings.ToLower(addr), tv))

	got, err := ab.AddressesForChain(mainnet)
	require.NoError(t, err)
	require.Contains(t, got, addr)
	assert.True(t, got[addr].Equal(tv))

	// The same address in another case is a duplicate.
	err = ab.Save(mainnet, "0x"+strings.ToUpper(addr[2:]), tv)
	require.ErrorContains(t, err, "already exists")

	ok, err := AddressBookContains(ab, mainnet, strings.ToLower(addr))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AddressBookContains(ab, mainnet, testAddr("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddressBook_AddressesForChain(t *testing.T) {
	t.Parallel()

	ab := NewMemoryAddressBook()

	_, err := ab.AddressesForChain(1)
	require.ErrorIs(t, err, ErrInvalidChainSelector)

	_, err = ab.AddressesForChain(chainsel.ETHEREUM_MAINNET.Selector)
	require.ErrorIs(t, err, ErrChainNotFound)
}

func TestAddressBook_ReturnsCopies(t *testing.T) {
	t.Parallel()

	mainnet := chainsel.ETHEREUM_MAINNET.Selector
	addr := testAddr("home")

	ab := NewMemoryAddressBook()
	require.NoError(t, ab.Save(mainnet, addr, NewTypeAndVersion(contracts.HomeType, version1_0_0, LabelProxy)))

	got, err := ab.AddressesForChain(mainnet)
	require.NoError(t, err)
	got[addr].Labels.Add("mutated")

	again, err := ab.AddressesForChain(mainnet)
	require.NoError(t, err)
	assert.False(t, again[addr].Labels.Contains("mutated"))
}

func TestAddressBook_MergeAndRemove(t *testing.T) {
	t.Parallel()

	var (
		mainnet = chainsel.ETHEREUM_MAINNET.Selector
		sepolia = chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector
		home    = testAddr("home")
		replica = testAddr("replica")
	)

	a, err := NewMemoryAddressBookFromMap(map[uint64]map[string]TypeAndVersion{
		mainnet: {home: NewTypeAndVersion(contracts.HomeType, version1_0_0)},
	})
	require.NoError(t, err)

	b, err := NewMemoryAddressBookFromMap(map[uint64]map[string]TypeAndVersion{
		sepolia: {replica: NewTypeAndVersion(contracts.ReplicaType, version1_0_0, DomainLabel(1000))},
	})
	require.NoError(t, err)

	require.NoError(t, a.Merge(b))
	all, err := a.Addresses()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all[sepolia], replica)

	// Merging the same entries again collides.
	require.ErrorContains(t, a.Merge(b), "already exists")

	// Nothing is removed when one entry is absent.
	c, err := NewMemoryAddressBookFromMap(map[uint64]map[string]TypeAndVersion{
		mainnet: {
			home:              NewTypeAndVersion(contracts.HomeType, version1_0_0),
			testAddr("other"): NewTypeAndVersion(contracts.HomeType, version1_0_0),
		},
	})
	require.NoError(t, err)
	require.ErrorIs(t, a.Remove(c), ErrAddressNotFound)
	ok, err := AddressBookContains(a, mainnet, home)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Remove(b))
	got, err := a.AddressesForChain(sepolia)
	require.NoError(t, err)
	assert.Empty(t, got)

	unknown, err := NewMemoryAddressBookFromMap(map[uint64]map[string]TypeAndVersion{
		chainsel.TEST_1000.Selector: {home: NewTypeAndVersion(contracts.HomeType, version1_0_0)},
	})
	require.NoError(t, err)
	require.ErrorIs(t, a.Remove(unknown), ErrChainNotFound)
}

func TestNewMemoryAddressBookFromMap_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryAddressBookFromMap(map[uint64]map[string]TypeAndVersion{
		chainsel.ETHEREUM_MAINNET.Selector: {"0xnothex": NewTypeAndVersion(contracts.HomeType, version1_0_0)},
	})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSearchAddressBook(t *testing.T) {
	t.Parallel()

	var (
		mainnet = chainsel.ETHEREUM_MAINNET.Selector
		impl    = testAddr("home.implementation")
		proxy   = testAddr("home.proxy")
		beacon  = testAddr("home.beacon")
	)

	ab, err := NewMemoryAddressBookFromMap(map[uint64]map[string]TypeAndVersion{
		mainnet: {
			impl:   NewTypeAndVersion(contracts.HomeType, version1_0_0, LabelImplementation),
			proxy:  NewTypeAndVersion(contracts.HomeType, version1_0_0, LabelProxy),
			beacon: NewTypeAndVersion(contracts.UpgradeBeaconType, version1_0_0, LabelBeacon, "Home"),
		},
	})
	require.NoError(t, err)

	got, err := SearchAddressBook(ab, mainnet, contracts.HomeType, LabelProxy)
	require.NoError(t, err)
	assert.Equal(t, proxy, got)

	got, err = SearchAddressBook(ab, mainnet, contracts.UpgradeBeaconType, LabelBeacon, "Home")
	require.NoError(t, err)
	assert.Equal(t, beacon, got)

	_, err = SearchAddressBook(ab, mainnet, contracts.HomeType, LabelBeacon)
	require.ErrorIs(t, err, ErrAddressNotFound)

	_, err = SearchAddressBook(ab, chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector, contracts.HomeType)
	require.ErrorIs(t, err, ErrChainNotFound)

	all, err := FilterAddressBook(ab, mainnet, contracts.HomeType)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{impl, proxy}, all)
	assert.IsIncreasing(t, all)
}

func TestAddressBook_ConcurrentSave(t *testing.T) {
	t.Parallel()

	mainnet := chainsel.ETHEREUM_MAINNET.Selector
	ab := NewMemoryAddressBook()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr := testAddr("concurrent" + string(rune('a'+i)))
			assert.NoError(t, ab.Save(mainnet, addr, NewTypeAndVersion(contracts.ReplicaType, version1_0_0)))
		}()
	}
	wg.Wait()

	got, err := ab.AddressesForChain(mainnet)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
