package deployment

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/abacus-network/abacus-deploy/chain/evm"
)

// ErrMissingConfiguration is returned when a required address is absent. It is the same
// sentinel the chain connections use, so callers can check either.
var ErrMissingConfiguration = evm.ErrMissingConfiguration

// ProxiedAddress is the address record of a beacon proxied contract.
type ProxiedAddress struct {
	Implementation string `json:"implementation"`
	Proxy          string `json:"proxy"`
	Beacon         string `json:"beacon"`
}

func (p ProxiedAddress) parse(field string) (implementation, proxy, beacon common.Address, err error) {
	var errs []error
	parseInto := func(dst *common.Address, sub, raw string) {
		addr, perr := parseAddress(field+"."+sub, raw)
		if perr != nil {
			errs = append(errs, perr)
			return
		}
		*dst = addr
	}

	parseInto(&implementation, "implementation", p.Implementation)
	parseInto(&proxy, "proxy", p.Proxy)
	parseInto(&beacon, "beacon", p.Beacon)

	return implementation, proxy, beacon, errors.Join(errs...)
}

// CoreContractAddresses is the address record of the core contracts of one chain.
type CoreContractAddresses struct {
	UpgradeBeaconController string                    `json:"upgradeBeaconController"`
	XAppConnectionManager   string                    `json:"xAppConnectionManager"`
	UpdaterManager          string                    `json:"updaterManager"`
	GovernanceRouter        ProxiedAddress            `json:"governanceRouter"`
	Home                    ProxiedAddress            `json:"home"`
	Replicas                map[uint32]ProxiedAddress `json:"replicas"`
}

// Validate reports every missing or malformed address of the record.
func (a CoreContractAddresses) Validate() error {
	_, err := a.parse()
	return err
}

// parsedAddresses is a record whose addresses have all been checked.
type parsedAddresses struct {
	upgradeBeaconController common.Address
	xAppConnectionManager   common.Address
	updaterManager          common.Address
	governanceRouter        [3]common.Address
	home                    [3]common.Address
	replicas                map[uint32][3]common.Address
}

func (a CoreContractAddresses) parse() (parsedAddresses, error) {
	var (
		out  parsedAddresses
		errs []error
		err  error
	)

	if out.upgradeBeaconController, err = parseAddress("upgradeBeaconController", a.UpgradeBeaconController); err != nil {
		errs = append(errs, err)
	}
	if out.xAppConnectionManager, err = parseAddress("xAppConnectionManager", a.XAppConnectionManager); err != nil {
		errs = append(errs, err)
	}
	if out.updaterManager, err = parseAddress("updaterManager", a.UpdaterManager); err != nil {
		errs = append(errs, err)
	}

	parseTriple := func(field string, p ProxiedAddress) [3]common.Address {
		impl, proxy, beacon, perr := p.parse(field)
		if perr != nil {
			errs = append(errs, perr)
		}

		return [3]common.Address{impl, proxy, beacon}
	}

	out.governanceRouter = parseTriple("governanceRouter", a.GovernanceRouter)
	out.home = parseTriple("home", a.Home)

	out.replicas = make(map[uint32][3]common.Address, len(a.Replicas))
	for _, domain := range slices.Sorted(maps.Keys(a.Replicas)) {
		out.replicas[domain] = parseTriple(fmt.Sprintf("replicas.%d", domain), a.Replicas[domain])
	}

	if err := errors.Join(errs...); err != nil {
		return parsedAddresses{}, err
	}

	return out, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, fmt.Errorf("%s: %w", field, ErrMissingConfiguration)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q: %w", field, raw, ErrInvalidAddress)
	}

	return common.HexToAddress(raw), nil
}

// ReadAddressesFile reads a JSON file mapping chain names to their core contract addresses.
func ReadAddressesFile(path string) (map[string]CoreContractAddresses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read addresses file: %w", err)
	}

	var out map[string]CoreContractAddresses
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal addresses file %s: %w", path, err)
	}

	return out, nil
}

// WriteAddressesFile writes the addresses of every chain as indented JSON.
func WriteAddressesFile(path string, addresses map[string]CoreContractAddresses) error {
	data, err := json.MarshalIndent(addresses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal addresses: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write addresses file: %w", err)
	}

	return nil
}
