package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The ABI fragments below only cover the methods the deployer calls. Events and admin methods
// which are never used here are left out.

const ownableABI = `
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]}`

const localDomainABI = `
	{"type":"function","name":"localDomain","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]}`

const updaterABI = `
	{"type":"function","name":"updater","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`

var abiJSON = map[ContractType]string{
	UpgradeBeaconControllerType: jsonArray(ownableABI, `
	{"type":"function","name":"upgrade","stateMutability":"nonpayable","inputs":[{"name":"_beacon","type":"address"},{"name":"_implementation","type":"address"}],"outputs":[]}`),
	XAppConnectionManagerType: jsonArray(ownableABI, localDomainABI, `
	{"type":"function","name":"home","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"domainToReplica","stateMutability":"view","inputs":[{"name":"","type":"uint32"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"replicaToDomain","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint32"}]},
	{"type":"function","name":"enrollReplica","stateMutability":"nonpayable","inputs":[{"name":"_replica","type":"address"},{"name":"_domain","type":"uint32"}],"outputs":[]}`),
	UpdaterManagerType: jsonArray(ownableABI, updaterABI, `
	{"type":"function","name":"setUpdater","stateMutability":"nonpayable","inputs":[{"name":"_updaterAddress","type":"address"}],"outputs":[]}`),
	GovernanceRouterType: jsonArray(localDomainABI, `
	{"type":"function","name":"governor","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"governorDomain","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]}`),
	HomeType: jsonArray(ownableABI, localDomainABI, updaterABI),
	ReplicaType: jsonArray(ownableABI, localDomainABI, updaterABI, `
	{"type":"function","name":"remoteDomain","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]}`),
	UpgradeBeaconType: jsonArray(),
}

// parsedABIs holds the parsed ABI of every contract type. It is built once at init.
var parsedABIs = mustParseABIs(abiJSON)

func jsonArray(fragments ...string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		parts = append(parts, strings.TrimSpace(f))
	}

	return "[" + strings.Join(parts, ",") + "]"
}

func mustParseABIs(raw map[ContractType]string) map[ContractType]abi.ABI {
	parsed := make(map[ContractType]abi.ABI, len(raw))
	for typ, js := range raw {
		a, err := abi.JSON(strings.NewReader(js))
		if err != nil {
			panic(fmt.Sprintf("contracts: invalid ABI for %s: %v", typ, err))
		}
		parsed[typ] = a
	}

	return parsed
}

// ABI returns the parsed ABI of a contract type.
func ABI(typ ContractType) (abi.ABI, error) {
	a, ok := parsedABIs[typ]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%w: %s", ErrUnknownContractType, typ)
	}

	return a, nil
}
