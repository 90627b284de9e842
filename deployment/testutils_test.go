package deployment

import (
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// testBackend satisfies bind.ContractBackend without a network. Binding a handle never calls
// the backend.
var testBackend bind.ContractBackend = struct{ bind.ContractBackend }{}

// testAddr returns a deterministic address with a mixed case EIP55 form.
func testAddr(seed string) string {
	return common.BytesToAddress(crypto.Keccak256([]byte(seed))).Hex()
}

func testProxied(prefix string) ProxiedAddress {
	return ProxiedAddress{
		Implementation: testAddr(prefix + ".implementation"),
		Proxy:          testAddr(prefix + ".proxy"),
		Beacon:         testAddr(prefix + ".beacon"),
	}
}

// testCoreAddresses returns a complete record with a replica per domain. Replicas share their
// implementation and beacon, as they do when deployed.
func testCoreAddresses(domains ...uint32) CoreContractAddresses {
	a := CoreContractAddresses{
		UpgradeBeaconController: testAddr("upgradeBeaconController"),
		XAppConnectionManager:   testAddr("xAppConnectionManager"),
		UpdaterManager:          testAddr("updaterManager"),
		GovernanceRouter:        testProxied("governanceRouter"),
		Home:                    testProxied("home"),
		Replicas:                make(map[uint32]ProxiedAddress, len(domains)),
	}
	for _, d := range domains {
		a.Replicas[d] = ProxiedAddress{
			Implementation: testAddr("replica.implementation"),
			Proxy:          testAddr("replica.proxy." + strconv.FormatUint(uint64(d), 10)),
			Beacon:         testAddr("replica.beacon"),
		}
	}

	return a
}
