package deployment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common/hexutil"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abacus-network/abacus-deploy/chain"
	"github.com/abacus-network/abacus-deploy/chain/evm/provider"
	"github.com/abacus-network/abacus-deploy/pkg/logger"
)

// testDeployerKey is the first well known development account key.
const testDeployerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// newFakeRPCServer answers the calls made while connecting: eth_blockNumber and eth_chainId.
func newFakeRPCServer(t *testing.T, chainID uint64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_blockNumber":
			resp["result"] = "0x1"
		case "eth_chainId":
			resp["result"] = hexutil.EncodeUint64(chainID)
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	return srv
}

type envFixture struct {
	networksPath  string
	secretsPath   string
	addressesPath string
	addresses     map[string]CoreContractAddresses
}

// newEnvFixture writes a manifest with an ethereum and a sepolia network served by fake RPCs,
// a secrets file holding the deployer key and an address file for ethereum only.
func newEnvFixture(t *testing.T) envFixture {
	t.Helper()

	var (
		dir      = t.TempDir()
		ethereum = newFakeRPCServer(t, 1)
		sepolia  = newFakeRPCServer(t, 11155111)
	)

	manifest := `networks:
  - name: ethereum
    type: mainnet
    chain_selector: ` + uintString(chainsel.ETHEREUM_MAINNET.Selector) + `
    confirmations: 2
    block_explorer:
      type: Etherscan
      url: https://etherscan.io
    rpcs:
      - rpc_name: fake
        preferred_url_scheme: http
        http_url: ` + ethereum.URL + `
    overrides:
      gas_limit: 8000000
      gas_price: "5000000000"
  - name: sepolia
    type: testnet
    chain_selector: ` + uintString(chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector) + `
    block_explorer:
      url: ""
    rpcs:
      - rpc_name: fake
        http_url: ` + sepolia.URL + `
`
	f := envFixture{
		networksPath:  filepath.Join(dir, "networks.yaml"),
		secretsPath:   filepath.Join(dir, "secrets.yaml"),
		addressesPath: filepath.Join(dir, "addresses.json"),
		addresses: map[string]CoreContractAddresses{
			"ethereum": testCoreAddresses(1000),
		},
	}

	require.NoError(t, os.WriteFile(f.networksPath, []byte(manifest), 0o600))
	require.NoError(t, os.WriteFile(f.secretsPath, []byte("onchain:\n  evm:\n    deployer_key: "+testDeployerKey+"\n"), 0o600))
	require.NoError(t, WriteAddressesFile(f.addressesPath, f.addresses))

	return f
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func (f envFixture) config() EnvironmentConfig {
	return EnvironmentConfig{
		NetworksPaths: []string{f.networksPath},
		SecretsPath:   f.secretsPath,
		AddressesPath: f.addressesPath,
		DialConfig:    &provider.DialConfig{Attempts: 1, Timeout: 5 * time.Second},
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Parallel()

	f := newEnvFixture(t)
	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)

	e, err := LoadEnvironment(t.Context(), f.config(), lggr)
	require.NoError(t, err)

	assert.Equal(t, []string{"ethereum", "sepolia"}, e.Chains.Names())
	assert.Equal(t, []string{"ethereum"}, e.CoreChains())
	assert.True(t, e.HasCore("ethereum"))
	assert.False(t, e.HasCore("sepolia"))
	assert.Equal(t, f.addresses, e.Addresses())

	core, err := e.Core("ethereum")
	require.NoError(t, err)
	assert.Equal(t, f.addresses["ethereum"].Home.Proxy, core.Home().Contract().Address().Hex())

	_, err = e.Core("sepolia")
	require.ErrorIs(t, err, ErrUnknownChain)

	conn, err := e.Chains.Get("ethereum")
	require.NoError(t, err)
	assert.Equal(t, chainsel.ETHEREUM_MAINNET.Selector, conn.Selector())
	assert.Equal(t, uint64(2), conn.Confirmations())
	assert.Equal(t, uint64(8_000_000), conn.Overrides().GasLimit)
	assert.False(t, conn.ActiveHandle().ReadOnly())

	addrURL, err := conn.AddressURL()
	require.NoError(t, err)
	assert.Contains(t, addrURL, "https://etherscan.io/address/")

	found, err := AddressBookContains(e.ExistingAddresses, chainsel.ETHEREUM_MAINNET.Selector, f.addresses["ethereum"].Home.Proxy)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = e.ExistingAddresses.AddressesForChain(chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector)
	require.ErrorIs(t, err, ErrChainNotFound)

	assert.Equal(t, 2, logs.FilterMessage("Loaded chain").Len())
}

func TestLoadEnvironment_ContractsVersion(t *testing.T) {
	t.Parallel()

	f := newEnvFixture(t)
	cfg := f.config()
	cfg.ContractsVersion = semver.MustParse("2.1.0")

	e, err := LoadEnvironment(t.Context(), cfg, logger.Test(t))
	require.NoError(t, err)

	addrs, err := e.ExistingAddresses.AddressesForChain(chainsel.ETHEREUM_MAINNET.Selector)
	require.NoError(t, err)
	require.NotEmpty(t, addrs)
	for _, tv := range addrs {
		assert.Equal(t, "2.1.0", tv.Version.String())
	}
}

func TestLoadEnvironment_ChainsFilter(t *testing.T) {
	t.Parallel()

	f := newEnvFixture(t)
	cfg := f.config()
	cfg.Chains = []string{"sepolia"}

	e, err := LoadEnvironment(t.Context(), cfg, logger.Test(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"sepolia"}, e.Chains.Names())
	assert.Empty(t, e.CoreChains())
	assert.False(t, e.HasCore("ethereum"))
	assert.Empty(t, e.Addresses())

	// The same address file serves a filter which keeps its chain.
	cfg.Chains = []string{"ethereum"}
	e, err = LoadEnvironment(t.Context(), cfg, logger.Test(t))
	require.NoError(t, err)
	assert.Equal(t, f.addresses, e.Addresses())
}

func TestLoadEnvironment_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(t *testing.T, f envFixture, cfg *EnvironmentConfig)
		wantErr error
		wantMsg string
	}{
		{
			name: "no networks",
			mutate: func(_ *testing.T, _ envFixture, cfg *EnvironmentConfig) {
				cfg.NetworksPaths = nil
			},
			wantErr: ErrMissingConfiguration,
		},
		{
			name: "missing networks file",
			mutate: func(t *testing.T, _ envFixture, cfg *EnvironmentConfig) {
				t.Helper()
				cfg.NetworksPaths = []string{filepath.Join(t.TempDir(), "missing.yaml")}
			},
			wantMsg: "failed to read networks file",
		},
		{
			name: "unknown chain filter",
			mutate: func(_ *testing.T, _ envFixture, cfg *EnvironmentConfig) {
				cfg.Chains = []string{"polygon"}
			},
			wantErr: ErrUnknownChain,
			wantMsg: "chain polygon",
		},
		{
			name: "addresses for a chain missing from the manifest",
			mutate: func(t *testing.T, f envFixture, _ *EnvironmentConfig) {
				t.Helper()
				require.NoError(t, WriteAddressesFile(f.addressesPath, map[string]CoreContractAddresses{
					"polygon": testCoreAddresses(),
				}))
			},
			wantErr: ErrUnknownChain,
			wantMsg: "addresses for chain polygon",
		},
		{
			name: "incomplete addresses",
			mutate: func(t *testing.T, f envFixture, _ *EnvironmentConfig) {
				t.Helper()
				a := f.addresses["ethereum"]
				a.Home.Beacon = ""
				require.NoError(t, WriteAddressesFile(f.addressesPath, map[string]CoreContractAddresses{"ethereum": a}))
			},
			wantErr: ErrMissingConfiguration,
			wantMsg: "home.beacon",
		},
		{
			name: "missing addresses file",
			mutate: func(t *testing.T, _ envFixture, cfg *EnvironmentConfig) {
				t.Helper()
				cfg.AddressesPath = filepath.Join(t.TempDir(), "missing.json")
			},
			wantMsg: "failed to read addresses file",
		},
		{
			name: "unreachable rpc",
			mutate: func(t *testing.T, f envFixture, _ *EnvironmentConfig) {
				t.Helper()
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}))
				t.Cleanup(srv.Close)

				manifest := `networks:
  - name: ethereum
    chain_selector: ` + uintString(chainsel.ETHEREUM_MAINNET.Selector) + `
    rpcs:
      - rpc_name: down
        http_url: ` + srv.URL + `
`
				require.NoError(t, os.WriteFile(f.networksPath, []byte(manifest), 0o600))
			},
			wantMsg: "no valid RPC clients created",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newEnvFixture(t)
			cfg := f.config()
			tt.mutate(t, f, &cfg)

			e, err := LoadEnvironment(t.Context(), cfg, logger.Nop())
			require.Error(t, err)
			assert.Nil(t, e)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				require.ErrorContains(t, err, tt.wantMsg)
			}
		})
	}
}

//nolint:paralleltest // sets environment variables
func TestLoadEnvironment_ReadOnly(t *testing.T) {
	t.Setenv("ONCHAIN_EVM_DEPLOYER_KEY", "")
	t.Setenv("DEPLOYER_KEY", "")

	f := newEnvFixture(t)
	cfg := f.config()
	cfg.SecretsPath = ""
	cfg.AddressesPath = ""

	lggr, logs := logger.TestObserved(t, zapcore.WarnLevel)

	e, err := LoadEnvironment(t.Context(), cfg, lggr)
	require.NoError(t, err)
	assert.Empty(t, e.CoreChains())
	assert.Equal(t, 1, logs.FilterMessage("No deployer key configured, every connection is read-only").Len())

	for name, conn := range e.Chains.All() {
		assert.True(t, conn.ActiveHandle().ReadOnly(), name)

		_, err := conn.AddressURL()
		require.Error(t, err, name)
	}
}

//nolint:paralleltest // sets environment variables
func TestLoadEnvironment_DeployerKeyFromEnv(t *testing.T) {
	t.Setenv("ONCHAIN_EVM_DEPLOYER_KEY", "")
	t.Setenv("DEPLOYER_KEY", "0x"+testDeployerKey)

	f := newEnvFixture(t)
	cfg := f.config()
	cfg.SecretsPath = ""

	e, err := LoadEnvironment(t.Context(), cfg, logger.Test(t))
	require.NoError(t, err)

	conn, err := e.Chains.Get("sepolia")
	require.NoError(t, err)
	addr, ok := conn.Address()
	require.True(t, ok)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", addr.Hex())
}

func TestNewEnvironment(t *testing.T) {
	t.Parallel()

	p := provider.NewSimConnectionProvider("test", provider.SimConnectionProviderConfig{
		ChainSelector: chainsel.GETH_TESTNET.Selector,
	})
	t.Cleanup(func() {
		_ = p.Close()
	})

	chains, err := chain.NewRegistryFromProviders(t.Context(), p)
	require.NoError(t, err)

	addresses := map[string]CoreContractAddresses{"test": testCoreAddresses(1000, 2000)}

	e, err := NewEnvironment(logger.Test(t), chains, addresses, version1_0_0)
	require.NoError(t, err)
	assert.Equal(t, addresses, e.Addresses())

	found, err := AddressBookContains(e.ExistingAddresses, chainsel.GETH_TESTNET.Selector, addresses["test"].Replicas[2000].Proxy)
	require.NoError(t, err)
	assert.True(t, found)

	core, err := e.Core("test")
	require.NoError(t, err)
	_, err = core.Replicas().Get(3000)
	require.ErrorIs(t, err, ErrDomainNotFound)

	_, err = NewEnvironment(logger.Test(t), chains, map[string]CoreContractAddresses{"other": testCoreAddresses()}, version1_0_0)
	require.ErrorIs(t, err, ErrUnknownChain)
}
