package provider

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChainIDBig = big.NewInt(1337)

func Test_TransactorFromRaw(t *testing.T) {
	t.Parallel()

	// Setup the private key
	privKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexPrivKey := hex.EncodeToString(crypto.FromECDSA(privKey))
	wantAddr := crypto.PubkeyToAddress(privKey.PublicKey).Hex()

	tests := []struct {
		name        string
		givePrivKey string
		giveChainID *big.Int
		want        string
		wantErr     string
	}{
		{
			name:        "valid private key",
			givePrivKey: hexPrivKey,
			giveChainID: testChainIDBig,
			want:        wantAddr,
		},
		{
			name:        "valid private key with 0x prefix",
			givePrivKey: "0x" + hexPrivKey,
			giveChainID: testChainIDBig,
			want:        wantAddr,
		},
		{
			name:        "invalid private key",
			givePrivKey: "invalid",
			giveChainID: testChainIDBig,
			wantErr:     "failed to convert private key to ECDSA",
		},
		{
			name:        "invalid chain ID",
			givePrivKey: hexPrivKey,
			giveChainID: nil, // nil chain ID should trigger an error
			wantErr:     "no chain id specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := TransactorFromRaw(tt.givePrivKey).Generate(tt.giveChainID)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.From.Hex())
			}
		})
	}
}

func Test_TransactorRandom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		giveChainID *big.Int
		wantErr     string
	}{
		{
			name:        "valid",
			giveChainID: testChainIDBig,
		},
		{
			name:        "invalid chain ID",
			giveChainID: nil, // nil chain ID should trigger an error
			wantErr:     "no chain id specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := TransactorRandom().Generate(tt.giveChainID)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, got.From)
			}
		})
	}
}
