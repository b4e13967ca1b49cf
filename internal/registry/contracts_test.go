package registry_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/mocks"
	"github.com/feral-file/ff-market-indexer/internal/registry"
)

func TestNewContractRegistry_NormalizesAndLooksUp(t *testing.T) {
	r, err := registry.NewContractRegistry(map[domain.Chain][]registry.Contract{
		domain.ChainFlowTestnet: {
			{Alias: "topshot", Name: "TopShot", Address: "0x1658D9B94068F3C", Family: registry.FamilyNFT, Preset: "topshot"},
			{Alias: "storefront", Name: "NFTStorefront", Address: "94b06cfca1d8a476", Family: registry.FamilyStorefront},
		},
	})
	require.NoError(t, err)

	contracts := r.Contracts(domain.ChainFlowTestnet)
	require.Len(t, contracts, 2)
	assert.Equal(t, "0x01658d9b94068f3c", contracts[0].Address)
	assert.Equal(t, "A.01658d9b94068f3c.TopShot", contracts[0].ID())

	c := r.Lookup(domain.ChainFlowTestnet, "A.01658D9B94068F3C.TopShot")
	require.NotNil(t, c)
	assert.Equal(t, "topshot", c.Alias)

	assert.Nil(t, r.Lookup(domain.ChainFlowMainnet, "A.01658d9b94068f3c.TopShot"))
	assert.Nil(t, r.Lookup(domain.ChainFlowTestnet, "A.01658d9b94068f3c.Unknown"))
	assert.Nil(t, r.Lookup(domain.ChainFlowTestnet, "not-a-contract"))
}

func TestNewContractRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		chains map[domain.Chain][]registry.Contract
	}{
		{
			name: "unsupported chain",
			chains: map[domain.Chain][]registry.Contract{
				"ethereum:1": {{Alias: "x", Name: "X", Address: "0x01", Family: registry.FamilyNFT}},
			},
		},
		{
			name: "bad address",
			chains: map[domain.Chain][]registry.Contract{
				domain.ChainFlowTestnet: {{Alias: "x", Name: "X", Address: "0xzz", Family: registry.FamilyNFT}},
			},
		},
		{
			name: "missing name",
			chains: map[domain.Chain][]registry.Contract{
				domain.ChainFlowTestnet: {{Alias: "x", Address: "0x01", Family: registry.FamilyNFT}},
			},
		},
		{
			name: "unknown family",
			chains: map[domain.Chain][]registry.Contract{
				domain.ChainFlowTestnet: {{Alias: "x", Name: "X", Address: "0x01", Family: "erc20"}},
			},
		},
		{
			name: "duplicate contract",
			chains: map[domain.Chain][]registry.Contract{
				domain.ChainFlowTestnet: {
					{Alias: "a", Name: "X", Address: "0x01", Family: registry.FamilyNFT},
					{Alias: "b", Name: "X", Address: "0x0000000000000001", Family: registry.FamilyNFT},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.NewContractRegistry(tt.chains)
			assert.Error(t, err)
		})
	}
}

func TestDefaultContractRegistry(t *testing.T) {
	r, err := registry.NewDefaultContractRegistry()
	require.NoError(t, err)

	for _, chainID := range []domain.Chain{domain.ChainFlowMainnet, domain.ChainFlowTestnet, domain.ChainFlowEmulator} {
		assert.NotEmpty(t, r.Contracts(chainID), chainID)
	}

	nfts := registry.ContractIDs(r, domain.ChainFlowMainnet, registry.FamilyNFT)
	assert.ElementsMatch(t, []string{
		"A.0b2a3299cc857e29.TopShot",
		"A.f4264ac8f3256818.Evolution",
		"A.a49cc0ee46c54bfb.MotoGPCard",
	}, nfts)
	assert.Empty(t, registry.ContractIDs(r, domain.ChainFlowMainnet, registry.FamilyEnglishAuction))
}

func TestLoadContractRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("empty path uses built-in contracts", func(t *testing.T) {
		fs := mocks.NewMockFileSystem(ctrl)
		r, err := registry.LoadContractRegistry(registry.NewContractRegistryLoader(fs, adapter.NewJSON()), "")
		require.NoError(t, err)
		assert.NotNil(t, r.Lookup(domain.ChainFlowMainnet, "A.0b2a3299cc857e29.TopShot"))
	})

	t.Run("loads file with upper-case chain keys", func(t *testing.T) {
		fs := mocks.NewMockFileSystem(ctrl)
		fs.EXPECT().ReadFile("contracts.json").Return([]byte(`{
			"version": 1,
			"chains": {
				"FLOW:TESTNET": [
					{"alias": "auction", "name": "EnglishAuction", "address": "0xebf4ae01d1284af8", "family": "english_auction"}
				]
			}
		}`), nil)

		r, err := registry.LoadContractRegistry(registry.NewContractRegistryLoader(fs, adapter.NewJSON()), "contracts.json")
		require.NoError(t, err)
		assert.Equal(t, []string{"A.ebf4ae01d1284af8.EnglishAuction"},
			registry.ContractIDs(r, domain.ChainFlowTestnet, registry.FamilyEnglishAuction))
	})

	t.Run("read failure", func(t *testing.T) {
		fs := mocks.NewMockFileSystem(ctrl)
		fs.EXPECT().ReadFile("missing.json").Return(nil, assert.AnError)

		_, err := registry.LoadContractRegistry(registry.NewContractRegistryLoader(fs, adapter.NewJSON()), "missing.json")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("invalid json", func(t *testing.T) {
		fs := mocks.NewMockFileSystem(ctrl)
		fs.EXPECT().ReadFile("bad.json").Return([]byte(`{"chains":`), nil)

		_, err := registry.LoadContractRegistry(registry.NewContractRegistryLoader(fs, adapter.NewJSON()), "bad.json")
		assert.Error(t, err)
	})
}
