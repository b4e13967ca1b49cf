package registry

import "github.com/feral-file/ff-market-indexer/internal/domain"

// DefaultContracts is the built-in contract configuration used when no registry file is given
var DefaultContracts = map[domain.Chain][]Contract{
	domain.ChainFlowMainnet: {
		{Alias: "topshot", Name: "TopShot", Address: "0x0b2a3299cc857e29", Family: FamilyNFT, Preset: "topshot"},
		{Alias: "evolution", Name: "Evolution", Address: "0xf4264ac8f3256818", Family: FamilyNFT, Preset: "evolution"},
		{Alias: "motogp", Name: "MotoGPCard", Address: "0xa49cc0ee46c54bfb", Family: FamilyNFT, Preset: "motogp"},
		{Alias: "storefront", Name: "NFTStorefront", Address: "0x4eb8a10cb9f87357", Family: FamilyStorefront},
		{Alias: "open_bid", Name: "RaribleOpenBid", Address: "0x01ab36aaf654a13e", Family: FamilyBids},
		{Alias: "flow", Name: "FlowToken", Address: "0x1654653399040a61", Family: FamilyFungible},
		{Alias: "fusd", Name: "FUSD", Address: "0x3c5959b568896393", Family: FamilyFungible},
	},
	domain.ChainFlowTestnet: {
		{Alias: "topshot", Name: "TopShot", Address: "0x01658d9b94068f3c", Family: FamilyNFT, Preset: "topshot"},
		{Alias: "evolution", Name: "Evolution", Address: "0x01658d9b94068f3c", Family: FamilyNFT, Preset: "evolution"},
		{Alias: "motogp", Name: "MotoGPCard", Address: "0x01658d9b94068f3c", Family: FamilyNFT, Preset: "motogp"},
		{Alias: "storefront", Name: "NFTStorefront", Address: "0x94b06cfca1d8a476", Family: FamilyStorefront},
		{Alias: "open_bid", Name: "RaribleOpenBid", Address: "0xebf4ae01d1284af8", Family: FamilyBids},
		{Alias: "english_auction", Name: "EnglishAuction", Address: "0xebf4ae01d1284af8", Family: FamilyEnglishAuction},
		{Alias: "flow", Name: "FlowToken", Address: "0x7e60df042a9c0868", Family: FamilyFungible},
		{Alias: "fusd", Name: "FUSD", Address: "0xe223d8a629e49c68", Family: FamilyFungible},
	},
	domain.ChainFlowEmulator: {
		{Alias: "topshot", Name: "TopShot", Address: domain.FLOW_EMULATOR_SERVICE_ADDRESS, Family: FamilyNFT, Preset: "topshot"},
		{Alias: "storefront", Name: "NFTStorefront", Address: domain.FLOW_EMULATOR_SERVICE_ADDRESS, Family: FamilyStorefront},
		{Alias: "english_auction", Name: "EnglishAuction", Address: domain.FLOW_EMULATOR_SERVICE_ADDRESS, Family: FamilyEnglishAuction},
		{Alias: "flow", Name: "FlowToken", Address: "0x0ae53cb6e3f42a79", Family: FamilyFungible},
	},
}

// NewDefaultContractRegistry builds a registry from DefaultContracts
func NewDefaultContractRegistry() (ContractRegistry, error) {
	return NewContractRegistry(DefaultContracts)
}

// LoadContractRegistry loads the registry file at path, or the built-in contracts when path is empty
func LoadContractRegistry(loader ContractRegistryLoader, path string) (ContractRegistry, error) {
	if path == "" {
		return NewDefaultContractRegistry()
	}
	return loader.Load(path)
}

// ContractIDs returns the identifiers of the chain's contracts of the given family
func ContractIDs(r ContractRegistry, chainID domain.Chain, family Family) []string {
	var ids []string
	for _, c := range r.Contracts(chainID) {
		if c.Family == family {
			ids = append(ids, c.ID())
		}
	}
	return ids
}
