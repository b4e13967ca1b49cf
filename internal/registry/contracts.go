package registry

import (
	"fmt"
	"strings"

	"github.com/feral-file/ff-market-indexer/internal/adapter"
	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// Family identifies the event set a contract emits
type Family string

const (
	// FamilyNFT is a NonFungibleToken collection (Withdraw/Deposit plus mint and burn)
	FamilyNFT Family = "nft"
	// FamilyStorefront is an NFTStorefront listing contract
	FamilyStorefront Family = "storefront"
	// FamilyBids is an open-bid contract
	FamilyBids Family = "bids"
	// FamilyEnglishAuction is an English auction contract
	FamilyEnglishAuction Family = "english_auction"
	// FamilyFungible is a FungibleToken contract
	FamilyFungible Family = "fungible"
)

// Contract describes one indexed contract on one chain
type Contract struct {
	// Alias is a human readable name, e.g. topshot
	Alias string `json:"alias"`
	// Name is the on-chain contract name, e.g. TopShot
	Name string `json:"name"`
	// Address is the account the contract is deployed to
	Address string `json:"address"`
	// Family selects the event mapper
	Family Family `json:"family"`
	// Preset selects NFT event names and fields (topshot, evolution, motogp, generic)
	Preset string `json:"preset,omitempty"`
}

// ID returns the contract identifier `A.<address>.<Name>`
func (c Contract) ID() string {
	return domain.CollectionID(c.Address, c.Name)
}

// ContractRegistry resolves the contracts indexed on each chain
type ContractRegistry interface {
	// Contracts returns every contract configured for the chain
	Contracts(chainID domain.Chain) []Contract

	// Lookup returns the contract with the given identifier on the chain, nil if not indexed
	Lookup(chainID domain.Chain, contractID string) *Contract
}

// ContractRegistryData represents the structure of the registry JSON file
type ContractRegistryData struct {
	Version int                   `json:"version"`
	Chains  map[string][]Contract `json:"chains"` // key is chain ID like "flow:mainnet"
}

// contractRegistry is the internal implementation of ContractRegistry interface
type contractRegistry struct {
	contracts map[domain.Chain][]Contract
	// Fast lookup map: chain:contractID -> contract
	byID map[string]*Contract
}

// ContractRegistryLoader defines the interface for loading contract registries from files
type ContractRegistryLoader interface {
	// Load loads the contract registry from a JSON file
	Load(filePath string) (ContractRegistry, error)
}

type contractRegistryLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewContractRegistryLoader creates a new ContractRegistryLoader with injected dependencies
func NewContractRegistryLoader(fs adapter.FileSystem, json adapter.JSON) ContractRegistryLoader {
	return &contractRegistryLoader{
		fs:   fs,
		json: json,
	}
}

// Load loads the contract registry from a JSON file
func (l *contractRegistryLoader) Load(filePath string) (ContractRegistry, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var registryData ContractRegistryData
	if err := l.json.Unmarshal(data, &registryData); err != nil {
		return nil, fmt.Errorf("failed to parse registry JSON: %w", err)
	}

	chains := make(map[domain.Chain][]Contract, len(registryData.Chains))
	for chainID, contracts := range registryData.Chains {
		chains[domain.Chain(strings.ToLower(chainID))] = contracts
	}
	return NewContractRegistry(chains)
}

// NewContractRegistry builds a registry from an explicit per-chain configuration.
// Addresses are normalized; duplicate contracts on a chain are rejected.
func NewContractRegistry(chains map[domain.Chain][]Contract) (ContractRegistry, error) {
	r := &contractRegistry{
		contracts: make(map[domain.Chain][]Contract, len(chains)),
		byID:      make(map[string]*Contract),
	}

	for chainID, contracts := range chains {
		if !chainID.Valid() {
			return nil, fmt.Errorf("unsupported chain %q", chainID)
		}

		normalized := make([]Contract, 0, len(contracts))
		for _, c := range contracts {
			address, err := domain.NormalizeAddress(c.Address)
			if err != nil {
				return nil, fmt.Errorf("contract %s on %s: %w", c.Alias, chainID, err)
			}
			if c.Name == "" {
				return nil, fmt.Errorf("contract %s on %s: missing name", c.Alias, chainID)
			}
			switch c.Family {
			case FamilyNFT, FamilyStorefront, FamilyBids, FamilyEnglishAuction, FamilyFungible:
			default:
				return nil, fmt.Errorf("contract %s on %s: unknown family %q", c.Alias, chainID, c.Family)
			}
			c.Address = address
			normalized = append(normalized, c)
		}

		r.contracts[chainID] = normalized
		for i := range normalized {
			key := lookupKey(chainID, normalized[i].ID())
			if _, exists := r.byID[key]; exists {
				return nil, fmt.Errorf("duplicate contract %s on %s", normalized[i].ID(), chainID)
			}
			r.byID[key] = &r.contracts[chainID][i]
		}
	}

	return r, nil
}

// Contracts returns every contract configured for the chain
func (r *contractRegistry) Contracts(chainID domain.Chain) []Contract {
	if r == nil {
		return nil
	}
	return r.contracts[chainID]
}

// Lookup returns the contract with the given identifier on the chain
func (r *contractRegistry) Lookup(chainID domain.Chain, contractID string) *Contract {
	if r == nil {
		return nil
	}
	id, err := domain.NormalizeContractID(contractID)
	if err != nil {
		return nil
	}
	return r.byID[lookupKey(chainID, id)]
}

func lookupKey(chainID domain.Chain, contractID string) string {
	return fmt.Sprintf("%s:%s", chainID, contractID)
}
