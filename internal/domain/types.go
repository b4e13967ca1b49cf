package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// Chain represents a Flow network
type Chain string

const (
	ChainFlowMainnet  Chain = "flow:mainnet"
	ChainFlowTestnet  Chain = "flow:testnet"
	ChainFlowEmulator Chain = "flow:emulator"
)

// Valid reports whether the chain is supported
func (c Chain) Valid() bool {
	switch c {
	case ChainFlowMainnet, ChainFlowTestnet, ChainFlowEmulator:
		return true
	default:
		return false
	}
}

// ItemID identifies an NFT by its collection and token number
type ItemID struct {
	Contract string
	TokenID  uint64
}

// String returns `<contract>:<tokenId>`
func (id ItemID) String() string {
	return fmt.Sprintf("%s:%d", id.Contract, id.TokenID)
}

// ParseItemID parses the string form produced by ItemID.String
func ParseItemID(s string) (ItemID, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return ItemID{}, fmt.Errorf("%w: %q", ErrInvalidItemID, s)
	}
	tokenID, err := strconv.ParseUint(s[idx+1:], 10, 64)
	if err != nil {
		return ItemID{}, fmt.Errorf("%w: %q", ErrInvalidItemID, s)
	}
	return ItemID{Contract: s[:idx], TokenID: tokenID}, nil
}

// OwnershipID identifies a single (item, owner) holding
type OwnershipID struct {
	Contract string
	TokenID  uint64
	Owner    string
}

// String returns `<contract>:<tokenId>:<owner>`
func (id OwnershipID) String() string {
	return fmt.Sprintf("%s:%d:%s", id.Contract, id.TokenID, id.Owner)
}

// ItemID returns the item part of the ownership id
func (id OwnershipID) ItemID() ItemID {
	return ItemID{Contract: id.Contract, TokenID: id.TokenID}
}

// NewOwnershipID creates an ownership id for the item and owner
func NewOwnershipID(item ItemID, owner string) OwnershipID {
	return OwnershipID{Contract: item.Contract, TokenID: item.TokenID, Owner: owner}
}

// BalanceID returns the identifier of a fungible balance row
func BalanceID(owner, token string) string {
	return owner + ":" + token
}

// LogID is the provenance key of a chain log: `<transactionHash>.<eventIndex>`
type LogID string

// NewLogID builds a log id from a transaction hash and the event index within it.
// The hash is normalized to 64 lower-case hex digits without prefix.
func NewLogID(txHash string, eventIndex int) (LogID, error) {
	if eventIndex < 0 {
		return "", fmt.Errorf("%w: negative event index %d", ErrInvalidLogID, eventIndex)
	}
	h := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(txHash)), "0x")
	if len(h) != 2*common.HashLength {
		return "", fmt.Errorf("%w: transaction hash %q", ErrInvalidLogID, txHash)
	}
	b, err := hexutil.Decode("0x" + h)
	if err != nil {
		return "", fmt.Errorf("%w: transaction hash %q: %v", ErrInvalidLogID, txHash, err)
	}
	hash := common.BytesToHash(b).Hex()
	return LogID(fmt.Sprintf("%s.%d", hash[2:], eventIndex)), nil
}

// FlowAddressLength is the length of a Flow account address in bytes
const FlowAddressLength = 8

// NormalizeAddress normalizes a Flow address to 0x-prefixed, zero-padded lower-case hex
func NormalizeAddress(address string) (string, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(address)), "0x")
	if s == "" || len(s) > 2*FlowAddressLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hexutil.Decode("0x" + s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return hexutil.Encode(common.LeftPadBytes(b, FlowAddressLength)), nil
}

// EventType is a parsed Flow event type `A.<address>.<Contract>.<Event>`
type EventType struct {
	Address  string
	Contract string
	Event    string
}

// ParseEventType parses a Flow event type string
func ParseEventType(s string) (EventType, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 || parts[0] != "A" || parts[2] == "" || parts[3] == "" {
		return EventType{}, fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	address, err := NormalizeAddress(parts[1])
	if err != nil {
		return EventType{}, fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	return EventType{Address: address, Contract: parts[2], Event: parts[3]}, nil
}

// Collection returns the contract identifier `A.<address>.<Contract>` used as item contract
func (e EventType) Collection() string {
	return CollectionID(e.Address, e.Contract)
}

// CollectionID returns `A.<address without 0x>.<name>`
func CollectionID(address, name string) string {
	return fmt.Sprintf("A.%s.%s", strings.TrimPrefix(address, "0x"), name)
}

// NormalizeContractID normalizes a contract identifier `A.<address>.<Name>`,
// e.g. `A.0B2A3299CC857E29.TopShot` becomes `A.0b2a3299cc857e29.TopShot`
func NormalizeContractID(s string) (string, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] != "A" || parts[2] == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	address, err := NormalizeAddress(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	return CollectionID(address, parts[2]), nil
}

// TruncateTimestamp returns ts in UTC at millisecond precision, the resolution of continuation cursors
func TruncateTimestamp(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Millisecond)
}

// RawLogEvent is a single decoded chain log as delivered by the log feed
type RawLogEvent struct {
	// Contract is the collection identifier, e.g. A.0b2a3299cc857e29.TopShot
	Contract string
	// EventName is the event name within the contract, e.g. Deposit
	EventName string
	// Fields holds the decoded event payload keyed by field name
	Fields map[string]any
	// BlockTimestamp is the timestamp of the block that emitted the log
	BlockTimestamp time.Time
	// LogID is the globally unique log identity
	LogID LogID
}

// AssetType distinguishes NFT and fungible assets
type AssetType string

const (
	AssetTypeNFT      AssetType = "NFT"
	AssetTypeFungible AssetType = "FUNGIBLE"
)

// Asset is one side of an order
type Asset struct {
	Type     AssetType       `json:"type"`
	Contract string          `json:"contract"`
	TokenID  uint64          `json:"token_id,omitempty"`
	Value    decimal.Decimal `json:"value"`
}

// NFTAsset builds an NFT asset of the given quantity
func NFTAsset(item ItemID, value decimal.Decimal) Asset {
	return Asset{Type: AssetTypeNFT, Contract: item.Contract, TokenID: item.TokenID, Value: value}
}

// FungibleAsset builds a fungible-token asset
func FungibleAsset(token string, value decimal.Decimal) Asset {
	return Asset{Type: AssetTypeFungible, Contract: token, Value: value}
}

// ItemID returns the item referenced by an NFT asset
func (a Asset) ItemID() (ItemID, bool) {
	if a.Type != AssetTypeNFT {
		return ItemID{}, false
	}
	return ItemID{Contract: a.Contract, TokenID: a.TokenID}, true
}

// Part is an address with a share (royalties, payouts, origin fees)
type Part struct {
	Address string          `json:"address"`
	Fee     decimal.Decimal `json:"fee"`
}

// PaymentType classifies settlement payments
type PaymentType string

const (
	PaymentTypeBuyerFee  PaymentType = "BUYER_FEE"
	PaymentTypeSellerFee PaymentType = "SELLER_FEE"
	PaymentTypeOther     PaymentType = "OTHER"
	PaymentTypeRoyalty   PaymentType = "ROYALTY"
	PaymentTypeReward    PaymentType = "REWARD"
)

// Payment is a single settlement transfer attached to a sale
type Payment struct {
	Type    PaymentType     `json:"type"`
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}
