package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType is the discriminator of the Activity union
type ActivityType string

const (
	ActivityTypeMint              ActivityType = "MINT"
	ActivityTypeBurn              ActivityType = "BURN"
	ActivityTypeTransfer          ActivityType = "TRANSFER"
	ActivityTypeWithdraw          ActivityType = "WITHDRAW"
	ActivityTypeDeposit           ActivityType = "DEPOSIT"
	ActivityTypeList              ActivityType = "LIST"
	ActivityTypeCancelList        ActivityType = "CANCEL_LIST"
	ActivityTypeBid               ActivityType = "BID"
	ActivityTypeCancelBid         ActivityType = "CANCEL_BID"
	ActivityTypeSell              ActivityType = "SELL"
	ActivityTypeLotAvailable      ActivityType = "LOT_AVAILABLE"
	ActivityTypeLotCompleted      ActivityType = "LOT_COMPLETED"
	ActivityTypeLotCanceled       ActivityType = "LOT_CANCELED"
	ActivityTypeLotEndTimeChanged ActivityType = "LOT_END_TIME_CHANGED"
	ActivityTypeLotCleaned        ActivityType = "LOT_CLEANED"
	ActivityTypeBidOpened         ActivityType = "BID_OPENED"
	ActivityTypeBidIncreased      ActivityType = "BID_INCREASED"
	ActivityTypeBidClosed         ActivityType = "BID_CLOSED"
	ActivityTypeBalanceChanged    ActivityType = "BALANCE_CHANGED"
)

// Activity is a typed, timestamped domain event derived from a raw chain log.
// The set of implementations is closed; consumers switch over the concrete types.
type Activity interface {
	Type() ActivityType
	Meta() ActivityMeta
	activity()
}

// ActivityMeta holds the fields every activity carries
type ActivityMeta struct {
	LogID     LogID
	Contract  string
	Timestamp time.Time
}

// Meta returns the common activity fields
func (m ActivityMeta) Meta() ActivityMeta { return m }

func (ActivityMeta) activity() {}

// MintActivity creates a token
type MintActivity struct {
	ActivityMeta
	TokenID   uint64
	Owner     string
	Creator   string
	Royalties []Part
	Metadata  map[string]string
}

func (MintActivity) Type() ActivityType { return ActivityTypeMint }

// Item returns the minted item
func (a MintActivity) Item() ItemID { return ItemID{Contract: a.Contract, TokenID: a.TokenID} }

// BurnActivity destroys a token
type BurnActivity struct {
	ActivityMeta
	TokenID uint64
}

func (BurnActivity) Type() ActivityType { return ActivityTypeBurn }

// Item returns the burned item
func (a BurnActivity) Item() ItemID { return ItemID{Contract: a.Contract, TokenID: a.TokenID} }

// TransferActivity moves a token between accounts in a single event
type TransferActivity struct {
	ActivityMeta
	TokenID uint64
	From    string
	To      string
}

func (TransferActivity) Type() ActivityType { return ActivityTypeTransfer }

// Item returns the transferred item
func (a TransferActivity) Item() ItemID { return ItemID{Contract: a.Contract, TokenID: a.TokenID} }

// WithdrawActivity is the sending half of a transfer
type WithdrawActivity struct {
	ActivityMeta
	TokenID uint64
	From    string
}

func (WithdrawActivity) Type() ActivityType { return ActivityTypeWithdraw }

// Item returns the withdrawn item
func (a WithdrawActivity) Item() ItemID { return ItemID{Contract: a.Contract, TokenID: a.TokenID} }

// DepositActivity is the receiving half of a transfer
type DepositActivity struct {
	ActivityMeta
	TokenID uint64
	To      string
}

func (DepositActivity) Type() ActivityType { return ActivityTypeDeposit }

// Item returns the deposited item
func (a DepositActivity) Item() ItemID { return ItemID{Contract: a.Contract, TokenID: a.TokenID} }

// ListActivity opens a sell order for an NFT
type ListActivity struct {
	ActivityMeta
	OrderID    string
	Maker      string
	Make       Asset
	Take       Asset
	Amount     decimal.Decimal
	Payouts    []Part
	OriginFees []Part
}

func (ListActivity) Type() ActivityType { return ActivityTypeList }

// CancelListActivity withdraws a sell order
type CancelListActivity struct {
	ActivityMeta
	OrderID string
}

func (CancelListActivity) Type() ActivityType { return ActivityTypeCancelList }

// BidActivity opens a buy order backed by a fungible balance
type BidActivity struct {
	ActivityMeta
	OrderID string
	Maker   string
	Make    Asset
	Take    Asset
	Amount  decimal.Decimal
}

func (BidActivity) Type() ActivityType { return ActivityTypeBid }

// CancelBidActivity withdraws a buy order
type CancelBidActivity struct {
	ActivityMeta
	OrderID string
}

func (CancelBidActivity) Type() ActivityType { return ActivityTypeCancelBid }

// SellActivity settles an order, fully or partially
type SellActivity struct {
	ActivityMeta
	OrderID string
	Buyer   string
	// Fill is the filled quantity in order units; nil fills the remaining amount
	Fill     *decimal.Decimal
	Price    decimal.Decimal
	Payments []Payment
}

func (SellActivity) Type() ActivityType { return ActivityTypeSell }

// LotAvailableActivity opens an English auction lot
type LotAvailableActivity struct {
	ActivityMeta
	LotID       string
	Seller      string
	Sell        Asset
	Currency    string
	StartPrice  decimal.Decimal
	MinStep     decimal.Decimal
	BuyoutPrice *decimal.Decimal
	Duration    time.Duration
	StartAt     time.Time
	OriginFees  []Part
}

func (LotAvailableActivity) Type() ActivityType { return ActivityTypeLotAvailable }

// LotCompletedActivity hammers a lot
type LotCompletedActivity struct {
	ActivityMeta
	LotID       string
	Buyer       *string
	HammerPrice decimal.Decimal
}

func (LotCompletedActivity) Type() ActivityType { return ActivityTypeLotCompleted }

// LotCanceledActivity cancels a lot
type LotCanceledActivity struct {
	ActivityMeta
	LotID string
}

func (LotCanceledActivity) Type() ActivityType { return ActivityTypeLotCanceled }

// LotEndTimeChangedActivity moves the end of a lot
type LotEndTimeChangedActivity struct {
	ActivityMeta
	LotID    string
	FinishAt time.Time
}

func (LotEndTimeChangedActivity) Type() ActivityType { return ActivityTypeLotEndTimeChanged }

// LotCleanedActivity marks a finished or canceled lot as settled on chain
type LotCleanedActivity struct {
	ActivityMeta
	LotID string
}

func (LotCleanedActivity) Type() ActivityType { return ActivityTypeLotCleaned }

// BidOpenedActivity places a first bid on a lot
type BidOpenedActivity struct {
	ActivityMeta
	LotID  string
	Bidder string
	Amount decimal.Decimal
}

func (BidOpenedActivity) Type() ActivityType { return ActivityTypeBidOpened }

// BidIncreasedActivity raises an existing bid on a lot
type BidIncreasedActivity struct {
	ActivityMeta
	LotID  string
	Bidder string
	Amount decimal.Decimal
}

func (BidIncreasedActivity) Type() ActivityType { return ActivityTypeBidIncreased }

// BidClosedActivity returns an outbid deposit to its bidder
type BidClosedActivity struct {
	ActivityMeta
	LotID  string
	Bidder string
}

func (BidClosedActivity) Type() ActivityType { return ActivityTypeBidClosed }

// BalanceChangedActivity is a signed fungible-token balance delta for an account
type BalanceChangedActivity struct {
	ActivityMeta
	Owner string
	Delta decimal.Decimal
}

func (BalanceChangedActivity) Type() ActivityType { return ActivityTypeBalanceChanged }

// Token returns the fungible token contract
func (a BalanceChangedActivity) Token() string { return a.Contract }
