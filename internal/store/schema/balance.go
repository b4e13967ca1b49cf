package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance represents the balances table - materialized fungible-token balance per (owner, token)
type Balance struct {
	// ID is `<owner>:<token>`
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Owner is the account address
	Owner string `gorm:"column:owner;not null;type:text;index:idx_balances_owner"`
	// Token is the fungible token contract (e.g., A.1654653399040a61.FlowToken)
	Token string `gorm:"column:token;not null;type:text"`
	// Amount is the current balance
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(78,18)"`
	// UpdatedAt is the wall-clock time of the last applied delta
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}

// BalanceHistory represents the balance_histories table - one row per applied delta, keyed by log id
type BalanceHistory struct {
	// LogID is the provenance key of the TokensWithdrawn/TokensDeposited log
	LogID string `gorm:"column:log_id;primaryKey;type:text"`
	// Owner is the account address
	Owner string `gorm:"column:owner;not null;type:text;index:idx_balance_histories_owner_token,priority:1"`
	// Token is the fungible token contract
	Token string `gorm:"column:token;not null;type:text;index:idx_balance_histories_owner_token,priority:2"`
	// Delta is the signed change
	Delta decimal.Decimal `gorm:"column:delta;not null;type:numeric(78,18)"`
	// Timestamp is the block timestamp of the log
	Timestamp time.Time `gorm:"column:block_time;not null"`
}

// TableName specifies the table name for the BalanceHistory model
func (BalanceHistory) TableName() string {
	return "balance_histories"
}
