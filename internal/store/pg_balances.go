package store

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/store/schema"
)

// ApplyBalanceDelta writes the history row and increments the balance in one transaction.
// The history primary key makes a replayed log a no-op.
func (s *gormStore) ApplyBalanceDelta(ctx context.Context, history *schema.BalanceHistory) (decimal.Decimal, bool, error) {
	var (
		amount  decimal.Decimal
		applied bool
	)
	id := domain.BalanceID(history.Owner, history.Token)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "log_id"}},
			DoNothing: true,
		}).Create(history)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected > 0 {
			applied = true
			balance := schema.Balance{
				ID:        id,
				Owner:     history.Owner,
				Token:     history.Token,
				Amount:    history.Delta,
				UpdatedAt: history.Timestamp,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Set{
					{Column: clause.Column{Name: "amount"}, Value: gorm.Expr("balances.amount + excluded.amount")},
					{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
				},
			}).Create(&balance).Error
			if err != nil {
				return err
			}
		}

		var balance schema.Balance
		found, err := first(tx.Where("id = ?", id), &balance)
		if err != nil {
			return err
		}
		if found {
			amount = balance.Amount
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, false, wrapErr("apply balance delta", err)
	}
	return amount, applied, nil
}

// GetBalance retrieves the balance of owner in token
func (s *gormStore) GetBalance(ctx context.Context, owner string, token string) (*schema.Balance, error) {
	var balance schema.Balance
	found, err := first(s.db.WithContext(ctx).Where("id = ?", domain.BalanceID(owner, token)), &balance)
	if err != nil {
		return nil, wrapErr("get balance", err)
	}
	if !found {
		return nil, nil
	}
	return &balance, nil
}
