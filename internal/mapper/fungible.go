package mapper

import (
	"github.com/feral-file/ff-market-indexer/internal/domain"
)

const (
	eventTokensWithdrawn = "TokensWithdrawn"
	eventTokensDeposited = "TokensDeposited"
)

// fungibleMapper maps FungibleToken vault movements into signed balance deltas
type fungibleMapper struct {
	baseMapper
}

func newFungibleMapper(contract string) *fungibleMapper {
	return &fungibleMapper{baseMapper{
		contract: contract,
		events:   []string{eventTokensWithdrawn, eventTokensDeposited},
	}}
}

func (m *fungibleMapper) Map(event domain.RawLogEvent) (domain.Activity, error) {
	var accountField string
	switch event.EventName {
	case eventTokensWithdrawn:
		accountField = "from"
	case eventTokensDeposited:
		accountField = "to"
	default:
		return nil, m.unknown(event)
	}

	f := fields(event.Fields)
	account, err := f.optionalAddress(accountField)
	if err != nil {
		return nil, wrap(event, err)
	}
	// vault-to-vault moves inside a transaction carry no account
	if account == nil {
		return nil, skip(event, "no account")
	}

	amount, err := f.decimal("amount")
	if err != nil {
		return nil, wrap(event, err)
	}
	if event.EventName == eventTokensWithdrawn {
		amount = amount.Neg()
	}

	return domain.BalanceChangedActivity{
		ActivityMeta: m.meta(event),
		Owner:        *account,
		Delta:        amount,
	}, nil
}
