package mapper

import (
	"fmt"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// nftPreset describes the mint, burn and transfer events of a collection
type nftPreset struct {
	mintEvent string
	burnEvent string
	// transferEvent is optional; most collections only emit Withdraw/Deposit
	transferEvent string
	// tokenField names the token id field of the mint event; other events use "id"
	tokenField string
	// metadataFields are copied verbatim from the mint event into the item metadata
	metadataFields []string
	// ownerField names the recipient of the mint; empty means the contract account
	ownerField string
	// creatorField names the creator of the mint; empty means the owner
	creatorField string
	// royaltiesField names an optional list of {address, fee}
	royaltiesField string
}

var nftPresets = map[string]nftPreset{
	"topshot": {
		mintEvent:      "MomentMinted",
		burnEvent:      "MomentDestroyed",
		tokenField:     "momentID",
		metadataFields: []string{"playID", "setID", "serialNumber"},
	},
	"evolution": {
		mintEvent:  "CollectibleMinted",
		burnEvent:  "CollectibleDestroyed",
		tokenField: "id",
	},
	"motogp": {
		mintEvent:      "Mint",
		burnEvent:      "Burn",
		tokenField:     "id",
		metadataFields: []string{"cardID", "serial"},
	},
	"generic": {
		mintEvent:      "Mint",
		burnEvent:      "Burn",
		transferEvent:  "Transfer",
		tokenField:     "id",
		ownerField:     "to",
		creatorField:   "creator",
		royaltiesField: "royalties",
	},
}

func nftPresetByName(name string) (nftPreset, error) {
	if name == "" {
		name = "generic"
	}
	preset, ok := nftPresets[name]
	if !ok {
		return nftPreset{}, fmt.Errorf("unknown nft preset %q", name)
	}
	return preset, nil
}

const (
	eventWithdraw = "Withdraw"
	eventDeposit  = "Deposit"
)

type nftMapper struct {
	baseMapper
	// address is the contract account, owner of freshly minted tokens
	address string
	preset  nftPreset
}

func newNFTMapper(contract, address string, preset nftPreset) *nftMapper {
	events := []string{eventWithdraw, eventDeposit, preset.mintEvent, preset.burnEvent}
	if preset.transferEvent != "" {
		events = append(events, preset.transferEvent)
	}
	return &nftMapper{
		baseMapper: baseMapper{contract: contract, events: events},
		address:    address,
		preset:     preset,
	}
}

func (m *nftMapper) Map(event domain.RawLogEvent) (domain.Activity, error) {
	f := fields(event.Fields)
	meta := m.meta(event)

	var (
		activity domain.Activity
		err      error
	)
	switch event.EventName {
	case eventWithdraw:
		activity, err = m.withdraw(event, f, meta)
	case eventDeposit:
		activity, err = m.deposit(event, f, meta)
	case m.preset.mintEvent:
		activity, err = m.mint(f, meta)
	case m.preset.burnEvent:
		var tokenID uint64
		tokenID, err = f.uint64("id")
		activity = domain.BurnActivity{ActivityMeta: meta, TokenID: tokenID}
	default:
		if m.preset.transferEvent != "" && event.EventName == m.preset.transferEvent {
			activity, err = m.transfer(f, meta)
		} else {
			return nil, m.unknown(event)
		}
	}
	if err != nil {
		return nil, wrap(event, err)
	}
	return activity, nil
}

func (m *nftMapper) withdraw(event domain.RawLogEvent, f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	tokenID, err := f.uint64("id")
	if err != nil {
		return nil, err
	}
	from, err := f.optionalAddress("from")
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, skip(event, "withdraw without account")
	}
	return domain.WithdrawActivity{ActivityMeta: meta, TokenID: tokenID, From: *from}, nil
}

func (m *nftMapper) deposit(event domain.RawLogEvent, f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	tokenID, err := f.uint64("id")
	if err != nil {
		return nil, err
	}
	to, err := f.optionalAddress("to")
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, skip(event, "deposit without account")
	}
	return domain.DepositActivity{ActivityMeta: meta, TokenID: tokenID, To: *to}, nil
}

func (m *nftMapper) mint(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	tokenID, err := f.uint64(m.preset.tokenField)
	if err != nil {
		return nil, err
	}

	owner := m.address
	if m.preset.ownerField != "" {
		to, err := f.optionalAddress(m.preset.ownerField)
		if err != nil {
			return nil, err
		}
		if to != nil {
			owner = *to
		}
	}

	creator := owner
	if m.preset.creatorField != "" {
		c, err := f.optionalAddress(m.preset.creatorField)
		if err != nil {
			return nil, err
		}
		if c != nil {
			creator = *c
		}
	}

	var royalties []domain.Part
	if m.preset.royaltiesField != "" {
		royalties, err = f.parts(m.preset.royaltiesField)
		if err != nil {
			return nil, err
		}
	}

	metadata, err := f.stringValues(m.preset.metadataFields)
	if err != nil {
		return nil, err
	}

	return domain.MintActivity{
		ActivityMeta: meta,
		TokenID:      tokenID,
		Owner:        owner,
		Creator:      creator,
		Royalties:    royalties,
		Metadata:     metadata,
	}, nil
}

func (m *nftMapper) transfer(f fields, meta domain.ActivityMeta) (domain.Activity, error) {
	tokenID, err := f.uint64("id")
	if err != nil {
		return nil, err
	}
	from, err := f.address("from")
	if err != nil {
		return nil, err
	}
	to, err := f.address("to")
	if err != nil {
		return nil, err
	}
	return domain.TransferActivity{ActivityMeta: meta, TokenID: tokenID, From: from, To: to}, nil
}
