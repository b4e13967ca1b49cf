// Package mapper turns raw Flow event logs into typed activities.
//
// Mapping is pure: a mapper never performs I/O, so every contract family can be
// exercised from literal field maps.
package mapper

import (
	"errors"
	"fmt"

	"github.com/feral-file/ff-market-indexer/internal/domain"
	"github.com/feral-file/ff-market-indexer/internal/registry"
)

// Mapper maps the raw events of a single contract
type Mapper interface {
	// Contract returns the contract identifier `A.<address>.<Name>` the mapper handles
	Contract() string

	// Events returns the event names the mapper understands
	Events() []string

	// Map maps one raw event. It returns domain.ErrUnknownEvent for event names
	// it does not understand, domain.ErrSkipEvent for events that carry no
	// state change and domain.ErrMapping for malformed payloads.
	Map(event domain.RawLogEvent) (domain.Activity, error)
}

// Registry dispatches raw events to the mapper of their contract
type Registry struct {
	mappers map[string]Mapper
}

// NewRegistry builds one mapper per configured contract
func NewRegistry(contracts []registry.Contract) (*Registry, error) {
	r := &Registry{mappers: make(map[string]Mapper, len(contracts))}
	for _, c := range contracts {
		m, err := New(c)
		if err != nil {
			return nil, err
		}
		if _, exists := r.mappers[m.Contract()]; exists {
			return nil, fmt.Errorf("duplicate mapper for %s", m.Contract())
		}
		r.mappers[m.Contract()] = m
	}
	return r, nil
}

// New creates the mapper for a contract according to its family
func New(c registry.Contract) (Mapper, error) {
	address, err := domain.NormalizeAddress(c.Address)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", c.Alias, err)
	}
	contract := domain.CollectionID(address, c.Name)

	switch c.Family {
	case registry.FamilyNFT:
		preset, err := nftPresetByName(c.Preset)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", c.Alias, err)
		}
		return newNFTMapper(contract, address, preset), nil
	case registry.FamilyStorefront:
		return newStorefrontMapper(contract), nil
	case registry.FamilyBids:
		return newBidsMapper(contract), nil
	case registry.FamilyEnglishAuction:
		return newAuctionMapper(contract), nil
	case registry.FamilyFungible:
		return newFungibleMapper(contract), nil
	default:
		return nil, fmt.Errorf("contract %s: unknown family %q", c.Alias, c.Family)
	}
}

// Supports reports whether a mapper is registered for the contract
func (r *Registry) Supports(contract string) bool {
	id, err := domain.NormalizeContractID(contract)
	if err != nil {
		return false
	}
	_, ok := r.mappers[id]
	return ok
}

// Map maps a raw event with the mapper of its contract
func (r *Registry) Map(event domain.RawLogEvent) (domain.Activity, error) {
	id, err := domain.NormalizeContractID(event.Contract)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnknownEvent, err)
	}
	m, ok := r.mappers[id]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s", domain.ErrUnknownEvent, id)
	}
	event.Contract = id
	return m.Map(event)
}

// baseMapper holds what every family shares
type baseMapper struct {
	contract string
	events   []string
}

func (b baseMapper) Contract() string { return b.contract }

func (b baseMapper) Events() []string { return b.events }

func (b baseMapper) meta(event domain.RawLogEvent) domain.ActivityMeta {
	return domain.ActivityMeta{
		LogID:     event.LogID,
		Contract:  b.contract,
		Timestamp: domain.TruncateTimestamp(event.BlockTimestamp),
	}
}

func (b baseMapper) unknown(event domain.RawLogEvent) error {
	return fmt.Errorf("%w: %s.%s", domain.ErrUnknownEvent, b.contract, event.EventName)
}

func skip(event domain.RawLogEvent, reason string) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrSkipEvent, event.EventName, reason)
}

// wrap prefixes mapping errors with the event they came from
func wrap(event domain.RawLogEvent, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMapping) {
		return fmt.Errorf("%s.%s: %w", event.Contract, event.EventName, err)
	}
	return err
}
