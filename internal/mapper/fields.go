package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-market-indexer/internal/domain"
)

// fields wraps a raw event payload with typed accessors.
// Every accessor fails with domain.ErrMapping naming the field.
type fields map[string]any

func missing(name string) error {
	return fmt.Errorf("%w: missing field %q", domain.ErrMapping, name)
}

func illTyped(name string, v any) error {
	return fmt.Errorf("%w: field %q has unexpected value %v (%T)", domain.ErrMapping, name, v, v)
}

func (f fields) present(name string) bool {
	v, ok := f[name]
	return ok && v != nil
}

// numberString returns the textual form of a numeric field
func (f fields) numberString(name string) (string, error) {
	v, ok := f[name]
	if !ok || v == nil {
		return "", missing(name)
	}
	switch n := v.(type) {
	case json.Number:
		return n.String(), nil
	case string:
		return strings.TrimSpace(n), nil
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case uint64:
		return strconv.FormatUint(n, 10), nil
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case decimal.Decimal:
		return n.String(), nil
	default:
		return "", illTyped(name, v)
	}
}

func (f fields) uint64(name string) (uint64, error) {
	s, err := f.numberString(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, illTyped(name, f[name])
	}
	return n, nil
}

// id returns a numeric resource id in its decimal string form
func (f fields) id(name string) (string, error) {
	n, err := f.uint64(name)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(n, 10), nil
}

// decimal decodes a UFix64 or integer amount
func (f fields) decimal(name string) (decimal.Decimal, error) {
	s, err := f.numberString(name)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, illTyped(name, f[name])
	}
	return d, nil
}

func (f fields) optionalDecimal(name string) (*decimal.Decimal, error) {
	if !f.present(name) {
		return nil, nil
	}
	d, err := f.decimal(name)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (f fields) string(name string) (string, error) {
	v, ok := f[name]
	if !ok || v == nil {
		return "", missing(name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", illTyped(name, v)
	}
	return s, nil
}

func (f fields) bool(name string) (bool, error) {
	v, ok := f[name]
	if !ok || v == nil {
		return false, missing(name)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, illTyped(name, v)
		}
		return parsed, nil
	default:
		return false, illTyped(name, v)
	}
}

func (f fields) address(name string) (string, error) {
	s, err := f.string(name)
	if err != nil {
		return "", err
	}
	address, err := domain.NormalizeAddress(s)
	if err != nil {
		return "", fmt.Errorf("%w: field %q: %v", domain.ErrMapping, name, err)
	}
	return address, nil
}

// optionalAddress returns nil for an absent, null or empty address
func (f fields) optionalAddress(name string) (*string, error) {
	if !f.present(name) {
		return nil, nil
	}
	if s, ok := f[name].(string); ok && s == "" {
		return nil, nil
	}
	address, err := f.address(name)
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// timestamp decodes unix seconds, possibly fractional (UFix64), at millisecond precision
func (f fields) timestamp(name string) (time.Time, error) {
	d, err := f.decimal(name)
	if err != nil {
		return time.Time{}, err
	}
	if d.IsNegative() {
		return time.Time{}, illTyped(name, f[name])
	}
	millis := d.Shift(3).Truncate(0).IntPart()
	return time.UnixMilli(millis).UTC(), nil
}

// duration decodes a number of seconds, possibly fractional
func (f fields) duration(name string) (time.Duration, error) {
	d, err := f.decimal(name)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, illTyped(name, f[name])
	}
	return time.Duration(d.Shift(3).Truncate(0).IntPart()) * time.Millisecond, nil
}

// typeCollection turns a Cadence type identifier such as
// `A.0b2a3299cc857e29.TopShot.NFT` into the collection `A.0b2a3299cc857e29.TopShot`
func (f fields) typeCollection(name string) (string, error) {
	s, err := f.string(name)
	if err != nil {
		return "", err
	}
	eventType, err := domain.ParseEventType(s)
	if err != nil {
		return "", fmt.Errorf("%w: field %q: %v", domain.ErrMapping, name, err)
	}
	return eventType.Collection(), nil
}

// parts decodes a list of {address, amount|fee} objects
func (f fields) parts(name string) ([]domain.Part, error) {
	if !f.present(name) {
		return nil, nil
	}
	list, ok := f[name].([]any)
	if !ok {
		return nil, illTyped(name, f[name])
	}

	parts := make([]domain.Part, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, illTyped(fmt.Sprintf("%s[%d]", name, i), entry)
		}
		pf := fields(obj)
		address, err := pf.address("address")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		feeField := "fee"
		if !pf.present(feeField) {
			feeField = "amount"
		}
		fee, err := pf.decimal(feeField)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		parts = append(parts, domain.Part{Address: address, Fee: fee})
	}
	return parts, nil
}

// stringValues renders the named fields as strings for opaque metadata
func (f fields) stringValues(names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	values := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := f[name]
		if !ok || v == nil {
			return nil, missing(name)
		}
		if s, ok := v.(string); ok {
			values[name] = s
			continue
		}
		s, err := f.numberString(name)
		if err != nil {
			return nil, err
		}
		values[name] = s
	}
	return values, nil
}
