package domain

import "time"

// ChangeType is the kind of a downstream change notification
type ChangeType string

const (
	ChangeTypeItemChanged      ChangeType = "item.changed"
	ChangeTypeOrderChanged     ChangeType = "order.changed"
	ChangeTypeOwnershipChanged ChangeType = "ownership.changed"
	ChangeTypeOwnershipDeleted ChangeType = "ownership.deleted"
	ChangeTypeLotChanged       ChangeType = "lot.changed"
)

// ChangeEvent is emitted after a committed mutation of an item, order, ownership or lot
type ChangeEvent struct {
	ID        string     `json:"id"`
	Type      ChangeType `json:"type"`
	SubjectID string     `json:"subject_id"`
	LogID     LogID      `json:"log_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Payload   any        `json:"payload,omitempty"`
}
