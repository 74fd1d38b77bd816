package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types produced by the clickstream.
const (
	EventTypePageView       = "page_view"
	EventTypeAddToCart      = "add_to_cart"
	EventTypeRemoveFromCart = "remove_from_cart"
	EventTypePurchase       = "purchase"
	EventTypeSearch         = "search"
)

// RawEvent is one clickstream record as decoded from an NDJSON line. Every
// field is a pointer: upstream telemetry routinely omits or nulls fields, and
// the pipeline needs to distinguish absent from zero-valued. This is the only
// type untyped input is ever decoded into.
type RawEvent struct {
	Timestamp   *string  `json:"timestamp"`
	UserID      *string  `json:"user_id"`
	SessionID   *string  `json:"session_id"`
	EventType   *string  `json:"event_type"`
	ProductID   *string  `json:"product_id"`
	Quantity    *float64 `json:"quantity"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	SearchQuery *string  `json:"search_query"`
}

// HasRequiredFields reports whether the record carries the four fields every
// cleaned event must have. Records failing this check are dropped, never repaired.
func (e *RawEvent) HasRequiredFields() bool {
	return e.Timestamp != nil && e.UserID != nil && e.SessionID != nil && e.EventType != nil
}

// CleanedEvent is a validated, normalized and derived event ready for
// columnar materialization. Quantity and Price are nil either when the raw
// record omitted them or when the raw value was negative.
type CleanedEvent struct {
	EventTS     time.Time
	EventDate   string
	UserID      string
	SessionID   string
	EventType   string
	ProductID   *string
	Quantity    *int32
	Price       *decimal.Decimal
	Category    *string
	SearchQuery *string
	Revenue     *decimal.Decimal
}

// PartitionKey returns the time partition tuple for the event, derived from
// EventTS in UTC.
func (e *CleanedEvent) PartitionKey() PartitionKey {
	ts := e.EventTS.UTC()
	return PartitionKey{
		Year:  ts.Format("2006"),
		Month: ts.Format("01"),
		Day:   ts.Format("02"),
		Hour:  ts.Format("15"),
	}
}
