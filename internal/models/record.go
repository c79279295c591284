// Package models defines the weighing-ticket record shared by both stores.
package models

import (
	"fmt"

	"github.com/dmitrijs2005/millkeeper/internal/common"
)

// Origin tags the store a record was read from. It is attached at read time
// and never persisted.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// ParseOrigin validates a raw origin tag.
func ParseOrigin(s string) (Origin, error) {
	switch o := Origin(s); o {
	case OriginRemote, OriginLocal:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown origin %q", common.ErrValidation, s)
	}
}

// Record is a single weighing ticket.
type Record struct {
	// ID is unique within the owning store. Remote ids are server-generated
	// push ids.
	ID string `json:"id"`

	Name string `json:"name"`

	// WeightKg is never negative; malformed input is stored as 0.
	WeightKg float64 `json:"weight_kg"`

	// PaymentMethod may be empty (not yet paid).
	PaymentMethod string `json:"payment_method"`

	// EventTimeMs is the business timestamp in epoch milliseconds.
	// 0 means "no timestamp".
	EventTimeMs int64 `json:"event_time_ms"`

	Origin Origin `json:"origin"`
}

// HasTimestamp reports whether the record carries a usable event time.
func (r Record) HasTimestamp() bool {
	return r.EventTimeMs != 0
}

// Tag returns a copy of the records with their origin set to o.
func Tag(records []Record, o Origin) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Origin = o
		out[i] = r
	}
	return out
}
