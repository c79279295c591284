package models

import (
	"github.com/dmitrijs2005/millkeeper/internal/numx"
)

// Wire field names. Producers have written both the English and the older
// Italian dialect over time.
const (
	FieldID        = "id"
	FieldName      = "name"
	FieldNameIT    = "nome"
	FieldWeight    = "weight"
	FieldWeightIT  = "peso"
	FieldPayment   = "pagamento"
	FieldEventTime = "dataOra"
)

// FromWire decodes a record body as stored in the remote collection.
// id is the collection key and wins over any "id" inside the body.
// Either dialect is accepted; the first non-empty value of each pair is used.
func FromWire(id string, body map[string]any, origin Origin) Record {
	if id == "" {
		id = numx.String(body[FieldID])
	}

	name := numx.String(body[FieldName])
	if name == "" {
		name = numx.String(body[FieldNameIT])
	}

	weight := numx.Float64(body[FieldWeight], 0)
	if weight == 0 {
		weight = numx.Float64(body[FieldWeightIT], 0)
	}

	return Record{
		ID:            id,
		Name:          name,
		WeightKg:      numx.NonNegative(weight),
		PaymentMethod: numx.String(body[FieldPayment]),
		EventTimeMs:   numx.Int64(body[FieldEventTime], 0),
		Origin:        origin,
	}
}

// ToWire renders r in the canonical (English name, Italian payment/time)
// field set used by current producers.
func ToWire(r Record) map[string]any {
	return map[string]any{
		FieldName:      r.Name,
		FieldWeight:    r.WeightKg,
		FieldPayment:   r.PaymentMethod,
		FieldEventTime: r.EventTimeMs,
	}
}
