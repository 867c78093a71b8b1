package core

import (
	"github.com/shopspring/decimal"
)

// Classification is the typed result of interpreting a chat message.
// Kind is always one of the five known kinds.
type Classification struct {
	Kind     Kind
	Amount   decimal.NullDecimal
	Category *string
}

// Unrecognized is the safe default used whenever classification fails.
func Unrecognized() Classification {
	return Classification{Kind: KindUnrecognized}
}

// Normalize coerces a raw classification into the closed set of outcomes.
// Unknown kinds and negative amounts collapse to Unrecognized; blank
// categories become nil.
func (c Classification) Normalize() Classification {
	kind := ParseKind(string(c.Kind))
	if kind == KindUnrecognized {
		return Unrecognized()
	}
	if c.Amount.Valid && c.Amount.Decimal.IsNegative() {
		return Unrecognized()
	}
	out := Classification{Kind: kind, Amount: c.Amount}
	if c.Category != nil {
		out.Category = StringPtr(*c.Category)
	}
	return out
}

// ToRecord builds the record persisted for a stored classification.
func (c Classification) ToRecord(id string, date Date, sender string) Record {
	return Record{
		ID:       id,
		Date:     date,
		Kind:     c.Kind,
		Amount:   c.Amount,
		Category: c.Category,
		Sender:   sender,
	}
}
