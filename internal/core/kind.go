package core

import (
	"strings"
)

// Kind is the outcome of classifying a chat message.
type Kind string

const (
	KindExpense      Kind = "expense"
	KindPayment      Kind = "payment"
	KindCredit       Kind = "credit"
	KindBalance      Kind = "balance"
	KindUnrecognized Kind = "unrecognized"
)

// kindAliases maps every accepted spelling to its canonical kind.
// The Spanish labels are what the first version of the bot persisted.
var kindAliases = map[string]Kind{
	"expense":      KindExpense,
	"gasto":        KindExpense,
	"payment":      KindPayment,
	"pago":         KindPayment,
	"credit":       KindCredit,
	"fiado":        KindCredit,
	"tab":          KindCredit,
	"balance":      KindBalance,
	"summary":      KindBalance,
	"unrecognized": KindUnrecognized,
	"unknown":      KindUnrecognized,
	"desconocido":  KindUnrecognized,
}

// ParseKind normalizes s into a Kind. Anything it does not know becomes
// KindUnrecognized, so callers never see an open-ended string.
func ParseKind(s string) Kind {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k
	}
	return KindUnrecognized
}

// IsStored reports whether records of this kind are persisted.
func (k Kind) IsStored() bool {
	switch k {
	case KindExpense, KindPayment, KindCredit:
		return true
	default:
		return false
	}
}

// Label returns the kind capitalized for chat replies ("Credit").
func (k Kind) Label() string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (k Kind) String() string {
	return string(k)
}
