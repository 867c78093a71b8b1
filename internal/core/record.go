package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date used on the wire and in storage.
const DateLayout = "2006-01-02"

// UncategorizedLabel is how a record without a category is shown.
const UncategorizedLabel = "uncategorized"

type (
	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Record is an immutable fact about a monetary event.
	Record struct {
		ID       string
		Date     Date
		Kind     Kind
		Amount   decimal.NullDecimal // Null contributes 0 to every aggregate
		Category *string             // Nil is the uncategorized bucket
		Sender   string              // Audit only
	}

	// InboundMessage is a text message received from the chat provider.
	InboundMessage struct {
		ID     string
		Sender string
		Text   string
	}
)

var (
	ErrInvalidKind    = errors.New("invalid record kind")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptySender    = errors.New("empty sender")
	ErrEmptyRecordID  = errors.New("empty record id")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the record invariants enforced before persisting.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyRecordID
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if !r.Kind.IsStored() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if r.Amount.Valid && r.Amount.Decimal.IsNegative() {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(r.Sender) == "" {
		return ErrEmptySender
	}
	return nil
}

// AmountOrZero returns the amount, treating null as 0.
func (r Record) AmountOrZero() decimal.Decimal {
	if !r.Amount.Valid {
		return decimal.Zero
	}
	return r.Amount.Decimal
}

// CategoryLabel returns the category, or UncategorizedLabel when absent.
func (r Record) CategoryLabel() string {
	if r.Category == nil {
		return UncategorizedLabel
	}
	return *r.Category
}

// StringPtr returns nil for blank strings, a trimmed copy otherwise.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
