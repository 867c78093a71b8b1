package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fiado/internal/core"
)

const (
	colID = iota
	colDate
	colKind
	colAmount
	colCategory
	colSender
)

func recordToRow(r core.Record) []any {
	amount := ""
	if r.Amount.Valid {
		amount = r.Amount.Decimal.String()
	}
	category := ""
	if r.Category != nil {
		category = strings.TrimSpace(*r.Category)
	}
	return []any{r.ID, r.Date.String(), string(r.Kind), amount, category, r.Sender}
}

// parseRecordRow converts one sheet row into a Record. Trailing empty cells
// may be missing, as the API trims them.
func parseRecordRow(row []any) (core.Record, error) {
	cols := toStrings(row)
	if len(cols) < colKind+1 {
		return core.Record{}, fmt.Errorf("row has %d columns, need at least %d", len(cols), colKind+1)
	}

	date, err := core.ParseDate(cols[colDate])
	if err != nil {
		return core.Record{}, err
	}
	kind := core.ParseKind(cols[colKind])
	if !kind.IsStored() {
		return core.Record{}, fmt.Errorf("%w: %q", core.ErrInvalidKind, cols[colKind])
	}

	r := core.Record{
		ID:       safeGet(cols, colID),
		Date:     date,
		Kind:     kind,
		Category: core.StringPtr(safeGet(cols, colCategory)),
		Sender:   safeGet(cols, colSender),
	}
	if raw := safeGet(cols, colAmount); raw != "" {
		amt, err := parseAmount(raw)
		if err != nil {
			return core.Record{}, err
		}
		r.Amount = decimal.NewNullDecimal(amt)
	}
	return r, nil
}

// parseAmount accepts "12000", "12.5", the decimal comma form "12,5" and
// hand-typed grouping such as "1,000", "1.000.000" or "1.000,50". When both
// separators appear the last one is the decimal point. A lone comma followed
// by exactly three digits is read as grouping.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(normalizeSeparators(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, core.ErrNegativeAmount
	}
	return d, nil
}

func normalizeSeparators(s string) string {
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 != 3 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlankRow(row []any) bool {
	for _, v := range toStrings(row) {
		if v != "" {
			return false
		}
	}
	return true
}
