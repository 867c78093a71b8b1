package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fiado/internal/core"
)

var ErrEmptyReply = errors.New("empty model reply")

// reply accepts both the English keys and the Spanish ones older prompts used.
type reply struct {
	Kind      string          `json:"kind"`
	Tipo      string          `json:"tipo"`
	Amount    json.RawMessage `json:"amount"`
	Monto     json.RawMessage `json:"monto"`
	Category  *string         `json:"category"`
	Categoria *string         `json:"categoria"`
}

// Parse decodes a model reply into a normalized Classification.
func Parse(raw string) (core.Classification, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return core.Unrecognized(), ErrEmptyReply
	}

	var r reply
	if err := json.Unmarshal([]byte(clean), &r); err != nil {
		return core.Unrecognized(), fmt.Errorf("unmarshal reply: %w", err)
	}

	kind := r.Kind
	if kind == "" {
		kind = r.Tipo
	}
	amtRaw := r.Amount
	if len(amtRaw) == 0 {
		amtRaw = r.Monto
	}
	category := r.Category
	if category == nil {
		category = r.Categoria
	}

	amount, err := parseAmount(amtRaw)
	if err != nil {
		return core.Unrecognized(), err
	}

	c := core.Classification{Kind: core.Kind(kind), Amount: amount, Category: category}
	return c.Normalize(), nil
}

// parseAmount accepts a JSON number, a numeric string or null.
func parseAmount(raw json.RawMessage) (decimal.NullDecimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}, nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("amount: %w", err)
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("amount %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// cleanModelJSON strips Markdown fences and any text around the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return strings.Trim(s, "`")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
