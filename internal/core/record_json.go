package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// recordJSON is the persisted shape of a Record.
type recordJSON struct {
	ID       string              `json:"id,omitempty"`
	Date     string              `json:"date"`
	Kind     string              `json:"kind"`
	Amount   decimal.NullDecimal `json:"amount"`
	Category *string             `json:"category"`
	Sender   string              `json:"sender"`
}

// legacyRecordJSON is the flat-file format written by the first version of
// the bot. Only read, never written.
type legacyRecordJSON struct {
	Fecha     string              `json:"fecha"`
	Tipo      string              `json:"tipo"`
	Monto     decimal.NullDecimal `json:"monto"`
	Categoria *string             `json:"categoria"`
	From      string              `json:"from"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:       r.ID,
		Date:     r.Date.String(),
		Kind:     string(r.Kind),
		Amount:   r.Amount,
		Category: r.Category,
		Sender:   r.Sender,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var cur recordJSON
	if err := json.Unmarshal(data, &cur); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if cur.Date == "" && cur.Kind == "" {
		var legacy legacyRecordJSON
		if err := json.Unmarshal(data, &legacy); err != nil {
			return fmt.Errorf("decode legacy record: %w", err)
		}
		cur = recordJSON{
			Date:     legacy.Fecha,
			Kind:     legacy.Tipo,
			Amount:   legacy.Monto,
			Category: legacy.Categoria,
			Sender:   legacy.From,
		}
	}

	date, err := ParseDate(cur.Date)
	if err != nil {
		return err
	}
	kind := ParseKind(cur.Kind)
	if !kind.IsStored() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, cur.Kind)
	}

	*r = Record{
		ID:       cur.ID,
		Date:     date,
		Kind:     kind,
		Amount:   cur.Amount,
		Category: cur.Category,
		Sender:   cur.Sender,
	}
	return nil
}

// DecodeRecords reads a JSON array of records. Legacy entries without an
// id get a deterministic one derived from their position.
func DecodeRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = fmt.Sprintf("legacy-%d", i+1)
		}
	}
	return records, nil
}

// EncodeRecords writes records as an indented JSON array.
func EncodeRecords(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}
