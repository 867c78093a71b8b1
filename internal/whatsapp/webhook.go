package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"fiado/internal/core"
)

// SignatureHeader carries the HMAC-SHA256 of the raw body, "sha256=<hex>".
const SignatureHeader = "X-Hub-Signature-256"

var (
	ErrNoMessage        = errors.New("payload has no text message")
	ErrBadSignature     = errors.New("signature mismatch")
	ErrMissingSignature = errors.New("missing signature")
)

type (
	// Payload is the subset of the Cloud API webhook body we read.
	Payload struct {
		Object string  `json:"object"`
		Entry  []Entry `json:"entry"`
	}

	Entry struct {
		ID      string   `json:"id"`
		Changes []Change `json:"changes"`
	}

	Change struct {
		Field string `json:"field"`
		Value Value  `json:"value"`
	}

	Value struct {
		MessagingProduct string    `json:"messaging_product"`
		Messages         []Message `json:"messages"`
	}

	Message struct {
		ID        string `json:"id"`
		From      string `json:"from"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Text      *Text  `json:"text"`
	}

	Text struct {
		Body string `json:"body"`
	}
)

// ParseInbound extracts the first text message from a webhook body.
// Status callbacks, media messages and malformed JSON yield an error.
func ParseInbound(body []byte) (core.InboundMessage, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return core.InboundMessage{}, err
	}
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 || len(p.Entry[0].Changes[0].Value.Messages) == 0 {
		return core.InboundMessage{}, ErrNoMessage
	}
	m := p.Entry[0].Changes[0].Value.Messages[0]
	if m.Text == nil || strings.TrimSpace(m.From) == "" {
		return core.InboundMessage{}, ErrNoMessage
	}
	return core.InboundMessage{ID: m.ID, Sender: m.From, Text: m.Text.Body}, nil
}

// VerifySignature checks header against the HMAC of body keyed by secret.
func VerifySignature(secret string, body []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	given, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return ErrBadSignature
	}
	got, err := hex.DecodeString(given)
	if err != nil {
		return ErrBadSignature
	}
	if !hmac.Equal(got, Sign(secret, body)) {
		return ErrBadSignature
	}
	return nil
}

// Sign returns the raw HMAC-SHA256 of body.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureValue formats a signature the way the Cloud API sends it.
func SignatureValue(secret string, body []byte) string {
	return "sha256=" + hex.EncodeToString(Sign(secret, body))
}
