package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": `{"kind":"balance","amount":null,"category":null}`}},
				},
			}},
		})
	}))
	defer srv.Close()

	p, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := p.Generate(context.Background(), "how much do I owe?")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, `"balance"`) {
		t.Fatalf("unexpected reply %q", out)
	}
	if !strings.Contains(gotPath, DefaultModel+":generateContent") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotBody, "how much do I owe?") {
		t.Fatalf("prompt not sent: %s", gotBody)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	p, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := p.Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
