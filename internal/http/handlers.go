package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	applog "fiado/internal/log"
	"fiado/internal/middleware/trace"
	"fiado/internal/whatsapp"
)

// handleVerify answers the provider's subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("hub.verify_token")

	if s.cfg.VerifyToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.VerifyToken)) != 1 {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Webhook verification failed",
			"mode", q.Get("hub.mode"))
		writeText(w, http.StatusForbidden, "Forbidden")
		return
	}
	writeText(w, http.StatusOK, q.Get("hub.challenge"))
}

// handleWebhook acknowledges every well-formed delivery with 200 "ok" and
// processes the message after responding, so provider retries stay rare.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		logger.WarnContext(ctx, "Failed reading webhook body", applog.FieldError, err)
		writeText(w, http.StatusOK, "ok")
		return
	}

	if s.cfg.AppSecret != "" {
		if err := whatsapp.VerifySignature(s.cfg.AppSecret, body, r.Header.Get(whatsapp.SignatureHeader)); err != nil {
			logger.WarnContext(ctx, "Rejected webhook signature", applog.FieldError, err)
			writeText(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	msg, err := whatsapp.ParseInbound(body)
	if err != nil {
		logger.DebugContext(ctx, "Ignoring webhook payload", applog.FieldError, err)
		writeText(w, http.StatusOK, "ok")
		return
	}

	if s.cfg.Handler != nil {
		requestID := trace.GetRequestID(ctx)
		// Detach from the request so the reply below does not cancel processing.
		pctx := applog.IntoContext(context.WithoutCancel(ctx), logger)
		if !s.track() {
			// WhatsApp redelivers anything not answered with 200.
			logger.WarnContext(ctx, "Rejecting message during shutdown", applog.FieldMessageID, msg.ID)
			writeText(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		go func() {
			defer s.inflight.Done()
			pctx, cancel := context.WithTimeout(pctx, s.cfg.ProcessTimeout)
			defer cancel()

			outcome := s.cfg.Handler.Handle(pctx, msg)
			logger.InfoContext(pctx, "Message handled",
				applog.FieldRequestID, requestID,
				applog.FieldMessageID, msg.ID,
				"outcome", outcome)
		}()
	}

	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the record store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok"}
	status, code := "ready", http.StatusOK

	if s.cfg.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.cfg.Ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			checks["store"] = "failed"
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
