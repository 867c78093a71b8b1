// Package classifier turns free chat text into a core.Classification using
// a language model. Any provider failure degrades to unrecognized.
package classifier

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"fiado/internal/core"
)

// Provider sends a prompt to a model and returns its raw text reply.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type Classifier struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Classifier)

// WithTimeout bounds each provider call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

func New(p Provider, opts ...Option) *Classifier {
	c := &Classifier{provider: p, timeout: 15 * time.Second, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify never fails: provider errors, timeouts and malformed replies all
// yield core.Unrecognized().
func (c *Classifier) Classify(ctx context.Context, text string) core.Classification {
	if c.provider == nil {
		return core.Unrecognized()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.provider.Generate(ctx, BuildPrompt(text))
	if err != nil {
		c.logger.WarnContext(ctx, "Classifier provider failed",
			"error", err,
			"duration", time.Since(start))
		return core.Unrecognized()
	}

	result, err := Parse(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "Classifier reply not understood",
			"error", err,
			"raw", truncate(raw, 200))
		return core.Unrecognized()
	}

	c.logger.DebugContext(ctx, "Message classified",
		"kind", result.Kind,
		"duration", time.Since(start))
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
