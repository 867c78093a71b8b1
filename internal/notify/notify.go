// Package notify holds Notifier implementations that do not need a chat
// provider.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// HistoryLimit is how many recent replies a LogNotifier keeps.
const HistoryLimit = 100

// LogNotifier writes replies to the log instead of sending them.
// It also keeps the last HistoryLimit of them so local runs and tests can
// inspect them.
type LogNotifier struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
}

type Message struct {
	Recipient string
	Text      string
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, recipient, text string) error {
	n.mu.Lock()
	n.sent = append(n.sent, Message{Recipient: recipient, Text: text})
	if over := len(n.sent) - HistoryLimit; over > 0 {
		n.sent = append(n.sent[:0], n.sent[over:]...)
	}
	n.mu.Unlock()

	n.logger.InfoContext(ctx, "Reply", "recipient", recipient, "text", text)
	return nil
}

// Sent returns a copy of the retained replies, oldest first.
func (n *LogNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.sent...)
}
