package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fiado/internal/balance"
	"fiado/internal/cache"
	"fiado/internal/core"
	"fiado/internal/store"
)

// Reply texts sent back to the chat.
const (
	ReplyNotUnderstood  = "I didn't understand the message. Example: 'credit supermarket 12000'"
	ReplySaveFailed     = "Sorry, I couldn't save that. Please try again."
	ReplySummaryFailed  = "Sorry, I couldn't build your summary right now."
	recordedReplySuffix = " recorded ✔"
)

type (
	// Classifier interprets free text. It never fails.
	Classifier interface {
		Classify(ctx context.Context, text string) core.Classification
	}

	// Notifier delivers a reply to the chat.
	Notifier interface {
		Send(ctx context.Context, recipient, text string) error
	}
)

// Outcome reports what Handle did with a message.
type Outcome string

const (
	OutcomeRecorded     Outcome = "recorded"
	OutcomeSummary      Outcome = "summary"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeFailed       Outcome = "failed"
)

// Dispatcher routes a classified message to the store or the balance engine
// and replies through the notifier.
type Dispatcher struct {
	classifier Classifier
	store      store.Store
	notifier   Notifier
	seen       cache.Cache[struct{}]
	location   *time.Location
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithLocation sets the time zone that decides a record's calendar date.
func WithLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithDedupe drops messages whose ID is already in c.
func WithDedupe(c cache.Cache[struct{}]) DispatcherOption {
	return func(d *Dispatcher) { d.seen = c }
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func WithIDGenerator(f func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newID = f }
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(c Classifier, s store.Store, n Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		classifier: c,
		store:      s,
		notifier:   n,
		location:   time.Local,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes one inbound message end to end. It never panics on
// collaborator errors; failures are logged and answered with a fixed reply.
func (d *Dispatcher) Handle(ctx context.Context, msg core.InboundMessage) Outcome {
	logger := d.logger.With("message_id", msg.ID, "sender", msg.Sender)

	if d.seen != nil && msg.ID != "" && !d.seen.SetIfAbsent(msg.ID, struct{}{}) {
		logger.InfoContext(ctx, "Duplicate delivery ignored")
		return OutcomeDuplicate
	}

	c := d.classifier.Classify(ctx, msg.Text)
	logger.InfoContext(ctx, "Message classified", "kind", c.Kind)

	var (
		reply   string
		outcome Outcome
	)
	switch {
	case c.Kind.IsStored():
		reply, outcome = d.record(ctx, logger, msg, c)
	case c.Kind == core.KindBalance:
		reply, outcome = d.summary(ctx, logger)
	default:
		reply, outcome = ReplyNotUnderstood, OutcomeUnrecognized
	}

	if err := d.notifier.Send(ctx, msg.Sender, reply); err != nil {
		logger.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
	return outcome
}

func (d *Dispatcher) record(ctx context.Context, logger *slog.Logger, msg core.InboundMessage, c core.Classification) (string, Outcome) {
	date := core.DateOf(d.now().In(d.location))
	r := c.ToRecord(d.newID(), date, msg.Sender)

	if err := d.store.Append(ctx, r); err != nil {
		logger.ErrorContext(ctx, "Failed to append record",
			"record_id", r.ID,
			"error", err)
		// Let a redelivery of the same message try again.
		if d.seen != nil && msg.ID != "" {
			d.seen.Delete(msg.ID)
		}
		return ReplySaveFailed, OutcomeFailed
	}

	logger.InfoContext(ctx, "Record appended",
		"record_id", r.ID,
		"kind", r.Kind,
		"date", r.Date.String())
	return RecordedReply(r.Kind), OutcomeRecorded
}

func (d *Dispatcher) summary(ctx context.Context, logger *slog.Logger) (string, Outcome) {
	records, err := d.store.All(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read records", "error", err)
		return ReplySummaryFailed, OutcomeFailed
	}
	return balance.GenerateSummary(records), OutcomeSummary
}

// RecordedReply is the acknowledgement for a stored kind, e.g. "Credit recorded ✔".
func RecordedReply(k core.Kind) string {
	return k.Label() + recordedReplySuffix
}
