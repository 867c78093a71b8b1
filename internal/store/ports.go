// Package store declares the record persistence ports shared by every
// backend. Records are append-only: there is no update or delete.
package store

import (
	"context"
	"errors"

	"fiado/internal/core"
)

// ErrUnavailable wraps backend failures (I/O, network, auth).
var ErrUnavailable = errors.New("record store unavailable")

// Ports for record backends.
type (
	// Appender durably adds one record at the end of the history.
	Appender interface {
		Append(ctx context.Context, r core.Record) error
	}

	// Reader returns every record in insertion order.
	Reader interface {
		All(ctx context.Context) ([]core.Record, error)
	}

	Store interface {
		Appender
		Reader
	}
)
