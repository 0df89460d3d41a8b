// Package worker keeps a long-running session in step with changes made
// by other sessions on the same sheet.
package worker

import (
	"context"
	"errors"
	"sync/atomic"

	"chitieu/internal/amqp"
	"chitieu/internal/log"
)

// Target is the session whose view caches follow remote changes.
type Target interface {
	ID() string
	SheetID() string
	InvalidateViews(ctx context.Context, reason string)
}

// Consumer delivers transaction changes until ctx ends.
type Consumer interface {
	ConsumeChanges(ctx context.Context, handler amqp.Handler) error
}

// Stats counts handled changes.
type Stats struct {
	Applied int64 `json:"applied"`
	Skipped int64 `json:"skipped"`
}

type ChangeListener struct {
	target  Target
	logger  *log.Logger
	applied atomic.Int64
	skipped atomic.Int64
}

func NewChangeListener(target Target, logger *log.Logger) *ChangeListener {
	if logger == nil {
		logger = log.Discard()
	}
	return &ChangeListener{target: target, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleChange invalidates the target's views for a change to its sheet
// published by some other session. Its own changes and other sheets'
// changes are acknowledged and ignored.
func (l *ChangeListener) HandleChange(ctx context.Context, msg *amqp.TransactionChange) error {
	if msg == nil {
		return nil
	}
	if msg.SheetID != l.target.SheetID() || msg.Origin == l.target.ID() {
		l.skipped.Add(1)
		return nil
	}

	l.target.InvalidateViews(ctx, "remote "+string(msg.Kind))
	l.applied.Add(1)
	l.logger.InfoContext(ctx, "Applied remote change", log.NewFields().
		WithTransaction(msg.TransactionID, msg.Date, int64(msg.Amount), msg.Category).
		ToSlice()...)
	return nil
}

// Run consumes from c until ctx ends. Cancellation is not an error.
func (l *ChangeListener) Run(ctx context.Context, c Consumer) error {
	err := c.ConsumeChanges(ctx, l.HandleChange)
	if err != nil && !errors.Is(err, context.Canceled) {
		l.logger.LogError(ctx, "Change listener stopped", err, log.OpConsume, nil)
		return err
	}
	return nil
}

func (l *ChangeListener) Stats() Stats {
	return Stats{Applied: l.applied.Load(), Skipped: l.skipped.Load()}
}
