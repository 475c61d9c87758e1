// Package worker runs the audit consumer: it turns override change
// events into rows of the audit trail.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/amqp"
)

// AuditRecorder is the slice of the override repository the worker needs.
type AuditRecorder interface {
	RecordOverrideChange(ctx context.Context, transactionID, action string, amountCents *int64, category *string, occurredAt time.Time) error
}

// AuditWorker consumes override change messages and appends them to the
// audit trail. Failed writes are requeued by the consumer loop.
type AuditWorker struct {
	recorder AuditRecorder
}

func NewAuditWorker(recorder AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandleChangeMessage processes a single override change event.
func (w *AuditWorker) HandleChangeMessage(ctx context.Context, msg *amqp.OverrideChangeMessage) error {
	slog.InfoContext(ctx, "Recording override change",
		"transaction_id", msg.TransactionID,
		"action", msg.Action)

	err := w.recorder.RecordOverrideChange(ctx, msg.TransactionID, msg.Action, msg.AmountCents, msg.Category, msg.OccurredAt)
	if err != nil {
		return fmt.Errorf("record override change: %w", err)
	}
	return nil
}

// Run consumes change events until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeOverrideChanges(ctx, func(msg *amqp.OverrideChangeMessage) error {
		return w.HandleChangeMessage(ctx, msg)
	})
}
