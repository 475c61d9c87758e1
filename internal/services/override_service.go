// Package services orchestrates the dashboard use cases on top of the
// stores, the dataset and the AMQP client.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/dataset"
	"finboard/internal/store"
)

// EventPublisher publishes override change events. Satisfied by
// *amqp.Client; faked in tests.
type EventPublisher interface {
	PublishOverrideChange(ctx context.Context, msg *amqp.OverrideChangeMessage) error
}

// ViewInvalidator drops cached dashboard views after a mutation.
type ViewInvalidator interface {
	InvalidateViews()
}

// OverrideService applies user corrections: validate against the base
// table, persist, announce, invalidate.
type OverrideService struct {
	base      store.RowStore
	overrides store.OverrideStore
	data      *dataset.Dataset
	publisher EventPublisher
	views     ViewInvalidator
}

func NewOverrideService(base store.RowStore, overrides store.OverrideStore, data *dataset.Dataset, publisher EventPublisher, views ViewInvalidator) *OverrideService {
	return &OverrideService{
		base:      base,
		overrides: overrides,
		data:      data,
		publisher: publisher,
		views:     views,
	}
}

// Upsert sets the given fields of the override for id. Fields left nil
// keep their current override value, so editing the category does not
// clobber an earlier amount correction. A non-nil zero amount is stored
// as a real value.
func (s *OverrideService) Upsert(ctx context.Context, id string, amount *core.Money, category *string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	if amount == nil && category == nil {
		return core.ErrNoFieldToSet
	}

	// The base row must exist; overrides for unknown ids would be dead
	// weight the merge ignores.
	if _, err := s.base.GetByID(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("look up transaction %s: %w", id, err)
	}

	next := core.Override{TransactionID: id, Amount: amount, Category: category}
	if existing, ok, err := s.find(ctx, id); err != nil {
		return err
	} else if ok {
		if next.Amount == nil {
			next.Amount = existing.Amount
		}
		if next.Category == nil {
			next.Category = existing.Category
		}
	}

	if err := s.overrides.Upsert(ctx, next); err != nil {
		return fmt.Errorf("save override %s: %w", id, err)
	}

	var cents *int64
	if next.Amount != nil {
		v := next.Amount.Cents
		cents = &v
	}
	s.publishChange(ctx, amqp.NewOverrideChangeMessage(id, amqp.ActionUpserted, cents, next.Category))
	s.invalidate()

	slog.InfoContext(ctx, "Override saved",
		"transaction_id", id,
		"has_amount", next.Amount != nil,
		"has_category", next.Category != nil)
	return nil
}

// Delete removes the override for id, restoring the base row as-is.
// Absent ids are a no-op.
func (s *OverrideService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	if err := s.overrides.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete override %s: %w", id, err)
	}

	s.publishChange(ctx, amqp.NewOverrideChangeMessage(id, amqp.ActionDeleted, nil, nil))
	s.invalidate()

	slog.InfoContext(ctx, "Override deleted", "transaction_id", id)
	return nil
}

// ReadAll returns the current override table.
func (s *OverrideService) ReadAll(ctx context.Context) ([]core.Override, error) {
	out, err := s.overrides.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return out, nil
}

func (s *OverrideService) find(ctx context.Context, id string) (core.Override, bool, error) {
	all, err := s.overrides.ReadAll(ctx)
	if err != nil {
		return core.Override{}, false, fmt.Errorf("read overrides: %w", err)
	}
	for _, o := range all {
		if o.TransactionID == id {
			return o, true, nil
		}
	}
	return core.Override{}, false, nil
}

// publishChange is best-effort: the override is already persisted, so a
// broker outage only costs the audit trail, not the mutation.
func (s *OverrideService) publishChange(ctx context.Context, msg *amqp.OverrideChangeMessage) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change event",
			"transaction_id", msg.TransactionID, "action", msg.Action)
		return
	}
	if err := s.publisher.PublishOverrideChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"transaction_id", msg.TransactionID, "action", msg.Action, "error", err)
	}
}

func (s *OverrideService) invalidate() {
	if s.data != nil {
		s.data.Invalidate()
	}
	if s.views != nil {
		s.views.InvalidateViews()
	}
}
