// Package worker processes ledger events off the queue: deleting orphaned
// receipt images and mirroring new records to Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jangbu/internal/amqp"
	"jangbu/internal/core"
	"jangbu/internal/ledger"
	"jangbu/internal/log"
	"jangbu/internal/storage"
)

// RecordMirror appends records to the external spreadsheet.
type RecordMirror interface {
	AppendExpense(ctx context.Context, e core.Expense) (string, error)
	AppendIncome(ctx context.Context, in core.Income) (string, error)
}

// ImageRemover deletes a stored receipt image.
type ImageRemover interface {
	Remove(ctx context.Context, imageURL string) error
}

// Consumer delivers queued events to a handler.
type Consumer interface {
	Consume(ctx context.Context, handler func(*amqp.Event) error) error
}

const handleTimeout = 30 * time.Second

type EventWorker struct {
	consumer Consumer
	store    ledger.Store
	images   ImageRemover
	mirror   RecordMirror // nil disables mirroring
	logger   *log.Logger
}

func NewEventWorker(consumer Consumer, store ledger.Store, images ImageRemover, mirror RecordMirror, logger *log.Logger) *EventWorker {
	return &EventWorker{
		consumer: consumer,
		store:    store,
		images:   images,
		mirror:   mirror,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run blocks consuming events until the context is cancelled.
func (w *EventWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "event worker started",
		"mirror_enabled", w.mirror != nil)
	return w.consumer.Consume(ctx, func(event *amqp.Event) error {
		hctx, cancel := context.WithTimeout(ctx, handleTimeout)
		defer cancel()
		return w.handle(hctx, event)
	})
}

func (w *EventWorker) handle(ctx context.Context, event *amqp.Event) error {
	switch event.Kind {
	case amqp.EventImageCleanup:
		return w.handleImageCleanup(ctx, event)
	case amqp.EventRecordCreated:
		return w.handleRecordCreated(ctx, event)
	default:
		// Unknown kinds are dropped, not requeued.
		w.logger.WarnContext(ctx, "unknown event kind, dropping", "kind", event.Kind)
		return nil
	}
}

func (w *EventWorker) handleImageCleanup(ctx context.Context, event *amqp.Event) error {
	if event.ImageURL == "" {
		return nil
	}
	if err := w.images.Remove(ctx, event.ImageURL); err != nil {
		return fmt.Errorf("cleanup image: %w", err)
	}
	w.logger.InfoContext(ctx, "image cleaned up", log.FieldImageURL, event.ImageURL)
	return nil
}

func (w *EventWorker) handleRecordCreated(ctx context.Context, event *amqp.Event) error {
	if w.mirror == nil {
		return nil
	}

	switch event.RecordKind {
	case "expense":
		e, err := w.store.GetExpense(ctx, event.RecordID)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before we got to it.
			w.logger.WarnContext(ctx, "record gone before mirroring", log.FieldRecordID, event.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load expense for mirror: %w", err)
		}
		if _, err := w.mirror.AppendExpense(ctx, e); err != nil {
			return fmt.Errorf("mirror expense: %w", err)
		}
	case "income":
		in, err := w.store.GetIncome(ctx, event.RecordID)
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.WarnContext(ctx, "record gone before mirroring", log.FieldRecordID, event.RecordID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load income for mirror: %w", err)
		}
		if _, err := w.mirror.AppendIncome(ctx, in); err != nil {
			return fmt.Errorf("mirror income: %w", err)
		}
	default:
		w.logger.WarnContext(ctx, "unknown record kind, dropping", "record_kind", event.RecordKind)
	}
	return nil
}
