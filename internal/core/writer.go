package core

import (
	"context"
	"fmt"
	"time"

	"warehousemon/internal/store"

	"github.com/rs/zerolog/log"
)

// writer executes persistence calls with a per-call timeout and mirrors
// failures into the store's error trail. Failed writes are never retried;
// the system stays current-state driven and the next reading or tick
// produces a fresh write anyway.
type writer struct {
	store   store.Store
	timeout time.Duration
}

func newWriter(st store.Store, timeout time.Duration) *writer {
	return &writer{store: st, timeout: timeout}
}

// do runs a single store write bounded by the configured timeout. Errors and
// panics are logged and mirrored; the caller decides nothing, sibling writes
// proceed regardless.
func (w *writer) do(op, warehouseID string, fn func(ctx context.Context) error) error {
	err := w.run(fn)
	if err != nil {
		log.Error().
			Str("operation", op).
			Str("warehouse_id", warehouseID).
			Err(err).
			Msg("Store write failed")
		w.mirror(op, warehouseID, err)
	}
	return err
}

// run executes the store call with the timeout applied, converting a panic
// into an error so one exploding write cannot take out its siblings.
func (w *writer) run(fn func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// mirror records a write failure in the store's error trail. The mirror
// itself is best effort: if it fails too the failure is only logged,
// never mirrored again.
func (w *writer) mirror(op, warehouseID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	msg := op
	if warehouseID != "" {
		msg = op + " " + warehouseID
	}
	entry := store.ErrorEntry{
		Message:   msg,
		Detail:    cause.Error(),
		Timestamp: time.Now().UnixMilli(),
	}
	if err := w.store.AppendError(ctx, entry); err != nil {
		log.Warn().Str("operation", op).Err(err).Msg("Failed to record error entry")
	}
}
