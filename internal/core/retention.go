package core

import (
	"context"
	"time"

	"warehousemon/internal/store"

	"github.com/rs/zerolog/log"
)

// SweepRetention deletes historical records older than the configured
// retention window. Every deletion is best effort: a record that fails to
// delete is logged and picked up again on the next sweep.
//
// The rules differ per record kind: analytics partitions go wholesale by
// date, alerts go by timestamp regardless of acknowledgement, notifications
// go by timestamp only once read.
func (e *Engine) SweepRetention(ctx context.Context) error {
	cutoffMs := time.Now().UnixMilli() - int64(e.monitor.RetentionDays)*24*int64(time.Hour/time.Millisecond)
	cutoffDate := store.DateKey(cutoffMs, e.loc)

	deleted := 0
	deleted += e.sweepAnalytics(ctx, cutoffDate)
	deleted += e.sweepAlerts(ctx, cutoffMs)
	deleted += e.sweepNotifications(ctx, cutoffMs)

	log.Info().
		Str("cutoff_date", cutoffDate).
		Int("deleted", deleted).
		Msg("Retention sweep complete")
	return nil
}

func (e *Engine) sweepAnalytics(ctx context.Context, cutoffDate string) int {
	dates, err := listBounded(ctx, e.monitor.WriteTimeout, func(ctx context.Context) ([]string, error) {
		return e.store.AnalyticsDates(ctx)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list analytics dates for retention")
		return 0
	}

	deleted := 0
	for _, date := range dates {
		// Date keys are zero-padded ISO dates, so string order is
		// chronological order.
		if date >= cutoffDate {
			continue
		}
		err := e.writer.do("delete analytics partition", "", func(ctx context.Context) error {
			return e.store.DeleteAnalyticsDate(ctx, date)
		})
		if err == nil {
			deleted++
		}
	}
	return deleted
}

func (e *Engine) sweepAlerts(ctx context.Context, cutoffMs int64) int {
	alerts, err := listBounded(ctx, e.monitor.WriteTimeout, func(ctx context.Context) ([]store.StoredAlert, error) {
		return e.store.ListAlerts(ctx)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list alerts for retention")
		return 0
	}

	deleted := 0
	for _, a := range alerts {
		if a.Alert.Timestamp >= cutoffMs {
			continue
		}
		err := e.writer.do("delete alert", a.WarehouseID, func(ctx context.Context) error {
			return e.store.DeleteAlert(ctx, a.WarehouseID, a.Alert.ID)
		})
		if err == nil {
			deleted++
		}
	}
	return deleted
}

func (e *Engine) sweepNotifications(ctx context.Context, cutoffMs int64) int {
	notifications, err := listBounded(ctx, e.monitor.WriteTimeout, func(ctx context.Context) ([]store.Notification, error) {
		return e.store.ListNotifications(ctx)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list notifications for retention")
		return 0
	}

	deleted := 0
	for _, n := range notifications {
		// Unread notifications are kept past the window; the user has
		// not seen them yet.
		if n.Timestamp >= cutoffMs || !n.Read {
			continue
		}
		err := e.writer.do("delete notification", "", func(ctx context.Context) error {
			return e.store.DeleteNotification(ctx, n.UserID, n.ID)
		})
		if err == nil {
			deleted++
		}
	}
	return deleted
}

// listBounded runs a store read bounded by the write timeout.
func listBounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) ([]T, error)) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
