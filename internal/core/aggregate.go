package core

import (
	"context"
	"time"

	"warehousemon/internal/rules"
	"warehousemon/internal/store"
)

// aggregate persists the derived state of one processed reading: the live
// warehouse status, the last-reading timestamp, and one analytics sample.
// Every write is issued independently; a failure in one never suppresses
// the others.
//
// The status write is unconditional. Writing "normal" after an alert
// cleared is what makes recovery observable on the dashboard.
func (e *Engine) aggregate(cfg *store.WarehouseConfig, r store.SensorReading, alerts []store.Alert) {
	status := store.StatusNormal
	if len(alerts) > 0 {
		status = store.StatusAlert
	}

	e.writer.do("set warehouse status", cfg.ID, func(ctx context.Context) error {
		return e.store.SetWarehouseStatus(ctx, cfg.ID, status)
	})

	e.writer.do("set last reading", cfg.ID, func(ctx context.Context) error {
		return e.store.SetLastReading(ctx, cfg.ID, r.Timestamp)
	})

	sample := e.buildSample(cfg.ID, r, alerts)
	date := store.DateKey(r.Timestamp, e.loc)
	e.writer.do("save analytics", cfg.ID, func(ctx context.Context) error {
		return e.store.SaveAnalytics(ctx, date, sample)
	})
}

// buildSample derives the analytics record for a reading. Hour and day of
// week are taken in the engine's configured timezone, matching the date
// partition key.
func (e *Engine) buildSample(warehouseID string, r store.SensorReading, alerts []store.Alert) store.AnalyticsSample {
	t := time.UnixMilli(r.Timestamp).In(e.loc)
	return store.AnalyticsSample{
		WarehouseID: warehouseID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Timestamp:   r.Timestamp,
		HasAlert:    len(alerts) > 0,
		Severity:    rules.OverallSeverity(alerts),
		Hour:        t.Hour(),
		DayOfWeek:   int(t.Weekday()),
	}
}
