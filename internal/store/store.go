package store

import (
	"context"
	"encoding/json"
)

// ConfigEventKind discriminates warehouse-config change events.
type ConfigEventKind string

const (
	ConfigAdded   ConfigEventKind = "added"
	ConfigChanged ConfigEventKind = "changed"
	ConfigRemoved ConfigEventKind = "removed"
)

// ConfigEvent is one warehouse-config collection change. Config is nil for
// removal events.
type ConfigEvent struct {
	Kind        ConfigEventKind
	WarehouseID string
	Config      *WarehouseConfig
}

// ReadingEvent is one sensor-reading arrival for a warehouse.
type ReadingEvent struct {
	WarehouseID string
	Reading     SensorReading
}

// UserSnapshot is a full snapshot of the user collection, keyed by uid.
// Entries stay raw so that one malformed record can be skipped without
// discarding the rest of the snapshot.
type UserSnapshot map[string]json.RawMessage

// EventSource delivers change events from the backing realtime store.
//
// Handlers are invoked from the source's own delivery goroutine and must
// return quickly; the coordinator dispatches real work to its worker pool.
// Subscriptions live until the context is cancelled.
type EventSource interface {
	// SubscribeConfigs delivers warehouse-config add/change/remove events.
	SubscribeConfigs(ctx context.Context, handler func(ConfigEvent)) error

	// SubscribeReadings delivers new sensor readings, scoped per warehouse.
	SubscribeReadings(ctx context.Context, handler func(ReadingEvent)) error

	// SubscribeUsers delivers full user-collection snapshots.
	SubscribeUsers(ctx context.Context, handler func(UserSnapshot)) error
}

// ReadingPublisher injects sensor readings into the system through the same
// path real sensors use. Implemented by the event-source adapters; consumed
// by the simulator.
type ReadingPublisher interface {
	PublishReading(ctx context.Context, warehouseID string, reading SensorReading) error
}

// StoredAlert pairs a persisted alert with its warehouse partition, as
// needed by retention and the read API.
type StoredAlert struct {
	WarehouseID string
	Alert       Alert
}

// Store is the write/read contract to the backing document store.
//
// All writes from the processing path are fire-and-forget at the call site:
// the caller bounds them with a timeout context, logs failures and moves on.
// Retries belong to the store adapter or the collaborator, never here.
type Store interface {
	// SaveAlert persists an alert under its warehouse and returns the
	// assigned alert ID.
	SaveAlert(ctx context.Context, warehouseID string, alert Alert) (string, error)

	// SetWarehouseStatus writes the live status field ("normal"/"alert").
	SetWarehouseStatus(ctx context.Context, warehouseID, status string) error

	// SetLastReading writes the warehouse's last-reading timestamp.
	SetLastReading(ctx context.Context, warehouseID string, timestamp int64) error

	// SaveAnalytics appends one analytics sample under the given date
	// partition.
	SaveAnalytics(ctx context.Context, date string, sample AnalyticsSample) error

	// SaveNotification persists a per-user notification record.
	SaveNotification(ctx context.Context, notification Notification) error

	// SaveReport persists a daily report, replacing any prior report for
	// the same warehouse and date.
	SaveReport(ctx context.Context, report DailyReport) error

	// AppendAudit writes an audit-log entry.
	AppendAudit(ctx context.Context, entry AuditEntry) error

	// AppendError mirrors a background failure to the error-log channel.
	AppendError(ctx context.Context, entry ErrorEntry) error

	// AnalyticsForDate reads back one warehouse's samples for a date
	// (report generation).
	AnalyticsForDate(ctx context.Context, warehouseID, date string) ([]AnalyticsSample, error)

	// AnalyticsDates lists the existing analytics date partitions.
	AnalyticsDates(ctx context.Context) ([]string, error)

	// DeleteAnalyticsDate removes an entire analytics date partition.
	DeleteAnalyticsDate(ctx context.Context, date string) error

	// ListAlerts returns all persisted alerts (retention, read API).
	ListAlerts(ctx context.Context) ([]StoredAlert, error)

	// DeleteAlert removes one alert by warehouse and ID.
	DeleteAlert(ctx context.Context, warehouseID, alertID string) error

	// ListNotifications returns all persisted notifications.
	ListNotifications(ctx context.Context) ([]Notification, error)

	// DeleteNotification removes one notification by user and ID.
	DeleteNotification(ctx context.Context, userID, notificationID string) error

	// DeleteWarehouseData removes all historical data (alerts, analytics)
	// tied to a removed warehouse. Best effort.
	DeleteWarehouseData(ctx context.Context, warehouseID string) error

	// ReportsForDate reads back all reports generated for a date.
	ReportsForDate(ctx context.Context, date string) ([]DailyReport, error)
}
