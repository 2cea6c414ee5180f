// Package store defines the domain records of the warehouse monitoring core
// and the abstract contracts to the backing realtime document store.
//
// The core never talks to a concrete database directly; it consumes change
// events from an EventSource and issues writes through a Store. Both
// contracts are satisfied by the gorm-backed adapter in internal/storage,
// by the MQTT adapter in internal/source, and by the in-memory
// implementation in this package (used for tests and standalone runs).
package store

import (
	"time"
)

// Severity classifies how far a reading deviates from its configured range.
// The ordering is CRITICAL > HIGH > WARNING > INFO > NONE.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
	SeverityNone     Severity = "NONE"
)

// rank maps severities to their ordering; unknown severities rank below NONE.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityWarning:  2,
	SeverityInfo:     1,
	SeverityNone:     0,
}

// Rank returns the ordering rank of the severity (higher is more severe).
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// AlertType constants define the supported alert types. Temperature and
// humidity are evaluated independently, so one reading can raise both a
// temperature and a humidity alert.
const (
	AlertTemperatureLow  = "TEMPERATURE_LOW"
	AlertTemperatureHigh = "TEMPERATURE_HIGH"
	AlertHumidityLow     = "HUMIDITY_LOW"
	AlertHumidityHigh    = "HUMIDITY_HIGH"
)

// WarehouseStatus constants define the live status values a warehouse can
// hold. Every processed reading writes one of the two; recovery must be
// observable.
const (
	StatusNormal = "normal"
	StatusAlert  = "alert"
)

// WarehouseConfig is the threshold configuration of a single warehouse.
//
// A config held in the active monitoring set has always passed validation
// (rules.ValidateConfig); invalid configs are logged and never admitted.
type WarehouseConfig struct {
	// ID is the opaque warehouse identifier assigned by the store.
	ID string `json:"id"`

	// Name is a human-readable identifier. Must be non-blank.
	Name string `json:"name"`

	// Location is a free-form site description.
	Location string `json:"location"`

	// Type tags the storage kind (cold storage, dry goods, ...).
	Type string `json:"type"`

	// MinTemp and MaxTemp bound the acceptable temperature range in °C.
	// MinTemp < MaxTemp, both within [-50, 50].
	MinTemp float64 `json:"minTemp"`
	MaxTemp float64 `json:"maxTemp"`

	// MinHumidity and MaxHumidity bound the acceptable relative humidity
	// range in percent. MinHumidity < MaxHumidity, both within [0, 100].
	MinHumidity float64 `json:"minHumidity"`
	MaxHumidity float64 `json:"maxHumidity"`

	// UserID is the owning user's uid.
	UserID string `json:"userId"`

	// Status is the live status ("normal" or "alert"), maintained by the
	// aggregator, not by config writers.
	Status string `json:"status"`

	// Audit fields, maintained by the external config writer.
	CreatedAt      int64  `json:"createdAt"`
	CreatedBy      string `json:"createdBy"`
	LastModified   int64  `json:"lastModified"`
	LastModifiedBy string `json:"lastModifiedBy"`

	// LastReading is the epoch-ms timestamp of the newest processed reading.
	LastReading int64 `json:"lastReading"`
}

// SensorReading is one timestamped temperature+humidity sample. Immutable
// once validated.
type SensorReading struct {
	// Temperature in °C.
	Temperature float64 `json:"temperature"`

	// Humidity in percent relative humidity.
	Humidity float64 `json:"humidity"`

	// Timestamp is epoch milliseconds at sampling time.
	Timestamp int64 `json:"timestamp"`

	// SensorID identifies the reporting sensor (optional).
	SensorID string `json:"sensorId,omitempty"`

	// BatteryLevel is free-form battery metadata (optional).
	BatteryLevel string `json:"batteryLevel,omitempty"`
}

// Alert is one typed threshold violation raised by a reading. An alert
// belongs to exactly one warehouse.
type Alert struct {
	// ID is assigned when the alert is persisted.
	ID string `json:"id,omitempty"`

	// Type is one of the Alert* constants.
	Type string `json:"type"`

	// Message is the human-readable description shown on the dashboard.
	Message string `json:"message"`

	// Severity is the tier computed from the deviation percentage.
	Severity Severity `json:"severity"`

	// Timestamp is the epoch-ms timestamp of the reading that raised the
	// alert.
	Timestamp int64 `json:"timestamp"`

	// WarehouseID and WarehouseName identify the warehouse.
	WarehouseID   string `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`

	// Acknowledgement state. Set exactly once by an external user action;
	// the core only honors it for cleanup and reporting.
	Acknowledged   bool   `json:"acknowledged"`
	AcknowledgedBy string `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt int64  `json:"acknowledgedAt,omitempty"`
}

// Notification is one per-user notification record emitted by the router.
// Write-only from the core's perspective; the read flag is flipped by the
// dashboard.
type Notification struct {
	ID        string   `json:"id,omitempty"`
	UserID    string   `json:"userId"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Timestamp int64    `json:"timestamp"`
	Read      bool     `json:"read"`
	Type      string   `json:"type"`
}

// AnalyticsSample is one derived analytics record, partitioned by calendar
// date for retention and reporting.
type AnalyticsSample struct {
	WarehouseID string   `json:"warehouseId"`
	Temperature float64  `json:"temperature"`
	Humidity    float64  `json:"humidity"`
	Timestamp   int64    `json:"timestamp"`
	HasAlert    bool     `json:"hasAlert"`
	Severity    Severity `json:"severity"`
	Hour        int      `json:"hour"`
	DayOfWeek   int      `json:"dayOfWeek"`
}

// DailyReport is the once-per-day aggregate of a warehouse's analytics
// samples. Warehouses with zero samples produce no report.
type DailyReport struct {
	WarehouseID    string  `json:"warehouseId"`
	Date           string  `json:"date"`
	AvgTemperature float64 `json:"avgTemperature"`
	MinTemperature float64 `json:"minTemperature"`
	MaxTemperature float64 `json:"maxTemperature"`
	AvgHumidity    float64 `json:"avgHumidity"`
	MinHumidity    float64 `json:"minHumidity"`
	MaxHumidity    float64 `json:"maxHumidity"`
	ReadingCount   int     `json:"readingCount"`
	AlertCount     int     `json:"alertCount"`
	CriticalAlerts int     `json:"criticalAlertCount"`
	GeneratedAt    int64   `json:"generatedAt"`
}

// AuditEntry records a configuration lifecycle event.
type AuditEntry struct {
	EventType   string `json:"eventType"`
	WarehouseID string `json:"warehouseId"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"`
}

// Audit event types written by the coordinator.
const (
	AuditWarehouseAdded    = "WAREHOUSE_ADDED"
	AuditWarehouseModified = "WAREHOUSE_MODIFIED"
	AuditWarehouseRemoved  = "WAREHOUSE_REMOVED"
)

// ErrorEntry mirrors a background failure into the store's error-log channel
// so that operators can see failures the dashboard otherwise hides.
type ErrorEntry struct {
	Message   string `json:"message"`
	Detail    string `json:"detail"`
	Timestamp int64  `json:"timestamp"`
}

// DateKey formats an epoch-ms timestamp as the YYYY-MM-DD partition key in
// the given location. The location must be the same everywhere a date is
// derived, or partition boundaries drift between writers and readers.
func DateKey(epochMs int64, loc *time.Location) string {
	return time.UnixMilli(epochMs).In(loc).Format("2006-01-02")
}
