// Package storage provides the GORM-based persistence layer of the warehouse
// monitoring system.
//
// It supports both SQLite (for development) and PostgreSQL (for production)
// with automatic schema migration, connection pooling, and clean resource
// management. The Storage type satisfies the store.Store contract consumed
// by the monitoring engine.
package storage

// AlertRecord is one persisted threshold violation.
type AlertRecord struct {
	// ID is assigned on save (UUID).
	ID string `gorm:"primaryKey;size:36"`

	// WarehouseID partitions alerts by warehouse.
	WarehouseID string `gorm:"index;not null"`

	Type          string `gorm:"not null"`
	Message       string
	Severity      string `gorm:"not null"`
	WarehouseName string

	// Timestamp is the reading's epoch-ms timestamp; retention scans it.
	Timestamp int64 `gorm:"index;not null"`

	// Acknowledgement state, written by the dashboard.
	Acknowledged   bool
	AcknowledgedBy string
	AcknowledgedAt int64
}

func (AlertRecord) TableName() string { return "alerts" }

// WarehouseStateRecord holds the live per-warehouse fields maintained by the
// monitoring engine.
type WarehouseStateRecord struct {
	WarehouseID string `gorm:"primaryKey;size:64"`
	Status      string
	LastReading int64
	UpdatedAt   int64
}

func (WarehouseStateRecord) TableName() string { return "warehouse_states" }

// AnalyticsRecord is one derived analytics sample, partitioned by calendar
// date so retention can drop whole days at once.
type AnalyticsRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Date        string `gorm:"index;size:10;not null"`
	WarehouseID string `gorm:"index;not null"`
	Temperature float64
	Humidity    float64
	Timestamp   int64
	HasAlert    bool
	Severity    string
	Hour        int
	DayOfWeek   int
}

func (AnalyticsRecord) TableName() string { return "analytics_samples" }

// NotificationRecord is one per-user notification.
type NotificationRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"index;not null"`
	Title     string
	Message   string
	Severity  string
	Timestamp int64 `gorm:"index"`
	Read      bool
	Type      string
}

func (NotificationRecord) TableName() string { return "notifications" }

// ReportRecord is one daily per-warehouse aggregate. A warehouse has at most
// one report per date; reruns replace the earlier row.
type ReportRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	WarehouseID    string `gorm:"uniqueIndex:idx_report_warehouse_date;not null"`
	Date           string `gorm:"uniqueIndex:idx_report_warehouse_date;size:10;not null"`
	AvgTemperature float64
	MinTemperature float64
	MaxTemperature float64
	AvgHumidity    float64
	MinHumidity    float64
	MaxHumidity    float64
	ReadingCount   int
	AlertCount     int
	CriticalAlerts int
	GeneratedAt    int64
}

func (ReportRecord) TableName() string { return "daily_reports" }

// AuditRecord is one configuration lifecycle event.
type AuditRecord struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	EventType   string
	WarehouseID string `gorm:"index"`
	UserID      string
	Description string
	Timestamp   int64
}

func (AuditRecord) TableName() string { return "audit_log" }

// ErrorRecord mirrors one background failure.
type ErrorRecord struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	Message   string
	Detail    string
	Timestamp int64
}

func (ErrorRecord) TableName() string { return "error_log" }
