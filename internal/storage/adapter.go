package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"warehousemon/internal/store"
)

// Compile-time check: the GORM layer satisfies the store contract.
var _ store.Store = (*Storage)(nil)

// SaveAlert persists an alert under its warehouse and returns the assigned ID.
func (s *Storage) SaveAlert(ctx context.Context, warehouseID string, alert store.Alert) (string, error) {
	rec := AlertRecord{
		ID:             uuid.NewString(),
		WarehouseID:    warehouseID,
		Type:           alert.Type,
		Message:        alert.Message,
		Severity:       string(alert.Severity),
		WarehouseName:  alert.WarehouseName,
		Timestamp:      alert.Timestamp,
		Acknowledged:   alert.Acknowledged,
		AcknowledgedBy: alert.AcknowledgedBy,
		AcknowledgedAt: alert.AcknowledgedAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

// SetWarehouseStatus upserts the live status field of a warehouse.
func (s *Storage) SetWarehouseStatus(ctx context.Context, warehouseID, status string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&WarehouseStateRecord{
		WarehouseID: warehouseID,
		Status:      status,
		UpdatedAt:   time.Now().UnixMilli(),
	}).Error
}

// SetLastReading upserts the last-reading timestamp of a warehouse.
func (s *Storage) SetLastReading(ctx context.Context, warehouseID string, timestamp int64) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_reading", "updated_at"}),
	}).Create(&WarehouseStateRecord{
		WarehouseID: warehouseID,
		LastReading: timestamp,
		UpdatedAt:   time.Now().UnixMilli(),
	}).Error
}

// SaveAnalytics appends one sample under the given date partition.
func (s *Storage) SaveAnalytics(ctx context.Context, date string, sample store.AnalyticsSample) error {
	rec := AnalyticsRecord{
		Date:        date,
		WarehouseID: sample.WarehouseID,
		Temperature: sample.Temperature,
		Humidity:    sample.Humidity,
		Timestamp:   sample.Timestamp,
		HasAlert:    sample.HasAlert,
		Severity:    string(sample.Severity),
		Hour:        sample.Hour,
		DayOfWeek:   sample.DayOfWeek,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// SaveNotification persists a per-user notification record.
func (s *Storage) SaveNotification(ctx context.Context, n store.Notification) error {
	rec := NotificationRecord{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Severity:  string(n.Severity),
		Timestamp: n.Timestamp,
		Read:      n.Read,
		Type:      n.Type,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// SaveReport upserts a daily report, replacing any prior report for the same
// warehouse and date.
func (s *Storage) SaveReport(ctx context.Context, report store.DailyReport) error {
	rec := ReportRecord{
		WarehouseID:    report.WarehouseID,
		Date:           report.Date,
		AvgTemperature: report.AvgTemperature,
		MinTemperature: report.MinTemperature,
		MaxTemperature: report.MaxTemperature,
		AvgHumidity:    report.AvgHumidity,
		MinHumidity:    report.MinHumidity,
		MaxHumidity:    report.MaxHumidity,
		ReadingCount:   report.ReadingCount,
		AlertCount:     report.AlertCount,
		CriticalAlerts: report.CriticalAlerts,
		GeneratedAt:    report.GeneratedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "warehouse_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"avg_temperature", "min_temperature", "max_temperature",
			"avg_humidity", "min_humidity", "max_humidity",
			"reading_count", "alert_count", "critical_alerts", "generated_at",
		}),
	}).Create(&rec).Error
}

// AppendAudit writes an audit-log entry.
func (s *Storage) AppendAudit(ctx context.Context, entry store.AuditEntry) error {
	return s.db.WithContext(ctx).Create(&AuditRecord{
		EventType:   entry.EventType,
		WarehouseID: entry.WarehouseID,
		UserID:      entry.UserID,
		Description: entry.Description,
		Timestamp:   entry.Timestamp,
	}).Error
}

// AppendError mirrors a background failure to the error log.
func (s *Storage) AppendError(ctx context.Context, entry store.ErrorEntry) error {
	return s.db.WithContext(ctx).Create(&ErrorRecord{
		Message:   entry.Message,
		Detail:    entry.Detail,
		Timestamp: entry.Timestamp,
	}).Error
}

// AnalyticsForDate reads back one warehouse's samples for a date.
func (s *Storage) AnalyticsForDate(ctx context.Context, warehouseID, date string) ([]store.AnalyticsSample, error) {
	var recs []AnalyticsRecord
	err := s.db.WithContext(ctx).
		Where("warehouse_id = ? AND date = ?", warehouseID, date).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	samples := make([]store.AnalyticsSample, 0, len(recs))
	for _, r := range recs {
		samples = append(samples, store.AnalyticsSample{
			WarehouseID: r.WarehouseID,
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			Timestamp:   r.Timestamp,
			HasAlert:    r.HasAlert,
			Severity:    store.Severity(r.Severity),
			Hour:        r.Hour,
			DayOfWeek:   r.DayOfWeek,
		})
	}
	return samples, nil
}

// AnalyticsDates lists the distinct analytics date partitions.
func (s *Storage) AnalyticsDates(ctx context.Context) ([]string, error) {
	var dates []string
	err := s.db.WithContext(ctx).
		Model(&AnalyticsRecord{}).
		Distinct("date").
		Order("date ASC").
		Pluck("date", &dates).Error
	return dates, err
}

// DeleteAnalyticsDate removes an entire analytics date partition.
func (s *Storage) DeleteAnalyticsDate(ctx context.Context, date string) error {
	return s.db.WithContext(ctx).
		Where("date = ?", date).
		Delete(&AnalyticsRecord{}).Error
}

// ListAlerts returns all persisted alerts.
func (s *Storage) ListAlerts(ctx context.Context) ([]store.StoredAlert, error) {
	var recs []AlertRecord
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&recs).Error; err != nil {
		return nil, err
	}

	alerts := make([]store.StoredAlert, 0, len(recs))
	for _, r := range recs {
		alerts = append(alerts, store.StoredAlert{
			WarehouseID: r.WarehouseID,
			Alert: store.Alert{
				ID:             r.ID,
				Type:           r.Type,
				Message:        r.Message,
				Severity:       store.Severity(r.Severity),
				Timestamp:      r.Timestamp,
				WarehouseID:    r.WarehouseID,
				WarehouseName:  r.WarehouseName,
				Acknowledged:   r.Acknowledged,
				AcknowledgedBy: r.AcknowledgedBy,
				AcknowledgedAt: r.AcknowledgedAt,
			},
		})
	}
	return alerts, nil
}

// DeleteAlert removes one alert by warehouse and ID.
func (s *Storage) DeleteAlert(ctx context.Context, warehouseID, alertID string) error {
	return s.db.WithContext(ctx).
		Where("warehouse_id = ? AND id = ?", warehouseID, alertID).
		Delete(&AlertRecord{}).Error
}

// ListNotifications returns all persisted notifications.
func (s *Storage) ListNotifications(ctx context.Context) ([]store.Notification, error) {
	var recs []NotificationRecord
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&recs).Error; err != nil {
		return nil, err
	}

	notifications := make([]store.Notification, 0, len(recs))
	for _, r := range recs {
		notifications = append(notifications, store.Notification{
			ID:        r.ID,
			UserID:    r.UserID,
			Title:     r.Title,
			Message:   r.Message,
			Severity:  store.Severity(r.Severity),
			Timestamp: r.Timestamp,
			Read:      r.Read,
			Type:      r.Type,
		})
	}
	return notifications, nil
}

// DeleteNotification removes one notification by user and ID.
func (s *Storage) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, notificationID).
		Delete(&NotificationRecord{}).Error
}

// DeleteWarehouseData removes all historical data tied to a removed
// warehouse: alerts, analytics samples, reports, and the live state row.
func (s *Storage) DeleteWarehouseData(ctx context.Context, warehouseID string) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("warehouse_id = ?", warehouseID).Delete(&AlertRecord{}).Error; err != nil {
		return err
	}
	if err := db.Where("warehouse_id = ?", warehouseID).Delete(&AnalyticsRecord{}).Error; err != nil {
		return err
	}
	if err := db.Where("warehouse_id = ?", warehouseID).Delete(&ReportRecord{}).Error; err != nil {
		return err
	}
	return db.Where("warehouse_id = ?", warehouseID).Delete(&WarehouseStateRecord{}).Error
}

// ReportsForDate reads back all reports generated for a date.
func (s *Storage) ReportsForDate(ctx context.Context, date string) ([]store.DailyReport, error) {
	var recs []ReportRecord
	err := s.db.WithContext(ctx).
		Where("date = ?", date).
		Order("warehouse_id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	reports := make([]store.DailyReport, 0, len(recs))
	for _, r := range recs {
		reports = append(reports, store.DailyReport{
			WarehouseID:    r.WarehouseID,
			Date:           r.Date,
			AvgTemperature: r.AvgTemperature,
			MinTemperature: r.MinTemperature,
			MaxTemperature: r.MaxTemperature,
			AvgHumidity:    r.AvgHumidity,
			MinHumidity:    r.MinHumidity,
			MaxHumidity:    r.MaxHumidity,
			ReadingCount:   r.ReadingCount,
			AlertCount:     r.AlertCount,
			CriticalAlerts: r.CriticalAlerts,
			GeneratedAt:    r.GeneratedAt,
		})
	}
	return reports, nil
}
