package storage

import (
	"context"
	"testing"
	"time"

	"warehousemon/internal/config"
	"warehousemon/internal/store"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(config.StorageConfig{
		Driver:          "sqlite",
		DSN:             "file::memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.StorageConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestAlertRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	id, err := s.SaveAlert(ctx, "WH-1", store.Alert{
		Type:          store.AlertTemperatureHigh,
		Message:       "Temperature too high: 11.00°C (Max: 8.00°C, Deviation: 3.00°C)",
		Severity:      store.SeverityHigh,
		Timestamp:     1000,
		WarehouseID:   "WH-1",
		WarehouseName: "Cold Storage A",
	})
	if err != nil {
		t.Fatalf("SaveAlert() error = %v", err)
	}
	if id == "" {
		t.Fatal("SaveAlert() returned empty ID")
	}

	alerts, err := s.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("len(alerts) = %d, want 1", len(alerts))
	}
	got := alerts[0]
	if got.WarehouseID != "WH-1" || got.Alert.ID != id {
		t.Errorf("alert = %+v, want warehouse WH-1 with id %s", got, id)
	}
	if got.Alert.Severity != store.SeverityHigh || got.Alert.Type != store.AlertTemperatureHigh {
		t.Errorf("alert content = %+v", got.Alert)
	}

	if err := s.DeleteAlert(ctx, "WH-1", id); err != nil {
		t.Fatalf("DeleteAlert() error = %v", err)
	}
	alerts, _ = s.ListAlerts(ctx)
	if len(alerts) != 0 {
		t.Errorf("len(alerts) after delete = %d, want 0", len(alerts))
	}
}

func TestWarehouseStateUpserts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.SetWarehouseStatus(ctx, "WH-1", store.StatusAlert); err != nil {
		t.Fatalf("SetWarehouseStatus() error = %v", err)
	}
	if err := s.SetLastReading(ctx, "WH-1", 12345); err != nil {
		t.Fatalf("SetLastReading() error = %v", err)
	}
	if err := s.SetWarehouseStatus(ctx, "WH-1", store.StatusNormal); err != nil {
		t.Fatalf("second SetWarehouseStatus() error = %v", err)
	}

	var rec WarehouseStateRecord
	if err := s.db.First(&rec, "warehouse_id = ?", "WH-1").Error; err != nil {
		t.Fatalf("reading state row: %v", err)
	}
	if rec.Status != store.StatusNormal {
		t.Errorf("status = %q, want %q", rec.Status, store.StatusNormal)
	}
	if rec.LastReading != 12345 {
		t.Errorf("last reading = %d, want 12345", rec.LastReading)
	}

	var count int64
	s.db.Model(&WarehouseStateRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("state rows = %d, want 1 (upsert must not duplicate)", count)
	}
}

func TestAnalyticsPartitions(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, c := range []struct {
		date string
		wh   string
	}{
		{"2026-08-01", "WH-1"},
		{"2026-08-01", "WH-2"},
		{"2026-08-02", "WH-1"},
	} {
		if err := s.SaveAnalytics(ctx, c.date, store.AnalyticsSample{WarehouseID: c.wh, Temperature: 5}); err != nil {
			t.Fatalf("SaveAnalytics(%s) error = %v", c.date, err)
		}
	}

	dates, err := s.AnalyticsDates(ctx)
	if err != nil {
		t.Fatalf("AnalyticsDates() error = %v", err)
	}
	if len(dates) != 2 || dates[0] != "2026-08-01" || dates[1] != "2026-08-02" {
		t.Errorf("dates = %v, want [2026-08-01 2026-08-02]", dates)
	}

	samples, err := s.AnalyticsForDate(ctx, "WH-1", "2026-08-01")
	if err != nil {
		t.Fatalf("AnalyticsForDate() error = %v", err)
	}
	if len(samples) != 1 || samples[0].WarehouseID != "WH-1" {
		t.Errorf("samples = %+v, want one WH-1 sample", samples)
	}

	if err := s.DeleteAnalyticsDate(ctx, "2026-08-01"); err != nil {
		t.Fatalf("DeleteAnalyticsDate() error = %v", err)
	}
	dates, _ = s.AnalyticsDates(ctx)
	if len(dates) != 1 || dates[0] != "2026-08-02" {
		t.Errorf("dates after delete = %v, want [2026-08-02]", dates)
	}
}

func TestReportUpsertReplacesPrior(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	report := store.DailyReport{
		WarehouseID:  "WH-1",
		Date:         "2026-08-29",
		ReadingCount: 10,
		GeneratedAt:  1,
	}
	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	report.ReadingCount = 12
	report.GeneratedAt = 2
	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatalf("second SaveReport() error = %v", err)
	}

	reports, err := s.ReportsForDate(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("ReportsForDate() error = %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1", len(reports))
	}
	if reports[0].ReadingCount != 12 || reports[0].GeneratedAt != 2 {
		t.Errorf("report = %+v, want the rerun values", reports[0])
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.SaveNotification(ctx, store.Notification{
		UserID:   "u1",
		Title:    "Warehouse Alert: Cold Storage A",
		Severity: store.SeverityCritical,
	}); err != nil {
		t.Fatalf("SaveNotification() error = %v", err)
	}

	notifications, err := s.ListNotifications(ctx)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notifications) != 1 || notifications[0].ID == "" {
		t.Fatalf("notifications = %+v, want one with assigned ID", notifications)
	}

	if err := s.DeleteNotification(ctx, "u1", notifications[0].ID); err != nil {
		t.Fatalf("DeleteNotification() error = %v", err)
	}
	notifications, _ = s.ListNotifications(ctx)
	if len(notifications) != 0 {
		t.Errorf("notifications after delete = %d, want 0", len(notifications))
	}
}

func TestDeleteWarehouseData(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.SaveAlert(ctx, "WH-1", store.Alert{Type: store.AlertHumidityHigh, Severity: store.SeverityWarning}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveAlert(ctx, "WH-2", store.Alert{Type: store.AlertHumidityHigh, Severity: store.SeverityWarning}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAnalytics(ctx, "2026-08-01", store.AnalyticsSample{WarehouseID: "WH-1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetWarehouseStatus(ctx, "WH-1", store.StatusNormal); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveReport(ctx, store.DailyReport{WarehouseID: "WH-1", Date: "2026-08-01"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteWarehouseData(ctx, "WH-1"); err != nil {
		t.Fatalf("DeleteWarehouseData() error = %v", err)
	}

	alerts, _ := s.ListAlerts(ctx)
	if len(alerts) != 1 || alerts[0].WarehouseID != "WH-2" {
		t.Errorf("surviving alerts = %+v, want only WH-2", alerts)
	}
	samples, _ := s.AnalyticsForDate(ctx, "WH-1", "2026-08-01")
	if len(samples) != 0 {
		t.Errorf("WH-1 analytics survived teardown: %+v", samples)
	}
	reports, _ := s.ReportsForDate(ctx, "2026-08-01")
	if len(reports) != 0 {
		t.Errorf("WH-1 reports survived teardown: %+v", reports)
	}
}

func TestAuditAndErrorLog(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.AppendAudit(ctx, store.AuditEntry{
		EventType:   store.AuditWarehouseAdded,
		WarehouseID: "WH-1",
		UserID:      "admin-1",
		Description: `Warehouse "Cold Storage A" added to monitoring`,
		Timestamp:   1000,
	}); err != nil {
		t.Fatalf("AppendAudit() error = %v", err)
	}
	if err := s.AppendError(ctx, store.ErrorEntry{Message: "save alert WH-1", Detail: "timeout", Timestamp: 1000}); err != nil {
		t.Fatalf("AppendError() error = %v", err)
	}

	var audits, errors int64
	s.db.Model(&AuditRecord{}).Count(&audits)
	s.db.Model(&ErrorRecord{}).Count(&errors)
	if audits != 1 || errors != 1 {
		t.Errorf("rows = %d audits, %d errors, want 1 each", audits, errors)
	}
}
