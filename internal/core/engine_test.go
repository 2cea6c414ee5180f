package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"warehousemon/internal/config"
	"warehousemon/internal/store"
)

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		RetentionDays:   30,
		WriteTimeout:    time.Second,
		Timezone:        "UTC",
		CleanupInterval: 7 * 24 * time.Hour,
	}
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	e, err := NewEngine(testMonitorConfig(), 4, mem, mem)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e, mem
}

func testWarehouseConfig() *store.WarehouseConfig {
	return &store.WarehouseConfig{
		ID:          "WH-1",
		Name:        "Cold Storage A",
		MinTemp:     2,
		MaxTemp:     8,
		MinHumidity: 30,
		MaxHumidity: 60,
		UserID:      "owner-1",
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects invalid timezone", func(t *testing.T) {
		cfg := testMonitorConfig()
		cfg.Timezone = "Not/AZone"
		if _, err := NewEngine(cfg, 4, store.NewMemory(), store.NewMemory()); err == nil {
			t.Error("expected error for invalid timezone")
		}
	})

	t.Run("rejects non-positive worker count", func(t *testing.T) {
		if _, err := NewEngine(testMonitorConfig(), 0, store.NewMemory(), store.NewMemory()); err == nil {
			t.Error("expected error for zero worker count")
		}
	})
}

func TestProcessReadingRaisesAlert(t *testing.T) {
	e, mem := newTestEngine(t)
	e.configs.Put(testWarehouseConfig())
	e.users.Replace(map[string]*store.User{
		"owner-1": {UID: "owner-1", Role: store.RoleOperator, Active: true},
	})

	// Deviation 3°C over an allowed span of 6°C is exactly 50%, which
	// stays in the HIGH tier.
	now := time.Now().UnixMilli()
	e.processReading(store.ReadingEvent{
		WarehouseID: "WH-1",
		Reading:     store.SensorReading{Temperature: 11, Humidity: 45, Timestamp: now},
	})

	alerts, err := mem.ListAlerts(context.Background())
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("len(alerts) = %d, want 1", len(alerts))
	}
	if alerts[0].Alert.Type != store.AlertTemperatureHigh {
		t.Errorf("alert type = %q, want %q", alerts[0].Alert.Type, store.AlertTemperatureHigh)
	}
	if alerts[0].Alert.Severity != store.SeverityHigh {
		t.Errorf("alert severity = %q, want %q", alerts[0].Alert.Severity, store.SeverityHigh)
	}
	if alerts[0].Alert.ID == "" {
		t.Error("persisted alert has no ID")
	}

	status, ok := mem.Status("WH-1")
	if !ok || status != store.StatusAlert {
		t.Errorf("status = %q (ok=%v), want %q", status, ok, store.StatusAlert)
	}
	last, ok := mem.LastReading("WH-1")
	if !ok || last != now {
		t.Errorf("last reading = %d (ok=%v), want %d", last, ok, now)
	}

	notifications, err := mem.ListNotifications(context.Background())
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("len(notifications) = %d, want 1", len(notifications))
	}
	if notifications[0].UserID != "owner-1" {
		t.Errorf("notification user = %q, want owner-1", notifications[0].UserID)
	}

	date := store.DateKey(now, time.UTC)
	samples, err := mem.AnalyticsForDate(context.Background(), "WH-1", date)
	if err != nil {
		t.Fatalf("AnalyticsForDate() error = %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if !samples[0].HasAlert || samples[0].Severity != store.SeverityHigh {
		t.Errorf("sample = %+v, want hasAlert with HIGH severity", samples[0])
	}
}

func TestProcessReadingRecovery(t *testing.T) {
	e, mem := newTestEngine(t)
	e.configs.Put(testWarehouseConfig())

	now := time.Now().UnixMilli()
	e.processReading(store.ReadingEvent{
		WarehouseID: "WH-1",
		Reading:     store.SensorReading{Temperature: 15, Humidity: 45, Timestamp: now},
	})
	e.processReading(store.ReadingEvent{
		WarehouseID: "WH-1",
		Reading:     store.SensorReading{Temperature: 5, Humidity: 45, Timestamp: now + 1000},
	})

	status, _ := mem.Status("WH-1")
	if status != store.StatusNormal {
		t.Errorf("status after in-range reading = %q, want %q", status, store.StatusNormal)
	}

	alerts, _ := mem.ListAlerts(context.Background())
	if len(alerts) != 1 {
		t.Errorf("len(alerts) = %d, want 1 (in-range reading must not add alerts)", len(alerts))
	}
}

func TestProcessReadingNormalIsIdempotent(t *testing.T) {
	e, mem := newTestEngine(t)
	e.configs.Put(testWarehouseConfig())

	now := time.Now().UnixMilli()
	for i := 0; i < 2; i++ {
		e.processReading(store.ReadingEvent{
			WarehouseID: "WH-1",
			Reading:     store.SensorReading{Temperature: 5, Humidity: 45, Timestamp: now + int64(i)},
		})
		status, _ := mem.Status("WH-1")
		if status != store.StatusNormal {
			t.Fatalf("status after reading %d = %q, want %q", i, status, store.StatusNormal)
		}
	}
	alerts, _ := mem.ListAlerts(context.Background())
	if len(alerts) != 0 {
		t.Errorf("len(alerts) = %d, want 0", len(alerts))
	}
}

func TestProcessReadingDropsUnknownWarehouse(t *testing.T) {
	e, mem := newTestEngine(t)

	e.processReading(store.ReadingEvent{
		WarehouseID: "nowhere",
		Reading:     store.SensorReading{Temperature: 99, Humidity: 45, Timestamp: time.Now().UnixMilli()},
	})

	if _, ok := mem.Status("nowhere"); ok {
		t.Error("reading for unknown warehouse must not write status")
	}
	alerts, _ := mem.ListAlerts(context.Background())
	if len(alerts) != 0 {
		t.Errorf("len(alerts) = %d, want 0", len(alerts))
	}
}

func TestProcessReadingDropsInvalidReading(t *testing.T) {
	e, mem := newTestEngine(t)
	e.configs.Put(testWarehouseConfig())

	// Physically impossible temperature
	e.processReading(store.ReadingEvent{
		WarehouseID: "WH-1",
		Reading:     store.SensorReading{Temperature: 200, Humidity: 45, Timestamp: time.Now().UnixMilli()},
	})

	if _, ok := mem.Status("WH-1"); ok {
		t.Error("invalid reading must not write status")
	}
}

func TestConfigLifecycle(t *testing.T) {
	e, mem := newTestEngine(t)

	cfg := testWarehouseConfig()
	cfg.CreatedBy = "admin-1"

	e.handleConfigEvent(store.ConfigEvent{Kind: store.ConfigAdded, WarehouseID: cfg.ID, Config: cfg})
	if e.configs.Get("WH-1") == nil {
		t.Fatal("valid config not admitted")
	}

	audits := mem.Audits()
	if len(audits) != 1 || audits[0].EventType != store.AuditWarehouseAdded {
		t.Fatalf("audits = %+v, want one WAREHOUSE_ADDED entry", audits)
	}

	t.Run("invalid change keeps prior parameters", func(t *testing.T) {
		bad := *cfg
		bad.MinTemp = 10
		bad.MaxTemp = 5
		e.handleConfigEvent(store.ConfigEvent{Kind: store.ConfigChanged, WarehouseID: cfg.ID, Config: &bad})

		active := e.configs.Get("WH-1")
		if active == nil || active.MaxTemp != 8 {
			t.Errorf("active config = %+v, want prior MaxTemp 8 retained", active)
		}
		if len(mem.Errors()) == 0 {
			t.Error("rejected config should be mirrored to the error trail")
		}
	})

	t.Run("valid change is admitted and audited", func(t *testing.T) {
		updated := *cfg
		updated.MaxTemp = 10
		updated.LastModifiedBy = "admin-1"
		e.handleConfigEvent(store.ConfigEvent{Kind: store.ConfigChanged, WarehouseID: cfg.ID, Config: &updated})

		active := e.configs.Get("WH-1")
		if active == nil || active.MaxTemp != 10 {
			t.Errorf("active MaxTemp = %v, want 10", active.MaxTemp)
		}

		audits := mem.Audits()
		last := audits[len(audits)-1]
		if last.EventType != store.AuditWarehouseModified {
			t.Errorf("last audit = %q, want %q", last.EventType, store.AuditWarehouseModified)
		}
		if last.UserID != "admin-1" {
			t.Errorf("audit user = %q, want admin-1", last.UserID)
		}
	})

	t.Run("removal tears down data", func(t *testing.T) {
		now := time.Now().UnixMilli()
		e.processReading(store.ReadingEvent{
			WarehouseID: "WH-1",
			Reading:     store.SensorReading{Temperature: 20, Humidity: 45, Timestamp: now},
		})
		alerts, _ := mem.ListAlerts(context.Background())
		if len(alerts) == 0 {
			t.Fatal("expected an alert before removal")
		}

		e.handleConfigEvent(store.ConfigEvent{Kind: store.ConfigRemoved, WarehouseID: "WH-1"})
		if e.configs.Get("WH-1") != nil {
			t.Error("removed config still in cache")
		}

		alerts, _ = mem.ListAlerts(context.Background())
		if len(alerts) != 0 {
			t.Errorf("len(alerts) after removal = %d, want 0", len(alerts))
		}

		audits := mem.Audits()
		if audits[len(audits)-1].EventType != store.AuditWarehouseRemoved {
			t.Errorf("last audit = %q, want %q", audits[len(audits)-1].EventType, store.AuditWarehouseRemoved)
		}
	})

	t.Run("removal of unknown warehouse is a no-op", func(t *testing.T) {
		before := len(mem.Audits())
		e.handleConfigEvent(store.ConfigEvent{Kind: store.ConfigRemoved, WarehouseID: "never-seen"})
		if len(mem.Audits()) != before {
			t.Error("unknown removal must not write an audit entry")
		}
	})
}

func TestInvalidConfigNeverAdmitted(t *testing.T) {
	e, _ := newTestEngine(t)

	bad := testWarehouseConfig()
	bad.Name = "   "
	e.handleConfigEvent(store.ConfigEvent{Kind: store.ConfigAdded, WarehouseID: bad.ID, Config: bad})

	if e.configs.Get("WH-1") != nil {
		t.Error("config with blank name was admitted")
	}
}

func TestUserSnapshotDecodeIsolation(t *testing.T) {
	e, _ := newTestEngine(t)

	snapshot := store.UserSnapshot{
		"good": json.RawMessage(`{"email":"a@example.com","role":"admin","isActive":true}`),
		"bad":  json.RawMessage(`{not json`),
	}
	e.handleUserSnapshot(snapshot)

	if e.users.Len() != 1 {
		t.Fatalf("user cache size = %d, want 1", e.users.Len())
	}
	u := e.users.Get("good")
	if u == nil || u.Role != store.RoleAdmin || !u.Active {
		t.Errorf("decoded user = %+v, want active admin", u)
	}
	if e.users.Get("bad") != nil {
		t.Error("malformed user record must not enter the cache")
	}
}

func TestUserSnapshotUnknownRoleFallsBack(t *testing.T) {
	e, _ := newTestEngine(t)

	e.handleUserSnapshot(store.UserSnapshot{
		"u1": json.RawMessage(`{"role":"superuser","isActive":true}`),
	})

	u := e.users.Get("u1")
	if u == nil || u.Role != store.RoleViewer {
		t.Errorf("user role = %v, want fallback to viewer", u)
	}
}

func TestUserWithoutActiveFieldGetsNotified(t *testing.T) {
	e, mem := newTestEngine(t)
	e.configs.Put(testWarehouseConfig())
	e.handleUserSnapshot(store.UserSnapshot{
		"op-1": json.RawMessage(`{"email":"op@example.com","role":"operator","notificationPreferences":{"critical_alerts":true}}`),
	})

	// 21 on the 2..8 range is far past the critical boundary.
	e.processReading(store.ReadingEvent{
		WarehouseID: "WH-1",
		Reading:     store.SensorReading{Temperature: 21, Humidity: 45, Timestamp: time.Now().UnixMilli()},
	})

	notifs, err := mem.ListNotifications(context.Background())
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("len(notifs) = %d, want 1 for a user record without an isActive field", len(notifs))
	}
	if notifs[0].UserID != "op-1" {
		t.Errorf("notification UserID = %q, want %q", notifs[0].UserID, "op-1")
	}
	if notifs[0].Severity != store.SeverityCritical {
		t.Errorf("notification Severity = %s, want %s", notifs[0].Severity, store.SeverityCritical)
	}
}

func TestReadingIgnoredAfterStop(t *testing.T) {
	e, mem := newTestEngine(t)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	mem.EmitConfig(store.ConfigEvent{Kind: store.ConfigAdded, WarehouseID: "WH-1", Config: testWarehouseConfig()})
	e.Stop()

	if err := mem.PublishReading(context.Background(), "WH-1", store.SensorReading{
		Temperature: 5, Humidity: 45, Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		t.Fatalf("PublishReading() error = %v", err)
	}

	if status, ok := mem.Status("WH-1"); ok {
		t.Errorf("status %q written after Stop", status)
	}
	if _, ok := mem.LastReading("WH-1"); ok {
		t.Error("last reading written after Stop")
	}
}

// panicStore explodes on the status write, leaving everything else intact.
type panicStore struct {
	*store.Memory
}

func (p *panicStore) SetWarehouseStatus(ctx context.Context, warehouseID, status string) error {
	panic("status write exploded")
}

func TestPanickingWriteDoesNotSuppressSiblings(t *testing.T) {
	mem := store.NewMemory()
	e, err := NewEngine(testMonitorConfig(), 4, &panicStore{Memory: mem}, mem)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.configs.Put(testWarehouseConfig())

	now := time.Now().UnixMilli()
	e.processReading(store.ReadingEvent{
		WarehouseID: "WH-1",
		Reading:     store.SensorReading{Temperature: 5, Humidity: 45, Timestamp: now},
	})

	if last, ok := mem.LastReading("WH-1"); !ok || last != now {
		t.Errorf("last reading = %d (ok=%v), want %d written despite status panic", last, ok, now)
	}
	date := store.DateKey(now, time.UTC)
	samples, _ := mem.AnalyticsForDate(context.Background(), "WH-1", date)
	if len(samples) != 1 {
		t.Errorf("len(samples) = %d, want 1 written despite status panic", len(samples))
	}
	if len(mem.Errors()) == 0 {
		t.Error("panicking write should be mirrored to the error trail")
	}
}

func TestAdminPresenceWarnsOncePerTransition(t *testing.T) {
	e, _ := newTestEngine(t)

	admin := store.UserSnapshot{"a": json.RawMessage(`{"role":"admin","isActive":true}`)}
	noAdmin := store.UserSnapshot{"v": json.RawMessage(`{"role":"viewer","isActive":true}`)}

	e.handleUserSnapshot(noAdmin)
	if !e.adminMissing.Load() {
		t.Error("adminMissing should be set after a snapshot without an admin")
	}
	e.handleUserSnapshot(noAdmin)
	if !e.adminMissing.Load() {
		t.Error("adminMissing should stay set")
	}
	e.handleUserSnapshot(admin)
	if e.adminMissing.Load() {
		t.Error("adminMissing should clear once an active admin appears")
	}
}

func TestStartStopWithEvents(t *testing.T) {
	e, mem := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := e.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}

	mem.EmitConfig(store.ConfigEvent{Kind: store.ConfigAdded, WarehouseID: "WH-1", Config: testWarehouseConfig()})
	if e.configs.Get("WH-1") == nil {
		t.Error("config event not applied after Start")
	}

	if err := mem.PublishReading(ctx, "WH-1", store.SensorReading{
		Temperature: 21, Humidity: 45, Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		t.Fatalf("PublishReading() error = %v", err)
	}

	// Reading processing is asynchronous; Stop drains in-flight work.
	e.Stop()

	alerts, _ := mem.ListAlerts(context.Background())
	if len(alerts) != 1 {
		t.Fatalf("len(alerts) = %d, want 1", len(alerts))
	}
	if alerts[0].Alert.Severity != store.SeverityCritical {
		t.Errorf("severity = %q, want CRITICAL", alerts[0].Alert.Severity)
	}
}

func TestHealth(t *testing.T) {
	e, _ := newTestEngine(t)
	e.configs.Put(testWarehouseConfig())
	e.users.Replace(map[string]*store.User{
		"a": {UID: "a", Role: store.RoleAdmin, Active: true},
		"b": {UID: "b", Role: store.RoleViewer, Active: true},
	})

	h := e.Health()
	if h.Running {
		t.Error("engine not started, Running should be false")
	}
	if h.Warehouses != 1 {
		t.Errorf("Warehouses = %d, want 1", h.Warehouses)
	}
	if h.Users != 2 || h.UsersByRole["admin"] != 1 || h.UsersByRole["viewer"] != 1 {
		t.Errorf("user counts = %+v, want 2 users split admin/viewer", h)
	}
}

func TestWarehousesSortedByName(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, w := range []struct{ id, name string }{
		{"W3", "Charlie"}, {"W1", "Alpha"}, {"W2", "Bravo"},
	} {
		cfg := testWarehouseConfig()
		cfg.ID = w.id
		cfg.Name = w.name
		e.configs.Put(cfg)
	}

	got := e.Warehouses()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"Alpha", "Bravo", "Charlie"} {
		if got[i].Name != want {
			t.Errorf("Warehouses()[%d].Name = %q, want %q", i, got[i].Name, want)
		}
	}
}
