package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Store and EventSource. It backs standalone runs
// (broker disabled) and the test suites; event delivery is synchronous,
// which gives tests deterministic ordering.
type Memory struct {
	mu sync.RWMutex

	statuses     map[string]string           // warehouseID -> status
	lastReadings map[string]int64            // warehouseID -> epoch ms
	alerts       map[string]map[string]Alert // warehouseID -> alertID -> alert
	analytics    map[string]map[string][]AnalyticsSample
	notifs       map[string]map[string]Notification // userID -> notifID -> notification
	reports      map[string]map[string]DailyReport  // date -> warehouseID -> report
	audits       []AuditEntry
	errors       []ErrorEntry

	subMu      sync.RWMutex
	configSubs []subscription[ConfigEvent]
	readingSub []subscription[ReadingEvent]
	userSubs   []subscription[UserSnapshot]
}

// subscription ties a handler to the context it was registered under;
// delivery stops once that context is cancelled.
type subscription[E any] struct {
	ctx     context.Context
	handler func(E)
}

func emit[E any](subs []subscription[E], ev E) {
	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		s.handler(ev)
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		statuses:     make(map[string]string),
		lastReadings: make(map[string]int64),
		alerts:       make(map[string]map[string]Alert),
		analytics:    make(map[string]map[string][]AnalyticsSample),
		notifs:       make(map[string]map[string]Notification),
		reports:      make(map[string]map[string]DailyReport),
	}
}

var _ Store = (*Memory)(nil)
var _ EventSource = (*Memory)(nil)
var _ ReadingPublisher = (*Memory)(nil)

// --- EventSource ---

func (m *Memory) SubscribeConfigs(ctx context.Context, handler func(ConfigEvent)) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.configSubs = append(m.configSubs, subscription[ConfigEvent]{ctx: ctx, handler: handler})
	return nil
}

func (m *Memory) SubscribeReadings(ctx context.Context, handler func(ReadingEvent)) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.readingSub = append(m.readingSub, subscription[ReadingEvent]{ctx: ctx, handler: handler})
	return nil
}

func (m *Memory) SubscribeUsers(ctx context.Context, handler func(UserSnapshot)) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.userSubs = append(m.userSubs, subscription[UserSnapshot]{ctx: ctx, handler: handler})
	return nil
}

// EmitConfig delivers a config change event to all live config subscribers.
func (m *Memory) EmitConfig(ev ConfigEvent) {
	m.subMu.RLock()
	subs := m.configSubs
	m.subMu.RUnlock()
	emit(subs, ev)
}

// EmitUsers delivers a full user snapshot to all live user subscribers.
func (m *Memory) EmitUsers(snapshot UserSnapshot) {
	m.subMu.RLock()
	subs := m.userSubs
	m.subMu.RUnlock()
	emit(subs, snapshot)
}

// EmitUserRecords marshals the given users into a snapshot and delivers it.
func (m *Memory) EmitUserRecords(users ...User) error {
	snapshot := make(UserSnapshot, len(users))
	for _, u := range users {
		raw, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal user %s: %w", u.UID, err)
		}
		snapshot[u.UID] = raw
	}
	m.EmitUsers(snapshot)
	return nil
}

// PublishReading delivers a reading event to all live reading subscribers.
func (m *Memory) PublishReading(ctx context.Context, warehouseID string, reading SensorReading) error {
	m.subMu.RLock()
	subs := m.readingSub
	m.subMu.RUnlock()
	emit(subs, ReadingEvent{WarehouseID: warehouseID, Reading: reading})
	return nil
}

// --- Store writes ---

func (m *Memory) SaveAlert(ctx context.Context, warehouseID string, alert Alert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alerts[warehouseID] == nil {
		m.alerts[warehouseID] = make(map[string]Alert)
	}
	id := alert.ID
	if id == "" {
		id = uuid.NewString()
	}
	alert.ID = id
	alert.WarehouseID = warehouseID
	m.alerts[warehouseID][id] = alert
	return id, nil
}

func (m *Memory) SetWarehouseStatus(ctx context.Context, warehouseID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[warehouseID] = status
	return nil
}

func (m *Memory) SetLastReading(ctx context.Context, warehouseID string, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReadings[warehouseID] = timestamp
	return nil
}

func (m *Memory) SaveAnalytics(ctx context.Context, date string, sample AnalyticsSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.analytics[date] == nil {
		m.analytics[date] = make(map[string][]AnalyticsSample)
	}
	m.analytics[date][sample.WarehouseID] = append(m.analytics[date][sample.WarehouseID], sample)
	return nil
}

func (m *Memory) SaveNotification(ctx context.Context, notification Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifs[notification.UserID] == nil {
		m.notifs[notification.UserID] = make(map[string]Notification)
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	m.notifs[notification.UserID][notification.ID] = notification
	return nil
}

func (m *Memory) SaveReport(ctx context.Context, report DailyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reports[report.Date] == nil {
		m.reports[report.Date] = make(map[string]DailyReport)
	}
	m.reports[report.Date][report.WarehouseID] = report
	return nil
}

func (m *Memory) AppendAudit(ctx context.Context, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, entry)
	return nil
}

func (m *Memory) AppendError(ctx context.Context, entry ErrorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, entry)
	return nil
}

// --- Store reads and deletes ---

func (m *Memory) AnalyticsForDate(ctx context.Context, warehouseID, date string) ([]AnalyticsSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byWarehouse, ok := m.analytics[date]
	if !ok {
		return nil, nil
	}
	samples := byWarehouse[warehouseID]
	out := make([]AnalyticsSample, len(samples))
	copy(out, samples)
	return out, nil
}

func (m *Memory) AnalyticsDates(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dates := make([]string, 0, len(m.analytics))
	for date := range m.analytics {
		dates = append(dates, date)
	}
	return dates, nil
}

func (m *Memory) DeleteAnalyticsDate(ctx context.Context, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.analytics, date)
	return nil
}

func (m *Memory) ListAlerts(ctx context.Context) ([]StoredAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StoredAlert
	for warehouseID, byID := range m.alerts {
		for _, alert := range byID {
			out = append(out, StoredAlert{WarehouseID: warehouseID, Alert: alert})
		}
	}
	return out, nil
}

func (m *Memory) DeleteAlert(ctx context.Context, warehouseID, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.alerts[warehouseID]
	if !ok {
		return fmt.Errorf("no alerts for warehouse %s", warehouseID)
	}
	delete(byID, alertID)
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Notification
	for _, byID := range m.notifs {
		for _, n := range byID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Memory) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.notifs[userID]
	if !ok {
		return fmt.Errorf("no notifications for user %s", userID)
	}
	delete(byID, notificationID)
	return nil
}

func (m *Memory) DeleteWarehouseData(ctx context.Context, warehouseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.alerts, warehouseID)
	delete(m.statuses, warehouseID)
	delete(m.lastReadings, warehouseID)
	for _, byWarehouse := range m.analytics {
		delete(byWarehouse, warehouseID)
	}
	for _, byWarehouse := range m.reports {
		delete(byWarehouse, warehouseID)
	}
	return nil
}

func (m *Memory) ReportsForDate(ctx context.Context, date string) ([]DailyReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DailyReport
	for _, r := range m.reports[date] {
		out = append(out, r)
	}
	return out, nil
}

// --- Test inspection helpers ---

// Status returns the recorded status for a warehouse.
func (m *Memory) Status(warehouseID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[warehouseID]
	return s, ok
}

// LastReading returns the recorded last-reading timestamp for a warehouse.
func (m *Memory) LastReading(warehouseID string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ts, ok := m.lastReadings[warehouseID]
	return ts, ok
}

// Audits returns a copy of all audit entries.
func (m *Memory) Audits() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditEntry, len(m.audits))
	copy(out, m.audits)
	return out
}

// Errors returns a copy of all error-log entries.
func (m *Memory) Errors() []ErrorEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ErrorEntry, len(m.errors))
	copy(out, m.errors)
	return out
}
