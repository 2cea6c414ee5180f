package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"warehousemon/internal/config"
	"warehousemon/internal/notify"
	"warehousemon/internal/rules"
	"warehousemon/internal/store"

	"github.com/rs/zerolog/log"
)

// Engine is the monitoring coordinator. It owns the in-process caches,
// consumes change events from the event source, and runs the alerting
// pipeline for every incoming reading.
//
// The engine is current-state driven: it holds no queues and replays
// nothing. A reading that arrives while its warehouse config is unknown is
// dropped; the next reading is evaluated against whatever configuration is
// active at that moment.
type Engine struct {
	monitor config.MonitorConfig

	store  store.Store
	source store.EventSource

	configs *configCache
	users   *userCache
	writer  *writer
	loc     *time.Location

	// workers bounds concurrent reading processing.
	workers chan struct{}

	// adminMissing tracks the admin-presence warning so it fires once per
	// transition, not once per snapshot.
	adminMissing atomic.Bool

	mu      sync.Mutex
	running bool
	started time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates the coordinator. workerCount bounds how many readings
// are processed concurrently.
func NewEngine(monitor config.MonitorConfig, workerCount int, st store.Store, src store.EventSource) (*Engine, error) {
	loc, err := time.LoadLocation(monitor.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid monitor timezone %q: %w", monitor.Timezone, err)
	}
	if workerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workerCount)
	}

	return &Engine{
		monitor: monitor,
		store:   st,
		source:  src,
		configs: newConfigCache(),
		users:   newUserCache(),
		writer:  newWriter(st, monitor.WriteTimeout),
		loc:     loc,
		workers: make(chan struct{}, workerCount),
	}, nil
}

// Start subscribes to the event source. Handlers run until the passed
// context is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine is already running")
	}

	ctx, cancel := context.WithCancel(ctx)

	if err := e.source.SubscribeConfigs(ctx, e.handleConfigEvent); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to warehouse configs: %w", err)
	}
	if err := e.source.SubscribeUsers(ctx, e.handleUserSnapshot); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to users: %w", err)
	}
	if err := e.source.SubscribeReadings(ctx, e.handleReading); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to readings: %w", err)
	}

	e.cancel = cancel
	e.running = true
	e.started = time.Now()

	log.Info().
		Str("timezone", e.monitor.Timezone).
		Int("worker_count", cap(e.workers)).
		Msg("Monitoring engine started")
	return nil
}

// Stop cancels the subscriptions and waits for in-flight reading processing
// to drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	log.Info().Msg("Monitoring engine stopped")
}

// handleConfigEvent maintains the active configuration set. Events arrive on
// the source's delivery goroutine; cache swaps are cheap so the work happens
// inline, only the resulting store writes go through the bounded writer.
func (e *Engine) handleConfigEvent(ev store.ConfigEvent) {
	switch ev.Kind {
	case store.ConfigRemoved:
		e.removeConfig(ev.WarehouseID)
	case store.ConfigAdded, store.ConfigChanged:
		e.admitConfig(ev)
	default:
		log.Warn().Str("kind", string(ev.Kind)).Msg("Unknown config event kind")
	}
}

// admitConfig validates an added or changed configuration before it enters
// the active set. A config that fails validation is never admitted; on a
// change event the previously active parameters stay in effect.
func (e *Engine) admitConfig(ev store.ConfigEvent) {
	cfg := ev.Config
	if cfg != nil && cfg.ID == "" {
		cfg.ID = ev.WarehouseID
	}

	if err := rules.ValidateConfig(cfg); err != nil {
		log.Warn().
			Str("warehouse_id", ev.WarehouseID).
			Str("kind", string(ev.Kind)).
			Err(err).
			Msg("Rejected warehouse config")
		e.writer.mirror("config validation", ev.WarehouseID, err)
		return
	}

	prior := e.configs.Get(cfg.ID)
	e.configs.Put(cfg)

	if prior == nil {
		log.Info().
			Str("warehouse_id", cfg.ID).
			Str("name", cfg.Name).
			Msg("Warehouse added to monitoring")
		e.audit(store.AuditWarehouseAdded, cfg.ID, cfg.CreatedBy,
			fmt.Sprintf("Warehouse %q added to monitoring", cfg.Name))
		return
	}

	changes := rules.DiffConfigs(prior, cfg)
	if len(changes) == 0 {
		return
	}
	log.Info().
		Str("warehouse_id", cfg.ID).
		Strs("changes", changes).
		Msg("Warehouse config modified")
	e.audit(store.AuditWarehouseModified, cfg.ID, cfg.LastModifiedBy,
		"Modified: "+strings.Join(changes, ", "))
}

// removeConfig drops a warehouse from the active set and tears down its
// historical data.
func (e *Engine) removeConfig(warehouseID string) {
	prior := e.configs.Get(warehouseID)
	e.configs.Remove(warehouseID)
	if prior == nil {
		return
	}

	log.Info().
		Str("warehouse_id", warehouseID).
		Str("name", prior.Name).
		Msg("Warehouse removed from monitoring")
	e.audit(store.AuditWarehouseRemoved, warehouseID, prior.UserID,
		fmt.Sprintf("Warehouse %q removed from monitoring", prior.Name))

	e.writer.do("delete warehouse data", warehouseID, func(ctx context.Context) error {
		return e.store.DeleteWarehouseData(ctx, warehouseID)
	})
}

func (e *Engine) audit(eventType, warehouseID, userID, description string) {
	entry := store.AuditEntry{
		EventType:   eventType,
		WarehouseID: warehouseID,
		UserID:      userID,
		Description: description,
		Timestamp:   time.Now().UnixMilli(),
	}
	e.writer.do("append audit", warehouseID, func(ctx context.Context) error {
		return e.store.AppendAudit(ctx, entry)
	})
}

// handleUserSnapshot replaces the user cache from a full snapshot. Entries
// are decoded independently so one malformed record cannot take out the
// whole snapshot.
func (e *Engine) handleUserSnapshot(snapshot store.UserSnapshot) {
	users := make(map[string]*store.User, len(snapshot))
	haveAdmin := false

	for uid, raw := range snapshot {
		var u store.User
		if err := json.Unmarshal(raw, &u); err != nil {
			log.Warn().Str("uid", uid).Err(err).Msg("Skipping malformed user record")
			continue
		}
		u.UID = uid
		u.Role = store.ParseRole(string(u.Role))
		users[uid] = &u
		if u.Active && u.Role == store.RoleAdmin {
			haveAdmin = true
		}
	}

	e.users.Replace(users)
	log.Debug().Int("user_count", len(users)).Msg("User cache refreshed")

	if !haveAdmin {
		if !e.adminMissing.Swap(true) {
			log.Warn().Msg("No active admin user present")
		}
	} else if e.adminMissing.Swap(false) {
		log.Info().Msg("Active admin user restored")
	}
}

// handleReading dispatches a reading to the worker pool and returns
// immediately so the source's delivery goroutine is never blocked.
func (e *Engine) handleReading(ev store.ReadingEvent) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.workers <- struct{}{}
		defer func() { <-e.workers }()
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("warehouse_id", ev.WarehouseID).
					Interface("panic", r).
					Msg("Reading processing panicked")
				e.writer.mirror("process reading", ev.WarehouseID, fmt.Errorf("panic: %v", r))
			}
		}()
		e.processReading(ev)
	}()
}

// processReading runs the full pipeline for one reading: validate, classify,
// aggregate, persist alerts, route notifications. Failures in one warehouse
// never affect another; failures in one write never block a sibling write.
func (e *Engine) processReading(ev store.ReadingEvent) {
	cfg := e.configs.Get(ev.WarehouseID)
	if cfg == nil {
		log.Debug().
			Str("warehouse_id", ev.WarehouseID).
			Msg("Dropping reading for unknown warehouse")
		return
	}

	if err := rules.ValidateReading(ev.Reading, time.Now().UnixMilli()); err != nil {
		log.Warn().
			Str("warehouse_id", ev.WarehouseID).
			Err(err).
			Msg("Dropping invalid reading")
		return
	}

	alerts := rules.Classify(cfg, ev.Reading)
	e.aggregate(cfg, ev.Reading, alerts)

	for i := range alerts {
		e.persistAlert(cfg, &alerts[i])
	}
}

// persistAlert saves one alert and fans out notifications to every user the
// router selects.
func (e *Engine) persistAlert(cfg *store.WarehouseConfig, alert *store.Alert) {
	err := e.writer.do("save alert", cfg.ID, func(ctx context.Context) error {
		id, err := e.store.SaveAlert(ctx, cfg.ID, *alert)
		if err != nil {
			return err
		}
		alert.ID = id
		return nil
	})
	if err == nil {
		log.Info().
			Str("warehouse_id", cfg.ID).
			Str("alert_id", alert.ID).
			Str("type", alert.Type).
			Str("severity", string(alert.Severity)).
			Msg("Alert raised")
	}

	// Notifications go out even when the alert write failed; the users
	// still need to hear about the condition.
	recipients := notify.Route(*alert, cfg.UserID, cfg.ID, e.users.All())
	for _, u := range recipients {
		n := notify.Build(u, cfg.Name, *alert)
		e.writer.do("save notification", cfg.ID, func(ctx context.Context) error {
			return e.store.SaveNotification(ctx, n)
		})
	}
	if len(recipients) > 0 {
		log.Debug().
			Str("warehouse_id", cfg.ID).
			Int("recipients", len(recipients)).
			Msg("Notifications routed")
	}
}

// Warehouses returns the active configurations sorted by name (read API).
func (e *Engine) Warehouses() []*store.WarehouseConfig {
	all := e.configs.All()
	out := make([]*store.WarehouseConfig, 0, len(all))
	for _, cfg := range all {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Warehouse returns one active configuration, or nil when unknown.
func (e *Engine) Warehouse(warehouseID string) *store.WarehouseConfig {
	return e.configs.Get(warehouseID)
}

// Health is a point-in-time snapshot of the engine for the health endpoint.
type Health struct {
	Running       bool           `json:"running"`
	UptimeSeconds int64          `json:"uptimeSeconds"`
	Warehouses    int            `json:"warehouses"`
	Users         int            `json:"users"`
	UsersByRole   map[string]int `json:"usersByRole"`
}

// Health reports the engine's current state.
func (e *Engine) Health() Health {
	e.mu.Lock()
	running := e.running
	started := e.started
	e.mu.Unlock()

	byRole := make(map[string]int)
	users := e.users.All()
	for _, u := range users {
		byRole[string(u.Role)]++
	}

	h := Health{
		Running:     running,
		Warehouses:  e.configs.Len(),
		Users:       len(users),
		UsersByRole: byRole,
	}
	if running {
		h.UptimeSeconds = int64(time.Since(started).Seconds())
	}
	return h
}
