package api

import (
	"net/http"
	"time"

	"warehousemon/internal/core"
	"warehousemon/internal/store"

	"github.com/gin-gonic/gin"
)

// Handler serves the read-only endpoints.
//
// Everything here reflects state the monitoring engine already maintains;
// the HTTP layer never mutates anything.
type Handler struct {
	engine    *core.Engine
	store     store.Store
	startTime time.Time
}

// NewHandler initializes the API handler.
func NewHandler(engine *core.Engine, st store.Store) *Handler {
	return &Handler{
		engine:    engine,
		store:     st,
		startTime: time.Now(),
	}
}

// Ping handles GET /api/ping
//
// A lightweight endpoint for basic connectivity verification.
//
// Response:
//   - 200 OK with {"message": "pong"}
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Health handles GET /api/health
//
// Reports the engine's view of the system: running state, cache sizes, and
// user role distribution. Suitable for liveness probes and dashboards.
//
// Response:
//   - 200 OK with the health snapshot
//   - 503 Service Unavailable when the engine is not running
func (h *Handler) Health(c *gin.Context) {
	health := h.engine.Health()

	status := http.StatusOK
	state := "healthy"
	if !health.Running {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":        state,
		"uptimeSeconds": int64(time.Since(h.startTime).Seconds()),
		"engine":        health,
	})
}

// Warehouses handles GET /api/v1/warehouses
//
// Returns the active warehouse configurations, sorted by name.
func (h *Handler) Warehouses(c *gin.Context) {
	warehouses := h.engine.Warehouses()
	c.JSON(http.StatusOK, gin.H{
		"count":      len(warehouses),
		"warehouses": warehouses,
	})
}

// WarehouseAlerts handles GET /api/v1/warehouses/:id/alerts
//
// Returns the persisted alerts of one warehouse, newest first. Unknown
// warehouses yield 404.
func (h *Handler) WarehouseAlerts(c *gin.Context) {
	id := c.Param("id")
	if h.engine.Warehouse(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "warehouse not found"})
		return
	}

	all, err := h.store.ListAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read alerts"})
		return
	}

	alerts := make([]store.Alert, 0)
	for _, a := range all {
		if a.WarehouseID == id {
			alerts = append(alerts, a.Alert)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"warehouseId": id,
		"count":       len(alerts),
		"alerts":      alerts,
	})
}

// ReportsByDate handles GET /api/v1/reports/:date
//
// Returns the daily reports generated for one calendar date. The date must
// be an ISO date (YYYY-MM-DD).
func (h *Handler) ReportsByDate(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	reports, err := h.store.ReportsForDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":    date,
		"count":   len(reports),
		"reports": reports,
	})
}
