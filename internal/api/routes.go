package api

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	handler := NewHandler(s.engine, s.store)

	apiGroup := s.router.Group("/api")

	// Base endpoints
	apiGroup.GET("/ping", handler.Ping)
	apiGroup.GET("/health", handler.Health)

	// API v1 routes
	v1 := apiGroup.Group("/v1")
	{
		v1.GET("/warehouses", handler.Warehouses)
		v1.GET("/warehouses/:id/alerts", handler.WarehouseAlerts)
		v1.GET("/reports/:date", handler.ReportsByDate)
	}
}
