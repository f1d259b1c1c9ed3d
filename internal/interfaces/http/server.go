// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/inventory"
	"github.com/your-org/warehouse-backend/internal/interfaces/http/middleware"
	"github.com/your-org/warehouse-backend/internal/interfaces/http/routes"
)

const maxRequestBody = 1 << 20 // 1MB

// HealthCheck reports whether a dependency is reachable
type HealthCheck func() error

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	logger      *logrus.Logger
	gin         *gin.Engine
	httpServer  *http.Server
	service     *inventory.Service
	redisClient *redis.Client
	checks      map[string]HealthCheck
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance. redisClient may be nil, in
// which case rate limiting is disabled.
func NewServer(cfg *config.Config, service *inventory.Service, logger *logrus.Logger, redisClient *redis.Client, checks map[string]HealthCheck) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:      cfg,
		logger:      logger,
		gin:         gin.New(),
		service:     service,
		redisClient: redisClient,
		checks:      checks,
		startedAt:   time.Now(),
	}

	if len(cfg.Security.TrustedProxies) > 0 {
		if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			logger.WithError(err).Warn("Ignoring invalid trusted proxies")
		}
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"api":      fmt.Sprintf("http://localhost:%s/api", s.config.Server.Port),
		"health":   fmt.Sprintf("http://localhost:%s/health", s.config.Server.Port),
		"env":      s.config.App.Environment,
		"version":  s.config.App.Version,
		"database": s.config.Database.Driver,
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.config, s.redisClient, s.logger))
	s.gin.Use(middleware.RequestSizeLimit(maxRequestBody))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	api := s.gin.Group("/api")
	api.GET("/health", s.healthCheck)
	routes.SetupRoutes(api, s.service)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"warehouses": "/api/warehouses",
					"products":   "/api/products",
					"inventory":  "/api/inventory",
					"analytics":  "/api/analytics/warehouses",
				},
			})
		})
	}
}

// healthCheck reports the state of every registered dependency
func (s *Server) healthCheck(c *gin.Context) {
	status := http.StatusOK
	components := gin.H{}

	for name, check := range s.checks {
		if err := check(); err != nil {
			s.logger.WithError(err).WithField("component", name).Warn("Health check failed")
			components[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "healthy"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":      state,
		"components":  components,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
