package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/relaxflow/core/docs"
	httpHandlers "github.com/relaxflow/core/internal/adapters/http"
	"github.com/relaxflow/core/internal/adapters/repository"
	"github.com/relaxflow/core/internal/application/services"
	"github.com/relaxflow/core/internal/application/validation"
	"github.com/relaxflow/core/internal/infrastructure/config"
	"github.com/relaxflow/core/internal/infrastructure/events"
	"github.com/relaxflow/core/internal/infrastructure/logger"
	"github.com/relaxflow/core/internal/ports"
)

const eventsPath = "/api/events"

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	backends repository.Backends
	store    *ports.Store
	hub      *events.Hub
	registry *prometheus.Registry
}

// New creates a new server instance. backends only needs the connection used
// by the configured storage driver.
func New(cfg *config.Config, backends repository.Backends, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	registry := prometheus.NewRegistry()
	var storeMetrics *repository.StoreMetrics
	if cfg.Metrics.Enabled {
		storeMetrics = repository.NewStoreMetrics(registry)
	}

	// Initialize storage
	store, err := repository.New(cfg.Storage, backends, storeMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	ids, err := repository.NewIDGenerator(cfg.Storage.IDStrategy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize id generator: %w", err)
	}

	hub := events.NewHub(splitOrigins(cfg.Security.CORSAllowedOrigins), appLogger)
	validator := validation.New()
	e.Validator = validator

	// Initialize services
	deps := services.Dependencies{
		IDs:       ids,
		Validator: validator,
		Events:    hub,
		Logger:    appLogger.WithComponent("services"),
	}
	authService := services.NewAuthService(cfg.Auth, validator, appLogger.WithComponent("auth"))
	userService := services.NewUserService(store.Users, deps)
	ownerService := services.NewOwnerService(store.Owners, deps)
	productService := services.NewProductService(store.Products, deps)
	meditationService := services.NewMeditationService(store.Meditations, deps)
	playService := services.NewPlayService(store.DailyPlays, deps)
	dashboardService := services.NewDashboardService(store, appLogger.WithComponent("dashboard"))

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		backends: backends,
		store:    store,
		hub:      hub,
		registry: registry,
	}

	server.setupMiddleware()
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	server.setupRoutes(routeHandlers{
		auth:        httpHandlers.NewAuthHandler(authService, appLogger),
		users:       httpHandlers.NewUserHandler(userService, appLogger),
		owners:      httpHandlers.NewOwnerHandler(ownerService, appLogger),
		products:    httpHandlers.NewProductHandler(productService, appLogger),
		meditations: httpHandlers.NewMeditationHandler(meditationService, appLogger),
		plays:       httpHandlers.NewPlayHandler(playService, appLogger),
		dashboard:   httpHandlers.NewDashboardHandler(dashboardService, appLogger),
	}, authService)

	return server, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: splitOrigins(s.config.Security.CORSAllowedOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		limit := rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds())

		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: limit, Burst: s.config.Security.RateLimitRequests, ExpiresIn: window},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware; the change feed is long lived
	timeout := s.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == eventsPath
		},
		Timeout:      timeout,
		ErrorMessage: `{"message":"request timed out"}`,
	}))
}

type routeHandlers struct {
	auth        *httpHandlers.AuthHandler
	users       *httpHandlers.UserHandler
	owners      *httpHandlers.OwnerHandler
	products    *httpHandlers.ProductHandler
	meditations *httpHandlers.MeditationHandler
	plays       *httpHandlers.PlayHandler
	dashboard   *httpHandlers.DashboardHandler
}

type crudHandler interface {
	List(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h routeHandlers, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")

	// Auth routes (public)
	api.POST("/auth/login", h.auth.Login)

	protected := api.Group("", s.authMiddleware(authService))

	crud := map[string]crudHandler{
		"/users":       h.users,
		"/owners":      h.owners,
		"/products":    h.products,
		"/meditations": h.meditations,
	}
	for path, handler := range crud {
		protected.GET(path, handler.List)
		protected.POST(path, handler.Create)
		protected.PUT(path, handler.Update)
		protected.DELETE(path, handler.Delete)
		protected.DELETE(path+"/:id", handler.Delete)
	}

	protected.GET("/daily-play", h.plays.List)
	protected.PUT("/daily-play", h.plays.RecordPlay)

	protected.GET("/dashboard", h.dashboard.Overview)
	protected.GET("/events", s.hub.ServeWS)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	feedClients := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "relaxflow_change_feed_clients",
			Help: "Connected change feed subscribers",
		},
		func() float64 { return float64(s.hub.ClientCount()) },
	)

	s.registry.MustRegister(
		requestsTotal,
		requestDuration,
		feedClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) checkStorage(ctx context.Context) (map[string]interface{}, error) {
	switch s.config.Storage.Driver {
	case repository.DriverPostgres:
		if err := s.backends.DB.HealthCheck(ctx); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"driver": repository.DriverPostgres,
			"stats":  s.backends.DB.GetConnectionInfo(),
		}, nil
	case repository.DriverRedis:
		if err := s.backends.Redis.HealthCheck(ctx); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"driver": repository.DriverRedis,
			"stats":  s.backends.Redis.GetConnectionInfo(),
		}, nil
	default:
		info, err := os.Stat(s.config.Storage.DataDir)
		if err != nil {
			// The directory is created on first write.
			if errors.Is(err, os.ErrNotExist) {
				return map[string]interface{}{"driver": repository.DriverFile, "data_dir": s.config.Storage.DataDir}, nil
			}
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", s.config.Storage.DataDir)
		}
		return map[string]interface{}{"driver": repository.DriverFile, "data_dir": s.config.Storage.DataDir}, nil
	}
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if details, err := s.checkStorage(c.Request().Context()); err != nil {
		status = "error"
		checks["storage"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		details["status"] = "ok"
		checks["storage"] = details
	}

	checks["change_feed"] = map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if _, err := s.checkStorage(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	s.hub.Close()
	return s.echo.Shutdown(ctx)
}

// customErrorHandler renders every error as a JSON body with a message field
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case httpHandlers.ErrorResponse:
				msg = m
			case string:
				msg = httpHandlers.ErrorResponse{Message: m}
			default:
				msg = httpHandlers.ErrorResponse{Message: http.StatusText(code)}
			}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else {
			msg = httpHandlers.ErrorResponse{Message: http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
