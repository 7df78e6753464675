// Package server assembles the HTTP surface: middleware, routes and the
// components behind them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/api/http"
	"github.com/GriffinCanCode/localbrowser/internal/api/middleware"
	"github.com/GriffinCanCode/localbrowser/internal/api/proxy"
	"github.com/GriffinCanCode/localbrowser/internal/api/ws"
	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/panel"
	"github.com/GriffinCanCode/localbrowser/internal/domain/ports"
	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	httpSrv *nethttp.Server
	tracker *panel.Tracker
	store   *state.Manager
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	codec := location.NewCodec(cfg.Server.BaseURL)
	logger.Info("Initializing local browser server",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("base", codec.Base()),
		zap.String("state_backend", cfg.State.Backend),
	)

	// Metrics first, the other components report into them
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("localbrowser", logger.Component("tracing"))

	backend, err := state.NewBackend(cfg.State.Backend, cfg.StatePath())
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	store := state.NewManager(backend).WithMetrics(metrics)
	logger.Info("State store ready", zap.String("backend", backend.Name()))

	directory, err := newDirectory(cfg, metrics)
	if err != nil {
		store.Close()
		tracer.Close()
		return nil, err
	}

	tracker := panel.NewTracker(panel.Config{
		Codec:        codec,
		Store:        store,
		Directory:    directory,
		PollInterval: cfg.Browser.PollInterval,
		FullToolbar:  cfg.Browser.FullToolbar,
		Logger:       logger.Component("panel"),
		Metrics:      metrics,
	})

	discoverer := ports.NewDiscoverer(ports.DiscoveryConfig{
		Persistent: cfg.Ports.Persistent,
		Hidden:     cfg.Ports.Hidden,
		Labels:     cfg.Ports.Labels,
	})

	static, err := http.Static(codec.Base()+location.ExtensionSegment+"/public/", cfg.Browser.StaticDir)
	if err != nil {
		store.Close()
		tracer.Close()
		return nil, err
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))

	handlers := http.NewHandlers(codec, discoverer, store, tracker, metrics, logger.Component("http"))
	wsHandler := ws.NewHandler(tracker, logger.Component("ws"), metrics)
	proxyHandler := proxy.New(proxy.Config{
		Codec:   codec,
		Host:    cfg.Browser.ProxyHost,
		Logger:  logger.Component("proxy"),
		Metrics: metrics,
	})

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Extension API; proxied traffic is neither CORS-wrapped nor rate limited
	api := router.Group(codec.Base() + location.ExtensionSegment)
	api.Use(middleware.CORS(middleware.CORSConfigFor(cfg.Server.CORSOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		api.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	api.GET("/"+ports.EndpointSegment, handlers.OpenPorts)
	api.GET("/public/*filepath", static)
	api.HEAD("/public/*filepath", static)

	// Session state
	api.GET("/state", handlers.ListState)
	api.GET("/state/:id", handlers.GetState)
	api.PUT("/state/:id", handlers.PutState)
	api.DELETE("/state/:id", handlers.DeleteState)

	// Panels
	api.GET("/panels", handlers.ListPanels)
	api.DELETE("/panels/:id", handlers.ClosePanel)
	api.GET("/panels/stream", wsHandler.HandleConnection)
	api.POST("/logs", handlers.StreamLogs)

	// Reverse proxy
	router.Any(codec.ProxyPrefix()+"*rest", proxyHandler.Handle)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		tracker: tracker,
		store:   store,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// newDirectory builds the client panels use to poll the open-ports
// endpoint of this server
func newDirectory(cfg *config.Config, metrics *monitoring.Metrics) (*ports.Client, error) {
	opts := httpclient.DefaultOptions()
	opts.OnStateChange = func(name string, from, to resilience.State) {
		metrics.RecordBreakerTransition(name, from.String(), to.String())
	}

	client, err := ports.NewClient(httpclient.New(opts), ports.ClientConfig{
		BaseURL: selfURL(cfg),
		OwnPort: cfg.OwnPort(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create port directory client: %w", err)
	}
	return client, nil
}

// selfURL is the absolute base URL this server is reachable at locally
func selfURL(cfg *config.Config) string {
	host := cfg.Server.Host
	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return "http://" + net.JoinHostPort(host, cfg.Server.Port) + location.BasePath(cfg.Server.BaseURL)
}

// Router exposes the HTTP handler
func (s *Server) Router() nethttp.Handler {
	return s.router
}

// Tracker exposes the open panels
func (s *Server) Tracker() *panel.Tracker {
	return s.tracker
}

// Run starts the HTTP server and blocks until Shutdown
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	s.httpSrv = &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes every panel and releases the
// state store
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	s.tracker.CloseAll()
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close state store", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close state store: %w", err))
	}
	s.tracer.Close()

	// Sync logger before exit
	s.logger.Sync()

	return errors.Join(errs...)
}

// Close shuts down with the default timeout
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
