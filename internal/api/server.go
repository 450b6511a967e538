package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/genlink-bridge/internal/device"
	"github.com/nerrad567/genlink-bridge/internal/discovery"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// checkTimeout bounds each dependency check behind /health.
const checkTimeout = 2 * time.Second

// DeviceSource is the read side of the device registry.
type DeviceSource interface {
	Handles() []*device.Handle
	Lookup(id string) (*device.Handle, bool)
}

// LoopStatus exposes the discovery loop's progress.
type LoopStatus interface {
	State() discovery.State
	LastReport() (discovery.CycleReport, bool)
	Interval() time.Duration
}

// HealthChecker is implemented by infrastructure with a liveness probe.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Devices DeviceSource
	Loop    LoopStatus

	// Checks are probed by /health, keyed by component name.
	Checks map[string]HealthChecker

	Version string
}

// Server is the read-only HTTP status API.
//
// It is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	devices DeviceSource
	loop    LoopStatus
	checks  map[string]HealthChecker
	version string
	handler http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device source is required")
	}
	if deps.Loop == nil {
		return nil, fmt.Errorf("discovery loop is required")
	}

	s := &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		devices: deps.Devices,
		loop:    deps.Loop,
		checks:  deps.Checks,
		version: deps.Version,
	}
	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in a background goroutine.
// A bind failure (port in use) is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("API server listening", "address", ln.Addr().String())

	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", serveErr)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.Addr() == "" {
		return fmt.Errorf("api server not started")
	}
	return nil
}
