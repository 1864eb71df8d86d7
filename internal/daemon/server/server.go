// Package server implements the loopback HTTP control API for the daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/daemon/metrics"
	"github.com/neustart-io/neustart/internal/daemon/supervisor"
	"github.com/neustart-io/neustart/internal/models"
)

// Server is the daemon's control API server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	host       string
	port       int
	supervisor *supervisor.Supervisor

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New creates a new server listening on host:port.
// Pass port 0 for dynamic allocation.
func New(host string, port int, sup *supervisor.Supervisor, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	router := NewRouter(sup, m, logger)
	srv := &Server{
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener:   listener,
		host:       host,
		port:       actualPort,
		supervisor: sup,
		shutdownCh: make(chan struct{}),
	}
	router.POST("/api/shutdown", func(c *gin.Context) {
		srv.RequestShutdown()
		c.Status(http.StatusAccepted)
	})
	return srv, nil
}

// Host returns the address the server is bound to.
func (s *Server) Host() string {
	return s.host
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RequestShutdown asks the daemon to shut down. Safe to call repeatedly.
func (s *Server) RequestShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

// ShutdownRequested is closed once a shutdown has been requested through
// the API or the tray.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownCh
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRouter builds the gin engine serving the control API and /metrics.
func NewRouter(sup *supervisor.Supervisor, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if m != nil {
		router.Use(metricsMiddleware(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h := &handlers{sup: sup, logger: logger}
	api := router.Group("/api")
	{
		api.GET("/apps", h.listApps)
		api.POST("/apps", h.addApp)
		api.GET("/apps/:id", h.getApp)
		api.PUT("/apps/:id", h.updateApp)
		api.DELETE("/apps/:id", h.removeApp)
		api.GET("/apps/:id/definition", h.getDefinition)
		api.POST("/apps/:id/rename", h.renameApp)
		api.POST("/apps/:id/start", h.startApp)
		api.POST("/apps/:id/stop", h.stopApp)
		api.POST("/apps/:id/toggle-enabled", h.toggleEnabled)
		api.POST("/apps/:id/toggle-hidden", h.toggleHidden)
		api.GET("/machine", h.machine)
	}
	return router
}

// TrayState adapts a Server to the tray.DaemonState interface.
type TrayState struct {
	srv    *Server
	logger *zap.Logger
}

// NewTrayState creates a TrayState for the given server.
func NewTrayState(srv *Server, logger *zap.Logger) *TrayState {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrayState{srv: srv, logger: logger}
}

// Port returns the port the server is listening on.
func (t *TrayState) Port() int {
	return t.srv.Port()
}

// Apps returns the state of every managed app.
func (t *TrayState) Apps() []models.Snapshot {
	return t.srv.supervisor.Snapshots()
}

// StartApp starts the app with the given ID.
func (t *TrayState) StartApp(id string) {
	if _, err := t.srv.supervisor.StartApp(context.Background(), id); err != nil {
		t.logger.Warn("Tray start failed", zap.String("app", id), zap.Error(err))
	}
}

// StopApp stops the app with the given ID.
func (t *TrayState) StopApp(id string) {
	if _, err := t.srv.supervisor.StopApp(context.Background(), id); err != nil {
		t.logger.Warn("Tray stop failed", zap.String("app", id), zap.Error(err))
	}
}

// RequestShutdown triggers a graceful daemon shutdown.
func (t *TrayState) RequestShutdown() {
	t.srv.RequestShutdown()
}
