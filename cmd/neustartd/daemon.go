package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/config"
	"github.com/neustart-io/neustart/internal/daemon/metrics"
	"github.com/neustart-io/neustart/internal/daemon/server"
	"github.com/neustart-io/neustart/internal/daemon/supervisor"
	"github.com/neustart-io/neustart/internal/daemon/watcher"
	"github.com/neustart-io/neustart/internal/logging"
	"github.com/neustart-io/neustart/internal/models"
)

// shutdownGrace bounds the wait for the loop and the HTTP server. Apps
// are always closed, forcibly once this has passed.
const shutdownGrace = 10 * time.Second

// daemon wires the supervisor, metrics and control API together.
type daemon struct {
	settings *models.Settings
	logger   *zap.Logger
	level    zap.AtomicLevel
	watcher  *watcher.Watcher
	sup      *supervisor.Supervisor
	metrics  *metrics.Metrics
	srv      *server.Server

	serveErr chan error
	cancel   context.CancelFunc
}

// newDaemon loads settings and the app store and binds the control API.
// Nothing is started yet.
func newDaemon(portOverride int) (*daemon, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if portOverride >= 0 {
		settings.API.Port = portOverride
	}

	logger, level, err := logging.NewWithLevel(logging.FromSettings(settings.Log))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger = logger.Named("neustartd")

	appsPath, err := config.AppsFile(settings.AppsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve apps file: %w", err)
	}
	store := config.NewAppsStore(appsPath)

	sup := supervisor.New(supervisor.Options{
		Store:    store,
		Settings: settings,
		Logger:   logger.Named("supervisor"),
	})
	if err := sup.Load(); err != nil {
		if errors.Is(err, config.ErrMalformedStore) {
			return nil, fmt.Errorf("refusing to start with a malformed app store: %w", err)
		}
		return nil, fmt.Errorf("failed to load apps: %w", err)
	}
	logger.Info("App store loaded", zap.String("path", appsPath))

	m := metrics.New()
	sup.AddObserver(m)

	srv, err := server.New(settings.API.Host, settings.API.Port, sup, m, logger.Named("api"))
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &daemon{
		settings: settings,
		logger:   logger,
		level:    level,
		sup:      sup,
		metrics:  m,
		srv:      srv,
		serveErr: make(chan error, 1),
	}, nil
}

// start serves the API, publishes daemon.yaml, launches enabled apps and
// starts the monitoring loop.
func (d *daemon) start() error {
	go func() {
		if err := d.srv.Serve(); err != nil {
			d.serveErr <- err
		}
	}()

	info := models.NewDaemonInfo(d.srv.Host(), d.srv.Port(), os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		return fmt.Errorf("failed to write daemon info: %w", err)
	}
	d.logger.Info("Daemon started",
		zap.String("host", d.srv.Host()),
		zap.Int("port", d.srv.Port()),
		zap.Int("pid", os.Getpid()))

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	started := d.sup.StartEnabled(ctx)
	d.logger.Info("Started enabled apps", zap.Int("count", started))

	go func() {
		if err := d.sup.Run(ctx); err != nil {
			d.logger.Error("Supervisor stopped with error", zap.Error(err))
		}
	}()

	d.watchSettings()
	return nil
}

// watchSettings reloads settings.yaml whenever it changes. A daemon that
// cannot watch keeps running on the settings it started with.
func (d *daemon) watchSettings() {
	path, err := config.GlobalSettingsFile()
	if err != nil {
		d.logger.Warn("Settings reload disabled", zap.Error(err))
		return
	}
	w, err := watcher.New(d.logger.Named("watcher"))
	if err != nil {
		d.logger.Warn("Settings reload disabled", zap.Error(err))
		return
	}
	if err := w.WatchFile(path); err != nil {
		w.Stop()
		d.logger.Warn("Settings reload disabled", zap.Error(err))
		return
	}
	w.Start()
	d.watcher = w

	go func() {
		for range w.Events() {
			d.reloadSettings()
		}
	}()
}

// reloadSettings applies the parts of settings.yaml that can change while
// running: log level and the defaults for newly added apps. The API
// address and apps file need a restart.
func (d *daemon) reloadSettings() {
	settings, err := config.LoadSettings()
	if err != nil {
		d.logger.Warn("Ignoring unreadable settings", zap.Error(err))
		return
	}
	if err := logging.SetLevel(d.level, logging.FromSettings(settings.Log).Level); err != nil {
		d.logger.Warn("Ignoring invalid log level", zap.String("level", settings.Log.Level), zap.Error(err))
	}
	d.sup.ApplySettings(settings)
	d.logger.Info("Settings reloaded")
}

// stop closes every app, stops the API and removes daemon.yaml.
func (d *daemon) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if err := d.srv.Stop(ctx); err != nil {
		d.logger.Warn("Failed to stop server", zap.Error(err))
	}
	if err := d.sup.Shutdown(ctx); err != nil {
		d.logger.Warn("Supervisor shutdown incomplete", zap.Error(err))
	}
	if d.cancel != nil {
		d.cancel()
	}

	if err := config.RemoveDaemonInfo(); err != nil {
		d.logger.Warn("Failed to remove daemon info", zap.Error(err))
	}
	d.logger.Info("Daemon stopped")
}
