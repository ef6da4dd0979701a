// Package daemon runs the long-lived serve mode: the HTTP server, the
// configuration watcher, and the periodic marketplace health check.
// A configuration reload tears the component graph down and rebuilds
// it, so every setting takes effect without restarting the process.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	"git.home.luguber.info/inful/shopassist/internal/chat"
	"git.home.luguber.info/inful/shopassist/internal/config"
	"git.home.luguber.info/inful/shopassist/internal/llm"
	"git.home.luguber.info/inful/shopassist/internal/logfields"
	"git.home.luguber.info/inful/shopassist/internal/marketplace"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
	"git.home.luguber.info/inful/shopassist/internal/server"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon owns the serve-mode component graph.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string
	logger     *slog.Logger

	status    atomic.Value // Status
	startTime time.Time
	reloadCh  chan struct{}

	monitor *HealthMonitor
	watcher *ConfigWatcher
}

// New creates a daemon from a loaded configuration. configPath may be
// empty, in which case configuration watching is disabled.
func New(cfg *config.Config, configPath string, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		reloadCh:   make(chan struct{}, 1),
		monitor:    NewHealthMonitor(logger),
	}
	d.status.Store(StatusStopped)
	return d
}

// Config returns the currently active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) setConfig(cfg *config.Config) {
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
}

// Status returns the daemon lifecycle state.
func (d *Daemon) Status() Status {
	return d.status.Load().(Status)
}

func (d *Daemon) setStatus(s Status) {
	d.status.Store(s)
}

// Uptime returns how long the daemon has been running.
func (d *Daemon) Uptime() time.Duration {
	if d.startTime.IsZero() {
		return 0
	}
	return time.Since(d.startTime)
}

// Marketplace returns the latest periodic marketplace health snapshot.
func (d *Daemon) Marketplace() HealthSnapshot {
	return d.monitor.Snapshot()
}

// components is one built instance of the serve graph. Rebuilt on every
// configuration reload.
type components struct {
	store     store.Store
	search    *marketplace.Client
	server    *server.Server
	scheduler *Scheduler
}

// Run starts the daemon and blocks until ctx is canceled or the HTTP
// server fails. Configuration reloads rebuild the components and
// restart the server without leaving Run.
func (d *Daemon) Run(ctx context.Context) error {
	d.setStatus(StatusStarting)
	d.startTime = time.Now()

	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			d.setStatus(StatusError)
			return err
		}
		d.watcher = watcher
		if err := watcher.Start(ctx); err != nil {
			d.setStatus(StatusError)
			return err
		}
		defer watcher.Stop()
	}

	for {
		err := d.runOnce(ctx)
		if err != nil {
			d.setStatus(StatusError)
			return err
		}
		select {
		case <-ctx.Done():
			d.setStatus(StatusStopped)
			return nil
		default:
			// Reload requested. Build a fresh graph and go again.
		}
	}
}

// runOnce builds the component graph and serves until ctx is canceled
// or a reload is requested. Returns nil in both cases.
func (d *Daemon) runOnce(ctx context.Context) error {
	cfg := d.Config()

	comps, err := d.buildComponents(cfg)
	if err != nil {
		return err
	}
	defer d.teardown(comps)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	comps.scheduler.Start()
	d.setStatus(StatusRunning)
	d.logger.Info("daemon running",
		slog.String("addr", comps.server.Addr()),
		slog.String("store", cfg.Store.Backend))

	errCh := make(chan error, 1)
	go func() {
		errCh <- comps.server.Start(runCtx)
	}()

	select {
	case <-ctx.Done():
		d.setStatus(StatusStopping)
		cancel()
		return <-errCh
	case <-d.reloadCh:
		d.logger.Info("restarting components after configuration reload")
		cancel()
		if err := <-errCh; err != nil {
			d.logger.Warn("server stopped with error during reload", logfields.Error(err))
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// buildComponents wires the full serve graph from a configuration.
func (d *Daemon) buildComponents(cfg *config.Config) (*components, error) {
	var (
		rec      metrics.Recorder = metrics.NoopRecorder{}
		registry *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(registry)
	}

	st, err := store.Open(cfg.Store.Backend, storePath(cfg.Store), rec)
	if err != nil {
		return nil, err
	}

	norm := affiliate.New(cfg.Affiliate)
	search := marketplace.New(cfg.Marketplace, rec, d.logger)
	model := llm.NewClient(cfg.LLM)
	chatSvc := chat.New(model, search, st, norm, cfg.LLM.Model, rec, d.logger)
	srv := server.New(cfg.Server, chatSvc, search, st, registry, d.logger)

	sched, err := NewScheduler(d.logger)
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}
	interval := cfg.Daemon.HealthInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if err := sched.Every(interval, "marketplace-health", func(ctx context.Context) {
		d.monitor.Check(ctx, search)
	}); err != nil {
		_ = sched.Stop()
		_ = st.Close(context.Background())
		return nil, err
	}

	return &components{
		store:     st,
		search:    search,
		server:    srv,
		scheduler: sched,
	}, nil
}

// teardown releases a component graph after the server has stopped.
func (d *Daemon) teardown(comps *components) {
	if err := comps.scheduler.Stop(); err != nil {
		d.logger.Warn("scheduler shutdown failed", logfields.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := comps.store.Close(ctx); err != nil {
		d.logger.Warn("store close failed", logfields.Error(err))
	}
}

// ReloadConfig validates and applies a new configuration, then asks
// the run loop to rebuild the components.
func (d *Daemon) ReloadConfig(ctx context.Context, newCfg *config.Config) error {
	if err := newCfg.Validate(); err != nil {
		return err
	}

	current := d.Config()
	if newCfg.Server.Port != current.Server.Port || newCfg.Server.Host != current.Server.Host {
		d.logger.Info("server address changing on reload",
			slog.String("old_host", current.Server.Host),
			slog.Int("old_port", current.Server.Port),
			slog.String("new_host", newCfg.Server.Host),
			slog.Int("new_port", newCfg.Server.Port))
	}

	d.setConfig(newCfg)
	select {
	case d.reloadCh <- struct{}{}:
	default:
		// A reload is already pending.
	}
	return nil
}

// storePath picks the backend-specific path from the store section.
func storePath(cfg config.StoreConfig) string {
	if cfg.Backend == store.BackendSQLite {
		return cfg.Path
	}
	return cfg.Dir
}
