package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/shopassist/internal/config"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/logfields"
)

// ConfigWatcher monitors the configuration file and triggers debounced
// reloads on the daemon.
type ConfigWatcher struct {
	configPath   string
	daemon       *Daemon
	logger       *slog.Logger
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a watcher for the given configuration file.
func NewConfigWatcher(configPath string, daemon *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.DaemonError("failed to create file watcher: " + err.Error())
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, derrors.DaemonError("failed to resolve config path: " + err.Error())
	}

	return &ConfigWatcher{
		configPath:   absPath,
		daemon:       daemon,
		logger:       daemon.logger,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring the configuration file.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Watching the directory survives editors that replace the file.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return derrors.DaemonError("failed to watch config directory " + configDir + ": " + err.Error())
	}

	cw.logger.Info("watching configuration", slog.String("config_path", cw.configPath))

	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)

	return nil
}

// Stop stops the configuration watcher.
func (cw *ConfigWatcher) Stop() {
	close(cw.stopChan)
	if err := cw.watcher.Close(); err != nil {
		cw.logger.Warn("error closing file watcher", logfields.Error(err))
	}
}

// watchLoop translates file system events for the config file into
// reload triggers.
func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				cw.logger.Debug("config file changed", slog.String("file", event.Name))
				cw.triggerReload()
			case event.Op&fsnotify.Remove != 0:
				cw.logger.Warn("config file removed", slog.String("file", event.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("config watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop debounces reload triggers so editors that write multiple
// times in quick succession cause a single reload.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer

	stopTimer := func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return
		case <-cw.stopChan:
			stopTimer()
			return
		case <-cw.reloadChan:
			stopTimer()
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.performReload(ctx); err != nil {
					cw.logger.Error("failed to reload configuration", logfields.Error(err))
				}
			})
		}
	}
}

// triggerReload queues a debounced reload if none is pending.
func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
	}
}

// performReload loads, validates, and applies the new configuration.
func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	cw.logger.Info("reloading configuration", slog.String("config_path", cw.configPath))

	newConfig, err := config.Load(cw.configPath)
	if err != nil {
		return err
	}
	if err := cw.daemon.ReloadConfig(ctx, newConfig); err != nil {
		return err
	}

	cw.logger.Info("configuration reloaded")
	return nil
}
