package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/edge"
)

// Service applies configuration and control signals to the overlay
// registry. Every method must run on the dispatcher goroutine.
type Service struct {
	path     string
	store    *config.Store
	registry *edge.Registry
	level    *slog.LevelVar
	logger   *slog.Logger
}

// NewService wires a registry to the config loaded from path. level is the
// logger's level, updated on reload.
func NewService(path string, cfg *config.Config, registry *edge.Registry, level *slog.LevelVar, logger *slog.Logger) *Service {
	if level == nil {
		level = new(slog.LevelVar)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		path:     path,
		store:    config.NewStore(cfg),
		registry: registry,
		level:    level,
		logger:   logger,
	}
}

// Config returns the configuration currently applied.
func (s *Service) Config() *config.Config {
	return s.store.Config()
}

// Start creates the overlays of the current configuration.
func (s *Service) Start() error {
	s.level.Set(ParseLevel(s.store.Config().LogLevel))
	s.registry.SetRotationAware(s.store.Config().RotationAware)
	err := s.registry.SyncFromConfig(s.store.Edges())
	s.LogStatus()
	return err
}

// Reload re-reads the config file. An invalid file leaves the running
// configuration untouched.
func (s *Service) Reload() error {
	res, err := config.LoadFromPath(s.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.path, err)
	}
	prev := s.store.Config()
	next := res.Config

	change := s.store.Replace(next)
	s.level.Set(ParseLevel(next.LogLevel))
	s.registry.SetRotationAware(next.RotationAware)

	if next.Readout != prev.Readout || next.Haptics != prev.Haptics {
		s.logger.Info("readout and haptics changes apply after restart")
	}

	var errs []error
	if err := s.registry.SyncFromConfig(s.store.Edges()); err != nil {
		errs = append(errs, err)
	}
	if next.Enabled != prev.Enabled {
		if err := s.registry.ApplyGlobalEnable(next.Enabled); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.Info("config reloaded",
		"added", change.Added,
		"removed", change.Removed,
		"updated", change.Updated,
		"enabled", s.registry.Enabled())
	return errors.Join(errs...)
}

func (s *Service) Enable() error {
	s.logger.Info("overlays enabled")
	return s.registry.ApplyGlobalEnable(true)
}

func (s *Service) Disable() error {
	s.logger.Info("overlays disabled")
	return s.registry.ApplyGlobalEnable(false)
}

// DisplayChanged rebuilds attached overlays after a rotation or resize.
func (s *Service) DisplayChanged() error {
	return s.registry.OnConfigurationChanged()
}

func (s *Service) Shutdown() error {
	return s.registry.Shutdown()
}

// HandleSignal applies a control signal and reports whether the daemon
// should stop.
func (s *Service) HandleSignal(sig os.Signal) (stop bool) {
	var err error
	switch sig {
	case syscall.SIGHUP:
		s.logger.Info("received SIGHUP, reloading config")
		err = s.Reload()
	case syscall.SIGUSR1:
		err = s.Enable()
	case syscall.SIGUSR2:
		err = s.Disable()
	case os.Interrupt, syscall.SIGTERM:
		s.logger.Info("shutting down", "signal", sig.String())
		return true
	default:
		return false
	}
	if err != nil {
		s.logger.Error("signal handling failed", "signal", sig.String(), "error", err)
	}
	s.LogStatus()
	return false
}

// LogStatus writes one line per overlay.
func (s *Service) LogStatus() {
	for _, st := range s.registry.Status() {
		s.logger.Info("overlay",
			"edge", st.Edge,
			"physical", st.Physical,
			"setting", st.Setting,
			"activated", st.Activated,
			"state", st.State.String())
	}
}
