// Package app assembles config, logging, and a core.Engine into a
// runnable server: construction, signal-driven shutdown, and the
// config-reload wiring between them. On SIGINT/SIGTERM it closes the
// listener and returns; it does not wait for in-flight connections to
// finish.
package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/latticehttp/corekit/config"
	"github.com/latticehttp/corekit/core"
	"github.com/latticehttp/corekit/logging"
)

// App is the top-level server instance: one Engine, one Logger, the
// resolved ServerConfig, and the live config Manager Load started a
// file watch on (nil if no config file was given).
type App struct {
	cfg    *config.ServerConfig
	engine *core.Engine
	logger *logging.Logger
	mgr    *config.Manager
}

// New constructs an App wired from cfg and log. Use NewFromFile to also
// resolve a YAML file, environment, and flags.
func New(cfg *config.ServerConfig, log *logging.Logger) *App {
	if log == nil {
		log = logging.New(logging.Options{
			Level:                 logging.ParseLevel(cfg.LogLevel),
			RotateFile:            cfg.LogFile,
			EnableConnectionLogs:  cfg.EnableConnectionLogs,
			EnableRequestLogs:     cfg.EnableRequestLogs,
			EnablePerformanceLogs: cfg.EnablePerformanceLogs,
		})
	}
	return &App{
		cfg:    cfg,
		engine: core.NewEngine(*cfg, log),
		logger: log,
	}
}

// NewFromFile resolves a ServerConfig via config.Load (defaults, an
// optional YAML file at path, the COREKIT_ environment, then args) and
// builds an App from the result.
func NewFromFile(path string, args []string) (*App, error) {
	cfg, mgr, err := config.Load(path, args)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Options{
		Level:                 logging.ParseLevel(cfg.LogLevel),
		RotateFile:            cfg.LogFile,
		EnableConnectionLogs:  cfg.EnableConnectionLogs,
		EnableRequestLogs:     cfg.EnableRequestLogs,
		EnablePerformanceLogs: cfg.EnablePerformanceLogs,
	})
	a := New(cfg, log)
	a.mgr = mgr
	mgr.Watch("log_level", func(key string, _ interface{}) {
		log.SetLevel(logging.ParseLevel(mgr.GetString(key, cfg.LogLevel)))
	})
	return a, nil
}

// Engine returns the underlying engine for route registration.
func (a *App) Engine() *core.Engine { return a.engine }

// Run starts the engine and blocks until a termination signal is
// received, then closes the listener so core/httpwire.Accept's loop
// exits and in-flight connections finish serving on their own.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", a.cfg.Port)
		a.logger.Info("starting server", zap.Int("port", a.cfg.Port), zap.String("env", a.cfg.Env))
		errCh <- a.engine.Run(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
		if a.mgr != nil {
			_ = a.mgr.Close()
		}
		_ = a.logger.Sync()
		return a.engine.Close()
	}
}
