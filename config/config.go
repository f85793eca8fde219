package config

import (
	"flag"
	"os"
	"time"

	"github.com/latticehttp/corekit/core/memory"
)

// ServerConfig is the fully resolved configuration for one engine
// instance: connection-level settings plus a MemoryConfig
// and logging options. It is assembled by Load from, in
// increasing priority order, built-in defaults, an optional YAML file,
// environment variables, and command-line flags.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Env          string

	Memory         memory.Config
	RouteCacheSize int
	ReusePort      bool

	LogLevel              string
	LogFile               string
	EnableConnectionLogs  bool
	EnableRequestLogs     bool
	EnablePerformanceLogs bool
}

// Default returns this module's documented defaults, independent of any
// config file, environment, or flags.
func Default() ServerConfig {
	return ServerConfig{
		Port:                  8080,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		Env:                   "development",
		Memory:                memory.DefaultConfig(),
		RouteCacheSize:        1000,
		ReusePort:             false,
		LogLevel:              "info",
		EnableConnectionLogs:  true,
		EnableRequestLogs:     true,
		EnablePerformanceLogs: false,
	}
}

// Load builds a ServerConfig from defaults, an optional YAML file at
// path (skipped silently if empty or missing — a config file is a
// convenience, not a requirement), the COREKIT_-prefixed environment,
// and command-line flags parsed from args. Environment variables go
// through Manager.LoadFromEnv, which turns COREKIT_LOG_LEVEL into the
// dotted key "log.level"; the overrides below look keys up with
// underscores, so from the environment only the single-word keys (port,
// env) take effect. The returned *Manager stays live for the caller: if
// path is non-empty, Load also starts a file watch, and a reload that
// sets event_pool_size or gc_threshold updates the Memory field of the
// returned *ServerConfig. app.New hands core.NewEngine a copy of that
// config, and the Engine builds every connection's MemoryManager from
// its own copy, so a reload does not change the Memory settings of an
// Engine that already exists.
func Load(path string, args []string) (*ServerConfig, *Manager, error) {
	cfg := Default()
	mgr := NewManager()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := mgr.LoadFromYAML(path); err != nil {
				return nil, nil, err
			}
			applyManagerOverrides(&cfg, mgr)
		}
	}

	mgr.LoadFromEnv("COREKIT")
	applyManagerOverrides(&cfg, mgr)

	fs := flag.NewFlagSet("corekit", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "environment (development/production)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug/info/warn/err)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rotating log file path (empty = stderr only)")
	fs.IntVar(&cfg.Memory.EventPoolSize, "event-pool-size", cfg.Memory.EventPoolSize, "EventPool capacity")
	fs.IntVar(&cfg.RouteCacheSize, "route-cache-size", cfg.RouteCacheSize, "RouteCache capacity")
	fs.BoolVar(&cfg.ReusePort, "reuse-port", cfg.ReusePort, "bind the listener with SO_REUSEPORT")
	if args != nil {
		if err := fs.Parse(args); err != nil {
			return nil, nil, err
		}
	}

	if path != "" {
		if err := mgr.WatchFile(path); err != nil {
			return &cfg, mgr, err
		}
		mgr.Watch("event_pool_size", func(key string, _ interface{}) {
			cfg.Memory.EventPoolSize = mgr.GetInt(key, cfg.Memory.EventPoolSize)
		})
		mgr.Watch("gc_threshold", func(key string, _ interface{}) {
			cfg.Memory.GCThreshold = int64(mgr.GetInt(key, int(cfg.Memory.GCThreshold)))
		})
	}

	return &cfg, mgr, nil
}

func applyManagerOverrides(cfg *ServerConfig, mgr *Manager) {
	cfg.Port = mgr.GetInt("port", cfg.Port)
	cfg.Env = mgr.GetString("env", cfg.Env)
	cfg.LogLevel = mgr.GetString("log_level", cfg.LogLevel)
	cfg.LogFile = mgr.GetString("log_file", cfg.LogFile)
	cfg.EnableConnectionLogs = mgr.GetBool("enable_connection_logs", cfg.EnableConnectionLogs)
	cfg.EnableRequestLogs = mgr.GetBool("enable_request_logs", cfg.EnableRequestLogs)
	cfg.EnablePerformanceLogs = mgr.GetBool("enable_performance_logs", cfg.EnablePerformanceLogs)
	cfg.RouteCacheSize = mgr.GetInt("route_cache_size", cfg.RouteCacheSize)
	cfg.ReusePort = mgr.GetBool("reuse_port", cfg.ReusePort)

	cfg.Memory.EnableEventPool = mgr.GetBool("enable_event_pool", cfg.Memory.EnableEventPool)
	cfg.Memory.EventPoolSize = mgr.GetInt("event_pool_size", cfg.Memory.EventPoolSize)
	cfg.Memory.ArenaSize = mgr.GetInt("arena_size", cfg.Memory.ArenaSize)
	cfg.Memory.EnableMemoryTracking = mgr.GetBool("enable_memory_tracking", cfg.Memory.EnableMemoryTracking)
	cfg.Memory.GCThreshold = int64(mgr.GetInt("gc_threshold", int(cfg.Memory.GCThreshold)))

	if strat := mgr.GetString("allocation_strategy", ""); strat != "" {
		cfg.Memory.AllocationStrategy = memory.ParseAllocationStrategy(strat)
	}
}
