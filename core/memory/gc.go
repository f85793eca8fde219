package memory

import (
	"runtime"
	"runtime/debug"
)

// GCConfig holds the GC tuning knobs applied at startup. The
// AllocationStrategy field translates directly into one of these presets
// rather than living as a separate, disconnected setting.
type GCConfig struct {
	GOGC           int
	MemoryLimit    int64
	MinRetainExtra int64
}

func gcConfigForStrategy(strategy AllocationStrategy) GCConfig {
	switch strategy {
	case StrategyPerformance:
		return GCConfig{GOGC: 300, MinRetainExtra: 100 << 20}
	case StrategyMemory:
		return GCConfig{GOGC: 80}
	default: // StrategyBalanced
		return GCConfig{GOGC: 150, MinRetainExtra: 30 << 20}
	}
}

// applyGCConfig tunes GOGC and an optional soft memory limit, then
// pre-touches MinRetainExtra bytes once so the runtime's initial heap
// sizing doesn't trigger an early GC.
func applyGCConfig(cfg GCConfig) {
	if cfg.GOGC > 0 {
		debug.SetGCPercent(cfg.GOGC)
	}
	if cfg.MemoryLimit > 0 {
		debug.SetMemoryLimit(cfg.MemoryLimit)
	}
	if cfg.MinRetainExtra > 0 {
		runtime.GC()
		_ = make([]byte, cfg.MinRetainExtra)
	}
}

// runtimeStats is the subset of runtime.MemStats this package surfaces,
// read fresh on every call to readRuntimeStats rather than cached.
type runtimeStats struct {
	NumGC        uint32
	AllocBytes   uint64
	TotalAlloc   uint64
	Sys          uint64
	NumGoroutine int
}

func readRuntimeStats() runtimeStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return runtimeStats{
		NumGC:        ms.NumGC,
		AllocBytes:   ms.Alloc,
		TotalAlloc:   ms.TotalAlloc,
		Sys:          ms.Sys,
		NumGoroutine: runtime.NumGoroutine(),
	}
}
