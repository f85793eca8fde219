package core

import (
	"strings"
	"testing"

	"github.com/latticehttp/corekit/config"
	"github.com/latticehttp/corekit/core/event"
	"github.com/latticehttp/corekit/core/memory"
)

func TestCollectStatsAggregatesAllThree(t *testing.T) {
	e := newTestEngine()
	e.GET("/x", func(ev *event.Event) { _ = ev.SendText(200, "ok") })
	e.Router().Find("GET", "/x")

	mgr := memory.New(config.Default().Memory)
	mgr.AcquireEvent()

	stats := CollectStats(mgr, e)
	if stats.Cache.Size != 1 {
		t.Fatalf("expected cache size 1, got %d", stats.Cache.Size)
	}
	if stats.Pool.CreatedCount == 0 && stats.Pool.ReuseCount == 0 {
		t.Fatalf("expected non-zero pool activity")
	}
}

func TestStatsJSONAndText(t *testing.T) {
	s := Stats{}
	j := s.JSON()
	if !strings.Contains(j, `"pool"`) || !strings.Contains(j, `"memory"`) || !strings.Contains(j, `"cache"`) {
		t.Fatalf("expected JSON to contain all three sections, got %q", j)
	}

	text := s.Text()
	if !strings.Contains(text, "Event Pool:") || !strings.Contains(text, "Route Cache:") {
		t.Fatalf("expected Text output to contain both section headers, got %q", text)
	}
}
