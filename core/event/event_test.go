package event

import "testing"

func TestEventResetIsTotal(t *testing.T) {
	e := NewEvent()
	e.Method = MethodPOST
	e.SetPath(Owned("/widgets/42"))
	e.SetQuery(Owned("lang=en"))
	e.SetHeader("X-Trace", "abc123")
	e.SetParam("id", "42")
	e.SetContext("request_id", "r-1")
	if err := e.SendText(200, "ok"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	e.resetEvent()

	if e.Method != MethodGET {
		t.Fatalf("method not reset: %v", e.Method)
	}
	if e.Path() != "" || e.Query() != "" {
		t.Fatalf("path/query not reset: %q %q", e.Path(), e.Query())
	}
	if e.Version() != "HTTP/1.1" {
		t.Fatalf("version not reset: %q", e.Version())
	}
	if len(e.headers) != 0 || len(e.params) != 0 || len(e.context) != 0 {
		t.Fatalf("mappings not cleared")
	}
	if e.Status() != 200 || e.Finished() || e.Sent() {
		t.Fatalf("response not reset: status=%d finished=%v sent=%v", e.Status(), e.Finished(), e.Sent())
	}
	if e.OwnedBytes() != 0 {
		t.Fatalf("ownedBytes not zero after reset: %d", e.OwnedBytes())
	}
}

func TestEventKeyOverwriteFrees(t *testing.T) {
	e := NewEvent()
	e.SetContext("request_id", "12345")
	before := e.OwnedBytes()
	e.SetContext("request_id", "1")
	after := e.OwnedBytes()
	if after >= before {
		t.Fatalf("overwriting with a shorter value should shrink owned bytes: before=%d after=%d", before, after)
	}

	e.SetHeader("X-Trace", "aaaaaaaaaa")
	withLong := e.OwnedBytes()
	e.SetHeader("X-Trace", "b")
	withShort := e.OwnedBytes()
	if withShort >= withLong {
		t.Fatalf("header overwrite should free the old value: long=%d short=%d", withLong, withShort)
	}
}

func TestEventHeaderCaseInsensitive(t *testing.T) {
	e := NewEvent()
	e.SetHeader("Content-Type", "application/json")
	v, ok := e.GetHeader("content-type")
	if !ok || v != "application/json" {
		t.Fatalf("case-insensitive lookup failed: %v %q", ok, v)
	}
	if _, ok := e.GetHeader("missing-header"); ok {
		t.Fatalf("expected miss for absent header")
	}
}

func TestEventSendAfterSentErrors(t *testing.T) {
	e := NewEvent()
	if err := e.SendText(200, "hello"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	e.MarkSent()
	if err := e.SendText(200, "again"); err != ErrAlreadySent {
		t.Fatalf("expected ErrAlreadySent, got %v", err)
	}
}

func TestEventPoolAcquireReleaseRoundTrip(t *testing.T) {
	p := NewEventPool(4)
	var acquired []*Event
	for i := 0; i < 4; i++ {
		acquired = append(acquired, p.Acquire())
	}
	stats := p.Stats()
	if stats.CreatedCount != 4 || stats.ReuseCount != 0 {
		t.Fatalf("unexpected stats after first batch: %+v", stats)
	}
	for _, e := range acquired {
		p.Release(e)
	}
	stats = p.Stats()
	if stats.PoolSize > stats.MaxSize {
		t.Fatalf("pool size exceeded max: %+v", stats)
	}

	again := p.Acquire()
	stats = p.Stats()
	if stats.ReuseCount != 1 {
		t.Fatalf("expected a reuse on second acquire, got %+v", stats)
	}
	if again.OwnedBytes() != 0 {
		t.Fatalf("reused event should start with zero owned bytes, got %d", again.OwnedBytes())
	}
	p.Release(again)
}

// TestEventPoolLeakRegression: 100 acquire/mutate/release cycles through
// a capacity-10 pool should end with exactly one allocation, and the
// pooled Event should hold zero owned bytes once its deferred reset has
// run on the next Acquire.
func TestEventPoolLeakRegression(t *testing.T) {
	p := NewEventPool(10)

	var last *Event
	for i := 0; i < 100; i++ {
		e := p.Acquire()
		e.SetContext("request_id", "12345")
		e.SetContext("user_id", "user123")
		e.SetParam("p1", "v1")
		e.SetParam("p2", "v2")
		last = e
		p.Release(e)
	}

	stats := p.Stats()
	if stats.CreatedCount != 1 {
		t.Fatalf("expected created_count=1, got %d", stats.CreatedCount)
	}
	if stats.ReuseCount != 99 {
		t.Fatalf("expected reuse_count=99, got %d", stats.ReuseCount)
	}
	// Release defers the reset to the next Acquire, so the check runs on
	// the re-acquired Event.
	again := p.Acquire()
	if again != last {
		t.Fatalf("expected the LIFO pool to hand back the last released event")
	}
	if again.OwnedBytes() != 0 {
		t.Fatalf("expected zero outstanding owned bytes after reset, got %d", again.OwnedBytes())
	}
}

func TestEventPoolWarmUpRespectsCapacity(t *testing.T) {
	p := NewEventPool(5)
	p.WarmUp(20)
	stats := p.Stats()
	if stats.PoolSize != 5 {
		t.Fatalf("warmup should cap at maxSize: %+v", stats)
	}
	if stats.CreatedCount != 5 {
		t.Fatalf("warmup should count as created: %+v", stats)
	}
}

func TestEventPoolMaintenanceShrinksOversizedPool(t *testing.T) {
	p := NewEventPool(100)
	p.WarmUp(100)
	p.Maintenance()
	stats := p.Stats()
	if stats.PoolSize > 50 {
		t.Fatalf("maintenance should have shrunk an oversized pool: %+v", stats)
	}
}

func TestGlobalPoolFailsClosedBeforeInit(t *testing.T) {
	globalPoolMu.Lock()
	globalPool = nil
	globalPoolMu.Unlock()

	if _, err := AcquireGlobal(); err != ErrGlobalPoolNotInitialized {
		t.Fatalf("expected ErrGlobalPoolNotInitialized, got %v", err)
	}

	InitGlobalPool(10)
	e, err := AcquireGlobal()
	if err != nil {
		t.Fatalf("AcquireGlobal after init: %v", err)
	}
	if err := ReleaseGlobal(e); err != nil {
		t.Fatalf("ReleaseGlobal: %v", err)
	}
}
