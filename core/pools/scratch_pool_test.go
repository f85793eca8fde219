package pools

import "testing"

func TestScratchPoolGetReturnsRequestedLength(t *testing.T) {
	sp := NewScratchPool()
	buf := sp.Get(100)
	if len(buf) != 100 {
		t.Fatalf("expected length 100, got %d", len(buf))
	}
	if cap(buf) < 100 {
		t.Fatalf("expected capacity >= 100, got %d", cap(buf))
	}
}

func TestScratchPoolGetPicksSmallestFittingTier(t *testing.T) {
	sp := NewScratchPoolWithTiers([]int{64, 256, 1024})
	buf := sp.Get(200)
	if cap(buf) != 256 {
		t.Fatalf("expected the 256-byte tier, got cap %d", cap(buf))
	}
}

func TestScratchPoolGetBeyondLargestTierAllocatesDirectly(t *testing.T) {
	sp := NewScratchPoolWithTiers([]int{64, 256})
	buf := sp.Get(1000)
	if len(buf) != 1000 {
		t.Fatalf("expected a direct allocation of length 1000, got %d", len(buf))
	}
	stats := sp.Stats()
	if stats.HitRate != 0 {
		t.Fatalf("expected a direct allocation to not count as a tier hit, got hit rate %.2f", stats.HitRate)
	}
}

func TestScratchPoolPutReusesMatchingCapacity(t *testing.T) {
	sp := NewScratchPoolWithTiers([]int{64, 256})
	first := sp.Get(256)
	sp.Put(first)
	second := sp.Get(256)
	if cap(second) != 256 {
		t.Fatalf("expected a reused 256-byte buffer, got cap %d", cap(second))
	}
}

func TestScratchPoolPutIgnoresNonTierCapacity(t *testing.T) {
	sp := NewScratchPoolWithTiers([]int{64, 256})
	odd := make([]byte, 100)
	sp.Put(odd)
}

func TestScratchPoolStatsTracksGetsAndHitRate(t *testing.T) {
	sp := NewScratchPoolWithTiers([]int{64})
	sp.Get(32)
	sp.Get(32)
	sp.Get(1000)

	stats := sp.Stats()
	if stats.Gets != 3 {
		t.Fatalf("expected 3 gets, got %d", stats.Gets)
	}
	if stats.TierHits[0] != 2 {
		t.Fatalf("expected 2 hits on the only tier, got %d", stats.TierHits[0])
	}
	want := 2.0 / 3.0
	if stats.HitRate < want-0.001 || stats.HitRate > want+0.001 {
		t.Fatalf("expected hit rate ~%.3f, got %.3f", want, stats.HitRate)
	}
}

func TestGlobalGetBytesAndPutBytesRoundTrip(t *testing.T) {
	buf := GetBytes(8192)
	if len(buf) != 8192 {
		t.Fatalf("expected length 8192, got %d", len(buf))
	}
	PutBytes(buf)

	stats := GlobalStats()
	if stats.Gets == 0 {
		t.Fatalf("expected the global pool to record at least one get")
	}
}
