package marketdata

import (
	"testing"
	"time"

	"NepsePulse/internal/domain/models"
)

func TestStoreFreshnessWindows(t *testing.T) {
	s := NewStore(Thresholds{
		models.CategoryLive:    5 * time.Second,
		models.CategorySummary: 30 * time.Second,
	})
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	key := liveKey()
	s.Put(key, []models.MarketTick{{Symbol: "NABIL"}}, base)

	e, ok := s.Get(key)
	if !ok {
		t.Fatalf("expected entry")
	}
	if !s.Fresh(key, e, base.Add(5*time.Second)) {
		t.Errorf("entry at exactly the window edge must still be fresh")
	}
	if s.Fresh(key, e, base.Add(5*time.Second+time.Millisecond)) {
		t.Errorf("entry past the window must be stale")
	}

	sk := summaryKey()
	s.Put(sk, &models.MarketSummary{}, base)
	se, _ := s.Get(sk)
	if !s.Fresh(sk, se, base.Add(29*time.Second)) {
		t.Errorf("summary window is wider than live")
	}
}

func TestStoreStaleEntriesSurvive(t *testing.T) {
	s := NewStore(nil)
	base := time.Now()
	key := detailKey("NABIL")
	s.Put(key, &models.StockDetail{}, base.Add(-time.Hour))

	e, ok := s.Get(key)
	if !ok {
		t.Fatalf("stale entries must stay retrievable for degradation")
	}
	if s.Fresh(key, e, base) {
		t.Errorf("hour-old detail entry must report stale")
	}
}

func TestStorePutReplaces(t *testing.T) {
	s := NewStore(nil)
	key := liveKey()
	s.Put(key, "old", time.Now().Add(-time.Minute))
	s.Put(key, "new", time.Now())

	e, _ := s.Get(key)
	if e.Value != "new" {
		t.Errorf("value = %v", e.Value)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestStoreThresholdDefaults(t *testing.T) {
	s := NewStore(Thresholds{models.CategoryLive: time.Minute})
	base := time.Now()

	key := summaryKey()
	s.Put(key, "x", base)
	e, _ := s.Get(key)
	if !s.Fresh(key, e, base.Add(29*time.Second)) {
		t.Errorf("summary must keep its default window when only live is overridden")
	}

	lk := liveKey()
	s.Put(lk, "y", base)
	le, _ := s.Get(lk)
	if !s.Fresh(lk, le, base.Add(59*time.Second)) {
		t.Errorf("live override to a minute must apply")
	}
}
