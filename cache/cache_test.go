package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/schemabot/sitescout/models"
)

func sampleResult(domain string) *models.CrawlResult {
	return &models.CrawlResult{
		Domain:     domain,
		Status:     models.StatusCompleted,
		TotalFound: 1,
		URLs: []models.DiscoveredURL{
			{URL: domain + "/", Path: "/", Source: models.SourceSitemap, DiscoveredAt: time.Now()},
		},
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", 500, 4)

	c.Set(key, sampleResult("https://example.com"))

	res, ok := c.Get(key, 60_000)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if res.Domain != "https://example.com" {
		t.Errorf("domain = %q, want cached result", res.Domain)
	}
}

func TestCache_ZeroMaxAgeDisablesLookup(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", 500, 4)
	c.Set(key, sampleResult("https://example.com"))

	if _, ok := c.Get(key, 0); ok {
		t.Error("maxAge 0 should never hit")
	}
}

func TestCache_ExpiredEntryMisses(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", 500, 4)
	c.Set(key, sampleResult("https://example.com"))

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(key, 1); ok {
		t.Error("entry older than maxAge should miss")
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c := New(10)
	if _, ok := c.Get(Key("https://nobody.example", 500, 4), 60_000); ok {
		t.Error("unknown key should miss")
	}
}

func TestKey_BudgetsSeparateEntries(t *testing.T) {
	a := Key("https://example.com", 500, 4)
	b := Key("https://example.com", 50, 4)
	d := Key("https://example.com", 500, 2)
	if a == b || a == d || b == d {
		t.Error("different budgets must produce different keys")
	}
	if a != Key("https://example.com", 500, 4) {
		t.Error("key generation must be deterministic")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		domain := fmt.Sprintf("https://site-%d.example", i)
		c.Set(Key(domain, 500, 4), sampleResult(domain))
	}

	c.mu.RLock()
	size := len(c.store)
	c.mu.RUnlock()
	if size > 3 {
		t.Errorf("cache grew to %d entries, capacity is 3", size)
	}
}
