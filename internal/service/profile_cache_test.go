package service

import (
	"Nocturne/internal/model"
	"testing"
	"time"
)

func TestProfileCacheExpiry(t *testing.T) {
	cache := NewProfileCache(30 * time.Millisecond)
	cache.Set("ent_a", model.Profile{EntityID: "ent_a", DisplayName: "Bar Luna"})

	if _, ok := cache.Get("ent_a"); !ok {
		t.Fatal("fresh entry must hit")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := cache.Get("ent_a"); ok {
		t.Fatal("expired entry must miss")
	}
}

func TestProfileCacheSweep(t *testing.T) {
	cache := NewProfileCache(30 * time.Millisecond)
	cache.Set("ent_a", model.Profile{EntityID: "ent_a"})
	cache.Set("ent_b", model.Profile{EntityID: "ent_b"})

	time.Sleep(50 * time.Millisecond)
	cache.Set("ent_c", model.Profile{EntityID: "ent_c"})

	if evicted := cache.Sweep(); evicted != 2 {
		t.Fatalf("expected 2 evictions, got %d", evicted)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", cache.Len())
	}
	if _, ok := cache.Get("ent_c"); !ok {
		t.Fatal("fresh entry must survive sweep")
	}
}
