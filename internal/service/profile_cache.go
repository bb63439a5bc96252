package service

import (
	"Nocturne/internal/model"
	"sync"
	"time"
)

type profileEntry struct {
	profile   model.Profile
	expiresAt time.Time
}

// ProfileCache 对端资料的内存 TTL 缓存。过期项由后台任务周期清扫，
// 读取时过期同样视为未命中。
type ProfileCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]profileEntry
}

func NewProfileCache(ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ProfileCache{
		ttl:     ttl,
		entries: make(map[string]profileEntry),
	}
}

func (s *ProfileCache) Get(entityID string) (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entityID]
	if !ok || time.Now().After(entry.expiresAt) {
		return model.Profile{}, false
	}
	return entry.profile, true
}

func (s *ProfileCache) Set(entityID string, profile model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entityID] = profileEntry{
		profile:   profile,
		expiresAt: time.Now().Add(s.ttl),
	}
}

// Sweep 清除过期项，返回清除数量
func (s *ProfileCache) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

func (s *ProfileCache) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
