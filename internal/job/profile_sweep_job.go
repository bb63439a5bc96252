package job

import (
	"Nocturne/internal/service"
	log "log/slog"
)

// ProfileSweepJob 清扫过期的对端资料缓存
type ProfileSweepJob struct {
	cache *service.ProfileCache
}

func NewProfileSweepJob(cache *service.ProfileCache) *ProfileSweepJob {
	return &ProfileSweepJob{cache: cache}
}

func (s *ProfileSweepJob) Run() {
	evicted := s.cache.Sweep()
	if evicted > 0 {
		log.Info("资料缓存清扫完成", "evicted", evicted, "remaining", s.cache.Len())
	}
}
