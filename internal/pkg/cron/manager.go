package cron

import (
	"Nocturne/internal/api/config"
	"Nocturne/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine    *cron.Cron
	resyncJob *job.ConversationResyncJob
	sweepJob  *job.ProfileSweepJob
}

func NewCronManager(resyncJob *job.ConversationResyncJob, sweepJob *job.ProfileSweepJob) *Manager {
	return &Manager{
		engine:    cron.New(cron.WithSeconds()),
		resyncJob: resyncJob,
		sweepJob:  sweepJob,
	}
}

// RegisterJobs 注册后台任务
func (s *Manager) RegisterJobs() error {
	cfg := config.Cfg.Cron

	resyncSpec := cfg.ResyncSpec
	if resyncSpec == "" {
		resyncSpec = "0 */2 * * * *"
	}
	if _, err := s.engine.AddJob(resyncSpec, s.resyncJob); err != nil {
		return err
	}

	sweepSpec := cfg.CacheSweepSpec
	if sweepSpec == "" {
		sweepSpec = "0 */10 * * * *"
	}
	if _, err := s.engine.AddJob(sweepSpec, s.sweepJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
