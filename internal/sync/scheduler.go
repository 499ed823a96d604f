package sync

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/logger"
)

type Scheduler struct {
	cfg     config.SchedulerConfig
	manager *Manager
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewScheduler(cfg config.SchedulerConfig, manager *Manager) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		manager: manager,
		cron:    cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		logger.Log.Info("Scheduler is disabled")
		return nil
	}

	logger.Log.Info("Starting scheduler", zap.String("interval", s.cfg.Interval))

	id, err := s.cron.AddFunc(s.cfg.Interval, func() {
		s.triggerSync()
	})
	if err != nil {
		logger.Log.Error("Failed to schedule job", zap.Error(err))
		return err
	}

	s.entryID = id
	s.cron.Start()
	return nil
}

// Stop unschedules the sync job and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	<-s.cron.Stop().Done()
	logger.Log.Info("Stopped scheduler")
}

func (s *Scheduler) triggerSync() {
	logger.Log.Debug("Triggering scheduled sync")

	if s.manager.GetStatus() == "running" {
		logger.Log.Info("Sync already running, skipping scheduled run")
		return
	}

	s.manager.SyncAll(context.Background())
}
