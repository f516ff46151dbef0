package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DraftPurger удаляет истёкшие черновики
type DraftPurger interface {
	PurgeExpired() int
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	drafts   DraftPurger
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(drafts DraftPurger, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Scheduler{
		drafts:   drafts,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runDraftPurgeTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

// runDraftPurgeTask периодически удаляет истёкшие черновики серий
func (s *Scheduler) runDraftPurgeTask(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.drafts.PurgeExpired(); n > 0 {
				s.logger.Info("Expired drafts purged", zap.Int("count", n))
			}
		case <-s.stopChan:
			s.logger.Info("Draft purge task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Draft purge task cancelled")
			return
		}
	}
}
