package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Maintainer runs the chart cache and storage upkeep jobs
type Maintainer interface {
	Warm(ctx context.Context) (int, error)
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler manages the background cron jobs
type Scheduler struct {
	cron      *cron.Cron
	jobs      Maintainer
	retention time.Duration
	logger    logrus.FieldLogger
	ctx       context.Context
}

// NewScheduler creates a scheduler. Cron expressions carry a leading seconds field.
func NewScheduler(ctx context.Context, jobs Maintainer, retention time.Duration, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		jobs:      jobs,
		retention: retention,
		logger:    logger,
		ctx:       ctx,
	}
}

// RegisterAll registers the cache warm-up and retention pruning jobs. An empty
// expression leaves that job disabled.
func (s *Scheduler) RegisterAll(warmCron, pruneCron string) error {
	if warmCron != "" {
		if _, err := s.cron.AddFunc(warmCron, s.warmTask); err != nil {
			return fmt.Errorf("register warm task: %w", err)
		}
	}
	if pruneCron != "" {
		if _, err := s.cron.AddFunc(pruneCron, s.pruneTask); err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunWarmNow executes the warm-up job immediately
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

func (s *Scheduler) warmTask() {
	start := time.Now()
	n, err := s.jobs.Warm(s.ctx)
	if err != nil {
		s.logger.WithError(err).Error("Cache warm-up failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"sequences": n,
		"elapsed":   time.Since(start).Round(time.Millisecond),
	}).Info("Cache warmed")
}

func (s *Scheduler) pruneTask() {
	deleted, err := s.jobs.Prune(s.ctx, s.retention)
	if err != nil {
		s.logger.WithError(err).Error("Retention pruning failed")
		return
	}
	s.logger.WithField("deleted", deleted).Info("Pruned old price data")
}
