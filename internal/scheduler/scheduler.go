package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher reloads market data. *controller.Controller satisfies it.
type Refresher interface {
	Refresh() uint64
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Refresher Refresher
	Logger    logrus.FieldLogger
}

// NewScheduler creates a new Scheduler. Specs take a leading seconds field.
func NewScheduler(r Refresher, logger logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Refresher: r,
		Logger:    logger,
	}
}

// RegisterRefresh schedules periodic refreshes. An empty spec registers nothing.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.Logger.WithField("cron", spec).Info("refresh task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	seq := s.Refresher.Refresh()
	s.Logger.WithField("request", seq).Info("scheduled refresh issued")
}
