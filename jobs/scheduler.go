package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Schedules holds cron specs; an empty spec disables that job.
type Schedules struct {
	PlanExpiry     string
	PendingCleanup string
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	jobs      *Jobs
	schedules Schedules
	logger    *logrus.Logger
}

func NewScheduler(jobs *Jobs, schedules Schedules, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cronLogger := cron.PrintfLogger(logger)
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:      c,
		jobs:      jobs,
		schedules: schedules,
		logger:    logger,
	}
}

// Register adds every configured job and returns how many were scheduled.
func (s *Scheduler) Register() (int, error) {
	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{"plan expiry", s.schedules.PlanExpiry, s.jobs.ExpirePlans},
		{"pending payment cleanup", s.schedules.PendingCleanup, s.jobs.CleanupPendingPayments},
	}

	registered := 0
	for _, e := range entries {
		if e.spec == "" {
			s.logger.WithField("job", e.name).Info("Job disabled")
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			s.logger.WithError(err).WithField("job", e.name).Error("Failed to schedule job")
			return registered, err
		}
		s.logger.WithFields(logrus.Fields{"job": e.name, "schedule": e.spec}).Info("Scheduled job")
		registered++
	}
	return registered, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
