package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"maintenance-service/internal/repository"
	"maintenance-service/prometheus"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	taskCleanup       = "cleanup_deleted"
	taskNotifications = "scheduled_notifications"
	taskPendingJobs   = "pending_jobs"
)

// Maintenance runs the periodic housekeeping tasks on a cron schedule
type Maintenance struct {
	scheduler  gocron.Scheduler
	expression string
	purgeAfter time.Duration
	purgers    map[string]repository.Purger
	logger     *zap.Logger
	now        func() time.Time
}

// New builds the scheduler. purgeAfter <= 0 reports soft-deleted records without removing them.
func New(expression string, purgeAfter time.Duration, purgers map[string]repository.Purger, logger *zap.Logger) (*Maintenance, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Maintenance{
		scheduler:  s,
		expression: expression,
		purgeAfter: purgeAfter,
		purgers:    purgers,
		logger:     logger.With(zap.String("component", "scheduler")),
		now:        time.Now,
	}, nil
}

// Start registers the maintenance job and starts the scheduler
func (m *Maintenance) Start(ctx context.Context) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob(m.expression, true),
		gocron.NewTask(m.Run, ctx),
		gocron.WithName("maintenance"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule maintenance %q: %w", m.expression, err)
	}

	m.scheduler.Start()
	m.logger.Info("Maintenance scheduler started", zap.String("cron", m.expression))
	return nil
}

// Stop waits for a running job and stops the scheduler
func (m *Maintenance) Stop() error {
	return m.scheduler.Shutdown()
}

// Run executes every task once. Task errors are logged and never stop the others.
func (m *Maintenance) Run(ctx context.Context) {
	m.logger.Debug("Running maintenance tasks")

	tasks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{taskCleanup, m.cleanupDeleted},
		{taskNotifications, m.processNotifications},
		{taskPendingJobs, m.processPendingJobs},
	}
	for _, task := range tasks {
		err := task.fn(ctx)
		prometheus.RecordMaintenanceRun(task.name, err)
		if err != nil {
			m.logger.Error("Maintenance task failed", zap.String("task", task.name), zap.Error(err))
		}
	}
}

func (m *Maintenance) cleanupDeleted(ctx context.Context) error {
	if m.purgeAfter <= 0 {
		m.logger.Debug("Cleaning up old soft-deleted records: purge disabled")
		return nil
	}

	cutoff := m.now().Add(-m.purgeAfter)
	names := make([]string, 0, len(m.purgers))
	for name := range m.purgers {
		names = append(names, name)
	}
	sort.Strings(names)

	var failures []error
	for _, name := range names {
		removed, err := m.purgers[name].PurgeDeleted(ctx, cutoff)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if removed > 0 {
			m.logger.Info("Purged soft-deleted records",
				zap.String("entity", name),
				zap.Int64("removed", removed),
				zap.Time("cutoff", cutoff))
		}
	}
	return errors.Join(failures...)
}

// processNotifications has no delivery channel yet; it only marks the tick
func (m *Maintenance) processNotifications(context.Context) error {
	m.logger.Debug("Processing scheduled notifications")
	return nil
}

func (m *Maintenance) processPendingJobs(context.Context) error {
	m.logger.Debug("Processing pending jobs")
	return nil
}
