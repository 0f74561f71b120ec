// Package schedulersvc runs the periodic fee jobs on cron schedules.
package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/shule/core"
)

const jobTimeout = 10 * time.Minute

// FeeJobs is implemented by *fee.Service.
type FeeJobs interface {
	RefreshStatuses(ctx context.Context) (int, error)
	RemindOverdue(ctx context.Context) (int, error)
}

type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
	jobs   []Job
}

// New schedules the fee jobs of conf. An empty spec disables its job.
func New(conf core.SchedulerConfig, fees FeeJobs, logger core.Logger) (*Scheduler, error) {
	adapter := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		logger: logger,
	}
	jobs := []Job{
		{Name: "fee status refresh", Spec: conf.FeeRefreshSpec, Run: fees.RefreshStatuses},
		{Name: "overdue fee reminders", Spec: conf.ReminderSpec, Run: fees.RemindOverdue},
	}
	for _, job := range jobs {
		if job.Spec == "" {
			continue
		}
		if err := s.Add(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add schedules job, rejecting invalid specs.
func (s *Scheduler) Add(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, func() { s.run(job) }); err != nil {
		return errors.Wrapf(err, "scheduling %s (%q)", job.Name, job.Spec)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("scheduled job %s failed", job.Name), err)
		return
	}
	s.logger.Info(fmt.Sprintf("scheduled job %s done: %d affected", job.Name, n))
}

func (s *Scheduler) Jobs() []Job { return s.jobs }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, pairs(keysAndValues))
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		m[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return m
}
