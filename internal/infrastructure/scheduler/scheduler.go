package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobObserver receives the outcome of every scheduled run.
type JobObserver interface {
	ObserveJob(job string, err error, elapsed time.Duration)
}

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs background maintenance jobs on cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	log      *logrus.Logger
	observer JobObserver

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log *logrus.Logger, observer JobObserver) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		log:      log,
		observer: observer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds job under spec, which accepts standard five-field cron
// expressions and descriptors like "@every 10m". An empty spec or "off"
// leaves the job disabled.
func (s *Scheduler) Register(name, spec string, job Job) error {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "off") {
		s.log.Infof("Scheduled job %s disabled", name)
		return nil
	}

	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.log.Infof("Scheduled job %s registered (%s)", name, spec)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	logger := s.log.WithField("job", name)
	start := time.Now()

	err := job(s.ctx)
	elapsed := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveJob(name, err, elapsed)
	}
	if err != nil {
		logger.Errorf("Scheduled job failed after %s: %+v", elapsed, err)
		return
	}
	logger.Debugf("Scheduled job finished in %s", elapsed)
}

// RunNow executes a registered-style job once outside its schedule.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule, cancels running jobs and waits for them until ctx
// expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduled jobs still running at shutdown")
	}
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
