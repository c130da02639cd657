package schedjobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/svc"
)

// MinLeadTime is how far ahead a one-time job must be scheduled
const MinLeadTime = 30 * time.Second

// Scheduler runs jobs at minute resolution as a service
type Scheduler struct {
	Ctx    context.Context    // Service Context
	cancel context.CancelFunc // Service Context CancelFunc
	mu     sync.Mutex         // guards state
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel

	jobsMu      sync.Mutex
	oneTimeJobs map[int64][]*OneTimeJob // key: unix minute
	cronJobs    []*CronJob
	lastMinute  int64 // last unix minute cron jobs ran for
	wg          sync.WaitGroup
	logger      *zap.Logger
	now         func() time.Time

	// Default Callbacks
	OnCronJobFinished    func(job *CronJob, err error)
	OnOneTimeJobFinished func(job *OneTimeJob, err error)
}

// Ensure Scheduler implements svc.Service
var _ svc.Service = (*Scheduler)(nil)

func NewScheduler(parentCtx context.Context, logger *zap.Logger) *Scheduler {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Scheduler{
		Ctx:         svcCtx,
		cancel:      svcCancel,
		state:       svc.StateREADY,
		done:        make(chan error, 1),
		oneTimeJobs: make(map[int64][]*OneTimeJob),
		logger:      logger.Named("scheduler"),
		now:         time.Now,
	}
}

func (s *Scheduler) Name() string {
	return "JobScheduler"
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	go s.loop()
	s.logger.Info("job scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateRUNNING {
		s.logger.Error("cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
	s.logger.Info("job scheduler stopped")
}

func (s *Scheduler) Done() <-chan error {
	return s.done
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		s.Tick(s.now())
		select {
		case <-ticker.C:
			// continue for-loop
		case <-s.Ctx.Done():
			s.wg.Wait() // wait for running tasks
			s.done <- nil
			return
		}
	}
}

// Tick launches the jobs due at now. Cron jobs fire once per minute at most
func (s *Scheduler) Tick(now time.Time) {
	minute := now.Unix() / 60

	s.jobsMu.Lock()
	var due []*OneTimeJob
	for key, jobs := range s.oneTimeJobs {
		if key <= minute {
			due = append(due, jobs...)
			delete(s.oneTimeJobs, key)
		}
	}
	var cron []*CronJob
	if minute != s.lastMinute {
		s.lastMinute = minute
		cron = append(cron, s.cronJobs...) // copy jobs so unlocking early is possible
	}
	s.jobsMu.Unlock()

	for _, job := range due {
		s.runOneTimeJob(job)
	}
	for _, job := range cron {
		if job.Matches(now) {
			s.runCronJob(job)
		}
	}
}

// Wait blocks until running jobs finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runOneTimeJob(job *OneTimeJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.runTask(job.ID, job.Task)
		s.callback(job.ID, func() {
			if job.OnFinished != nil {
				job.OnFinished(err)
			}
			if s.OnOneTimeJobFinished != nil {
				s.OnOneTimeJobFinished(job, err)
			}
		})
	}()
}

func (s *Scheduler) runCronJob(job *CronJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.runTask(job.ID, job.Task)
		s.callback(job.ID, func() {
			if job.OnFinished != nil {
				job.OnFinished(err)
			}
			if s.OnCronJobFinished != nil {
				s.OnCronJobFinished(job, err)
			}
		})
	}()
}

func (s *Scheduler) runTask(jobID string, task func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", jobID, r)
		}
	}()
	err = task(s.Ctx)
	if err != nil {
		s.logger.Error("job failed", zap.String("job", jobID), zap.Error(err))
	} else {
		s.logger.Debug("job finished", zap.String("job", jobID))
	}
	return err
}

func (s *Scheduler) callback(jobID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic recovered in job callback", zap.String("job", jobID), zap.Any("panic", r))
		}
	}()
	fn()
}

func (s *Scheduler) AddOneTimeJob(job *OneTimeJob) error {
	now := s.now()
	if job.ExecTime.Before(now.Add(MinLeadTime)) {
		return fmt.Errorf(
			"cannot schedule job %s too close or in the past (ExecTime: %s, now: %s)",
			job.ID, job.ExecTime, now,
		)
	}
	// Round up to the next minute if ExecTime has seconds/nanoseconds
	regTime := job.ExecTime
	if regTime.Second() > 0 || regTime.Nanosecond() > 0 {
		regTime = regTime.Truncate(time.Minute).Add(time.Minute)
	}
	key := regTime.Unix() / 60
	s.jobsMu.Lock()
	s.oneTimeJobs[key] = append(s.oneTimeJobs[key], job)
	s.jobsMu.Unlock()
	if job.OnAdded != nil {
		s.callback(job.ID, job.OnAdded)
	}
	s.logger.Info("one-time job added", zap.String("job", job.ID), zap.Time("at", regTime))
	return nil
}

func (s *Scheduler) AddCronJob(job *CronJob) {
	s.jobsMu.Lock()
	s.cronJobs = append(s.cronJobs, job)
	s.jobsMu.Unlock()
	if job.OnAdded != nil {
		s.callback(job.ID, job.OnAdded)
	}
	s.logger.Info("cron job added", zap.String("job", job.ID))
}

// GetCronJobs returns a copy of all registered cron jobs
func (s *Scheduler) GetCronJobs() []*CronJob {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	return append([]*CronJob(nil), s.cronJobs...)
}

// PendingOneTimeJobs counts jobs not run yet
func (s *Scheduler) PendingOneTimeJobs() int {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	n := 0
	for _, jobs := range s.oneTimeJobs {
		n += len(jobs)
	}
	return n
}

// DeleteOneTimeJob - Delete a job
func (s *Scheduler) DeleteOneTimeJob(jobID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for key, jobs := range s.oneTimeJobs {
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.ID != jobID {
				filtered = append(filtered, job)
			}
		}
		if len(filtered) == 0 {
			delete(s.oneTimeJobs, key)
		} else {
			s.oneTimeJobs[key] = filtered
		}
	}
}

// DeleteCronJob removes a cron job by its ID
func (s *Scheduler) DeleteCronJob(jobID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	newJobs := s.cronJobs[:0] // reuse underlying array
	for _, job := range s.cronJobs {
		if job.ID != jobID {
			newJobs = append(newJobs, job)
		}
	}
	s.cronJobs = newJobs
}
