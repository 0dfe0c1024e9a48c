package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner is one poll cycle. Errors are already reported by the runner.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// PollScheduler runs a CycleRunner immediately and then every interval.
// The interval is measured start to start (cron.Every), so the pause after a
// cycle is the interval minus the time the cycle took.
// Cycles never overlap: a cycle that overruns delays the next one.
type PollScheduler struct {
	cronEngine   *cron.Cron
	runner       CycleRunner
	logger       *logrus.Entry
	interval     time.Duration
	cycleTimeout time.Duration

	mu      sync.Mutex
	started bool
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPollScheduler(
	runner CycleRunner,
	logger *logrus.Entry,
	interval time.Duration, // e.g. 600s between cycle starts
	cycleTimeout time.Duration, // upper bound for one cycle
) *PollScheduler {
	return &PollScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.Local), cron.WithLogger(cronLogger{logger: logger})),
		runner:       runner,
		logger:       logger,
		interval:     interval,
		cycleTimeout: cycleTimeout,
	}
}

// Start schedules the poll job and kicks off the first cycle without waiting for the interval.
func (s *PollScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}

	s.logger.WithField("interval", s.interval.String()).Info("Starting poll scheduler...")
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// The chain is applied once so the immediate run and the cron runs share
	// the same DelayIfStillRunning lock.
	cl := cronLogger{logger: s.logger}
	job := cron.NewChain(cron.Recover(cl), cron.DelayIfStillRunning(cl)).Then(cron.FuncJob(s.executeCycle))

	s.entryID = s.cronEngine.Schedule(cron.Every(s.interval), job)
	s.cronEngine.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()

	s.started = true
	s.logger.Info("Poll scheduler started.")
	return nil
}

func (s *PollScheduler) executeCycle() {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cycleTimeout)
	defer cancel()

	if err := s.runner.RunCycle(ctx); err != nil {
		s.logger.WithError(err).Debug("Cycle ended with an error, waiting for the next one")
	}
}

// Stop cancels any running cycle and waits for it to return.
func (s *PollScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	s.logger.Info("Stopping poll scheduler...")
	s.cancel()
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.wg.Wait()
	s.cronEngine.Remove(s.entryID)
	s.started = false
	s.logger.Info("Poll scheduler gracefully stopped.")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(toFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(toFields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
