// internal/app/poll_service.go
package app

import (
	"context"
	"fmt"
	"homework_status_bot/internal/domain/homework"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	failureNoticeTemplate = "Сбой в работе программы: %v"
	defaultNoticeTimeout  = 30 * time.Second
)

// Fetcher returns the homework statuses changed since fromDate.
type Fetcher interface {
	Fetch(ctx context.Context, fromDate int64) (homework.Response, error)
}

// Sender delivers a message to the user. Implementations must not panic.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Status describes the recent health of the poll loop.
type Status struct {
	Cursor              int64
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// PollOption configures a PollLoop.
type PollOption func(*PollLoop)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) PollOption {
	return func(p *PollLoop) {
		p.now = now
	}
}

// WithFailureNoticeDedup suppresses a failure notice identical to the previous one.
func WithFailureNoticeDedup(enabled bool) PollOption {
	return func(p *PollLoop) {
		p.dedupNotices = enabled
	}
}

// WithNoticeTimeout bounds the delivery of a failure notice.
func WithNoticeTimeout(d time.Duration) PollOption {
	return func(p *PollLoop) {
		p.noticeTimeout = d
	}
}

// PollLoop runs fetch, validate, format and notify cycles and owns the query cursor.
// Cycles must not run concurrently; the scheduler serializes them.
type PollLoop struct {
	fetcher       Fetcher
	sender        Sender
	logger        *logrus.Entry
	now           func() time.Time
	dedupNotices  bool
	noticeTimeout time.Duration

	cursor     int64
	lastNotice string

	statusMu sync.RWMutex
	status   Status
}

// NewPollLoop creates a loop whose cursor starts at the current time.
func NewPollLoop(fetcher Fetcher, sender Sender, logger *logrus.Entry, opts ...PollOption) *PollLoop {
	p := &PollLoop{
		fetcher: fetcher,
		sender:  sender,
		logger:  logger,
		now:     time.Now,

		noticeTimeout: defaultNoticeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cursor = p.now().Unix()
	p.status.Cursor = p.cursor
	return p
}

// RunCycle performs one full cycle. Every failure is logged and reported to the user
// here; the returned error is informational and the caller should keep polling.
func (p *PollLoop) RunCycle(ctx context.Context) error {
	started := p.now()
	cycleLogger := p.logger.WithFields(logrus.Fields{
		"cycle_id":  uuid.NewString(),
		"from_date": p.cursor,
	})
	cycleLogger.Debug("Poll cycle started")
	p.recordAttempt(started)

	sent, err := p.processCycle(ctx, cycleLogger, started)
	if err != nil {
		cycleLogger.WithError(err).WithFields(logrus.Fields{
			"failure_kind": homework.Kind(err),
			"sent":         sent,
		}).Error("Poll cycle failed")
		p.reportFailure(ctx, cycleLogger, err)
		p.recordFailure(err)
		return err
	}

	p.lastNotice = ""
	p.recordSuccess(started)
	cycleLogger.WithFields(logrus.Fields{
		"sent":       sent,
		"next_from":  p.cursor,
		"elapsed_ms": p.now().Sub(started).Milliseconds(),
	}).Info("Poll cycle finished")
	return nil
}

// processCycle stops at the first failing record; remaining records wait for the next cycle.
func (p *PollLoop) processCycle(ctx context.Context, log *logrus.Entry, started time.Time) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in poll cycle: %v", r)
		}
	}()

	resp, err := p.fetcher.Fetch(ctx, p.cursor)
	if err != nil {
		return 0, err
	}

	records, err := homework.ExtractHomeworks(resp)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		log.Debug("No homework status updates")
	}

	for i, rec := range records {
		message, err := homework.FormatVerdict(rec)
		if err != nil {
			return sent, fmt.Errorf("record %d: %w", i, err)
		}
		log.WithField("record", i).Infof("Verdict derived: %s", message)

		if err := p.sender.Send(ctx, message); err != nil {
			return sent, fmt.Errorf("record %d: %w", i, err)
		}
		sent++
	}

	p.advanceCursor(resp, started)
	return sent, nil
}

// advanceCursor moves the query window forward once every update has been delivered.
// The server clock is preferred so local clock skew cannot drop updates.
func (p *PollLoop) advanceCursor(resp homework.Response, started time.Time) {
	if ts, ok := resp.CurrentDate(); ok {
		p.cursor = ts
		return
	}
	p.cursor = started.Unix()
}

// reportFailure makes a best-effort attempt to tell the user about err.
// The notice gets its own deadline: the cycle context may already be expired
// or cancelled, which is often the very failure being reported.
func (p *PollLoop) reportFailure(ctx context.Context, log *logrus.Entry, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.noticeTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Failure notice sender panicked")
		}
	}()

	notice := fmt.Sprintf(failureNoticeTemplate, err)
	if p.dedupNotices && notice == p.lastNotice {
		log.Info("Failure notice already sent, skipping duplicate")
		return
	}

	if sendErr := p.sender.Send(ctx, notice); sendErr != nil {
		log.WithError(sendErr).Warn("Could not deliver failure notice")
		return
	}
	p.lastNotice = notice
}

// Cursor returns the lower bound used by the next fetch.
func (p *PollLoop) Cursor() int64 {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status.Cursor
}

// Status returns a snapshot of the loop's recent health.
func (p *PollLoop) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

func (p *PollLoop) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.LastAttempt = at
}

func (p *PollLoop) recordSuccess(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = at
	p.status.Cursor = p.cursor
}

func (p *PollLoop) recordFailure(err error) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	p.status.LastError = err.Error()
}
