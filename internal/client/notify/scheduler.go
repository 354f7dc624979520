package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/communityhub/internal/client/models"
	"github.com/dmitrijs2005/communityhub/internal/logging"
	"github.com/robfig/cron/v3"
)

// EventSource supplies the events digests are computed from.
type EventSource interface {
	UpcomingEvents(ctx context.Context) ([]models.Event, error)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context) ([]models.Event, error)

func (f EventSourceFunc) UpcomingEvents(ctx context.Context) ([]models.Event, error) {
	return f(ctx)
}

// DigestScheduler runs the daily digest every day and the weekly summary on
// Sundays, both at the hour of the customTiming preference.
type DigestScheduler struct {
	center *Center
	source EventSource
	logger logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	entries []cron.EntryID
	timing  Timing
}

func NewDigestScheduler(center *Center, source EventSource, logger logging.Logger) *DigestScheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DigestScheduler{
		center: center,
		source: source,
		logger: logger,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// DailySpec and WeeklySpec are the cron specs for a timing.
func DailySpec(t Timing) string  { return fmt.Sprintf("0 0 %d * * *", t.Hour()) }
func WeeklySpec(t Timing) string { return fmt.Sprintf("0 0 %d * * 0", t.Hour()) }

// Start registers the jobs for the current timing and starts the cron loop.
// Jobs run with ctx until Stop.
func (s *DigestScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.Reschedule(ctx); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info(ctx, "digest scheduler started", "timing", s.Timing())
	return nil
}

// Reschedule re-reads the timing preference and moves the jobs if it changed.
func (s *DigestScheduler) Reschedule(ctx context.Context) error {
	timing := s.center.LoadPreferences(ctx).CustomTiming

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries != nil && timing == s.timing {
		return nil
	}
	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = nil

	daily, err := s.cron.AddFunc(DailySpec(timing), func() { s.RunDaily(s.jobContext()) })
	if err != nil {
		return fmt.Errorf("schedule daily digest: %w", err)
	}
	weekly, err := s.cron.AddFunc(WeeklySpec(timing), func() { s.RunWeekly(s.jobContext()) })
	if err != nil {
		s.cron.Remove(daily)
		return fmt.Errorf("schedule weekly summary: %w", err)
	}
	s.entries = []cron.EntryID{daily, weekly}
	s.timing = timing
	return nil
}

func (s *DigestScheduler) Timing() Timing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timing
}

// Stop halts the cron loop and waits for running jobs.
func (s *DigestScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunDaily fetches events and sends the daily digest.
func (s *DigestScheduler) RunDaily(ctx context.Context) *Notification {
	events, ok := s.events(ctx)
	if !ok {
		return nil
	}
	return s.center.SendDailyDigest(ctx, events)
}

// RunWeekly fetches events and sends the weekly summary.
func (s *DigestScheduler) RunWeekly(ctx context.Context) *Notification {
	events, ok := s.events(ctx)
	if !ok {
		return nil
	}
	return s.center.SendWeeklySummary(ctx, events)
}

func (s *DigestScheduler) events(ctx context.Context) ([]models.Event, bool) {
	events, err := s.source.UpcomingEvents(ctx)
	if err != nil {
		s.logger.Warn(ctx, "digest skipped, events unavailable", "error", err)
		return nil, false
	}
	return events, true
}

func (s *DigestScheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
