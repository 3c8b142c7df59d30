package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lv-tradecore/internal/metrics"

	"go.uber.org/zap"
)

// Clock is a time of day in UTC.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(v string) (Clock, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", v, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Next returns the first occurrence of c strictly after now, in UTC.
func (c Clock) Next(now time.Time) time.Time {
	now = now.UTC()
	at := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

type JobStatus struct {
	LastStart    time.Time     `json:"last_start"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	Runs         int64         `json:"runs"`
	Skipped      int64         `json:"skipped"`
}

// Scheduler runs named jobs. Each job owns one goroutine, so a job never
// overlaps itself; a panic or error in one pass is logged and the schedule
// continues.
type Scheduler struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.Mutex
	status map[string]JobStatus
}

func NewScheduler(logger *zap.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		log:     logger.Named("scheduler"),
		metrics: m,
		now:     time.Now,
		status:  make(map[string]JobStatus),
	}
}

// Every runs fn every interval until ctx ends. Ticks that elapse while a pass
// is still running are dropped and counted as skipped.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	s.log.Info("job scheduled", zap.String("job", name), zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := s.runOnce(ctx, name, fn)
			if skipped := int64(elapsed / interval); skipped > 0 {
				s.skip(name, skipped)
			}
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// Daily runs fn once a day at the given UTC clock time. fn receives the
// scheduled instant.
func (s *Scheduler) Daily(ctx context.Context, name string, at Clock, fn func(context.Context, time.Time) error) {
	for {
		next := at.Next(s.now())
		s.log.Info("daily job scheduled", zap.String("job", name), zap.Time("next_run", next))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx, name, func(ctx context.Context) error { return fn(ctx, next) })
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, name string, fn func(context.Context) error) (elapsed time.Duration) {
	start := s.now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		elapsed = s.now().Sub(start)
		s.metrics.SweepDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		if err != nil {
			s.metrics.SweepFailures.WithLabelValues(name).Inc()
			s.log.Error("job failed", zap.String("job", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		}
		s.mu.Lock()
		st := s.status[name]
		st.LastStart = start
		st.LastDuration = elapsed
		st.Runs++
		st.LastError = ""
		if err != nil {
			st.LastError = err.Error()
		}
		s.status[name] = st
		s.mu.Unlock()
	}()
	err = fn(ctx)
	return
}

func (s *Scheduler) skip(name string, n int64) {
	s.metrics.SweepOverruns.WithLabelValues(name).Add(float64(n))
	s.mu.Lock()
	st := s.status[name]
	st.Skipped += n
	s.status[name] = st
	s.mu.Unlock()
	s.log.Warn("job overran its interval", zap.String("job", name), zap.Int64("skipped", n))
}

func (s *Scheduler) Status() map[string]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobStatus, len(s.status))
	for k, v := range s.status {
		out[k] = v
	}
	return out
}
