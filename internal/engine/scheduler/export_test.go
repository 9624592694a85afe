package scheduler

import "time"

// WithClock replaces the time source used for report timestamps.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}
