package logging

import (
	"fmt"
	"sync"
	"time"
)

type suppressed struct {
	msg        string
	lastLogged time.Time
	count      int
}

// Suppressor lets the first occurrence of an error through and holds back
// identical repeats until the interval has passed, then reports how many
// were held back. It is safe for concurrent use.
type Suppressor struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	entries  map[string]*suppressed
}

// SuppressOption configures a Suppressor.
type SuppressOption func(*Suppressor)

// WithInterval sets the minimum time between two logs of the same error.
func WithInterval(d time.Duration) SuppressOption {
	return func(s *Suppressor) {
		s.interval = d
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) SuppressOption {
	return func(s *Suppressor) {
		s.now = now
	}
}

// NewSuppressor creates a Suppressor with a 10 minute interval.
func NewSuppressor(opts ...SuppressOption) *Suppressor {
	s := &Suppressor{
		interval: 10 * time.Minute,
		now:      time.Now,
		entries:  make(map[string]*suppressed),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check returns the message to log for key and whether to log it.
// A nil error clears key so the next failure is logged at once.
func (s *Suppressor) Check(key string, err error) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.entries, key)
		return "", false
	}

	msg := err.Error()
	now := s.now()
	e, ok := s.entries[key]
	if !ok || e.msg != msg {
		s.entries[key] = &suppressed{msg: msg, lastLogged: now}
		return msg, true
	}

	if now.Sub(e.lastLogged) < s.interval {
		e.count++
		return "", false
	}

	out := msg
	if e.count > 0 {
		out = fmt.Sprintf("%s (suppressed %d times)", msg, e.count)
	}
	e.lastLogged = now
	e.count = 0
	return out, true
}

// Warner is the subset of a logger used by Report.
type Warner interface {
	Warn(args ...interface{})
}

// Report logs err for key through w unless it is being suppressed.
func (s *Suppressor) Report(w Warner, key string, err error) {
	if msg, ok := s.Check(key, err); ok {
		w.Warn(key+": ", msg)
	}
}
