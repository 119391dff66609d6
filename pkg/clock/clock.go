// Package clock abstracts time so timed document work (message teardown)
// can run against a manual clock in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock schedules callbacks. Scheduled callbacks cannot be cancelled.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func())
}

// Real uses the time package.
type Real struct{}

// Now returns time.Now.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc runs fn on its own goroutine after d.
func (Real) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Manual is a Clock that only moves when Advance is called. Callbacks run
// synchronously inside Advance, in due order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []scheduled
}

type scheduled struct {
	at  time.Time
	seq int
	fn  func()
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending = append(m.pending, scheduled{at: m.now.Add(d), seq: m.seq, fn: fn})
}

// Pending returns the number of callbacks not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by d and fires every callback that became
// due, including callbacks scheduled by callbacks fired during the advance.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].at.Equal(m.pending[j].at) {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].at.Before(m.pending[j].at)
		})
		if len(m.pending) == 0 || m.pending[0].at.After(target) {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.now = next.at
		m.mu.Unlock()

		next.fn()
	}
}
