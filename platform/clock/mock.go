package clock

import (
	"sync"
	"time"
)

// Mock is a manually advanced Clock for tests. Timers fire when Advance moves
// the mock time past their deadline.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

// NewMock creates a Mock clock anchored at the given time.
func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

// Now returns the current mock time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTimer returns a timer firing once the mock clock advances past d.
func (m *Mock) NewTimer(d time.Duration) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &mockTimer{
		clock:    m,
		deadline: m.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	if d <= 0 {
		t.fired = true
		t.ch <- m.now
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the mock time forward and fires any due timers.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now

	remaining := m.timers[:0]
	var due []*mockTimer
	for _, t := range m.timers {
		if !t.deadline.After(now) {
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	m.timers = remaining
	m.mu.Unlock()

	for _, t := range due {
		t.fire(now)
	}
}

type mockTimer struct {
	clock    *Mock
	deadline time.Time
	ch       chan time.Time

	mu      sync.Mutex
	fired   bool
	stopped bool
}

func (t *mockTimer) C() <-chan time.Time { return t.ch }

func (t *mockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *mockTimer) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return
	}
	t.fired = true
	t.ch <- now
}
