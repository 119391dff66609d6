package dom

import "sync"

// Runner executes document work one task at a time. Every read and write of
// a Document shared between dispatches and timers goes through a Runner.
type Runner interface {
	Run(fn func())
}

// Thread is the default Runner: a mutex-serialised executor. Run must not be
// called from inside another Run on the same Thread.
type Thread struct {
	mu sync.Mutex
}

// NewThread returns a ready Thread.
func NewThread() *Thread {
	return &Thread{}
}

// Run executes fn while holding the thread.
func (t *Thread) Run(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
}

// Inline runs tasks directly on the calling goroutine. It is meant for
// single-goroutine hosts and tests.
type Inline struct{}

// Run executes fn immediately.
func (Inline) Run(fn func()) {
	if fn != nil {
		fn()
	}
}
