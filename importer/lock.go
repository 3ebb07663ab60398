package importer

import (
	"sync"
	"time"
)

// RunLock keeps import runs from overlapping. An acquisition holds for a
// fixed window and then expires on its own, whether or not the run finished;
// a crashed or hung run simply ages out instead of wedging the scheduler.
// The window therefore has to be longer than any healthy run.
type RunLock struct {
	mu         sync.Mutex
	window     time.Duration
	acquiredAt time.Time
	now        func() time.Time
}

func NewRunLock(window time.Duration) *RunLock {
	if window <= 0 {
		window = 5 * time.Minute
	}

	return &RunLock{
		window: window,
		now:    time.Now,
	}
}

// TryAcquire claims the lock if no acquisition is live within the window.
// There is no explicit release; the claim expires by itself.
func (l *RunLock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.acquiredAt.IsZero() && l.now().Sub(l.acquiredAt) < l.window {
		return false
	}

	l.acquiredAt = l.now()

	return true
}
