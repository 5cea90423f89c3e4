package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/breez/device-sync/metrics"
	"github.com/breez/device-sync/store"
)

type lockKey struct {
	ownerID  string
	dataType store.DataType
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// keyedLock allows one holder per key. Entries are reference counted and
// removed once nobody holds or waits for them.
type keyedLock struct {
	mu      sync.Mutex
	entries map[lockKey]*lockEntry
	timeout time.Duration
}

func newKeyedLock(timeout time.Duration) *keyedLock {
	return &keyedLock{entries: make(map[lockKey]*lockEntry), timeout: timeout}
}

// acquire waits for key until the lock timeout or ctx ends. The returned
// release func must be called exactly once.
func (l *keyedLock) acquire(ctx context.Context, key lockKey) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	start := time.Now()
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		metrics.LockWait.Observe(time.Since(start).Seconds())
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				l.unref(key, e)
			})
		}, nil
	case <-timer.C:
		l.unref(key, e)
		metrics.LockTimeouts.Inc()
		return nil, newError(CodeLockTimeout, nil, "lock on %v/%v not acquired within %v", key.ownerID, key.dataType, l.timeout)
	case <-ctx.Done():
		l.unref(key, e)
		metrics.LockTimeouts.Inc()
		return nil, newError(CodeLockTimeout, ctx.Err(), "lock on %v/%v abandoned by caller", key.ownerID, key.dataType)
	}
}

func (l *keyedLock) unref(key lockKey, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

func (l *keyedLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
