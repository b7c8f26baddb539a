// Package lock implements the per-account concurrency guard for a single
// process.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// Local is an in-process keyed mutex. Keys are created on first use and
// dropped once no goroutine holds or waits for them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*keyLock
	wait  time.Duration
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewLocal creates a Local locker. A positive wait bounds how long Lock
// blocks before giving up with domain.ErrConcurrencyConflict.
func NewLocal(wait time.Duration) *Local {
	return &Local{
		locks: make(map[string]*keyLock),
		wait:  wait,
	}
}

// Lock acquires the lock for accountID.
func (l *Local) Lock(ctx context.Context, accountID string) (func(), error) {
	k := l.ref(accountID)

	waitCtx := ctx
	if l.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case k.sem <- struct{}{}:
	case <-waitCtx.Done():
		l.unref(accountID, k)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: account %s is locked", domain.ErrConcurrencyConflict, accountID)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.sem
			l.unref(accountID, k)
		})
	}, nil
}

func (l *Local) ref(accountID string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	k, ok := l.locks[accountID]
	if !ok {
		k = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[accountID] = k
	}
	k.refs++
	return k
}

func (l *Local) unref(accountID string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k.refs--
	if k.refs == 0 {
		delete(l.locks, accountID)
	}
}

// size reports the number of live keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
