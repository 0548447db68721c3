package lock

import (
	"context"
	"sync"
)

// AccountLocker hands out one exclusive slot per account id. Operations on
// the same id queue up in arrival order; distinct ids never contend. Slots
// are created lazily and reaped once no holder or waiter references them.
type AccountLocker struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	// refs counts the current holder plus all waiters.
	refs    int
	held    bool
	waiters []chan struct{}
}

func NewAccountLocker() *AccountLocker {
	return &AccountLocker{slots: make(map[int64]*slot)}
}

// Acquire blocks until the slot for id is granted or ctx expires. On a
// ctx error nothing is held and no effect remains.
func (l *AccountLocker) Acquire(ctx context.Context, id int64) error {
	l.mu.Lock()
	s := l.slots[id]
	if s == nil {
		s = &slot{}
		l.slots[id] = s
	}
	s.refs++
	if !s.held {
		s.held = true
		l.mu.Unlock()
		return nil
	}
	grant := make(chan struct{})
	s.waiters = append(s.waiters, grant)
	l.mu.Unlock()

	select {
	case <-grant:
		return nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-grant:
		// The grant raced with cancellation: we own the slot but the
		// caller has given up, so pass it straight on.
		l.handOff(s, id)
	default:
		for i, w := range s.waiters {
			if w == grant {
				s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
				break
			}
		}
		s.refs--
		if s.refs == 0 {
			delete(l.slots, id)
		}
	}
	return ctx.Err()
}

// Release frees the slot for id, waking the oldest waiter if any. Must be
// called exactly once per successful Acquire.
func (l *AccountLocker) Release(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	if s == nil {
		return
	}
	l.handOff(s, id)
}

// handOff transfers ownership to the next waiter or frees the slot,
// reaping it when unreferenced. Caller holds l.mu.
func (l *AccountLocker) handOff(s *slot, id int64) {
	s.refs--
	if len(s.waiters) > 0 {
		grant := s.waiters[0]
		s.waiters = s.waiters[1:]
		close(grant)
		return
	}
	s.held = false
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

// Len reports how many account slots are currently tracked.
func (l *AccountLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
