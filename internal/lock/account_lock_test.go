package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waiterCount(l *AccountLocker, id int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	if s == nil {
		return 0
	}
	return len(s.waiters)
}

func TestAcquireReleaseReapsSlot(t *testing.T) {
	l := NewAccountLocker()

	require.NoError(t, l.Acquire(context.Background(), 1))
	assert.Equal(t, 1, l.Len())

	l.Release(1)
	assert.Equal(t, 0, l.Len(), "idle slot must be reaped")
}

func TestSameAccountServedInArrivalOrder(t *testing.T) {
	l := NewAccountLocker()
	require.NoError(t, l.Acquire(context.Background(), 7))

	const n = 5
	order := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background(), 7))
			order <- i
			l.Release(7)
		}(i)
		// Make sure waiter i is queued before spawning waiter i+1.
		require.Eventually(t, func() bool {
			return waiterCount(l, 7) == i+1
		}, time.Second, time.Millisecond)
	}

	l.Release(7)
	wg.Wait()
	close(order)

	got := make([]int, 0, n)
	for i := range order {
		got = append(got, i)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, l.Len())
}

func TestDistinctAccountsDoNotContend(t *testing.T) {
	l := NewAccountLocker()
	require.NoError(t, l.Acquire(context.Background(), 1))
	defer l.Release(1)

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.Acquire(ctx, 2); err == nil {
			l.Release(2)
			close(done)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operation on an independent account was blocked")
	}
}

func TestAcquireTimeoutLeavesNoTrace(t *testing.T) {
	l := NewAccountLocker()
	require.NoError(t, l.Acquire(context.Background(), 3))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx, 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, waiterCount(l, 3), "timed-out waiter must be dequeued")

	l.Release(3)
	assert.Equal(t, 0, l.Len())
}

func TestCancelledBeforeAcquire(t *testing.T) {
	l := NewAccountLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The slot is free, so the grant still wins even with a dead context.
	// Only waiting is interruptible.
	err := l.Acquire(ctx, 9)
	require.NoError(t, err)
	l.Release(9)
	assert.Equal(t, 0, l.Len())
}

func TestMutualExclusionUnderContention(t *testing.T) {
	l := NewAccountLocker()
	var counters [3]int
	const perAccount = 100

	var wg sync.WaitGroup
	for _, id := range []int64{1, 2} {
		for i := 0; i < perAccount; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				assert.NoError(t, l.Acquire(context.Background(), id))
				defer l.Release(id)
				counters[id]++
			}(id)
		}
	}
	wg.Wait()

	// The unsynchronized increments are race-free only if each id's slot
	// actually excludes concurrent holders.
	assert.Equal(t, perAccount, counters[1])
	assert.Equal(t, perAccount, counters[2])
	assert.Equal(t, 0, l.Len())
}
