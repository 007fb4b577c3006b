package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	attempts []int
	failN    int
}

func (r *recorder) handle(_ context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, job.Attempt)
	if len(r.attempts) <= r.failN {
		return errors.New("transient failure")
	}
	return nil
}

func (r *recorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.attempts))
	copy(out, r.attempts)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestQueueProcessesJobs(t *testing.T) {
	rec := &recorder{}
	q := NewQueue("test", rec.handle, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "noop"}))
	}
	waitFor(t, func() bool { return len(rec.seen()) == 5 })
}

func TestQueueRetriesWithAttemptCount(t *testing.T) {
	rec := &recorder{failN: 2}
	q := NewQueue("test", rec.handle, QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 5 * time.Millisecond,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "flaky"}))

	waitFor(t, func() bool { return len(rec.seen()) == 3 })
	assert.Equal(t, []int{0, 1, 2}, rec.seen())
}

func TestQueueDropsJobAfterRetryBudget(t *testing.T) {
	rec := &recorder{failN: 10}
	q := NewQueue("test", rec.handle, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "broken"}))

	// Initial run plus two retries, then the job is dropped.
	waitFor(t, func() bool { return len(rec.seen()) == 3 })
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.seen(), 3)
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "early"}))
}
