package ingest

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded FIFO job queue. Enqueue never blocks the producer;
// the HTTP request path hands off and returns. Dequeue is intended for a
// single consumer.
type Queue struct {
	mu   sync.Mutex
	jobs []Job
	// signal wakes a waiting consumer; cap 1 so producers never block on it.
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Enqueue appends a job and returns the resulting queue length.
func (q *Queue) Enqueue(j Job) int {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	n := len(q.jobs)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
	queueDepth.Set(float64(n))
	return n
}

func (q *Queue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	queueDepth.Set(float64(len(q.jobs)))
	return j, true
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Dequeue returns the next job, waiting up to wait for one to arrive. The
// second result is false on timeout or context cancellation; a timed-out
// drain attempt is normal, not an error.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (Job, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		if j, ok := q.pop(); ok {
			return j, true
		}
		select {
		case <-q.signal:
			// re-check; the signal can race a pop from a previous wake
		case <-timer.C:
			return Job{}, false
		case <-ctx.Done():
			return Job{}, false
		}
	}
}
