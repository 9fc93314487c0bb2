package picker

import "sync"

// Queue is the picker's task queue. Tasks may be posted from any goroutine
// and run on the controller when it drains the queue.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Post appends fn to the queue. It returns false if the queue is closed.
func (q *Queue) Post(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready is signalled after a Post. A signal may be spurious; the queue can
// already have been drained.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Done is closed when the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Drain runs queued tasks in FIFO order, including tasks posted while
// draining, until the queue is empty. It returns the number of tasks run.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			fn()
			n++
		}
	}
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close discards pending tasks and rejects further posts.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.tasks = nil
	close(q.done)
}
