package repository

import (
	"log"
	"sync"
)

// Writer executes persistence jobs on a single background goroutine so
// that mutations return immediately and writes land in mutation order.
// Callers capture the owning record key (and user id) when they enqueue,
// not when the job runs.
//
// The queue is unbounded. Enqueue never blocks, so services may call it
// while holding their own locks even when the storage backend is slow;
// a bounded queue would deadlock there, with the in-flight job waiting
// on the service lock and the enqueuer waiting on queue space.
type Writer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func() error
	done   chan struct{}
	closed bool
}

// NewWriter starts the background write loop
func NewWriter() *Writer {
	w := &Writer{done: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *Writer) run() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			close(w.done)
			return
		}
		job := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if err := job(); err != nil {
			log.Printf("deferred write failed: %v", err)
		}
	}
}

// Enqueue schedules a write job. Jobs run in enqueue order.
func (w *Writer) Enqueue(job func() error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		// Late writes during shutdown run inline
		if err := job(); err != nil {
			log.Printf("deferred write failed: %v", err)
		}
		return
	}
	w.queue = append(w.queue, job)
	w.cond.Signal()
	w.mu.Unlock()
}

// Flush blocks until every previously enqueued job has run
func (w *Writer) Flush() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	w.queue = append(w.queue, func() error {
		close(ch)
		return nil
	})
	w.cond.Signal()
	w.mu.Unlock()
	<-ch
}

// Close drains the queue and stops the write loop
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.cond.Signal()
	w.mu.Unlock()
	<-w.done
}
