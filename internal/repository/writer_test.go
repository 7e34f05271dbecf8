package repository

import (
	"sync"
	"testing"
	"time"
)

func TestWriterRunsJobsInOrder(t *testing.T) {
	w := NewWriter()
	defer w.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		w.Enqueue(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	w.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 10 {
		t.Fatalf("ran %d jobs, want 10", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("job %d ran at position %d", got, i)
		}
	}
}

func TestWriterEnqueueNeverBlocksOnBacklog(t *testing.T) {
	w := NewWriter()

	// Stall the write loop on the first job so every later Enqueue
	// lands behind it in the queue.
	gate := make(chan struct{})
	w.Enqueue(func() error {
		<-gate
		return nil
	})

	var mu sync.Mutex
	ran := 0
	enqueued := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			w.Enqueue(func() error {
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			})
		}
		close(enqueued)
	}()

	select {
	case <-enqueued:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked while the write loop was stalled")
	}

	close(gate)
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	if ran != 500 {
		t.Errorf("ran %d backlog jobs, want 500", ran)
	}
}

func TestWriterFlushWaitsForPendingWrites(t *testing.T) {
	w := NewWriter()
	defer w.Close()

	repo := NewMemoryStateRepository()
	store := NewScopedStore[testState](repo, "quest")

	w.Enqueue(func() error {
		return store.Save("user-1", testState{TotalXP: 30})
	})
	w.Flush()

	if got := store.Load("user-1", defaultTestState); got.TotalXP != 30 {
		t.Errorf("state after flush = %+v, want TotalXP 30", got)
	}
}

func TestWriterCloseDrainsQueue(t *testing.T) {
	w := NewWriter()

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		w.Enqueue(func() error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	if ran != 5 {
		t.Errorf("ran %d jobs before close, want 5", ran)
	}

	// Enqueue after close runs inline instead of panicking
	w.Enqueue(func() error {
		ran++
		return nil
	})
	if ran != 6 {
		t.Errorf("late job did not run, ran = %d", ran)
	}
}
