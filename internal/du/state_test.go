package du

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// TestQueueNeverLosesItems enqueues 5 000 paths, dequeues all, and verifies
// the exact set is returned (compaction must not drop entries).
func TestQueueNeverLosesItems(t *testing.T) {
	const n = 5000
	st := newState()

	for i := 0; i < n; i++ {
		st.enqueue(fmt.Sprintf("dir%04d", i))
	}

	var got []string
	for i := 0; i < n; i++ {
		tk := st.dequeue()
		if tk.sentinel {
			t.Fatalf("unexpected sentinel at item %d", i)
		}
		got = append(got, tk.path)
	}

	sort.Strings(got)
	for i, v := range got {
		if want := fmt.Sprintf("dir%04d", i); v != want {
			t.Errorf("item %d: got %q, want %q", i, v, want)
		}
	}
}

// TestQueueFIFO verifies arrival order is preserved.
func TestQueueFIFO(t *testing.T) {
	st := newState()
	for i := 0; i < 100; i++ {
		st.enqueue(fmt.Sprintf("p%02d", i))
	}
	for i := 0; i < 100; i++ {
		if got, want := st.dequeue().path, fmt.Sprintf("p%02d", i); got != want {
			t.Fatalf("dequeue %d: got %q, want %q", i, got, want)
		}
	}
}

// TestQueueCompactionBoundsMemory interleaves enqueue/dequeue batches and
// verifies the backing slice doesn't grow to the total number of historical
// enqueues.
func TestQueueCompactionBoundsMemory(t *testing.T) {
	const batchSize = 2000
	const batches = 5 // total enqueues = 10 000
	st := newState()

	for b := 0; b < batches; b++ {
		for i := 0; i < batchSize; i++ {
			st.enqueue(fmt.Sprintf("d%d_%04d", b, i))
		}
		for i := 0; i < batchSize; i++ {
			st.dequeue()
		}
	}

	st.mu.Lock()
	remaining := len(st.items) - st.head
	totalCap := cap(st.items)
	st.mu.Unlock()

	if remaining != 0 {
		t.Errorf("expected empty queue after full drain, got %d remaining items", remaining)
	}
	totalEnqueues := batchSize * batches
	if totalCap >= totalEnqueues {
		t.Errorf("backing array capacity %d >= total enqueues %d — dead prefix not released",
			totalCap, totalEnqueues)
	}
}

// TestSentinelBroadcastWakesAllWaiters parks 8 goroutines in dequeue, then
// injects 8 sentinels with a single broadcast. Every goroutine must receive
// exactly one sentinel.
func TestSentinelBroadcastWakesAllWaiters(t *testing.T) {
	const workers = 8
	st := newState()

	var wg sync.WaitGroup
	results := make(chan task, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- st.dequeue()
		}()
	}

	// Give the goroutines a moment to park on the condition variable, so
	// the broadcast path (not a fast-path dequeue) is what's exercised.
	time.Sleep(50 * time.Millisecond)

	st.mu.Lock()
	st.injectSentinelsLocked(workers)
	st.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all waiters woke after sentinel broadcast")
	}

	close(results)
	for tk := range results {
		if !tk.sentinel {
			t.Errorf("waiter received a non-sentinel task %q", tk.path)
		}
	}
}

// TestResetPreservesPermission verifies that reset clears the per-root
// fields but not the latched permission flag.
func TestResetPreservesPermission(t *testing.T) {
	st := newState()
	st.enqueue("/a")
	st.mu.Lock()
	st.blocks = 42
	st.active = 3
	st.shutdown = true
	st.mu.Unlock()
	st.denyPermission()

	st.reset()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.blocks != 0 || st.active != 0 || st.shutdown || !st.emptyLocked() {
		t.Errorf("reset left per-root state behind: blocks=%d active=%d shutdown=%v empty=%v",
			st.blocks, st.active, st.shutdown, st.emptyLocked())
	}
	if st.permission {
		t.Error("reset cleared the permission flag; it must survive across roots")
	}
}
