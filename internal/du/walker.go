package du

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Traverser computes the total block usage of root paths with a fixed pool
// of workers. With a single worker the pool is bypassed and the traversal
// recurses inline; both modes share the per-entry classification in visit,
// so totals and the permission outcome are identical for any input.
type Traverser struct {
	workers  int
	progress *Progress
	stderr   io.Writer
	st       *state
}

// New creates a Traverser with the given pool size (>= 1). Unreadable-
// directory diagnostics are written to stderr.
func New(workers int, progress *Progress, stderr io.Writer) *Traverser {
	if progress == nil {
		progress = &Progress{}
	}
	return &Traverser{
		workers:  workers,
		progress: progress,
		stderr:   stderr,
		st:       newState(),
	}
}

// Total traverses one root and returns its accumulated block count.
// A non-nil error is fatal to the invocation (a directory close failed);
// unreadable entries and directories are handled inside the traversal.
func (t *Traverser) Total(root string) (int64, error) {
	t.st.reset()
	if t.workers > 1 {
		return t.runPool(root)
	}
	return t.recurse(root)
}

// PermissionOK reports whether no directory-open failure has occurred in
// any root traversed so far.
func (t *Traverser) PermissionOK() bool {
	return t.st.permissionOK()
}

// runPool spawns the workers, submits the root as the initial task, and
// joins. The pool terminates through sentinel injection; see state.
func (t *Traverser) runPool(root string) (int64, error) {
	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)
	for range t.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := t.workerLoop(); err != nil {
				fatalMu.Lock()
				if fatalErr == nil {
					fatalErr = err
				}
				fatalMu.Unlock()
			}
		}()
	}
	t.st.enqueue(root)
	wg.Wait()

	t.st.mu.Lock()
	total := t.st.blocks
	t.st.mu.Unlock()
	slog.Debug("root traversed", "root", root, "blocks", total, "workers", t.workers)
	return total, fatalErr
}

// workerLoop is the body of one pool worker: dequeue, visit outside the
// lock, bank the contribution, run the quiescence check. It returns nil on
// the first sentinel, or a fatal visit error as soon as one occurs (after
// banking that task and running the check).
func (t *Traverser) workerLoop() error {
	st := t.st
	for {
		st.mu.Lock()
		for st.emptyLocked() {
			st.cond.Wait()
		}
		tk := st.popLocked()
		if tk.sentinel {
			st.shutdown = true
			st.mu.Unlock()
			return nil
		}
		st.active++
		st.mu.Unlock()

		blocks, err := t.visit(tk.path, st.enqueue)

		st.mu.Lock()
		st.blocks += blocks
		st.active--
		if st.emptyLocked() && st.active == 0 && !st.shutdown {
			st.injectSentinelsLocked(t.workers)
		}
		st.mu.Unlock()

		if err != nil {
			return err
		}
	}
}

// recurse is the single-worker traversal: the same visit algorithm with an
// inline recursion in place of the enqueue.
func (t *Traverser) recurse(path string) (int64, error) {
	var (
		childTotal int64
		childErr   error
	)
	own, err := t.visit(path, func(child string) {
		n, err := t.recurse(child)
		childTotal += n
		if childErr == nil {
			childErr = err
		}
	})
	if err == nil {
		err = childErr
	}
	total := own + childTotal
	t.st.mu.Lock()
	t.st.blocks += own
	t.st.mu.Unlock()
	return total, err
}

// visit processes one path and returns the blocks it contributes directly.
// Discovered subdirectories are handed to addDir, which either enqueues
// them for the pool or recurses inline. A non-nil error is fatal (the
// directory handle could not be closed); everything else is absorbed per
// the du contract.
func (t *Traverser) visit(path string, addDir func(string)) (int64, error) {
	blocks, isDir, err := lstatBlocks(path)
	if err != nil {
		// The entry vanished between discovery and visit: silent skip.
		return 0, nil
	}
	t.progress.EntriesVisited.Add(1)

	if !isDir {
		t.progress.Blocks.Add(blocks)
		return blocks, nil
	}

	dir, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(t.stderr, "mdu: cannot read directory '%s': Permission denied\n", path)
		t.st.denyPermission()
		t.progress.PermErrors.Add(1)
		t.progress.Blocks.Add(blocks)
		return blocks, nil
	}
	t.progress.DirsVisited.Add(1)

	// The directory's own blocks, attributed exactly once per directory.
	total := blocks

	// A readdir error ends the listing the same way readdir(3) does; the
	// entries returned so far are still counted.
	names, _ := dir.Readdirnames(-1)
	for _, name := range names {
		child := childPath(path, name)
		cblocks, childIsDir, err := lstatBlocks(child)
		if err != nil {
			// A child vanished mid-listing: charge the parent once more
			// and abandon the rest of this directory (compatibility with
			// the tool being emulated).
			total += blocks
			break
		}
		t.progress.EntriesVisited.Add(1)
		if childIsDir {
			addDir(child)
			continue
		}
		total += cblocks
	}

	if err := dir.Close(); err != nil {
		t.progress.Blocks.Add(total)
		return total, fmt.Errorf("close directory %q: %w", path, err)
	}
	t.progress.Blocks.Add(total)
	return total, nil
}
