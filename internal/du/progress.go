package du

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Progress holds live counters updated by the traversal workers.
// All fields are atomic so they can be written from worker goroutines and
// read by the reporter without taking the traversal lock.
type Progress struct {
	EntriesVisited atomic.Int64 // entries statted, files and directories alike
	DirsVisited    atomic.Int64 // directories successfully opened
	Blocks         atomic.Int64 // 512-byte blocks accumulated, all roots
	PermErrors     atomic.Int64 // unreadable directories encountered
}

// Report logs the counters every interval until stop is closed, with a
// final flush on shutdown. Counters accumulate across roots, so the last
// line summarises the whole invocation.
func (p *Progress) Report(interval time.Duration, stop <-chan struct{}) {
	flush := func() {
		slog.Info("traversal progress",
			"entries", p.EntriesVisited.Load(),
			"dirs", p.DirsVisited.Load(),
			"blocks", p.Blocks.Load(),
			"size", humanize.IBytes(uint64(p.Blocks.Load())*BlockSize),
			"permission_errors", p.PermErrors.Load())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			flush()
		case <-stop:
			flush()
			return
		}
	}
}
