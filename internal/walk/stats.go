package tread

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of walk progress. Snapshots are
// immutable; TimeElapsed stops advancing once the walker is closed.
type Stats struct {
	FilesYielded   int64         // files handed to the caller
	FilesSkipped   int64         // file entries passed over
	DirsSkipped    int64         // directory entries passed over
	BytesProcessed int64         // combined size of yielded files
	TimeElapsed    time.Duration // wall-clock time since the first advance
}

func (s Stats) String() string {
	return fmt.Sprintf("files=%d skipped=%d dirs_skipped=%d bytes=%d elapsed=%s",
		s.FilesYielded, s.FilesSkipped, s.DirsSkipped, s.BytesProcessed,
		s.TimeElapsed.Round(time.Millisecond))
}

// collector accumulates walk counters. Counters are atomic so Stats may
// be read while the walk advances on another goroutine.
type collector struct {
	filesYielded   atomic.Int64
	filesSkipped   atomic.Int64
	dirsSkipped    atomic.Int64
	bytesProcessed atomic.Int64

	startNanos  atomic.Int64 // unix nanos of the first advance; zero before
	frozenNanos atomic.Int64 // elapsed time fixed at close
	frozen      atomic.Bool
}

// begin records the walk start on the first call; later calls are no-ops.
func (c *collector) begin() {
	c.startNanos.CompareAndSwap(0, time.Now().UnixNano())
}

func (c *collector) fileYielded(size int64) {
	c.filesYielded.Add(1)
	c.bytesProcessed.Add(size)
}

func (c *collector) fileSkipped() { c.filesSkipped.Add(1) }
func (c *collector) dirSkipped()  { c.dirsSkipped.Add(1) }

func (c *collector) elapsed() time.Duration {
	if c.frozen.Load() {
		return time.Duration(c.frozenNanos.Load())
	}
	start := c.startNanos.Load()
	if start == 0 {
		return 0
	}
	return time.Duration(time.Now().UnixNano() - start)
}

// freeze fixes TimeElapsed at its current value. Called once on close.
func (c *collector) freeze() {
	e := c.elapsed()
	if c.frozen.CompareAndSwap(false, true) {
		c.frozenNanos.Store(int64(e))
	}
}

// snapshot returns a consistent point-in-time read of all counters.
func (c *collector) snapshot() Stats {
	return Stats{
		FilesYielded:   c.filesYielded.Load(),
		FilesSkipped:   c.filesSkipped.Load(),
		DirsSkipped:    c.dirsSkipped.Load(),
		BytesProcessed: c.bytesProcessed.Load(),
		TimeElapsed:    c.elapsed(),
	}
}
