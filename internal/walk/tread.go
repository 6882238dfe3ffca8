// Package tread provides hardened filesystem traversal: a lazy,
// single-pass walker with strict boundary, symlink, hardlink, depth,
// rate, and time guarantees.
package tread

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

// --------------------------------------------------------------------------
// Errors and lifecycle
// --------------------------------------------------------------------------

var (
	// ErrTimeout reports that a walk exceeded its wall-clock budget.
	// Files yielded before the timeout remain valid.
	ErrTimeout = errors.New("tread: walk exceeded configured time limit")

	// ErrClosed reports a call to Next on a closed walker.
	ErrClosed = errors.New("tread: walker is closed")
)

// walkState tracks the walker lifecycle.
type walkState int

const (
	stateCreated   walkState = iota // constructed, no advance yet
	stateActive                     // frames pending on the stack
	stateExhausted                  // every reachable entry visited
	stateFailed                     // timeout or cancellation, terminal
	stateClosed                     // resources released
)

// frame is one directory awaiting enumeration on the explicit stack.
// depth is the depth of the directory's entries: the root frame carries
// 0, so the root's direct children sit at depth 0.
type frame struct {
	path  string
	depth int
}

// readDirFunc enumerates one directory's entries in a single batched
// call. Swapped in tests to observe or fault enumeration.
type readDirFunc func(dir string, scratch []byte) (godirwalk.Dirents, error)

// --------------------------------------------------------------------------
// Walker
// --------------------------------------------------------------------------

// Walker iterates a directory tree lazily, one file per Next. Every
// yielded path is a descendant of the configured root; symlinks,
// hardlink duplicates, depth, throughput, and wall-clock time are
// governed by the Config. A Walker is single-pass and single-consumer;
// only Stats may be read from another goroutine.
//
//	w, err := tread.NewWalker(tread.DefaultConfig("/data"))
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	for w.Next() {
//		process(w.Path())
//	}
//	return w.Err()
type Walker struct {
	cfg        Config
	root       string
	logger     *zap.Logger
	ownsLogger bool

	ctx    context.Context
	cancel context.CancelFunc

	readDir    readDirFunc
	scratch    []byte
	stack      []frame
	subdirs    []frame
	batch      godirwalk.Dirents
	batchAt    int
	batchDir   string
	batchDepth int

	idents *identityCache
	pace   *pacer
	stats  *collector

	state   walkState
	current string
	err     error
}

// NewWalker validates cfg and returns a walker in its initial state. No
// directory is read until the first call to Next. Invalid configuration
// is reported as a *ConfigError.
func NewWalker(cfg Config) (*Walker, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	ownsLogger := false
	if logger == nil {
		logger = createLogger(cfg.LogLevel)
		ownsLogger = true
	}

	w := &Walker{
		cfg:        cfg,
		root:       root,
		logger:     logger,
		ownsLogger: ownsLogger,
		readDir:    godirwalk.ReadDirents,
		scratch:    make([]byte, godirwalk.MinimumScratchBufferSize),
		pace:       newPacer(cfg.MaxRateMBPerSec),
		stats:      &collector{},
	}
	if identSupported() {
		w.idents = newIdentityCache(cfg.MaxUniqueFiles)
	}
	return w, nil
}

// Next advances to the next yieldable file, reporting false when the
// walk is over. After false, Err distinguishes clean exhaustion (nil)
// from timeout or cancellation. Calling Next on a closed walker reports
// false and records ErrClosed.
func (w *Walker) Next() bool {
	switch w.state {
	case stateClosed:
		if w.err == nil {
			w.err = ErrClosed
		}
		return false
	case stateExhausted, stateFailed:
		return false
	case stateCreated:
		w.begin()
	}

	for {
		if err := w.ctx.Err(); err != nil {
			w.fail(err)
			return false
		}

		for w.batchAt < len(w.batch) {
			d := w.batch[w.batchAt]
			w.batchAt++

			path, ok := w.applyEntry(d)
			if w.state == stateFailed {
				return false
			}
			if ok {
				w.current = path
				return true
			}
			if err := w.ctx.Err(); err != nil {
				w.fail(err)
				return false
			}
		}

		// The batch is drained: descend into its subdirectories,
		// pushed in reverse so the first sibling is walked first.
		for i := len(w.subdirs) - 1; i >= 0; i-- {
			w.stack = append(w.stack, w.subdirs[i])
		}
		w.subdirs = w.subdirs[:0]

		if len(w.stack) == 0 {
			w.exhaust()
			return false
		}
		next := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.enumerate(next)
	}
}

// Path returns the file reached by the last successful Next. The path
// is absolute and, when symlinks were followed, fully resolved.
func (w *Walker) Path() string { return w.current }

// Err returns the terminal error of the walk: nil after clean
// exhaustion, ErrTimeout after the time budget ran out, the context's
// error after cancellation, or ErrClosed after Next was called on a
// closed walker.
func (w *Walker) Err() error { return w.err }

// Stats returns a snapshot of walk counters. It may be called at any
// time, including after Close, when it returns the finalized values.
func (w *Walker) Stats() Stats { return w.stats.snapshot() }

// Close releases the walker's resources and finalizes TimeElapsed. It
// is idempotent and safe to call in any state; a closed walker only
// answers Stats and Err.
func (w *Walker) Close() error {
	if w.state == stateClosed {
		return nil
	}
	w.state = stateClosed
	if w.cancel != nil {
		w.cancel()
	}
	w.stats.freeze()
	w.stack, w.subdirs, w.batch, w.scratch = nil, nil, nil, nil
	w.idents = nil

	snap := w.stats.snapshot()
	w.logger.Debug("walker closed",
		zap.Int64("files_yielded", snap.FilesYielded),
		zap.Int64("files_skipped", snap.FilesSkipped),
		zap.Int64("dirs_skipped", snap.DirsSkipped),
		zap.Int64("bytes_processed", snap.BytesProcessed),
		zap.Duration("elapsed", snap.TimeElapsed),
	)
	if w.ownsLogger {
		_ = w.logger.Sync()
	}
	return nil
}

// --------------------------------------------------------------------------
// Traversal internals
// --------------------------------------------------------------------------

// begin arms the time budget and seeds the stack with the root frame.
func (w *Walker) begin() {
	base := w.cfg.Context
	if base == nil {
		base = context.Background()
	}
	w.ctx, w.cancel = context.WithTimeout(base, w.cfg.Timeout)
	w.stats.begin()
	w.stack = append(w.stack, frame{path: w.root, depth: 0})
	w.state = stateActive

	w.logger.Debug("starting walk",
		zap.String("root", w.root),
		zap.Duration("timeout", w.cfg.Timeout),
		zap.Int("max_depth", w.cfg.MaxDepth),
		zap.Bool("follow_symlinks", w.cfg.FollowSymlinks),
		zap.Bool("deterministic", w.cfg.Deterministic),
	)
}

// enumerate reads one directory into the current batch. Failure to read
// skips the directory and leaves the walk running on its siblings.
func (w *Walker) enumerate(fr frame) {
	dirents, err := w.readDir(fr.path, w.scratch)
	if err != nil {
		w.logger.Warn("directory unreadable",
			zap.String("path", fr.path),
			zap.Error(err),
		)
		w.skip(fr.path, reasonForError(err), true)
		return
	}
	if w.cfg.Deterministic {
		sort.Sort(dirents)
	}
	w.batch = dirents
	w.batchAt = 0
	w.batchDir = fr.path
	w.batchDepth = fr.depth
}

// applyEntry runs one directory entry through the admission pipeline:
// symlink policy, boundary containment, depth bound, then for files
// identity dedup and rate pacing. It reports the yielded path, or false
// when the entry was skipped or queued as a directory.
func (w *Walker) applyEntry(d *godirwalk.Dirent) (string, bool) {
	path := filepath.Join(w.batchDir, d.Name())
	depth := w.batchDepth

	if d.IsSymlink() {
		return w.applySymlink(path, depth)
	}
	if !underRoot(w.root, path) {
		w.skip(path, SkipOutsideRoot, d.IsDir())
		return "", false
	}
	if w.beyondDepth(depth) {
		w.skip(path, SkipMaxDepth, d.IsDir())
		return "", false
	}
	if d.IsDir() {
		w.subdirs = append(w.subdirs, frame{path: path, depth: depth + 1})
		return "", false
	}
	return w.yieldFile(path, depth)
}

// applySymlink handles a symlink entry. With following disabled the
// link is skipped before anything dereferences it. With following
// enabled the target is resolved, re-checked against the root, and then
// treated as a plain file or directory at the link's depth.
func (w *Walker) applySymlink(path string, depth int) (string, bool) {
	if !w.cfg.FollowSymlinks {
		w.skip(path, SkipSymlink, false)
		return "", false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.skip(path, reasonForError(err), false)
		return "", false
	}
	if !underRoot(w.root, target) {
		w.skip(path, SkipOutsideRoot, false)
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil {
		w.skip(path, reasonForError(err), false)
		return "", false
	}

	isDir := info.IsDir()
	if w.beyondDepth(depth) {
		w.skip(target, SkipMaxDepth, isDir)
		return "", false
	}
	if isDir {
		w.subdirs = append(w.subdirs, frame{path: target, depth: depth + 1})
		return "", false
	}
	return w.yieldFile(target, depth)
}

// yieldFile admits a regular file: one lstat supplies identity, size,
// and the authoritative file type, then hardlink duplicates are
// rejected and the size is charged against the rate budget. The
// readdir type snapshot can go stale between enumeration and here; an
// entry the lstat reveals as a symlink is re-routed through the link
// policy instead of being yielded.
func (w *Walker) yieldFile(path string, depth int) (string, bool) {
	ident, size, isLink, err := fileIdent(path)
	if err != nil {
		w.skip(path, reasonForError(err), false)
		return "", false
	}
	if isLink {
		return w.applySymlink(path, depth)
	}
	if w.idents != nil && !w.idents.admit(ident) {
		w.skip(path, SkipDuplicate, false)
		return "", false
	}
	if err := w.pace.charge(w.ctx, size); err != nil {
		w.fail(err)
		return "", false
	}
	w.stats.fileYielded(size)
	return path, true
}

func (w *Walker) beyondDepth(depth int) bool {
	return w.cfg.MaxDepth != NoDepthLimit && depth > w.cfg.MaxDepth
}

// skip records a passed-over entry and notifies the handler. Handler
// panics are contained so a misbehaving callback cannot end the walk.
func (w *Walker) skip(path string, reason SkipReason, isDir bool) {
	if isDir {
		w.stats.dirSkipped()
	} else {
		w.stats.fileSkipped()
	}
	w.logger.Debug("entry skipped",
		zap.String("path", path),
		zap.Stringer("reason", reason),
	)
	if w.cfg.OnSkip == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("skip handler panicked",
				zap.String("path", path),
				zap.Any("panic", r),
			)
		}
	}()
	w.cfg.OnSkip(path, reason)
}

func (w *Walker) exhaust() {
	w.state = stateExhausted
	w.logger.Debug("walk exhausted", zap.String("root", w.root))
}

// fail moves the walker to its terminal failure state. Deadline expiry
// is surfaced as ErrTimeout; cancellation keeps the context's error.
// The rate limiter reports a budget that cannot fit inside the
// remaining deadline as a plain error, which is a timeout as well.
func (w *Walker) fail(err error) {
	switch {
	case errors.Is(err, context.Canceled):
		w.err = err
	default:
		w.err = ErrTimeout
	}
	w.state = stateFailed
	w.logger.Debug("walk terminated",
		zap.String("root", w.root),
		zap.Error(w.err),
	)
}
