// Package walk provides hardened filesystem traversal: a lazy walker
// with strict boundary, symlink, hardlink, depth, rate, and time
// guarantees.
package walk

import (
	"context"

	internal "github.com/TFMV/tread/internal/walk"
)

// Re-export the types from the internal package
type (
	// Config controls a single walk.
	Config = internal.Config

	// Walker iterates a directory tree lazily, one file per Next.
	Walker = internal.Walker

	// Stats is a point-in-time view of walk progress.
	Stats = internal.Stats

	// SkipReason identifies why the walker passed over an entry.
	SkipReason = internal.SkipReason

	// SkipHandler receives one synchronous notification per skipped entry.
	SkipHandler = internal.SkipHandler

	// ConfigError reports an invalid Config field.
	ConfigError = internal.ConfigError

	// LogLevel defines the verbosity of logging.
	LogLevel = internal.LogLevel

	// Re-export watch types
	WatchEvent   = internal.WatchEvent
	WatchOptions = internal.WatchOptions
	WatchMessage = internal.WatchMessage
	WatchResult  = internal.WatchResult
	WatchHandler = internal.WatchHandler
)

// Re-export the constants
const (
	// Skip reasons
	SkipSymlink      = internal.SkipSymlink
	SkipOutsideRoot  = internal.SkipOutsideRoot
	SkipMaxDepth     = internal.SkipMaxDepth
	SkipDuplicate    = internal.SkipDuplicate
	SkipAccessDenied = internal.SkipAccessDenied
	SkipOSError      = internal.SkipOSError

	// Log levels
	LogLevelError = internal.LogLevelError
	LogLevelWarn  = internal.LogLevelWarn
	LogLevelInfo  = internal.LogLevelInfo
	LogLevelDebug = internal.LogLevelDebug

	// Config defaults
	DefaultMaxRateMBPerSec = internal.DefaultMaxRateMBPerSec
	DefaultTimeout         = internal.DefaultTimeout
	DefaultMaxUniqueFiles  = internal.DefaultMaxUniqueFiles
	NoDepthLimit           = internal.NoDepthLimit

	// Watch event constants
	EventCreate = internal.EventCreate
	EventModify = internal.EventModify
	EventDelete = internal.EventDelete
	EventRename = internal.EventRename
	EventChmod  = internal.EventChmod
)

// Terminal walk errors.
var (
	// ErrTimeout reports that a walk exceeded its wall-clock budget.
	ErrTimeout = internal.ErrTimeout

	// ErrClosed reports a call to Next on a closed walker.
	ErrClosed = internal.ErrClosed
)

// NewWalker validates cfg and returns a walker in its initial state. No
// directory is read until the first call to Next.
func NewWalker(cfg Config) (*Walker, error) {
	return internal.NewWalker(cfg)
}

// DefaultConfig returns a Config for root with every knob at its
// default.
func DefaultConfig(root string) Config {
	return internal.DefaultConfig(root)
}

// Watch monitors a directory for filesystem changes until ctx is done
// or the configured timeout elapses.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	return internal.Watch(ctx, root, opts, handler)
}
