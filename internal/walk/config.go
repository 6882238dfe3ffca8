package tread

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Defaults applied by DefaultConfig and by normalization of zero values.
const (
	// DefaultMaxRateMBPerSec caps throughput at 10 MB per second.
	DefaultMaxRateMBPerSec = 10.0
	// DefaultTimeout bounds a walk to one hour of wall-clock time.
	DefaultTimeout = time.Hour
	// DefaultMaxUniqueFiles bounds the hardlink identity cache.
	DefaultMaxUniqueFiles = 1_000_000
	// NoDepthLimit disables the depth bound.
	NoDepthLimit = -1
)

// LogLevel defines the verbosity of logging.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Config controls a single walk. It is copied by NewWalker and immutable
// for the walker's lifetime.
type Config struct {
	// Root is the directory to walk. Required, and must be an absolute
	// path; it is symlink-resolved during construction and must name an
	// existing directory.
	Root string

	// MaxRateMBPerSec caps average throughput, measured over the sizes
	// of yielded files. Zero selects DefaultMaxRateMBPerSec; negative
	// values are rejected.
	MaxRateMBPerSec float64

	// FollowSymlinks resolves symbolic links instead of skipping them.
	// Resolved targets are re-checked against Root before use. A link
	// pointing at one of its own ancestors makes the walk revisit that
	// subtree until MaxDepth or Timeout intervenes; already yielded
	// files are reported as duplicates on each revisit.
	FollowSymlinks bool

	// Timeout bounds the whole walk in wall-clock time, measured from
	// the first call to Next. Zero selects DefaultTimeout.
	Timeout time.Duration

	// MaxDepth is the deepest entry depth that may be yielded, where 0
	// is the root's direct children. NoDepthLimit disables the bound.
	// Note that the zero value limits the walk to the root's direct
	// children; use DefaultConfig for an unbounded walk.
	MaxDepth int

	// MaxUniqueFiles bounds the identity cache used for hardlink
	// deduplication. Zero selects DefaultMaxUniqueFiles.
	MaxUniqueFiles int

	// Deterministic sorts each directory's entries byte-wise by name
	// before processing, making repeated runs reproducible.
	Deterministic bool

	// OnSkip, when set, is invoked synchronously once per skipped
	// entry. Panics in the handler are contained and logged.
	OnSkip SkipHandler

	// Logger receives walk diagnostics. When nil, a logger is built
	// from LogLevel.
	Logger *zap.Logger

	// LogLevel selects verbosity for the built logger when Logger is
	// nil.
	LogLevel LogLevel

	// Context, when set, cancels the walk early. The walk's Timeout
	// applies in addition to any deadline already on the context.
	Context context.Context
}

// DefaultConfig returns a Config for root with every knob at its
// default: 10 MB/s, symlinks skipped, one hour timeout, unlimited
// depth, one million cached identities, deterministic ordering.
func DefaultConfig(root string) Config {
	return Config{
		Root:            root,
		MaxRateMBPerSec: DefaultMaxRateMBPerSec,
		Timeout:         DefaultTimeout,
		MaxDepth:        NoDepthLimit,
		MaxUniqueFiles:  DefaultMaxUniqueFiles,
		Deterministic:   true,
	}
}

// normalize validates the config and fills zero values with defaults.
func (c *Config) normalize() error {
	if c.Root == "" {
		return &ConfigError{Field: "Root", Reason: "must not be empty"}
	}
	if c.MaxRateMBPerSec < 0 {
		return &ConfigError{Field: "MaxRateMBPerSec", Reason: "must not be negative"}
	}
	if c.MaxRateMBPerSec == 0 {
		c.MaxRateMBPerSec = DefaultMaxRateMBPerSec
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "Timeout", Reason: "must not be negative"}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxDepth < NoDepthLimit {
		return &ConfigError{Field: "MaxDepth", Reason: "must be non-negative or NoDepthLimit"}
	}
	if c.MaxUniqueFiles < 0 {
		return &ConfigError{Field: "MaxUniqueFiles", Reason: "must not be negative"}
	}
	if c.MaxUniqueFiles == 0 {
		c.MaxUniqueFiles = DefaultMaxUniqueFiles
	}
	return nil
}

// ConfigError reports an invalid Config field detected by NewWalker.
type ConfigError struct {
	Field  string
	Reason string
	Err    error // underlying cause, if any
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tread: config %s %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("tread: config %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// createLogger creates a zap logger with the specified log level.
func createLogger(level LogLevel) *zap.Logger {
	var config zap.Config

	switch level {
	case LogLevelError:
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	case LogLevelWarn:
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case LogLevelInfo:
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case LogLevelDebug:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	logger, _ := config.Build()
	return logger
}
