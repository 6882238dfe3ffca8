package tread

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

// WatchEvent represents a filesystem event type.
type WatchEvent string

// Watch event types.
const (
	EventCreate WatchEvent = "create"
	EventModify WatchEvent = "modify"
	EventDelete WatchEvent = "delete"
	EventRename WatchEvent = "rename"
	EventChmod  WatchEvent = "chmod"
)

// WatchOptions defines options for watching filesystem changes.
type WatchOptions struct {
	// Events to watch for. If empty, all events are watched.
	Events []WatchEvent

	// Recursive watches subdirectories as well. Discovery never
	// crosses a symlink or leaves the watched root, and directories
	// created while watching are added under the same rules.
	Recursive bool

	// Timeout stops the watch after the given duration (0 means no
	// timeout).
	Timeout time.Duration

	// Logger receives watch diagnostics. When nil, a logger is built
	// from LogLevel.
	Logger *zap.Logger

	// LogLevel selects verbosity for the built logger.
	LogLevel LogLevel
}

// WatchMessage contains information about a filesystem event.
type WatchMessage struct {
	Path  string     // full path to the file
	Name  string     // base name of the file
	Dir   string     // directory containing the file
	Size  int64      // size in bytes (0 for deleted files)
	Time  time.Time  // modification time
	IsDir bool       // whether it's a directory
	Event WatchEvent // event type
}

// WatchResult represents a watch event result.
type WatchResult struct {
	Message WatchMessage
	Error   error
}

// WatchHandler is a function that processes watch events.
type WatchHandler func(ctx context.Context, result WatchResult) error

// defaultWatchHandler returns a handler that prints events.
func defaultWatchHandler() WatchHandler {
	return func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Printf("%s: %s\n", strings.ToUpper(string(result.Message.Event)), result.Message.Path)
		return nil
	}
}

// watchRoots returns root plus, when recursive, every subdirectory
// reachable without crossing a symlink or leaving root.
func watchRoots(root string, recursive bool, logger *zap.Logger) ([]string, error) {
	resolved, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	dirs := []string{resolved}
	if !recursive {
		return dirs, nil
	}

	scratch := make([]byte, godirwalk.MinimumScratchBufferSize)
	stack := []string{resolved}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dirents, err := godirwalk.ReadDirents(dir, scratch)
		if err != nil {
			logger.Warn("directory unreadable",
				zap.String("path", dir),
				zap.Error(err),
			)
			continue
		}
		for _, d := range dirents {
			// Symlinked directories report IsDir false here, so they
			// are never descended into.
			if !d.IsDir() {
				continue
			}
			sub := filepath.Join(dir, d.Name())
			if !underRoot(resolved, sub) {
				continue
			}
			dirs = append(dirs, sub)
			stack = append(stack, sub)
		}
	}
	return dirs, nil
}

// shouldWatchNewDir reports whether a directory created during the
// watch may be added: it must sit under root and must not be a symlink.
func shouldWatchNewDir(root, path string) bool {
	if !underRoot(root, path) {
		return false
	}
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Watch monitors a directory for filesystem changes until ctx is done
// or the configured timeout elapses. Events are delivered to handler
// synchronously; a nil handler prints each event.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	if handler == nil {
		handler = defaultWatchHandler()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger := opts.Logger
	if logger == nil {
		logger = createLogger(opts.LogLevel)
		defer logger.Sync()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchRoots(root, opts.Recursive, logger)
	if err != nil {
		return err
	}
	watchedRoot := dirs[0]
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			if dir == watchedRoot {
				return fmt.Errorf("watching directory %s: %w", dir, err)
			}
			logger.Warn("cannot watch directory",
				zap.String("path", dir),
				zap.Error(err),
			)
		}
	}
	logger.Debug("watch started",
		zap.String("root", watchedRoot),
		zap.Int("directories", len(dirs)),
		zap.Bool("recursive", opts.Recursive),
	)

	eventMap := make(map[fsnotify.Op]bool)
	if len(opts.Events) > 0 {
		for _, e := range opts.Events {
			switch e {
			case EventCreate:
				eventMap[fsnotify.Create] = true
			case EventModify:
				eventMap[fsnotify.Write] = true
			case EventDelete:
				eventMap[fsnotify.Remove] = true
			case EventRename:
				eventMap[fsnotify.Rename] = true
			case EventChmod:
				eventMap[fsnotify.Chmod] = true
			}
		}
	} else {
		eventMap[fsnotify.Create] = true
		eventMap[fsnotify.Write] = true
		eventMap[fsnotify.Remove] = true
		eventMap[fsnotify.Rename] = true
		eventMap[fsnotify.Chmod] = true
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			var eventType WatchEvent
			switch {
			case event.Has(fsnotify.Create) && eventMap[fsnotify.Create]:
				eventType = EventCreate
			case event.Has(fsnotify.Write) && eventMap[fsnotify.Write]:
				eventType = EventModify
			case event.Has(fsnotify.Remove) && eventMap[fsnotify.Remove]:
				eventType = EventDelete
			case event.Has(fsnotify.Rename) && eventMap[fsnotify.Rename]:
				eventType = EventRename
			case event.Has(fsnotify.Chmod) && eventMap[fsnotify.Chmod]:
				eventType = EventChmod
			default:
				continue
			}

			var info os.FileInfo
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				info, err = os.Lstat(event.Name)
				if err != nil {
					handler(ctx, WatchResult{
						Error: fmt.Errorf("stat %s: %w", event.Name, err),
					})
					continue
				}
				if opts.Recursive && info.IsDir() && event.Has(fsnotify.Create) &&
					shouldWatchNewDir(watchedRoot, event.Name) {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("cannot watch new directory",
							zap.String("path", event.Name),
							zap.Error(err),
						)
					}
				}
			}

			msg := WatchMessage{
				Path:  event.Name,
				Name:  filepath.Base(event.Name),
				Dir:   filepath.Dir(event.Name),
				Time:  time.Now(),
				Event: eventType,
			}
			if info != nil {
				msg.Size = info.Size()
				msg.IsDir = info.IsDir()
				msg.Time = info.ModTime()
			}

			if err := handler(ctx, WatchResult{Message: msg}); err != nil {
				logger.Warn("watch handler failed",
					zap.String("path", msg.Path),
					zap.Error(err),
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			handler(ctx, WatchResult{
				Error: fmt.Errorf("watcher error: %w", err),
			})

		case <-ctx.Done():
			logger.Debug("watch stopped", zap.String("root", watchedRoot))
			return nil
		}
	}
}
