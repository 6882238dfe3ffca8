// Package walk exposes the tread traversal engine: a walker that never
// leaves its root, never trusts a symlink, yields each underlying file
// once, and stays inside configurable throughput and wall-clock
// budgets.

// Walking
//
// The walker is pull-based: each call to Next advances to one file.
//
//	w, err := walk.NewWalker(walk.DefaultConfig("/data"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer w.Close()
//	for w.Next() {
//		fmt.Println(w.Path())
//	}
//	if err := w.Err(); err != nil {
//		log.Fatal(err)
//	}
//
//	// Observe what was passed over
//	cfg := walk.DefaultConfig("/data")
//	cfg.OnSkip = func(path string, reason walk.SkipReason) {
//		fmt.Printf("skipped %s: %s\n", path, reason)
//	}
//
//	// Bound the walk
//	cfg.MaxDepth = 3
//	cfg.Timeout = 5 * time.Minute
//	cfg.MaxRateMBPerSec = 50
//
// Two guarantees are deliberately approximate. Hardlink deduplication
// remembers at most MaxUniqueFiles identities in an LRU cache, so on
// trees with more unique files than the cache holds, a hardlink met
// again much later can be yielded twice. And with FollowSymlinks
// enabled, symlink cycles are not detected structurally; MaxDepth and
// Timeout are what bound them.
//
// Watching
//
// The watch surface monitors a tree for changes under the same boundary
// rules:
//
//	opts := walk.WatchOptions{
//		Recursive: true,
//		Events:    []walk.WatchEvent{walk.EventCreate, walk.EventModify},
//	}
//	err := walk.Watch(context.Background(), "/data", opts, func(ctx context.Context, result walk.WatchResult) error {
//		if result.Error != nil {
//			return result.Error
//		}
//		fmt.Printf("%s: %s\n", result.Message.Event, result.Message.Path)
//		return nil
//	})

package walk
