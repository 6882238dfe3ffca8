package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tread "github.com/TFMV/tread/walk"
	"github.com/spf13/cobra"
)

var (
	// Watch command options
	watchEvents    []string
	watchRecursive bool
	watchTimeout   time.Duration
	watchVerbose   bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for filesystem changes",
	Long: `Watch a directory for filesystem changes under the same boundary rules
as the walk: discovery never crosses a symlink or leaves the watched root.

Examples:
  tread watch /path/to/watch
  tread watch --events=create,modify /path/to/watch
  tread watch --recursive --timeout=1h /path/to/watch`,
	Run: func(cmd *cobra.Command, args []string) {
		// Get the directory to watch. The engine refuses relative
		// roots, so anchor the argument to the working directory.
		var watchDir string
		if len(args) > 0 {
			var err error
			watchDir, err = filepath.Abs(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error resolving directory: %v\n", err)
				os.Exit(1)
			}
		} else {
			var err error
			watchDir, err = os.Getwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
				os.Exit(1)
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Convert string events to WatchEvent types
		var events []tread.WatchEvent
		for _, e := range watchEvents {
			switch strings.ToLower(e) {
			case "create":
				events = append(events, tread.EventCreate)
			case "write", "modify":
				events = append(events, tread.EventModify)
			case "remove", "delete":
				events = append(events, tread.EventDelete)
			case "rename":
				events = append(events, tread.EventRename)
			case "chmod":
				events = append(events, tread.EventChmod)
			default:
				fmt.Fprintf(os.Stderr, "Unknown event type: %s\n", e)
			}
		}

		opts := tread.WatchOptions{
			Events:    events,
			Recursive: watchRecursive,
			Timeout:   watchTimeout,
		}
		if watchVerbose {
			opts.LogLevel = tread.LogLevelDebug
		}

		fmt.Printf("Watching %s for changes...\n", watchDir)
		fmt.Println("Press Ctrl+C to exit.")

		if err := tread.Watch(ctx, watchDir, opts, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching directory: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Define flags for the watch command
	watchCmd.Flags().StringSliceVar(&watchEvents, "events", []string{}, "Events to watch for (create, modify, delete, rename, chmod)")
	watchCmd.Flags().BoolVar(&watchRecursive, "recursive", false, "Watch subdirectories recursively")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Duration to watch before exiting (e.g. 1h, 30m)")
	watchCmd.Flags().BoolVar(&watchVerbose, "verbose", false, "Enable verbose logging")
}
