package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tread "github.com/TFMV/tread/internal/walk"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	cfgFile string
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tread [options] <path>",
	Short: "A hardened directory walker",
	Long: `tread walks a directory tree and prints each file exactly once,
refusing to leave the root through symlinks, deduplicating hardlinks,
and staying inside configurable depth, throughput, and time budgets.`,
	Version: version,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWalk(args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.Flags().Bool("follow-symlinks", false, "Follow symbolic links whose targets stay inside the root")
	rootCmd.Flags().Int("max-depth", tread.NoDepthLimit, "Deepest entries to yield, 0 being the root's direct children (-1 for no limit)")
	rootCmd.Flags().Float64("rate", tread.DefaultMaxRateMBPerSec, "Throughput cap in MB/s over yielded file sizes")
	rootCmd.Flags().Duration("timeout", tread.DefaultTimeout, "Wall-clock budget for the whole walk (e.g. 30s, 5m)")
	rootCmd.Flags().Int("cache-size", tread.DefaultMaxUniqueFiles, "Identity cache capacity for hardlink deduplication")
	rootCmd.Flags().Bool("unsorted", false, "Process entries in arrival order instead of sorted order")
	rootCmd.Flags().String("match", "", "Only print files whose root-relative path matches this glob")
	rootCmd.Flags().String("exclude", "", "Do not print files whose root-relative path matches this glob")
	rootCmd.Flags().Bool("skips", false, "Report every skipped entry on stderr")
	rootCmd.Flags().Bool("json", false, "Emit one JSON object per file")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().Bool("silent", false, "Disable all output except errors and file paths")

	// Bind flags to viper
	viper.BindPFlag("follow-symlinks", rootCmd.Flags().Lookup("follow-symlinks"))
	viper.BindPFlag("max-depth", rootCmd.Flags().Lookup("max-depth"))
	viper.BindPFlag("rate", rootCmd.Flags().Lookup("rate"))
	viper.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("cache-size", rootCmd.Flags().Lookup("cache-size"))
	viper.BindPFlag("unsorted", rootCmd.Flags().Lookup("unsorted"))
	viper.BindPFlag("match", rootCmd.Flags().Lookup("match"))
	viper.BindPFlag("exclude", rootCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("skips", rootCmd.Flags().Lookup("skips"))
	viper.BindPFlag("json", rootCmd.Flags().Lookup("json"))
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
	viper.BindPFlag("silent", rootCmd.Flags().Lookup("silent"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".tread" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tread")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runWalk(root string) error {
	// The engine refuses relative roots; the CLI anchors them to the
	// working directory before handing them over.
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	cfg := tread.DefaultConfig(absRoot)
	cfg.FollowSymlinks = viper.GetBool("follow-symlinks")
	cfg.MaxDepth = viper.GetInt("max-depth")
	cfg.MaxRateMBPerSec = viper.GetFloat64("rate")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.MaxUniqueFiles = viper.GetInt("cache-size")
	cfg.Deterministic = !viper.GetBool("unsorted")

	// Set log level
	if viper.GetBool("verbose") {
		cfg.LogLevel = tread.LogLevelDebug
	} else if viper.GetBool("silent") {
		cfg.LogLevel = tread.LogLevelError
	} else {
		cfg.LogLevel = tread.LogLevelWarn
	}

	// Report skipped entries if requested
	if viper.GetBool("skips") {
		cfg.OnSkip = func(path string, reason tread.SkipReason) {
			fmt.Fprintf(os.Stderr, "skip %s (%s)\n", path, reason)
		}
	}

	// Yielded paths are resolved, so relative display paths need the
	// resolved root as their base.
	base := absRoot
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}

	match := viper.GetString("match")
	exclude := viper.GetString("exclude")

	w, err := tread.NewWalker(cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	for w.Next() {
		path := w.Path()

		rel, err := filepath.Rel(base, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if match != "" {
			if ok, err := doublestar.Match(match, rel); err != nil {
				return fmt.Errorf("invalid match pattern %q: %w", match, err)
			} else if !ok {
				continue
			}
		}
		if exclude != "" {
			if ok, err := doublestar.Match(exclude, rel); err != nil {
				return fmt.Errorf("invalid exclude pattern %q: %w", exclude, err)
			} else if ok {
				continue
			}
		}

		if viper.GetBool("json") {
			printJSON(path, rel)
		} else {
			fmt.Println(rel)
		}
	}
	if err := w.Err(); err != nil {
		return err
	}

	// Summarize the walk on stderr.
	if !viper.GetBool("silent") {
		stats := w.Stats()
		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stderr, "%d files (%d bytes) in %v, %d files and %d directories skipped\n",
			stats.FilesYielded, stats.BytesProcessed, stats.TimeElapsed.Round(time.Millisecond),
			stats.FilesSkipped, stats.DirsSkipped)
	}
	return nil
}

// printJSON emits one metadata object for a yielded file. Metadata that
// cannot be read anymore degrades to the path alone.
func printJSON(path, rel string) {
	entry := map[string]interface{}{
		"path": path,
		"rel":  rel,
	}
	if info, err := os.Lstat(path); err == nil {
		entry["size"] = info.Size()
		entry["mode"] = info.Mode().String()
		entry["last_modified"] = info.ModTime().Format(time.RFC3339)
	}
	out, _ := json.Marshal(entry)
	fmt.Println(string(out))
}
