package tread

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// resolveRoot canonicalizes the configured root: it must arrive
// absolute, and is then resolved of symlinks and verified to be an
// existing directory. A relative root is rejected rather than
// absolutized, so the boundary never depends on the process working
// directory. Every failure is reported as a *ConfigError so callers
// can surface it the same way as any other bad Config field.
func resolveRoot(root string) (string, error) {
	if !filepath.IsAbs(root) {
		return "", &ConfigError{Field: "Root", Reason: "must be absolute"}
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &ConfigError{Field: "Root", Reason: "does not exist", Err: err}
		}
		return "", &ConfigError{Field: "Root", Reason: "cannot be resolved", Err: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &ConfigError{Field: "Root", Reason: "cannot be examined", Err: err}
	}
	if !info.IsDir() {
		return "", &ConfigError{Field: "Root", Reason: "is not a directory"}
	}
	return resolved, nil
}

// underRoot reports whether candidate is root itself or a descendant
// of it. Both paths must already be absolute and symlink-free; the
// check is purely lexical so no filesystem state can widen it.
func underRoot(root, candidate string) bool {
	if candidate == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(candidate, prefix)
}
