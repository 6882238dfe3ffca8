package tread

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestUnderRoot tests the lexical containment check
func TestUnderRoot(t *testing.T) {
	tests := []struct {
		name      string
		root      string
		candidate string
		expected  bool
	}{
		{
			name:      "Root itself",
			root:      "/data",
			candidate: "/data",
			expected:  true,
		},
		{
			name:      "Direct child",
			root:      "/data",
			candidate: "/data/file.txt",
			expected:  true,
		},
		{
			name:      "Nested descendant",
			root:      "/data",
			candidate: "/data/a/b/c",
			expected:  true,
		},
		{
			name:      "Sibling with shared prefix",
			root:      "/data",
			candidate: "/database",
			expected:  false,
		},
		{
			name:      "Unrelated path",
			root:      "/data",
			candidate: "/etc/passwd",
			expected:  false,
		},
		{
			name:      "Parent of root",
			root:      "/data/sub",
			candidate: "/data",
			expected:  false,
		},
		{
			name:      "Filesystem root as root",
			root:      "/",
			candidate: "/etc",
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := underRoot(tt.root, tt.candidate)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestResolveRootValid tests resolution of an existing directory
func TestResolveRootValid(t *testing.T) {
	tmpDir := t.TempDir()

	resolved, err := resolveRoot(tmpDir)
	if err != nil {
		t.Fatalf("resolveRoot failed: %v", err)
	}
	if !filepath.IsAbs(resolved) {
		t.Errorf("Expected absolute path, got %s", resolved)
	}

	expected, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	if resolved != expected {
		t.Errorf("Expected %s, got %s", expected, resolved)
	}
}

// TestResolveRootRelative tests that a relative root is rejected
// instead of being anchored to the working directory
func TestResolveRootRelative(t *testing.T) {
	_, err := resolveRoot("relative/dir")
	if err == nil {
		t.Fatalf("Expected error, got nil")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "Root" {
		t.Errorf("Expected field Root, got %s", cfgErr.Field)
	}
	if cfgErr.Reason != "must be absolute" {
		t.Errorf("Expected reason %q, got %q", "must be absolute", cfgErr.Reason)
	}
}

// TestResolveRootMissing tests a nonexistent root
func TestResolveRootMissing(t *testing.T) {
	_, err := resolveRoot(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatalf("Expected error, got nil")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "Root" {
		t.Errorf("Expected field Root, got %s", cfgErr.Field)
	}
}

// TestResolveRootFile tests a root that is a regular file
func TestResolveRootFile(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := resolveRoot(file)
	if err == nil {
		t.Fatalf("Expected error, got nil")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "Root" {
		t.Errorf("Expected field Root, got %s", cfgErr.Field)
	}
}

// TestResolveRootThroughSymlink tests that a symlinked root resolves to
// its target
func TestResolveRootThroughSymlink(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}

	real := filepath.Join(base, "real")
	if err := os.MkdirAll(real, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	link := filepath.Join(base, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	resolved, err := resolveRoot(link)
	if err != nil {
		t.Fatalf("resolveRoot failed: %v", err)
	}
	if resolved != real {
		t.Errorf("Expected %s, got %s", real, resolved)
	}
}

// Benchmarks

// BenchmarkUnderRoot benchmarks the containment check
func BenchmarkUnderRoot(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		underRoot("/data/projects", "/data/projects/src/internal/deep/file.go")
	}
}
