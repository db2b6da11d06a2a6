package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adlimen/dupcheck/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Ignore.Gitignore = false
	cfg.Ignore.Patterns = nil
	return cfg
}

func TestScanDirFindsSourceFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "a.py", "x = 1\n")
	writeFile(t, tmpDir, "b.go", "package main\n")
	writeFile(t, tmpDir, "notes.txt", "not source\n")

	s := New(testConfig())
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(files) != 2 {
		t.Errorf("found %d files, want 2: %v", len(files), files)
	}
}

func TestScanDirMissingRoot(t *testing.T) {
	s := New(testConfig())
	files, err := s.ScanDir("/nonexistent/source/tree")
	if err != nil {
		t.Fatalf("missing root should not error, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("found %d files in missing root", len(files))
	}
}

func TestScanDirSubstringPattern(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "app/main.py", "x = 1\n")
	writeFile(t, tmpDir, "venv/lib.py", "x = 1\n")

	cfg := testConfig()
	cfg.Ignore.Patterns = []string{"venv"}

	s := New(cfg)
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("found %d files, want 1: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "main.py" {
		t.Errorf("kept %s, want main.py", files[0])
	}
}

func TestScanDirGlobPattern(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "mod.py", "x = 1\n")
	writeFile(t, tmpDir, "test_mod.py", "x = 1\n")
	writeFile(t, tmpDir, "mod_test.py", "x = 1\n")

	cfg := testConfig()
	cfg.Ignore.Patterns = []string{"test_*.py", "*_test.py"}

	s := New(cfg)
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("found %d files, want 1: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "mod.py" {
		t.Errorf("kept %s, want mod.py", files[0])
	}
}

func TestScanDirDeterministicOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "c.py", "x = 1\n")
	writeFile(t, tmpDir, "a.py", "x = 1\n")
	writeFile(t, tmpDir, "b.py", "x = 1\n")

	s := New(testConfig())
	first, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	second, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("file counts = %d, %d, want 3", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("order differs at %d: %s vs %s", i, first[i], second[i])
		}
	}
	if filepath.Base(first[0]) != "a.py" {
		t.Errorf("first file = %s, want a.py (lexical order)", first[0])
	}
}

func TestScanDirMaxFileSize(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "small.py", "x = 1\n")
	writeFile(t, tmpDir, "big.py", "x = 1\n# padding padding padding padding padding\n")

	cfg := testConfig()
	cfg.Analysis.MaxFileSize = 10

	s := New(cfg)
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(files) != 1 || filepath.Base(files[0]) != "small.py" {
		t.Errorf("files = %v, want only small.py", files)
	}
}

func TestScanDirGitignoreAnchoredFromOtherCwd(t *testing.T) {
	// The repo root is a temp dir, so the test's working directory is
	// never the git root; anchored rules must still apply.
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	writeFile(t, tmpDir, ".gitignore", "/generated/\n")
	writeFile(t, tmpDir, "main.py", "x = 1\n")
	writeFile(t, tmpDir, "generated/out.py", "x = 1\n")

	cfg := testConfig()
	cfg.Ignore.Gitignore = true

	s := New(cfg)
	files, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("found %d files, want 1: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "main.py" {
		t.Errorf("kept %s, want main.py", files[0])
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one line", 1},
		{"one line\n", 1},
		{"a\nb\n", 2},
		{"a\nb", 2},
		{"a\n\nb\n", 3},
	}

	for _, tt := range tests {
		if got := CountLines([]byte(tt.content)); got != tt.want {
			t.Errorf("CountLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}
