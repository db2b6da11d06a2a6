package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adlimen/dupcheck/internal/output"
	"github.com/adlimen/dupcheck/pkg/analyzer/duplication"
	"github.com/adlimen/dupcheck/pkg/config"
)

func TestConsolePreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short single line", "def f():", "def f():"},
		{"multiline keeps first line", "def f():\n    return 1", "def f():"},
		{"long line truncated", strings.Repeat("x", 100), strings.Repeat("x", 80) + "..."},
		{"multibyte truncated on rune boundary", strings.Repeat("é", 90), strings.Repeat("é", 80) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := consolePreview(tt.in); got != tt.want {
				t.Errorf("consolePreview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopDuplications(t *testing.T) {
	unit := func(file string, line int) duplication.CodeUnit {
		return duplication.CodeUnit{File: file, StartLine: line}
	}
	analysis := &duplication.Analysis{
		Groups: []duplication.Group{
			{Fingerprint: 1, Units: []duplication.CodeUnit{unit("a.py", 1)}},
			{Fingerprint: 2, Units: []duplication.CodeUnit{unit("a.py", 10), unit("b.py", 10)}},
			{Fingerprint: 3, Units: []duplication.CodeUnit{unit("a.py", 20), unit("b.py", 20), unit("c.py", 20)}},
		},
	}

	top := topDuplications(analysis, 5)
	if len(top) != 2 {
		t.Fatalf("got %d groups, want 2 (singleton excluded)", len(top))
	}
	if top[0].Fingerprint != 3 {
		t.Errorf("most frequent group first, got fingerprint %d", top[0].Fingerprint)
	}

	if got := topDuplications(analysis, 1); len(got) != 1 {
		t.Errorf("limit not applied: %d", len(got))
	}
}

func TestRenderMarkdownSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	formatter, err := output.NewFormatter(output.FormatMarkdown, path, true)
	if err != nil {
		t.Fatalf("NewFormatter failed: %v", err)
	}

	cfg := config.DefaultConfig()
	analysis := &duplication.Analysis{
		Mode:            duplication.ModeStructural,
		TotalFiles:      2,
		TotalLines:      12,
		DuplicatedLines: 6,
		Percentage:      50.0,
		Threshold:       10.0,
	}

	if err := renderTo(formatter, cfg, analysis); err != nil {
		t.Fatalf("renderTo failed: %v", err)
	}
	formatter.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "## Duplication Summary") {
		t.Error("missing markdown summary heading")
	}
	if !strings.Contains(out, "- **Duplicated lines**: 6") {
		t.Error("summary not rendered as markdown list")
	}
	if !strings.Contains(out, "**FAIL**") {
		t.Error("missing markdown verdict")
	}
	if !strings.Contains(out, "### Recommendations") {
		t.Error("missing markdown recommendations")
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "duplication-report.json")

	analysis := &duplication.Analysis{
		Mode:       duplication.ModeStructural,
		TotalFiles: 3,
		TotalLines: 120,
		Blocks:     []duplication.Block{},
		Threshold:  10.0,
	}

	if err := writeReport(path, analysis); err != nil {
		t.Fatalf("writeReport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["total_files"].(float64) != 3 {
		t.Errorf("total_files = %v", decoded["total_files"])
	}
	if _, ok := decoded["duplicated_blocks"]; !ok {
		t.Error("missing duplicated_blocks key")
	}
}
