// Package scanner discovers candidate source files beneath a root
// directory, applying ignore patterns and optional gitignore rules.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/adlimen/dupcheck/pkg/config"
	"github.com/adlimen/dupcheck/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config  *config.Config
	matcher gitignore.Matcher
	gitRoot string
}

// New creates a file scanner.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// ScanDir walks root and returns all eligible source files in lexical
// order. A missing root yields an empty list, not an error.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}

	if s.config.Ignore.Gitignore {
		s.loadGitignore(root)
	}

	cwd, _ := os.Getwd()

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && s.excluded(cwd, path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.excluded(cwd, path, false) {
			return nil
		}
		if parser.DetectLanguage(path) == parser.LangUnknown {
			return nil
		}
		if s.config.Analysis.MaxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > s.config.Analysis.MaxFileSize {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// excluded reports whether a path matches any ignore pattern. A pattern
// excludes when it occurs as a substring of the path relative to the
// working directory, or when it glob-matches the bare filename.
// Gitignore rules are matched against the path relative to the git root,
// the domain the patterns were read in.
func (s *Scanner) excluded(cwd, path string, isDir bool) bool {
	relPath := path
	if cwd != "" {
		if rel, err := filepath.Rel(cwd, path); err == nil {
			relPath = rel
		}
	}

	base := filepath.Base(path)
	for _, pattern := range s.config.Ignore.Patterns {
		if strings.Contains(relPath, pattern) {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	if s.matcher != nil && s.gitRoot != "" {
		abs := path
		if !filepath.IsAbs(abs) && cwd != "" {
			abs = filepath.Join(cwd, abs)
		}
		if rel, err := filepath.Rel(s.gitRoot, abs); err == nil && !strings.HasPrefix(rel, "..") {
			if s.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir) {
				return true
			}
		}
	}

	return false
}

// loadGitignore reads .gitignore rules from the enclosing git repository,
// if any.
func (s *Scanner) loadGitignore(root string) {
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matcher = gitignore.NewMatcher(patterns)
	s.gitRoot = gitRoot
}

// findGitRoot walks up from start looking for a .git directory. Returns
// an empty string outside a git repository.
func findGitRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// CountLines returns the number of physical lines in content, matching
// a line-by-line read: a trailing newline does not start an extra line.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := strings.Split(string(content), "\n")
	if lines[len(lines)-1] == "" {
		return len(lines) - 1
	}
	return len(lines)
}
