// Package duplication detects duplicated code by grouping exact
// fingerprints of comparable code units: syntax-tree dumps of function
// and class definitions in structural mode, or trimmed source lines in
// line mode.
package duplication

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/adlimen/dupcheck/internal/fileproc"
	"github.com/adlimen/dupcheck/pkg/config"
)

// Config holds the engine's tunables.
type Config struct {
	Mode     Mode
	MinLines int
	// MinTokens is carried through to callers for report metadata; the
	// exact-match algorithm does not consult it.
	MinTokens int
	// MinChars is the minimum trimmed line length considered in line mode.
	MinChars int
	// MaxPercentage is the threshold the gate compares against.
	MaxPercentage float64
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeStructural,
		MinLines:      5,
		MinTokens:     50,
		MinChars:      20,
		MaxPercentage: 10.0,
	}
}

// Analyzer runs duplication detection over a set of files.
type Analyzer struct {
	config Config

	mu       sync.Mutex
	buckets  map[uint64][]CodeUnit
	warnings []Warning
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMode selects the detection strategy.
func WithMode(mode Mode) Option {
	return func(a *Analyzer) {
		a.config.Mode = mode
	}
}

// WithMinLines sets the minimum span for a structural code unit.
func WithMinLines(minLines int) Option {
	return func(a *Analyzer) {
		a.config.MinLines = minLines
	}
}

// WithMinChars sets the minimum trimmed line length for line mode.
func WithMinChars(minChars int) Option {
	return func(a *Analyzer) {
		a.config.MinChars = minChars
	}
}

// WithThreshold sets the maximum allowed duplication percentage.
func WithThreshold(maxPercentage float64) Option {
	return func(a *Analyzer) {
		a.config.MaxPercentage = maxPercentage
	}
}

// WithConfig applies all engine settings from an application config.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		mode, err := ParseMode(cfg.Analysis.Mode)
		if err != nil {
			mode = ModeStructural
		}
		a.config = Config{
			Mode:          mode,
			MinLines:      cfg.Thresholds.MinLines,
			MinTokens:     cfg.Thresholds.MinTokens,
			MinChars:      cfg.Analysis.MinChars,
			MaxPercentage: cfg.Thresholds.MaxPercentage,
		}
	}
}

// New creates an analyzer with default config.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		config:  DefaultConfig(),
		buckets: make(map[uint64][]CodeUnit),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// fileResult is the per-file outcome of the extraction stage.
type fileResult struct {
	path      string
	lineCount int
	units     []CodeUnit
}

// Analyze runs duplication detection across files. Files are processed
// in parallel; the result is deterministic regardless of completion
// order. An empty file list yields a passing zero result.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	return a.AnalyzeWithProgress(ctx, files, nil)
}

// AnalyzeWithProgress is Analyze with a per-file progress callback.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, files []string, onProgress fileproc.ProgressFunc) (*Analysis, error) {
	start := time.Now()

	a.mu.Lock()
	a.buckets = make(map[uint64][]CodeUnit)
	a.warnings = nil
	a.mu.Unlock()

	opts := fileproc.Options{OnProgress: onProgress}

	var results []fileResult
	switch a.config.Mode {
	case ModeLine:
		results = fileproc.ForEachFile(ctx, files, a.extractLineUnits, opts)
	default:
		results = fileproc.MapFiles(ctx, files, a.extractStructuralUnits, opts)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	totalLines := 0
	for _, r := range results {
		totalLines += r.lineCount
		for _, u := range r.units {
			a.addUnit(u)
		}
	}

	analysis := &Analysis{
		Mode:       a.config.Mode,
		TotalFiles: len(files),
		TotalLines: totalLines,
		Threshold:  a.config.MaxPercentage,
		Blocks:     make([]Block, 0),
		Groups:     a.sortedGroups(),
		Warnings:   a.sortedWarnings(),
	}

	a.computeMetrics(analysis)
	analysis.DurationMS = time.Since(start).Milliseconds()
	analysis.ContentDigest = digest(analysis)

	return analysis, nil
}

// addUnit records a unit in its fingerprint bucket. Safe for concurrent
// use; deterministic ordering is restored by sortedGroups.
func (a *Analyzer) addUnit(u CodeUnit) {
	a.mu.Lock()
	a.buckets[u.Fingerprint] = append(a.buckets[u.Fingerprint], u)
	a.mu.Unlock()
}

func (a *Analyzer) warn(file, format string, args ...any) {
	a.mu.Lock()
	a.warnings = append(a.warnings, Warning{File: file, Message: fmt.Sprintf(format, args...)})
	a.mu.Unlock()
}

// sortedGroups re-sorts every bucket by (file, start line) and orders
// the groups themselves the same way, so output never depends on file
// walk or goroutine completion order.
func (a *Analyzer) sortedGroups() []Group {
	a.mu.Lock()
	defer a.mu.Unlock()

	groups := make([]Group, 0, len(a.buckets))
	for fp, units := range a.buckets {
		sort.Slice(units, func(i, j int) bool {
			if units[i].File != units[j].File {
				return units[i].File < units[j].File
			}
			return units[i].StartLine < units[j].StartLine
		})
		groups = append(groups, Group{Fingerprint: fp, Units: units})
	}

	sort.Slice(groups, func(i, j int) bool {
		ui, uj := groups[i].Units[0], groups[j].Units[0]
		if ui.File != uj.File {
			return ui.File < uj.File
		}
		if ui.StartLine != uj.StartLine {
			return ui.StartLine < uj.StartLine
		}
		return groups[i].Fingerprint < groups[j].Fingerprint
	})

	return groups
}

func (a *Analyzer) sortedWarnings() []Warning {
	a.mu.Lock()
	defer a.mu.Unlock()

	sort.Slice(a.warnings, func(i, j int) bool {
		if a.warnings[i].File != a.warnings[j].File {
			return a.warnings[i].File < a.warnings[j].File
		}
		return a.warnings[i].Message < a.warnings[j].Message
	})
	return a.warnings
}

// computeMetrics fills duplicated-line counts, percentage, and report
// blocks from the sorted groups.
//
// Structural mode counts the copies after the first in each group; line
// mode counts every occurrence, first included. Counted spans are merged
// per file before summing, so a retained definition nested inside
// another retained definition (a duplicated method inside a duplicated
// class) never counts the same physical lines twice and duplicated_lines
// stays at or below total_lines.
func (a *Analyzer) computeMetrics(analysis *Analysis) {
	counted := make(map[string][]lineSpan)

	for _, g := range analysis.Groups {
		if !g.Duplicated() {
			continue
		}

		for i, u := range g.Units {
			if analysis.Mode != ModeLine && i == 0 {
				continue
			}
			counted[u.File] = append(counted[u.File], lineSpan{u.StartLine, u.EndLine})
		}

		for _, u := range g.Units {
			analysis.Blocks = append(analysis.Blocks, Block{
				File:        u.File,
				Line:        u.StartLine,
				Content:     preview(u.Content),
				Occurrences: len(g.Units),
				Kind:        u.Kind,
				Name:        u.Name,
				LineCount:   u.LineCount,
			})
		}
	}

	duplicated := 0
	for _, spans := range counted {
		duplicated += coveredLines(spans)
	}

	analysis.DuplicatedLines = duplicated
	if analysis.TotalLines > 0 {
		analysis.Percentage = float64(duplicated) / float64(analysis.TotalLines) * 100
	}
}

// lineSpan is an inclusive 1-indexed line range.
type lineSpan struct {
	start, end int
}

// coveredLines returns the number of distinct lines covered by spans.
func coveredLines(spans []lineSpan) int {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	total, end := 0, 0
	for _, s := range spans {
		if s.end <= end {
			continue
		}
		start := s.start
		if start <= end {
			start = end + 1
		}
		total += s.end - start + 1
		end = s.end
	}
	return total
}

// digest computes a stable identity for the run's content: equal inputs
// produce equal digests regardless of timing.
func digest(analysis *Analysis) string {
	h := blake3.New()

	var counts [3]uint64
	counts[0] = uint64(analysis.TotalFiles)
	counts[1] = uint64(analysis.TotalLines)
	counts[2] = uint64(analysis.DuplicatedLines)
	var buf [8]byte
	for _, c := range counts {
		binary.LittleEndian.PutUint64(buf[:], c)
		h.Write(buf[:])
	}

	for _, b := range analysis.Blocks {
		fmt.Fprintf(h, "%s:%d:%d:%s\n", b.File, b.Line, b.Occurrences, b.Content)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

func fingerprintStructural(dump string) uint64 {
	return xxhash.Sum64String("ast:" + dump)
}

func fingerprintNormalized(text string) uint64 {
	return xxhash.Sum64String("text:" + text)
}

func fingerprintLine(line string) uint64 {
	return xxhash.Sum64String("line:" + line)
}
