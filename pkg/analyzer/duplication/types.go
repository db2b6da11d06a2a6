package duplication

import (
	"fmt"
	"unicode/utf8"
)

// Mode selects the detection strategy.
type Mode string

const (
	// ModeStructural fingerprints syntax-tree shapes of function and
	// class definitions.
	ModeStructural Mode = "structural"

	// ModeLine fingerprints individual non-trivial source lines with no
	// parsing at all.
	ModeLine Mode = "line"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStructural, ModeLine:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown analysis mode: %q", s)
	}
}

// UnitKind classifies a code unit.
type UnitKind string

const (
	KindFunction      UnitKind = "function"
	KindAsyncFunction UnitKind = "async_function"
	KindClass         UnitKind = "class"
	// KindWholeFile marks the normalized whole-file fallback used when a
	// file cannot be parsed into a tree.
	KindWholeFile UnitKind = "whole_file"
	// KindLine marks single-line units produced by line mode.
	KindLine UnitKind = "line"
)

// FingerprintOrigin records which canonical form a fingerprint was
// computed from. The fallback from structural dump to normalized text is
// an explicit value here, not a recovered panic.
type FingerprintOrigin int

const (
	// OriginStructural means the fingerprint hashes a structural dump.
	OriginStructural FingerprintOrigin = iota
	// OriginNormalized means the unit did not parse in isolation and the
	// fingerprint hashes its normalized text.
	OriginNormalized
	// OriginLine means the fingerprint hashes a single trimmed line.
	OriginLine
)

// CodeUnit is one comparable unit of code. Never mutated after creation.
type CodeUnit struct {
	File        string
	StartLine   int // 1-indexed, inclusive
	EndLine     int
	LineCount   int
	Kind        UnitKind
	Name        string
	Fingerprint uint64
	Origin      FingerprintOrigin
	Content     string
}

// Group is the set of code units sharing one fingerprint, sorted by
// (file, start line). The first member is the "original".
type Group struct {
	Fingerprint uint64
	Units       []CodeUnit
}

// Duplicated reports whether the group has at least two members.
func (g *Group) Duplicated() bool {
	return len(g.Units) >= 2
}

// Block is one entry of the persisted report: a single occurrence of
// duplicated content.
type Block struct {
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Content     string   `json:"content"`
	Occurrences int      `json:"occurrences"`
	Kind        UnitKind `json:"kind"`
	Name        string   `json:"name"`
	LineCount   int      `json:"line_count"`
}

// Warning is a non-fatal problem encountered during a run.
type Warning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Analysis is the result of one duplication run.
//
// DuplicatedLines follows two deliberately different accounting
// conventions: structural mode counts copies after the first in each
// group, line mode counts every occurrence including the first. Counted
// spans are merged per file, so the value never exceeds TotalLines.
// Percentages are therefore not comparable across modes.
type Analysis struct {
	Mode            Mode      `json:"mode"`
	TotalFiles      int       `json:"total_files"`
	TotalLines      int       `json:"total_lines"`
	DuplicatedLines int       `json:"duplicated_lines"`
	Percentage      float64   `json:"percentage"`
	Blocks          []Block   `json:"duplicated_blocks"`
	Threshold       float64   `json:"threshold"`
	Warnings        []Warning `json:"warnings,omitempty"`
	DurationMS      int64     `json:"duration_ms"`
	ContentDigest   string    `json:"content_digest"`

	// Groups holds every fingerprint bucket, singletons included, for
	// diagnostics. Not serialized.
	Groups []Group `json:"-"`
}

// WithinThreshold reports whether the measured percentage is at or below
// the configured maximum. Equality passes.
func (a *Analysis) WithinThreshold() bool {
	return a.Percentage <= a.Threshold
}

// previewLen bounds the content preview stored in report blocks.
const previewLen = 200

// preview truncates s to previewLen characters with an ellipsis suffix.
// Truncation happens on rune boundaries, never mid-sequence.
func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	return string([]rune(s)[:previewLen]) + "..."
}
