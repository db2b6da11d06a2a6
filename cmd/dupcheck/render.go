package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/adlimen/dupcheck/internal/output"
	"github.com/adlimen/dupcheck/pkg/analyzer/duplication"
	"github.com/adlimen/dupcheck/pkg/config"
)

// consolePreviewLen bounds previews in verbose console output; the
// persisted report keeps longer ones.
const consolePreviewLen = 80

func render(cfg *config.Config, analysis *duplication.Analysis) error {
	if cfg.Output.Quiet {
		return nil
	}

	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), "", true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return renderTo(formatter, cfg, analysis)
}

func renderTo(formatter *output.Formatter, cfg *config.Config, analysis *duplication.Analysis) error {
	if formatter.Format() == output.FormatJSON {
		return formatter.Output(analysis)
	}

	w := formatter.Writer()
	markdown := formatter.Format() == output.FormatMarkdown

	if markdown {
		fmt.Fprintln(w, "## Duplication Summary")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "- **Files analyzed**: %d\n", analysis.TotalFiles)
		fmt.Fprintf(w, "- **Total lines**: %d\n", analysis.TotalLines)
		fmt.Fprintf(w, "- **Duplicated lines**: %d\n", analysis.DuplicatedLines)
		fmt.Fprintf(w, "- **Duplication**: %.2f%% (max %.2f%%)\n", analysis.Percentage, analysis.Threshold)
		fmt.Fprintf(w, "- **Duration**: %dms\n", analysis.DurationMS)
	} else {
		fmt.Fprintf(w, "Files analyzed:    %d\n", analysis.TotalFiles)
		fmt.Fprintf(w, "Total lines:       %d\n", analysis.TotalLines)
		fmt.Fprintf(w, "Duplicated lines:  %d\n", analysis.DuplicatedLines)
		fmt.Fprintf(w, "Duplication:       %.2f%% (max %.2f%%)\n", analysis.Percentage, analysis.Threshold)
		fmt.Fprintf(w, "Completed in %dms\n", analysis.DurationMS)
	}

	if cfg.Output.Verbose {
		if err := renderTop(formatter, analysis, cfg.Output.Top); err != nil {
			return err
		}
		renderWarnings(formatter, analysis)
	}

	fmt.Fprintln(w)
	switch {
	case analysis.WithinThreshold() && markdown:
		fmt.Fprintf(w, "**PASS**: duplication %.2f%% is within the %.2f%% limit\n", analysis.Percentage, analysis.Threshold)
	case analysis.WithinThreshold():
		formatter.Success("PASS: duplication %.2f%% is within the %.2f%% limit", analysis.Percentage, analysis.Threshold)
	case markdown:
		fmt.Fprintf(w, "**FAIL**: duplication %.2f%% exceeds the %.2f%% limit\n", analysis.Percentage, analysis.Threshold)
		renderRecommendations(formatter, markdown)
	default:
		formatter.Error("FAIL: duplication %.2f%% exceeds the %.2f%% limit", analysis.Percentage, analysis.Threshold)
		renderRecommendations(formatter, markdown)
	}

	return nil
}

// renderTop shows the k most repeated duplications.
func renderTop(formatter *output.Formatter, analysis *duplication.Analysis, k int) error {
	top := topDuplications(analysis, k)
	if len(top) == 0 {
		return nil
	}

	var rows [][]string
	for _, g := range top {
		first := g.Units[0]
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d", first.File, first.StartLine),
			string(first.Kind),
			first.Name,
			fmt.Sprintf("%d", len(g.Units)),
			consolePreview(first.Content),
		})
	}

	table := &output.Table{
		Title:   fmt.Sprintf("Top %d Duplications", len(top)),
		Headers: []string{"Location", "Kind", "Name", "Occurrences", "Preview"},
		Rows:    rows,
	}

	fmt.Fprintln(formatter.Writer())
	return formatter.Output(table)
}

func renderWarnings(formatter *output.Formatter, analysis *duplication.Analysis) {
	if len(analysis.Warnings) == 0 {
		return
	}
	fmt.Fprintln(formatter.Writer())
	formatter.Warning("Warnings (%d):", len(analysis.Warnings))
	for _, warn := range analysis.Warnings {
		fmt.Fprintf(formatter.Writer(), "  - %s: %s\n", warn.File, warn.Message)
	}
}

func renderRecommendations(formatter *output.Formatter, markdown bool) {
	w := formatter.Writer()
	fmt.Fprintln(w)
	if markdown {
		fmt.Fprintln(w, "### Recommendations")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "- Extract duplicated functions into shared helpers")
		fmt.Fprintln(w, "- Parameterize near-identical code paths instead of copying them")
		fmt.Fprintln(w, "- Run with --verbose to see the largest duplication groups")
		return
	}
	formatter.Info("Recommendations:")
	fmt.Fprintln(w, "  - Extract duplicated functions into shared helpers")
	fmt.Fprintln(w, "  - Parameterize near-identical code paths instead of copying them")
	fmt.Fprintln(w, "  - Run with --verbose to see the largest duplication groups")
}

// topDuplications returns up to k duplicated groups ranked by occurrence
// count, ties broken by first-member position.
func topDuplications(analysis *duplication.Analysis, k int) []duplication.Group {
	var dups []duplication.Group
	for _, g := range analysis.Groups {
		if g.Duplicated() {
			dups = append(dups, g)
		}
	}

	sort.Slice(dups, func(i, j int) bool {
		if len(dups[i].Units) != len(dups[j].Units) {
			return len(dups[i].Units) > len(dups[j].Units)
		}
		ui, uj := dups[i].Units[0], dups[j].Units[0]
		if ui.File != uj.File {
			return ui.File < uj.File
		}
		return ui.StartLine < uj.StartLine
	})

	if k > 0 && len(dups) > k {
		dups = dups[:k]
	}
	return dups
}

// consolePreview flattens a unit's content to its first line, truncated
// on a rune boundary.
func consolePreview(s string) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if utf8.RuneCountInString(s) > consolePreviewLen {
		return string([]rune(s)[:consolePreviewLen]) + "..."
	}
	return s
}

// writeReport persists the analysis as indented JSON, creating parent
// directories as needed.
func writeReport(path string, analysis *duplication.Analysis) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
