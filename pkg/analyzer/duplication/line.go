package duplication

import (
	"os"
	"strings"

	"github.com/adlimen/dupcheck/internal/scanner"
	"github.com/adlimen/dupcheck/pkg/parser"
)

// extractLineUnits produces the comparable units for one file in line
// mode: each trimmed non-trivial line becomes its own unit. No parsing
// happens; unsupported languages still contribute their lines.
func (a *Analyzer) extractLineUnits(path string) (fileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		a.warn(path, "skipped: %v", err)
		return fileResult{path: path}, nil
	}

	res := fileResult{path: path, lineCount: scanner.CountLines(content)}
	markers := parser.CommentMarkers(parser.DetectLanguage(path))

	for i, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if len(line) < a.config.MinChars || isComment(line, markers) {
			continue
		}

		res.units = append(res.units, CodeUnit{
			File:        path,
			StartLine:   i + 1,
			EndLine:     i + 1,
			LineCount:   1,
			Kind:        KindLine,
			Fingerprint: fingerprintLine(line),
			Origin:      OriginLine,
			Content:     line,
		})
	}

	return res, nil
}

// isComment reports whether a trimmed line starts with one of the
// language's line-comment markers.
func isComment(line string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
