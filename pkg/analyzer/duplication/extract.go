package duplication

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adlimen/dupcheck/internal/scanner"
	"github.com/adlimen/dupcheck/pkg/parser"
)

// extractStructuralUnits produces the comparable units for one file in
// structural mode: every function, async function, and class definition
// spanning at least MinLines lines.
//
// Extraction never fails the run. Unreadable or unparseable files are
// reported as warnings; an unparseable file degrades to a single
// normalized whole-file unit so identical broken files still match.
func (a *Analyzer) extractStructuralUnits(psr *parser.Parser, path string) (fileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		a.warn(path, "skipped: %v", err)
		return fileResult{path: path}, nil
	}

	res := fileResult{path: path, lineCount: scanner.CountLines(content)}

	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		a.warn(path, "skipped: unsupported language")
		return res, nil
	}
	markers := parser.CommentMarkers(lang)

	parsed, err := psr.Parse(content, lang, path)
	if err != nil || parsed.HasError() {
		if unit, ok := a.wholeFileUnit(path, content, res.lineCount, markers); ok {
			res.units = append(res.units, unit)
		}
		a.warn(path, "syntax errors, compared as normalized whole-file text")
		return res, nil
	}

	lines := strings.Split(string(content), "\n")
	for _, def := range parser.Definitions(parsed) {
		span := int(def.EndLine-def.StartLine) + 1
		if span < a.config.MinLines {
			continue
		}

		start, end := int(def.StartLine)-1, int(def.EndLine)
		if start < 0 || start >= len(lines) {
			continue
		}
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if text == "" {
			continue
		}

		unit := CodeUnit{
			File:      path,
			StartLine: int(def.StartLine),
			EndLine:   int(def.EndLine),
			LineCount: span,
			Kind:      unitKind(def.Kind),
			Name:      def.Name,
			Content:   text,
		}

		// Re-parse the unit in isolation so its fingerprint is independent
		// of surrounding code. Units that do not stand alone (indentation
		// stripped away, partial constructs) fall back to normalized text.
		isolated, perr := psr.Parse([]byte(text), lang, path)
		if perr == nil && !isolated.HasError() {
			unit.Fingerprint = fingerprintStructural(parser.StructuralDump(isolated))
			unit.Origin = OriginStructural
		} else {
			norm := Normalize(text, markers)
			if norm == "" {
				continue
			}
			unit.Fingerprint = fingerprintNormalized(norm)
			unit.Origin = OriginNormalized
		}

		res.units = append(res.units, unit)
	}

	return res, nil
}

// wholeFileUnit builds the fallback unit for a file that failed to
// parse. Files that normalize to nothing produce no unit.
func (a *Analyzer) wholeFileUnit(path string, content []byte, lineCount int, markers []string) (CodeUnit, bool) {
	norm := Normalize(string(content), markers)
	if norm == "" {
		return CodeUnit{}, false
	}
	return CodeUnit{
		File:        path,
		StartLine:   1,
		EndLine:     lineCount,
		LineCount:   lineCount,
		Kind:        KindWholeFile,
		Name:        filepath.Base(path),
		Fingerprint: fingerprintNormalized(norm),
		Origin:      OriginNormalized,
		Content:     norm,
	}, true
}

func unitKind(kind parser.DefinitionKind) UnitKind {
	switch kind {
	case parser.DefAsyncFunction:
		return KindAsyncFunction
	case parser.DefClass:
		return KindClass
	default:
		return KindFunction
	}
}
