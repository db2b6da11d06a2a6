package duplication

import (
	"strings"
)

// Normalize produces a canonical string from raw unit text: each
// physical line is truncated at the first comment marker, trimmed, and
// dropped if empty; survivors are joined with a single newline. Purely
// textual and order-preserving, no tokenization.
func Normalize(text string, commentMarkers []string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, marker := range commentMarkers {
			if idx := strings.Index(line, marker); idx >= 0 {
				line = line[:idx]
			}
		}
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
