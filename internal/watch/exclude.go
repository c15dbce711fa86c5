package watch

import (
	"path"
	"strings"
)

// EntityPlaceholder is replaced by the entity name in exclusion patterns.
const EntityPlaceholder = "{entity}"

// DefaultExcludePatterns name the archive and samples folders that sit next
// to new files inside a target folder.
var DefaultExcludePatterns = []string{
	"Processed Wage Statements",
	EntityPlaceholder + " Wage Statements Samples",
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)

// ExcludeMatcher decides which folders inside a target folder are structural
// (archive, samples) rather than content. Patterns use path.Match syntax and
// may contain EntityPlaceholder, which matches the entity name literally.
type ExcludeMatcher struct {
	patterns []string
}

// NewExcludeMatcher creates an ExcludeMatcher from raw pattern strings.
// Blank entries and entries starting with '#' are skipped.
func NewExcludeMatcher(rawPatterns []string) *ExcludeMatcher {
	var patterns []string
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, raw)
	}
	return &ExcludeMatcher{patterns: patterns}
}

// Match reports whether a folder named folderName under entityName's target
// folder is excluded.
func (m *ExcludeMatcher) Match(folderName, entityName string) bool {
	escaped := globEscaper.Replace(entityName)
	for _, p := range m.patterns {
		expanded := strings.ReplaceAll(p, EntityPlaceholder, escaped)
		matched, err := path.Match(expanded, folderName)
		if err != nil {
			// Bad pattern; skip rather than fail the scan.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
