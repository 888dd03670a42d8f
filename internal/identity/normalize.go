package identity

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	parentheticalPattern = regexp.MustCompile(`\s*\([^)]*\)`)
	subtitlePattern      = regexp.MustCompile(`\s*:\s.*$`)
	dashClausePattern    = regexp.MustCompile(`\s+[-–]\s.*$`)
	seasonSuffixPattern  = regexp.MustCompile(`(?i)\s+season\s+\d+$`)
	movieSuffixPattern   = regexp.MustCompile(`(?i)\s+(?:the\s+)?movie$`)
)

// Normalize strips noise from a title to produce a stable base form for
// comparison. Parentheticals, trailing colon or dash clauses, trailing
// "Season N", and a trailing "Movie" suffix are removed in that order. The
// result is lossy and is never used for display. Empty or whitespace-only
// input yields the empty string.
func Normalize(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ""
	}

	result := trimmed
	for _, pattern := range []*regexp.Regexp{
		parentheticalPattern,
		subtitlePattern,
		dashClausePattern,
		seasonSuffixPattern,
		movieSuffixPattern,
	} {
		result = strings.TrimSpace(pattern.ReplaceAllString(result, ""))
	}

	if result == "" {
		return trimmed
	}
	return result
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// DisplayTitle renders a franchise or base title in title case without
// lowering already-capitalized acronyms.
func DisplayTitle(s string) string {
	return titleCaser.String(strings.TrimSpace(s))
}
