// Package doccomment parses /** ... */ documentation comments into a summary,
// a free-form description and an ordered list of annotations.
package doccomment

import (
	"regexp"
	"strings"
)

var (
	openRe         = regexp.MustCompile(`\A/\*\*+\s*`)
	closeRe        = regexp.MustCompile(`\s*\*+/\z`)
	continuationRe = regexp.MustCompile(`\A\*+\s*`)

	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Lines is a normalized comment: one entry per source line with delimiters and
// leading asterisks removed. Blank lines are kept as empty strings.
type Lines []string

// Normalize strips the comment delimiters and the per-line continuation
// markers from raw. The result always holds at least one line.
func Normalize(raw string) Lines {
	raw = openRe.ReplaceAllString(raw, "")
	raw = closeRe.ReplaceAllString(raw, "")

	rows := strings.Split(lineEndings.Replace(raw), "\n")
	lines := make(Lines, len(rows))
	for i, row := range rows {
		lines[i] = continuationRe.ReplaceAllString(strings.TrimSpace(row), "")
	}
	return lines
}

// String joins the lines with line breaks.
func (l Lines) String() string {
	return strings.Join(l, "\n")
}
