package doccomment

import (
	"strings"
	"sync"
	"unicode"
)

// AnnotationMarker introduces an annotation line.
const AnnotationMarker = '@'

type section int

const (
	inSummary section = iota
	inDescription
	inAnnotations
)

// Comment is a parsed doc comment. It is immutable once built and safe for
// concurrent reads.
type Comment struct {
	summary     string
	description string
	annotations []string

	byTagOnce sync.Once
	byTag     map[string][]string
}

// Parse normalizes and parses a raw doc comment. It never fails: a missing or
// malformed comment yields an empty Comment.
func Parse(raw string) *Comment {
	return ParseLines(Normalize(raw))
}

// ParseLines classifies normalized lines into summary, description and
// annotations in a single forward pass.
func ParseLines(lines Lines) *Comment {
	c := &Comment{}

	var (
		state          = inSummary
		atSectionStart = true
		description    strings.Builder
		pending        strings.Builder
	)

	flush := func() {
		if a := strings.TrimSpace(pending.String()); a != "" {
			c.annotations = append(c.annotations, a)
		}
		pending.Reset()
	}

	for _, line := range lines {
		if strings.HasPrefix(line, string(AnnotationMarker)) {
			flush()
			pending.WriteString(line)
			state = inAnnotations
			atSectionStart = true
			continue
		}

		blank := strings.TrimSpace(line) == ""

		switch state {
		case inSummary:
			switch {
			case blank:
				atSectionStart = false
			case atSectionStart:
				c.summary = line
				atSectionStart = false
			default:
				description.WriteString(line)
				state = inDescription
			}
		case inDescription:
			description.WriteString("\n")
			description.WriteString(line)
		case inAnnotations:
			if blank {
				continue
			}
			pending.WriteString("\n")
			pending.WriteString(line)
		}
	}
	flush()

	c.description = strings.TrimRight(description.String(), "\n")
	return c
}

// Summary returns the first line of the comment, or "" if there is none.
func (c *Comment) Summary() string { return c.summary }

// Description returns the text between the summary and the first annotation.
func (c *Comment) Description() string { return c.description }

// Annotations returns every annotation block in source order, marker included.
func (c *Comment) Annotations() []string {
	out := make([]string, len(c.annotations))
	copy(out, c.annotations)
	return out
}

// IsEmpty reports whether the comment carries no content at all.
func (c *Comment) IsEmpty() bool {
	return c.summary == "" && c.description == "" && len(c.annotations) == 0
}

// AnnotationsByTag groups annotation values by tag name (without the marker).
// Values keep their encounter order.
func (c *Comment) AnnotationsByTag() map[string][]string {
	c.byTagOnce.Do(func() {
		c.byTag = make(map[string][]string)
		for _, a := range c.annotations {
			tag, value := SplitAnnotation(a)
			c.byTag[tag] = append(c.byTag[tag], value)
		}
	})

	out := make(map[string][]string, len(c.byTag))
	for tag, values := range c.byTag {
		out[tag] = append([]string(nil), values...)
	}
	return out
}

// Tag returns the values recorded for a single tag.
func (c *Comment) Tag(name string) []string {
	return c.AnnotationsByTag()[name]
}

// HasTag reports whether at least one annotation uses the tag.
func (c *Comment) HasTag(name string) bool {
	return len(c.Tag(name)) > 0
}

// String renders the comment back into its normalized text form. Empty
// sections are left out, so no blank lines lead or trail the text.
func (c *Comment) String() string {
	var parts []string
	if c.summary != "" {
		parts = append(parts, c.summary)
	}
	if c.description != "" {
		parts = append(parts, c.description)
	}
	if len(c.annotations) > 0 {
		parts = append(parts, strings.Join(c.annotations, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// SplitAnnotation splits "@tag value" at the first whitespace character into
// the tag, without its marker, and the value.
func SplitAnnotation(a string) (tag, value string) {
	a = strings.TrimPrefix(a, string(AnnotationMarker))
	i := strings.IndexFunc(a, unicode.IsSpace)
	if i < 0 {
		return a, ""
	}
	return a[:i], strings.TrimLeftFunc(a[i:], unicode.IsSpace)
}
