// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/docreflect/pkg/doccomment"

	"github.com/phobologic/docreflect/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Document accumulates top-level TOON entries in order.
type Document struct {
	parts []string
}

// Field appends a `key: value` line.
func (d *Document) Field(key, value string) {
	d.parts = append(d.parts, fmt.Sprintf("%s: %s", key, encodeValue(value)))
}

// List appends an inline array, `key[n]: a,b,c`.
func (d *Document) List(key string, values []string) {
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = encodeValue(v)
	}
	line := fmt.Sprintf("%s[%d]:", key, len(values))
	if len(encoded) > 0 {
		line += " " + strings.Join(encoded, ",")
	}
	d.parts = append(d.parts, line)
}

// Table appends a tabular array with one row per entry.
func (d *Document) Table(name string, columns []string, rows [][]string) {
	d.parts = append(d.parts, formatTabular(name, columns, rows))
}

// String returns the document text without a trailing newline.
func (d *Document) String() string {
	return strings.Join(d.parts, "\n")
}

// Encode converts a RepoMap into TOON format.
func Encode(rm *model.RepoMap) string {
	var d Document

	d.Field("repo", rm.RepoName)
	d.Field("root", rm.Root)

	var fileRows [][]string
	for i := range rm.Files {
		fi := &rm.Files[i]
		fileRows = append(fileRows, []string{
			fi.Path,
			fi.Namespace,
			fmt.Sprintf("%.4f", fi.Rank),
		})
	}
	d.Table("files", []string{"path", "namespace", "rank"}, fileRows)

	var classRows [][]string
	var funcRows [][]string
	for i := range rm.Files {
		fi := &rm.Files[i]
		for j := range fi.Classes {
			c := &fi.Classes[j]
			classRows = append(classRows, []string{
				fi.Path,
				c.FQN(),
				string(c.Kind),
				strconv.Itoa(c.Line),
				summary(c.Doc),
			})
		}
		for j := range fi.Functions {
			f := &fi.Functions[j]
			funcRows = append(funcRows, []string{
				fi.Path,
				f.FQN(),
				strconv.Itoa(f.Line),
				f.Signature(),
			})
		}
	}
	d.Table("classes", []string{"file", "name", "kind", "line", "summary"}, classRows)
	if len(funcRows) > 0 {
		d.Table("functions", []string{"file", "name", "line", "signature"}, funcRows)
	}

	var depRows [][]string
	for i := range rm.Dependencies {
		dep := &rm.Dependencies[i]
		depRows = append(depRows, []string{
			dep.Source,
			dep.Target,
			strings.Join(dep.Classes, " "),
		})
	}
	d.Table("dependencies", []string{"source", "target", "classes"}, depRows)

	var relRows [][]string
	for _, r := range rm.Relations {
		relRows = append(relRows, []string{r.Class, string(r.Kind), r.Target})
	}
	d.Table("relations", []string{"class", "kind", "target"}, relRows)

	if len(rm.Members) > 0 {
		var memberRows [][]string
		for _, m := range rm.Members {
			memberRows = append(memberRows, []string{
				m.Class,
				m.Kind,
				m.Name,
				strconv.Itoa(m.Line),
				m.Signature,
				m.Summary,
			})
		}
		d.Table("members", []string{"class", "kind", "name", "line", "signature", "summary"}, memberRows)
	}

	return d.String()
}

// EncodeComment renders a parsed doc comment.
func EncodeComment(c *doccomment.Comment) string {
	var d Document
	d.Field("summary", c.Summary())
	d.Field("description", c.Description())

	var rows [][]string
	for _, a := range c.Annotations() {
		tag, value := doccomment.SplitAnnotation(a)
		rows = append(rows, []string{tag, value})
	}
	d.Table("annotations", []string{"tag", "value"}, rows)
	return d.String()
}

func summary(doc string) string {
	if doc == "" {
		return ""
	}
	return doccomment.Parse(doc).Summary()
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
