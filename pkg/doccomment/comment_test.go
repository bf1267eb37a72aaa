package doccomment

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	c := Parse("/** summary line\n\n description line \n\n@tag value */")
	assert.Equal(t, "summary line", c.Summary())
	assert.Equal(t, "description line", c.Description())
	assert.Equal(t, []string{"@tag value"}, c.Annotations())
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "/** */", "/**\n *\n */"} {
		c := Parse(raw)
		assert.Empty(t, c.Summary(), raw)
		assert.Empty(t, c.Description(), raw)
		assert.Empty(t, c.Annotations(), raw)
		assert.True(t, c.IsEmpty(), raw)
		assert.Empty(t, c.AnnotationsByTag(), raw)
		assert.Equal(t, "", c.String(), raw)
	}
}

func TestParseFullComment(t *testing.T) {
	t.Parallel()

	raw := `/**
 * Returns the callable type.
 *
 * The type is resolved once at construction.
 *
 * Later lines keep their blank separators.
 *
 * @param callable $callable The callback value
 * @param int      $flags
 *
 * @return mixed
 */`
	c := Parse(raw)
	assert.Equal(t, "Returns the callable type.", c.Summary())
	assert.Equal(t, "The type is resolved once at construction.\n\nLater lines keep their blank separators.", c.Description())
	assert.Equal(t, []string{
		"@param callable $callable The callback value",
		"@param int      $flags",
		"@return mixed",
	}, c.Annotations())
}

func TestParseMultiLineAnnotation(t *testing.T) {
	t.Parallel()

	raw := `/**
 * Summary
 *
 * @param string $name
 *   the name to look up
 *
 *   continues after a blank line
 * @throws \LogicException
 */`
	c := Parse(raw)
	require.Len(t, c.Annotations(), 2)
	assert.Equal(t, "@param string $name\nthe name to look up\ncontinues after a blank line", c.Annotations()[0])
	assert.Equal(t, "@throws \\LogicException", c.Annotations()[1])
}

func TestParseSummaryOnly(t *testing.T) {
	t.Parallel()

	c := Parse("/** Constructor */")
	assert.Equal(t, "Constructor", c.Summary())
	assert.Empty(t, c.Description())
	assert.Empty(t, c.Annotations())
}

func TestParseAnnotationsOnly(t *testing.T) {
	t.Parallel()

	c := Parse("/**\n * @var string[]\n */")
	assert.Empty(t, c.Summary())
	assert.Empty(t, c.Description())
	assert.Equal(t, []string{"@var string[]"}, c.Annotations())
}

func TestParseSecondLineStartsDescription(t *testing.T) {
	t.Parallel()

	c := Parse("/**\n * First\n * Second\n * Third\n */")
	assert.Equal(t, "First", c.Summary())
	assert.Equal(t, "Second\nThird", c.Description())
}

func TestParseLeadingBlankLineSkipsSummary(t *testing.T) {
	t.Parallel()

	c := ParseLines(Lines{"", "Text", "@tag"})
	assert.Empty(t, c.Summary())
	assert.Equal(t, "Text", c.Description())
	assert.Equal(t, []string{"@tag"}, c.Annotations())
}

func TestParseDescriptionTrailingBlankLinesTrimmed(t *testing.T) {
	t.Parallel()

	c := ParseLines(Lines{"Sum", "", "Desc", "", "", ""})
	assert.Equal(t, "Desc", c.Description())
}

func TestParseAccountsForEveryLine(t *testing.T) {
	t.Parallel()

	raw := "/**\n * One\n *\n * Two\n * Three\n *\n * @a x\n * y\n * @b\n */"
	c := Parse(raw)

	var nonBlank []string
	for _, l := range Normalize(raw) {
		if l != "" {
			nonBlank = append(nonBlank, l)
		}
	}

	var got []string
	got = append(got, c.Summary())
	got = append(got, strings.Split(c.Description(), "\n")...)
	for _, a := range c.Annotations() {
		got = append(got, strings.Split(a, "\n")...)
	}
	var gotNonBlank []string
	for _, l := range got {
		if l != "" {
			gotNonBlank = append(gotNonBlank, l)
		}
	}
	assert.Equal(t, nonBlank, gotNonBlank)
}

func TestAnnotationsByTag(t *testing.T) {
	t.Parallel()

	c := Parse(`/**
 * @param int $a first
 * @param string $b
 * @deprecated
 * @return	bool
 */`)
	byTag := c.AnnotationsByTag()
	assert.Equal(t, []string{"int $a first", "string $b"}, byTag["param"])
	assert.Equal(t, []string{""}, byTag["deprecated"])
	assert.Equal(t, []string{"bool"}, byTag["return"])
	assert.Len(t, byTag, 3)

	assert.Equal(t, []string{"int $a first", "string $b"}, c.Tag("param"))
	assert.True(t, c.HasTag("deprecated"))
	assert.False(t, c.HasTag("throws"))
}

func TestAnnotationsByTagMultiLineValue(t *testing.T) {
	t.Parallel()

	c := Parse("/**\n * @return\n *   string the value\n */")
	assert.Equal(t, []string{"string the value"}, c.Tag("return"))
}

func TestAnnotationsAreCopies(t *testing.T) {
	t.Parallel()

	c := Parse("/** @a 1 */")
	c.Annotations()[0] = "changed"
	c.AnnotationsByTag()["a"][0] = "changed"
	assert.Equal(t, []string{"@a 1"}, c.Annotations())
	assert.Equal(t, []string{"1"}, c.Tag("a"))
}

func TestAnnotationsByTagConcurrentReads(t *testing.T) {
	t.Parallel()

	c := Parse("/** @a 1\n * @a 2 */")
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"1", "2"}, c.Tag("a"))
		}()
	}
	wg.Wait()
}

func TestCommentString(t *testing.T) {
	t.Parallel()

	c := Parse("/**\n * Sum\n *\n * Desc\n *\n * @a 1\n * @b 2\n */")
	assert.Equal(t, "Sum\n\nDesc\n\n@a 1\n@b 2", c.String())

	noDesc := Parse("/**\n * Sum\n * @a 1\n */")
	assert.Equal(t, "Sum\n\n@a 1", noDesc.String())

	onlyTags := Parse("/**\n * @a 1\n */")
	assert.Equal(t, "@a 1", onlyTags.String())
	assert.Empty(t, Parse("").String())
}
