package doccomment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Lines
	}{
		{"empty", "", Lines{""}},
		{"delimiters only", "/** */", Lines{""}},
		{"long delimiters", "/*****   ****/", Lines{""}},
		{"single line", "/** Summary */", Lines{"Summary"}},
		{
			"multi line",
			"/**\n * Summary\n *\n * @return int\n */",
			Lines{"Summary", "", "@return int"},
		},
		{
			"crlf",
			"/**\r\n * a\r\n * b\r\n */",
			Lines{"a", "b"},
		},
		{
			"bare carriage return",
			"/** a\r * b */",
			Lines{"a", "b"},
		},
		{
			"repeated continuation markers",
			"/**\n *** deep\n   no marker\n */",
			Lines{"deep", "no marker"},
		},
		{
			"inner comment markers kept",
			"/** a */ b */",
			Lines{"a */ b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	first := Normalize("/**\n * Summary line\n *\n * Description.\n * @param int $a\n */")
	again := Normalize(first.String())
	assert.Equal(t, first, again)
}

func TestLinesString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\n\nb", Lines{"a", "", "b"}.String())
}
