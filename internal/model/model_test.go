package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	uses := []UseAlias{
		{Name: `Vendor\Http\Request`, Kind: UseClass},
		{Name: `Vendor\Log`, Alias: "Logging", Kind: UseClass},
		{Name: `Vendor\helper`, Kind: UseFunction},
	}

	tests := []struct {
		name string
		want string
	}{
		{`\Fully\Qualified`, `Fully\Qualified`},
		{"Request", `Vendor\Http\Request`},
		{"request", `Vendor\Http\Request`},
		{`Logging\Logger`, `Vendor\Log\Logger`},
		{"Local", `App\Local`},
		{`Sub\Local`, `App\Sub\Local`},
		{`namespace\Local`, `App\Local`},
		{"helper", `App\helper`},
		{"self", "self"},
		{"Parent", "Parent"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Resolve(`App`, uses, tt.name))
		})
	}
}

func TestResolveGlobalNamespace(t *testing.T) {
	t.Parallel()
	fi := &FileInfo{}
	assert.Equal(t, "Foo", fi.Resolve("Foo"))
	assert.Equal(t, `A\Foo`, fi.Resolve(`\A\Foo`))
}

func TestUseAliasShort(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Request", UseAlias{Name: `Vendor\Request`}.Short())
	assert.Equal(t, "Req", UseAlias{Name: `Vendor\Request`, Alias: "Req"}.Short())
	assert.Equal(t, "Global", UseAlias{Name: "Global"}.Short())
}

func TestSignature(t *testing.T) {
	t.Parallel()

	m := Method{
		Name: "find",
		Params: []Parameter{
			{Name: "id", Type: "int"},
			{Name: "opts", Type: "array", Default: "[]", HasDefault: true},
			{Name: "out", ByRef: true},
			{Name: "rest", Type: "string", Variadic: true},
		},
		ReturnType: "?User",
	}
	assert.Equal(t, "find(int $id, array $opts = [], &$out, string ...$rest): ?User", m.Signature())

	f := Function{Name: "noop"}
	assert.Equal(t, "noop()", f.Signature())
}

func TestClassLookups(t *testing.T) {
	t.Parallel()

	c := ClassInfo{
		Name:       "User",
		Namespace:  `App\Models`,
		Methods:    []Method{{Name: "getName"}},
		Properties: []Property{{Name: "name"}},
		Constants:  []Constant{{Name: "TABLE", Value: "'users'"}},
	}
	assert.Equal(t, `App\Models\User`, c.FQN())

	m, ok := c.Method("GETNAME")
	assert.True(t, ok)
	assert.Equal(t, "getName", m.Name)
	_, ok = c.Method("missing")
	assert.False(t, ok)

	_, ok = c.Property("$name")
	assert.True(t, ok)
	_, ok = c.Property("Name")
	assert.False(t, ok)

	k, ok := c.Constant("TABLE")
	assert.True(t, ok)
	assert.Equal(t, "'users'", k.Value)
}
