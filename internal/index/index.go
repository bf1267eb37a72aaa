// Package index collects the classes and functions of parsed files and
// serves them by fully qualified name. It is the source behind the reflector
// and a callable.Provider for callables written against PHP sources.
package index

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phobologic/docreflect/internal/model"
	"github.com/phobologic/docreflect/internal/reflector"
)

// Index is read-only after New and safe for concurrent use.
type Index struct {
	classes   map[string]*model.ClassInfo
	functions map[string]*model.Function
	files     map[string]string
	refl      *reflector.Reflector
}

// New indexes files. When two files declare the same name, the first wins.
func New(files []model.FileInfo) *Index {
	ix := &Index{
		classes:   make(map[string]*model.ClassInfo),
		functions: make(map[string]*model.Function),
		files:     make(map[string]string),
	}
	for i := range files {
		fi := &files[i]
		for j := range fi.Classes {
			c := &fi.Classes[j]
			k := key(c.FQN())
			if prev, dup := ix.files[k]; dup {
				log.Debug().Str("class", c.FQN()).Str("file", fi.Path).Str("kept", prev).Msg("duplicate class declaration")
				continue
			}
			ix.classes[k] = c
			ix.files[k] = fi.Path
		}
		for j := range fi.Functions {
			f := &fi.Functions[j]
			k := key(f.FQN())
			if _, dup := ix.functions[k]; dup {
				continue
			}
			ix.functions[k] = f
		}
	}
	ix.refl = reflector.New(ix)
	return ix
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}

// LookupClass implements reflector.Source.
func (ix *Index) LookupClass(name string) (*model.ClassInfo, bool) {
	c, ok := ix.classes[key(name)]
	return c, ok
}

// LookupFunction finds a top-level function by fully qualified name.
func (ix *Index) LookupFunction(name string) (*model.Function, bool) {
	f, ok := ix.functions[key(name)]
	return f, ok
}

// FileOf returns the path of the file declaring class.
func (ix *Index) FileOf(class string) (string, bool) {
	p, ok := ix.files[key(class)]
	return p, ok
}

// Reflector returns the reflector backed by this index.
func (ix *Index) Reflector() *reflector.Reflector {
	return ix.refl
}

// Classes returns every indexed class sorted by fully qualified name.
func (ix *Index) Classes() []*model.ClassInfo {
	out := make([]*model.ClassInfo, 0, len(ix.classes))
	for _, c := range ix.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FQN() < out[j].FQN() })
	return out
}

// Find returns the classes whose fully qualified name contains substr,
// case-insensitively, sorted by name.
func (ix *Index) Find(substr string) []*model.ClassInfo {
	lower := strings.ToLower(strings.TrimPrefix(substr, `\`))
	var out []*model.ClassInfo
	for _, c := range ix.Classes() {
		if strings.Contains(strings.ToLower(c.FQN()), lower) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of indexed classes.
func (ix *Index) Len() int {
	return len(ix.classes)
}
