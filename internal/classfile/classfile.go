// Package classfile reads the namespace, imports and class name of a single
// PHP class file without loading anything else.
package classfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phobologic/docreflect/internal/lang"
	"github.com/phobologic/docreflect/internal/model"
	"github.com/phobologic/docreflect/internal/parse"
)

var (
	// ErrNotAFile is returned when the path does not name a regular file.
	ErrNotAFile = errors.New("not a regular file")
	// ErrNoClass is returned when the file declares no class.
	ErrNoClass = errors.New("no class declared")
)

// File is the parsed view of one class file.
type File struct {
	path  string
	info  model.FileInfo
	class *model.ClassInfo
}

// Open parses the file at path. The first class declared in the file is the
// file's class; interfaces, traits and enums do not count.
func Open(ctx context.Context, path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening class file: %w", err)
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotAFile)
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	return FromSource(ctx, abs, source)
}

// FromSource parses source as if it had been read from path.
func FromSource(ctx context.Context, path string, source []byte) (*File, error) {
	parser := lang.Languages["php"].NewParser()
	defer parser.Close()

	info, err := parse.ExtractFile(ctx, parser, source, path)
	if err != nil {
		return nil, err
	}

	f := &File{path: path, info: info}
	for i := range f.info.Classes {
		c := &f.info.Classes[i]
		if c.Kind == model.Class && c.Namespace == info.Namespace {
			f.class = c
			break
		}
	}
	if f.class == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoClass)
	}
	return f, nil
}

// Path returns the absolute path of the file.
func (f *File) Path() string { return f.path }

// Namespace returns the first namespace declared in the file, or "" for the
// global namespace.
func (f *File) Namespace() string { return f.info.Namespace }

// Uses maps each imported class or namespace, fully qualified, to its
// explicit alias. Imports without `as` map to "".
func (f *File) Uses() map[string]string {
	uses := make(map[string]string, len(f.info.Uses))
	for _, u := range f.info.Uses {
		if u.Kind != model.UseClass {
			continue
		}
		uses[u.Name] = u.Alias
	}
	return uses
}

// Imports returns every import in declaration order, including function and
// const imports.
func (f *File) Imports() []model.UseAlias {
	out := make([]model.UseAlias, len(f.info.Uses))
	copy(out, f.info.Uses)
	return out
}

// ClassName returns the short name of the file's class.
func (f *File) ClassName() string { return f.class.Name }

// FQN returns the fully qualified name of the file's class.
func (f *File) FQN() string { return f.class.FQN() }

// Class returns the extracted metadata of the file's class.
func (f *File) Class() *model.ClassInfo { return f.class }

// Info returns everything extracted from the file.
func (f *File) Info() *model.FileInfo { return &f.info }

// Resolve resolves a class name as written in this file.
func (f *File) Resolve(name string) string { return f.info.Resolve(name) }
