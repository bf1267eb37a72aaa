// Package model defines the class metadata extracted from PHP sources and
// the repository map built from it.
package model

import (
	"fmt"
	"strings"
)

// ClassKind is the declaration keyword of a class-like type.
type ClassKind string

const (
	Class     ClassKind = "class"
	Interface ClassKind = "interface"
	Trait     ClassKind = "trait"
	Enum      ClassKind = "enum"
)

// UseKind distinguishes `use X`, `use function X` and `use const X`.
type UseKind string

const (
	UseClass    UseKind = "class"
	UseFunction UseKind = "function"
	UseConst    UseKind = "const"
)

// RelationKind names how one class depends on another.
type RelationKind string

const (
	Extends    RelationKind = "extends"
	Implements RelationKind = "implements"
	Uses       RelationKind = "uses"
)

// UseAlias is one imported name. Name is fully qualified without a leading
// backslash; Alias is empty unless the source spelled one out with `as`.
type UseAlias struct {
	Name  string  `json:"name" yaml:"name"`
	Alias string  `json:"alias" yaml:"alias"`
	Kind  UseKind `json:"kind" yaml:"kind"`
	Line  int     `json:"line" yaml:"line"`
}

// Short returns the name the import is visible under.
func (u UseAlias) Short() string {
	if u.Alias != "" {
		return u.Alias
	}
	return lastSegment(u.Name)
}

// Parameter is a declared function or method parameter. Default holds the
// source text of the default expression.
type Parameter struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	Default    string `json:"default" yaml:"default"`
	HasDefault bool   `json:"has_default" yaml:"has_default"`
	Variadic   bool   `json:"variadic" yaml:"variadic"`
	ByRef      bool   `json:"by_ref" yaml:"by_ref"`
	Promoted   bool   `json:"promoted" yaml:"promoted"`
}

func (p Parameter) String() string {
	var b strings.Builder
	if p.Type != "" {
		b.WriteString(p.Type)
		b.WriteByte(' ')
	}
	if p.ByRef {
		b.WriteByte('&')
	}
	if p.Variadic {
		b.WriteString("...")
	}
	b.WriteString("$" + p.Name)
	if p.HasDefault {
		b.WriteString(" = " + p.Default)
	}
	return b.String()
}

// Method is a method declared in a class body.
type Method struct {
	Name       string      `json:"name" yaml:"name"`
	Visibility string      `json:"visibility" yaml:"visibility"`
	Static     bool        `json:"static" yaml:"static"`
	Abstract   bool        `json:"abstract" yaml:"abstract"`
	Final      bool        `json:"final" yaml:"final"`
	Params     []Parameter `json:"params" yaml:"params"`
	ReturnType string      `json:"return_type" yaml:"return_type"`
	Doc        string      `json:"doc" yaml:"doc"`
	Line       int         `json:"line" yaml:"line"`
}

// Signature renders the method the way it was declared, without its body.
func (m *Method) Signature() string {
	return signature(m.Name, m.Params, m.ReturnType)
}

// Property is a declared or constructor-promoted property.
type Property struct {
	Name       string `json:"name" yaml:"name"`
	Visibility string `json:"visibility" yaml:"visibility"`
	Type       string `json:"type" yaml:"type"`
	Default    string `json:"default" yaml:"default"`
	HasDefault bool   `json:"has_default" yaml:"has_default"`
	Static     bool   `json:"static" yaml:"static"`
	Readonly   bool   `json:"readonly" yaml:"readonly"`
	Doc        string `json:"doc" yaml:"doc"`
	Line       int    `json:"line" yaml:"line"`
}

// Constant is a class constant or enum case.
type Constant struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Doc   string `json:"doc" yaml:"doc"`
	Line  int    `json:"line" yaml:"line"`
}

// ClassInfo is a class, interface, trait or enum declaration. Parent,
// Interfaces and Traits hold fully qualified names.
type ClassInfo struct {
	Name       string     `json:"name" yaml:"name"`
	Namespace  string     `json:"namespace" yaml:"namespace"`
	Kind       ClassKind  `json:"kind" yaml:"kind"`
	Abstract   bool       `json:"abstract" yaml:"abstract"`
	Final      bool       `json:"final" yaml:"final"`
	Parent     string     `json:"parent" yaml:"parent"`
	Interfaces []string   `json:"interfaces" yaml:"interfaces"`
	Traits     []string   `json:"traits" yaml:"traits"`
	Methods    []Method   `json:"methods" yaml:"methods"`
	Properties []Property `json:"properties" yaml:"properties"`
	Constants  []Constant `json:"constants" yaml:"constants"`
	Doc        string     `json:"doc" yaml:"doc"`
	Line       int        `json:"line" yaml:"line"`
}

// FQN returns the fully qualified class name without a leading backslash.
func (c *ClassInfo) FQN() string {
	return Qualify(c.Namespace, c.Name)
}

// Method looks up a method by name. PHP method names are case-insensitive.
func (c *ClassInfo) Method(name string) (*Method, bool) {
	for i := range c.Methods {
		if strings.EqualFold(c.Methods[i].Name, name) {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// Property looks up a property by name, with or without the leading $.
func (c *ClassInfo) Property(name string) (*Property, bool) {
	name = strings.TrimPrefix(name, "$")
	for i := range c.Properties {
		if c.Properties[i].Name == name {
			return &c.Properties[i], true
		}
	}
	return nil, false
}

// Constant looks up a constant or enum case by name.
func (c *ClassInfo) Constant(name string) (*Constant, bool) {
	for i := range c.Constants {
		if c.Constants[i].Name == name {
			return &c.Constants[i], true
		}
	}
	return nil, false
}

// Function is a top-level function declaration.
type Function struct {
	Name       string      `json:"name" yaml:"name"`
	Namespace  string      `json:"namespace" yaml:"namespace"`
	Params     []Parameter `json:"params" yaml:"params"`
	ReturnType string      `json:"return_type" yaml:"return_type"`
	Doc        string      `json:"doc" yaml:"doc"`
	Line       int         `json:"line" yaml:"line"`
}

// FQN returns the fully qualified function name.
func (f *Function) FQN() string {
	return Qualify(f.Namespace, f.Name)
}

// Signature renders the function without its body.
func (f *Function) Signature() string {
	return signature(f.Name, f.Params, f.ReturnType)
}

// Reference is a class name used in code (`new X`, `X::y()`, `X::C`,
// `instanceof X`), already resolved against the file's imports.
type Reference struct {
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line" yaml:"line"`
}

// FileInfo holds everything extracted from a single source file.
type FileInfo struct {
	Path       string      `json:"path" yaml:"path"`
	Language   string      `json:"language" yaml:"language"`
	Namespace  string      `json:"namespace" yaml:"namespace"`
	Uses       []UseAlias  `json:"uses" yaml:"uses"`
	Classes    []ClassInfo `json:"classes" yaml:"classes"`
	Functions  []Function  `json:"functions" yaml:"functions"`
	References []Reference `json:"references" yaml:"references"`
	Rank       float64     `json:"rank" yaml:"rank"`
}

// Resolve turns a class name as written in this file into a fully
// qualified name.
func (f *FileInfo) Resolve(name string) string {
	return Resolve(f.Namespace, f.Uses, name)
}

// Dependency is an edge in the file graph: Source references classes
// declared in Target.
type Dependency struct {
	Source  string   `json:"source" yaml:"source"`
	Target  string   `json:"target" yaml:"target"`
	Classes []string `json:"classes" yaml:"classes"`
}

// Relation is an inheritance edge between two classes.
type Relation struct {
	Class  string       `json:"class" yaml:"class"`
	Kind   RelationKind `json:"kind" yaml:"kind"`
	Target string       `json:"target" yaml:"target"`
}

// Member is one row of the members table shown for focused class queries.
type Member struct {
	Class     string `json:"class" yaml:"class"`
	Kind      string `json:"kind" yaml:"kind"`
	Name      string `json:"name" yaml:"name"`
	Signature string `json:"signature" yaml:"signature"`
	Summary   string `json:"summary" yaml:"summary"`
	Line      int    `json:"line" yaml:"line"`
}

// RepoMap is the complete analyzed repository map, ready for serialization.
type RepoMap struct {
	RepoName     string       `json:"repo_name" yaml:"repo_name"`
	Root         string       `json:"root" yaml:"root"`
	Files        []FileInfo   `json:"files" yaml:"files"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
	Relations    []Relation   `json:"relations" yaml:"relations"`
	Members      []Member     `json:"members" yaml:"members"`
}

// Qualify joins a namespace and a short name.
func Qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

// Resolve applies PHP class name resolution: a leading backslash means fully
// qualified, an imported first segment is replaced by its import, and
// anything else is relative to namespace. self, static and parent are
// returned unchanged.
func Resolve(namespace string, uses []UseAlias, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	switch strings.ToLower(name) {
	case "self", "static", "parent":
		return name
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return Qualify(namespace, rest)
	}

	first, rest, qualified := strings.Cut(name, `\`)
	for _, u := range uses {
		if u.Kind != UseClass || !strings.EqualFold(u.Short(), first) {
			continue
		}
		if qualified {
			return u.Name + `\` + rest
		}
		return u.Name
	}
	return Qualify(namespace, name)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

func signature(name string, params []Parameter, returnType string) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	sig := fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
	if returnType != "" {
		sig += ": " + returnType
	}
	return sig
}
