// Package ranking selects and filters the files of a repository map.
package ranking

import (
	"strings"

	"github.com/phobologic/docreflect/pkg/doccomment"

	"github.com/phobologic/docreflect/internal/model"
)

// SelectFiles returns a new RepoMap with only the top-ranked files.
// If maxFiles is <= 0 or >= len(files), all files are returned.
func SelectFiles(rm *model.RepoMap, maxFiles int) *model.RepoMap {
	if maxFiles <= 0 || maxFiles >= len(rm.Files) {
		return rm
	}

	selected := rm.Files[:maxFiles]
	selectedPaths := make(map[string]struct{}, maxFiles)
	for i := range selected {
		selectedPaths[selected[i].Path] = struct{}{}
	}

	var deps []model.Dependency
	for i := range rm.Dependencies {
		d := &rm.Dependencies[i]
		_, srcOK := selectedPaths[d.Source]
		_, tgtOK := selectedPaths[d.Target]
		if srcOK && tgtOK {
			deps = append(deps, *d)
		}
	}

	// Keep relations of classes declared in the selected files.
	declared := declaredIn(selected)
	var rels []model.Relation
	for _, r := range rm.Relations {
		if _, ok := declared[strings.ToLower(r.Class)]; ok {
			rels = append(rels, r)
		}
	}

	return &model.RepoMap{
		RepoName:     rm.RepoName,
		Root:         rm.Root,
		Files:        selected,
		Dependencies: deps,
		Relations:    rels,
	}
}

// FilterByClass returns a new RepoMap focused on the classes whose fully
// qualified name contains substr (case-insensitive). It keeps the files
// declaring those classes and the classes they are related to, the edges
// touching them, and a members table for every matched class.
func FilterByClass(rm *model.RepoMap, substr string) *model.RepoMap {
	lower := strings.ToLower(strings.TrimPrefix(substr, `\`))

	matched := make(map[string]struct{})
	for i := range rm.Files {
		for j := range rm.Files[i].Classes {
			fqn := strings.ToLower(rm.Files[i].Classes[j].FQN())
			if strings.Contains(fqn, lower) {
				matched[fqn] = struct{}{}
			}
		}
	}

	// Expand to classes on the other side of a relation.
	related := make(map[string]struct{})
	var rels []model.Relation
	for _, r := range rm.Relations {
		_, clsOK := matched[strings.ToLower(r.Class)]
		_, tgtOK := matched[strings.ToLower(r.Target)]
		if clsOK || tgtOK {
			rels = append(rels, r)
			related[strings.ToLower(r.Class)] = struct{}{}
			related[strings.ToLower(r.Target)] = struct{}{}
		}
	}

	matchedFiles := make(map[string]struct{})
	var files []model.FileInfo
	var members []model.Member
	for i := range rm.Files {
		fi := rm.Files[i]
		var kept []model.ClassInfo
		for j := range fi.Classes {
			c := &fi.Classes[j]
			fqn := strings.ToLower(c.FQN())
			_, isMatched := matched[fqn]
			_, isRelated := related[fqn]
			if isMatched {
				members = append(members, Members(c)...)
			}
			if isMatched || isRelated {
				kept = append(kept, *c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		// Trim classes to the matched and related ones so the classes table
		// stays focused.
		fi.Classes = kept
		matchedFiles[fi.Path] = struct{}{}
		files = append(files, fi)
	}

	return &model.RepoMap{
		RepoName:     rm.RepoName,
		Root:         rm.Root,
		Files:        files,
		Dependencies: touching(rm.Dependencies, matchedFiles),
		Relations:    rels,
		Members:      members,
	}
}

// FilterByFile returns a new RepoMap containing only files whose path
// contains substr (case-insensitive), with all dependency edges touching
// those files and the relations of classes declared in them.
func FilterByFile(rm *model.RepoMap, substr string) *model.RepoMap {
	lower := strings.ToLower(substr)

	matchedFiles := make(map[string]struct{})
	var files []model.FileInfo
	for i := range rm.Files {
		if strings.Contains(strings.ToLower(rm.Files[i].Path), lower) {
			matchedFiles[rm.Files[i].Path] = struct{}{}
			files = append(files, rm.Files[i])
		}
	}

	declared := declaredIn(files)
	var rels []model.Relation
	for _, r := range rm.Relations {
		if _, ok := declared[strings.ToLower(r.Class)]; ok {
			rels = append(rels, r)
		}
	}

	return &model.RepoMap{
		RepoName:     rm.RepoName,
		Root:         rm.Root,
		Files:        files,
		Dependencies: touching(rm.Dependencies, matchedFiles),
		Relations:    rels,
	}
}

// Members lists the constants, properties and methods of c with the summary
// line of each doc comment.
func Members(c *model.ClassInfo) []model.Member {
	fqn := c.FQN()
	var out []model.Member
	for _, k := range c.Constants {
		sig := k.Name
		if k.Value != "" {
			sig += " = " + k.Value
		}
		out = append(out, model.Member{
			Class: fqn, Kind: "constant", Name: k.Name, Signature: sig,
			Summary: summary(k.Doc), Line: k.Line,
		})
	}
	for _, p := range c.Properties {
		out = append(out, model.Member{
			Class: fqn, Kind: "property", Name: "$" + p.Name, Signature: propertySignature(p),
			Summary: summary(p.Doc), Line: p.Line,
		})
	}
	for i := range c.Methods {
		m := &c.Methods[i]
		out = append(out, model.Member{
			Class: fqn, Kind: "method", Name: m.Name, Signature: methodSignature(m),
			Summary: summary(m.Doc), Line: m.Line,
		})
	}
	return out
}

func propertySignature(p model.Property) string {
	parts := []string{p.Visibility}
	if p.Static {
		parts = append(parts, "static")
	}
	if p.Readonly {
		parts = append(parts, "readonly")
	}
	if p.Type != "" {
		parts = append(parts, p.Type)
	}
	parts = append(parts, "$"+p.Name)
	sig := strings.Join(parts, " ")
	if p.HasDefault {
		sig += " = " + p.Default
	}
	return sig
}

func methodSignature(m *model.Method) string {
	var parts []string
	if m.Abstract {
		parts = append(parts, "abstract")
	}
	if m.Final {
		parts = append(parts, "final")
	}
	parts = append(parts, m.Visibility)
	if m.Static {
		parts = append(parts, "static")
	}
	return strings.Join(parts, " ") + " " + m.Signature()
}

func summary(doc string) string {
	if doc == "" {
		return ""
	}
	return doccomment.Parse(doc).Summary()
}

func declaredIn(files []model.FileInfo) map[string]struct{} {
	declared := make(map[string]struct{})
	for i := range files {
		for j := range files[i].Classes {
			declared[strings.ToLower(files[i].Classes[j].FQN())] = struct{}{}
		}
	}
	return declared
}

func touching(deps []model.Dependency, files map[string]struct{}) []model.Dependency {
	var out []model.Dependency
	for i := range deps {
		d := &deps[i]
		_, srcOK := files[d.Source]
		_, tgtOK := files[d.Target]
		if srcOK || tgtOK {
			out = append(out, *d)
		}
	}
	return out
}
