// Package graph builds the file dependency graph and class relations, and
// ranks files with PageRank.
package graph

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/phobologic/docreflect/internal/model"
)

// BuildGraph creates dependency edges from cross-file class references.
// A file depends on another when it references, extends, implements or uses
// a class declared there. Returns a list of dependencies suitable for the
// RepoMap.
func BuildGraph(fileInfos []model.FileInfo) []model.Dependency {
	// Build definition index: lowercased class name → files that declare it
	defines := make(map[string]map[string]struct{})
	for i := range fileInfos {
		fi := &fileInfos[i]
		for j := range fi.Classes {
			k := strings.ToLower(fi.Classes[j].FQN())
			if defines[k] == nil {
				defines[k] = make(map[string]struct{})
			}
			defines[k][fi.Path] = struct{}{}
		}
	}

	// Build edges: source → target → list of classes
	type edgeKey struct{ src, tgt string }
	edgeClasses := make(map[edgeKey][]string)

	for i := range fileInfos {
		fi := &fileInfos[i]
		for _, name := range referencedClasses(fi) {
			defFiles := defines[strings.ToLower(name)]
			if defFiles == nil {
				continue
			}
			// Iterate in sorted order for determinism
			for _, defFile := range sortedKeys(defFiles) {
				if defFile == fi.Path {
					continue // no self-edges
				}
				key := edgeKey{fi.Path, defFile}
				if !slices.Contains(edgeClasses[key], name) {
					edgeClasses[key] = append(edgeClasses[key], name)
				}
			}
		}
	}

	var deps []model.Dependency
	for key, classes := range edgeClasses {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Classes: classes,
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

// referencedClasses lists every class name a file mentions, in order of
// appearance: inheritance clauses first, then references in code.
func referencedClasses(fi *model.FileInfo) []string {
	var names []string
	for j := range fi.Classes {
		c := &fi.Classes[j]
		if c.Parent != "" {
			names = append(names, c.Parent)
		}
		names = append(names, c.Interfaces...)
		names = append(names, c.Traits...)
	}
	for _, r := range fi.References {
		names = append(names, r.Name)
	}
	return names
}

// BuildRelations returns the extends, implements and uses edges of every
// declared class, deduplicated and sorted.
func BuildRelations(fileInfos []model.FileInfo) []model.Relation {
	seen := make(map[model.Relation]struct{})
	var rels []model.Relation
	add := func(r model.Relation) {
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		rels = append(rels, r)
	}

	for i := range fileInfos {
		for j := range fileInfos[i].Classes {
			c := &fileInfos[i].Classes[j]
			fqn := c.FQN()
			if c.Parent != "" {
				add(model.Relation{Class: fqn, Kind: model.Extends, Target: c.Parent})
			}
			kind := model.Implements
			if c.Kind == model.Interface {
				kind = model.Extends
			}
			for _, iface := range c.Interfaces {
				add(model.Relation{Class: fqn, Kind: kind, Target: iface})
			}
			for _, t := range c.Traits {
				add(model.Relation{Class: fqn, Kind: model.Uses, Target: t})
			}
		}
	}

	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Class != rels[j].Class {
			return rels[i].Class < rels[j].Class
		}
		if rels[i].Kind != rels[j].Kind {
			return rels[i].Kind < rels[j].Kind
		}
		return rels[i].Target < rels[j].Target
	})

	return rels
}

// Rank applies PageRank to file_infos and sorts them by rank descending.
func Rank(fileInfos []model.FileInfo, deps []model.Dependency) {
	if len(fileInfos) == 0 {
		return
	}

	if len(deps) == 0 {
		uniform := 1.0 / float64(len(fileInfos))
		for i := range fileInfos {
			fileInfos[i].Rank = uniform
		}
		return
	}

	// Edge from source to target means source references target.
	// Each referenced class counts as one edge.
	outEdges := make(map[string][]string) // node → list of targets (with repeats for multi-edges)
	outDegree := make(map[string]int)     // total out-edges per node
	nodes := make(map[string]struct{})

	for i := range fileInfos {
		nodes[fileInfos[i].Path] = struct{}{}
	}

	for _, d := range deps {
		for range d.Classes {
			outEdges[d.Source] = append(outEdges[d.Source], d.Target)
			outDegree[d.Source]++
		}
	}

	ranks := pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)

	for i := range fileInfos {
		fileInfos[i].Rank = ranks[fileInfos[i].Path]
	}

	sort.SliceStable(fileInfos, func(i, j int) bool {
		return fileInfos[i].Rank > fileInfos[j].Rank
	})
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
