// Package discover finds parseable source files in a repository.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/docreflect/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to repo root, slash separated
	Language string
	Size     int64
	ModTime  time.Time
}

// Options narrows discovery. Patterns are doublestar globs matched against
// slash-separated paths relative to the root.
type Options struct {
	Includes    []string
	Excludes    []string
	MaxFileSize int64 // 0 means no limit
	SkipTests   bool
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"build":        {},
	"dist":         {},
	"cache":        {},
}

// Files discovers parseable source files under root. Inside a git work tree
// only tracked and untracked-but-not-ignored files are considered; elsewhere
// the root .gitignore, if any, is honoured.
func Files(root string, opts Options) ([]FileEntry, error) {
	for _, p := range append(append([]string(nil), opts.Includes...), opts.Excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}

	gitFiles := gitListFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}

		if !opts.selects(rel) || (opts.SkipTests && IsTestFile(rel)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			log.Debug().Str("path", rel).Int64("size", info.Size()).Msg("skipping large file")
			return nil
		}

		results = append(results, FileEntry{
			Path:     rel,
			Language: langName,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

var testDirs = map[string]struct{}{
	"test":     {},
	"tests":    {},
	"Test":     {},
	"Tests":    {},
	"fixtures": {},
}

// IsTestFile reports whether a slash-separated path looks like test code:
// anything under a test directory, or a PHPUnit-style *Test.php file.
func IsTestFile(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}
	base := strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(rel))
	return strings.HasSuffix(base, "Test") && base != "Test"
}

func (o Options) selects(rel string) bool {
	if len(o.Includes) > 0 && !matchAny(o.Includes, rel) {
		return false
	}
	return !matchAny(o.Excludes, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// gitListFiles returns the files git would list with
// `ls-files --cached --others --exclude-standard`, or nil when root is not
// the top of a work tree.
func gitListFiles(root string) map[string]struct{} {
	repo, err := git.PlainOpen(root)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			log.Debug().Err(err).Str("root", root).Msg("opening git repository")
		}
		return nil
	}

	files := make(map[string]struct{})

	idx, err := repo.Storer.Index()
	if err != nil {
		log.Debug().Err(err).Msg("reading git index")
		return nil
	}
	for _, e := range idx.Entries {
		files[e.Name] = struct{}{}
	}

	wt, err := repo.Worktree()
	if err != nil {
		return files
	}
	status, err := wt.Status()
	if err != nil {
		log.Debug().Err(err).Msg("reading git status")
		return files
	}
	for path, s := range status {
		if s.Worktree == git.Untracked {
			files[path] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
