package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docreflect/internal/cache"
	"github.com/phobologic/docreflect/internal/config"
	"github.com/phobologic/docreflect/internal/discover"
	"github.com/phobologic/docreflect/internal/graph"
	"github.com/phobologic/docreflect/internal/lang"
	"github.com/phobologic/docreflect/internal/model"
	"github.com/phobologic/docreflect/internal/parse"
)

var errNoFiles = errors.New("no parseable files found")

// scanOptions tune a single scan on top of the configuration.
type scanOptions struct {
	progress bool
	stderr   io.Writer
}

// scanRepo discovers and parses every PHP file under root, serving unchanged
// files from the cache when it is enabled.
func scanRepo(ctx context.Context, root string, cfg *config.Config, opts scanOptions) ([]model.FileInfo, error) {
	files, err := discover.Files(root, discover.Options{
		Includes:    cfg.Scan.Includes,
		Excludes:    cfg.Scan.Excludes,
		MaxFileSize: cfg.Scan.MaxFileSize,
		SkipTests:   cfg.Scan.SkipTests,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, errNoFiles
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.CachePath(root))
		if err != nil {
			log.Warn().Err(err).Msg("cache disabled")
		} else {
			defer store.Close()
		}
	}

	var bar *progressbar.ProgressBar
	if opts.progress && opts.stderr != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(opts.stderr),
			progressbar.OptionSetDescription("parsing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	fileInfos, err := parseFilesConcurrent(ctx, root, files, cfg.Scan.Workers, store, bar)
	if err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if len(fileInfos) == 0 {
		return nil, fmt.Errorf("no files could be parsed")
	}

	if store != nil {
		if n, err := store.Prune(files); err != nil {
			log.Warn().Err(err).Msg("pruning cache")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("pruned cache")
		}
	}
	return fileInfos, nil
}

// buildRepoMap links and ranks parsed files.
func buildRepoMap(root string, fileInfos []model.FileInfo) *model.RepoMap {
	deps := graph.BuildGraph(fileInfos)
	graph.Rank(fileInfos, deps)

	return &model.RepoMap{
		RepoName:     filepath.Base(root),
		Root:         filepath.Base(root),
		Files:        fileInfos,
		Dependencies: deps,
		Relations:    graph.BuildRelations(fileInfos),
	}
}

func parseFilesConcurrent(
	ctx context.Context,
	root string,
	files []discover.FileEntry,
	workers int,
	store *cache.Store,
	bar *progressbar.ProgressBar,
) ([]model.FileInfo, error) {
	type result struct {
		index int
		info  model.FileInfo
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	numWorkers = min(numWorkers, len(files))

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser per language.
			parsers := make(map[string]*sitter.Parser)
			defer func() {
				for _, p := range parsers {
					p.Close()
				}
			}()

			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				f := files[idx]
				info, ok := parseOne(ctx, root, f, parsers, store)
				if bar != nil {
					_ = bar.Add(1)
				}
				if ok {
					results <- result{index: idx, info: info}
				}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]model.FileInfo, len(files))
	valid := make([]bool, len(files))
	for r := range results {
		indexed[r.index] = r.info
		valid[r.index] = true
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fileInfos []model.FileInfo
	for i, v := range valid {
		if v {
			fileInfos = append(fileInfos, indexed[i])
		}
	}
	return fileInfos, nil
}

func parseOne(
	ctx context.Context,
	root string,
	f discover.FileEntry,
	parsers map[string]*sitter.Parser,
	store *cache.Store,
) (model.FileInfo, bool) {
	if store != nil {
		if info, ok := store.Get(f); ok {
			return info, true
		}
	}

	p, ok := parsers[f.Language]
	if !ok {
		l, known := lang.Languages[f.Language]
		if !known {
			log.Warn().Str("path", f.Path).Str("language", f.Language).Msg("no parser for language")
			return model.FileInfo{}, false
		}
		p = l.NewParser()
		parsers[f.Language] = p
	}

	source, err := os.ReadFile(filepath.Join(root, f.Path))
	if err != nil {
		log.Warn().Err(err).Str("path", f.Path).Msg("failed to read")
		return model.FileInfo{}, false
	}

	info, err := parse.ExtractFile(ctx, p, source, f.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", f.Path).Msg("failed to parse")
		return model.FileInfo{}, false
	}

	if store != nil {
		if err := store.Put(f, info); err != nil {
			log.Debug().Err(err).Str("path", f.Path).Msg("cache write failed")
		}
	}
	return info, true
}
