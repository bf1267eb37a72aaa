// Package cache persists parsed files in a bbolt database so unchanged files
// are not re-parsed between runs.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	"github.com/phobologic/docreflect/internal/discover"
	"github.com/phobologic/docreflect/internal/model"
)

// schemaVersion changes whenever the extracted FileInfo shape changes.
const schemaVersion = 2

var bucketFiles = []byte("files")

// Store is a file cache keyed by repository-relative path. An entry is
// valid only while the file's size and modification time are unchanged.
// It is safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

type record struct {
	Version int            `json:"version"`
	ModTime int64          `json:"mod_time"`
	Size    int64          `json:"size"`
	Info    model.FileInfo `json:"info"`
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFiles)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached FileInfo for entry when it is still fresh.
func (s *Store) Get(entry discover.FileEntry) (model.FileInfo, bool) {
	var rec record
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(entry.Path))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("path", entry.Path).Msg("cache read failed")
		return model.FileInfo{}, false
	}
	if !found || rec.Version != schemaVersion ||
		rec.Size != entry.Size || rec.ModTime != entry.ModTime.UnixNano() {
		log.Debug().Str("path", entry.Path).Msg("cache miss")
		return model.FileInfo{}, false
	}
	log.Debug().Str("path", entry.Path).Msg("cache hit")
	return rec.Info, true
}

// Put stores info for entry. Rank is not persisted.
func (s *Store) Put(entry discover.FileEntry, info model.FileInfo) error {
	info.Rank = 0
	data, err := json.Marshal(record{
		Version: schemaVersion,
		ModTime: entry.ModTime.UnixNano(),
		Size:    entry.Size,
		Info:    info,
	})
	if err != nil {
		return err
	}
	return s.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(entry.Path), data)
	})
}

// Prune removes every entry whose path is not in keep and returns how many
// were removed.
func (s *Store) Prune(keep []discover.FileEntry) (int, error) {
	live := make(map[string]struct{}, len(keep))
	for _, e := range keep {
		live[e.Path] = struct{}{}
	}

	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFiles)
		var stale [][]byte
		err := b.ForEach(func(k, _ []byte) error {
			if _, ok := live[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Len reports the number of cached files.
func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketFiles).Stats().KeyN
		return nil
	})
	return n
}
