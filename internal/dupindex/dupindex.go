package dupindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docket/internal/fileutil"
	"docket/internal/logging"
	"docket/internal/sidecar"
	"docket/internal/taxonomy"
)

// RelPath locates the index document under the library root.
var RelPath = filepath.Join(".docket", "dupindex.json")

// Index is the content-addressed duplicate registry: hex SHA-256 over raw
// file bytes mapped to a library-relative destination path. It is persisted
// as a single JSON document, lazily loaded once per process, and rewritten
// wholesale after each Record.
type Index struct {
	root   string
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]string
	loaded  bool
}

// New creates an index for the given library root.
func New(root string, logger *slog.Logger) *Index {
	return &Index{
		root:   root,
		path:   filepath.Join(root, RelPath),
		logger: logging.NewComponentLogger(logger, "dupindex"),
	}
}

// Path returns the absolute location of the index document.
func (i *Index) Path() string {
	return i.path
}

// Lookup returns the library-relative path previously recorded for a hash.
func (i *Index) Lookup(hash string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureLoaded(); err != nil {
		return "", false, err
	}
	path, ok := i.entries[hash]
	return path, ok, nil
}

// Record registers a hash against a library-relative path and rewrites the
// persisted document.
func (i *Index) Record(hash, relPath string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureLoaded(); err != nil {
		return err
	}
	i.entries[hash] = filepath.ToSlash(relPath)
	return i.saveLocked()
}

// Len reports the number of recorded entries.
func (i *Index) Len() (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(i.entries), nil
}

// Rebuild walks the library tree, hashes every regular document, and
// replaces the persisted mapping wholesale. Sidecars, the index itself, the
// persisted taxonomy document, and dot-directories are skipped. It returns
// how many entries were added relative to the previous mapping and how many
// stale entries were dropped.
func (i *Index) Rebuild(ctx context.Context) (added, removed int, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureLoaded(); err != nil {
		return 0, 0, err
	}

	fresh := make(map[string]string)
	walkErr := filepath.WalkDir(i.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != i.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if skipFile(name) {
			return nil
		}

		hash, hashErr := fileutil.HashFile(path)
		if hashErr != nil {
			i.logger.Warn("skipping unreadable file during rebuild",
				logging.String("path", path), logging.Error(hashErr))
			return nil
		}
		rel, relErr := filepath.Rel(i.root, path)
		if relErr != nil {
			return relErr
		}
		fresh[hash] = filepath.ToSlash(rel)
		return nil
	})
	if walkErr != nil {
		return 0, 0, fmt.Errorf("rebuild walk: %w", walkErr)
	}

	for hash := range fresh {
		if _, existed := i.entries[hash]; !existed {
			added++
		}
	}
	for hash := range i.entries {
		if _, still := fresh[hash]; !still {
			removed++
		}
	}

	i.entries = fresh
	if err := i.saveLocked(); err != nil {
		return 0, 0, err
	}

	i.logger.Info("duplicate index rebuilt",
		logging.Int("entries", len(fresh)),
		logging.Int("added", added),
		logging.Int("removed", removed))
	return added, removed, nil
}

// ensureLoaded lazily reads the persisted document. A missing, corrupt, or
// unreadable document is treated as an empty index, never fatal; Rebuild is
// the recovery path.
func (i *Index) ensureLoaded() error {
	if i.loaded {
		return nil
	}
	i.entries = make(map[string]string)
	i.loaded = true

	data, err := os.ReadFile(i.path)
	if err != nil {
		if !os.IsNotExist(err) {
			i.logger.Warn("duplicate index unreadable, starting empty", logging.Error(err))
		}
		return nil
	}
	if err := json.Unmarshal(data, &i.entries); err != nil {
		i.logger.Warn("duplicate index corrupt, starting empty", logging.Error(err))
		i.entries = make(map[string]string)
	}
	return nil
}

func (i *Index) saveLocked() error {
	// encoding/json writes map keys in sorted order, so the document is
	// already deterministic.
	data, err := json.MarshalIndent(i.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode duplicate index: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(i.path, append(data, '\n')); err != nil {
		return fmt.Errorf("write duplicate index: %w", err)
	}
	return nil
}

func skipFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if strings.HasSuffix(name, sidecar.Suffix) {
		return true
	}
	return name == filepath.Base(taxonomy.JdexRelPath)
}
