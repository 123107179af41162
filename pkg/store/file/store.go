// Package file provides a file-based implementation of store.DocumentStore.
// Each document is a file under a root directory; the key is its slash
// separated path relative to that root.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/renameio"

	"github.com/getmockd/mockapi/pkg/store"
)

const (
	dirMode  os.FileMode = 0700
	fileMode os.FileMode = 0600
)

// Config configures a FileStore.
type Config struct {
	// Dir is the root directory. Empty means store.DefaultDataDir().
	Dir string
	// ReadOnly rejects Put and Delete with store.ErrReadOnly.
	ReadOnly bool
}

// FileStore implements store.DocumentStore on the local filesystem.
// Writes go through a temp file in the target directory followed by an
// atomic rename, so readers never observe a partially written document.
type FileStore struct {
	cfg Config
	log *slog.Logger
}

// New creates a new FileStore with the given configuration.
func New(cfg Config) *FileStore {
	if cfg.Dir == "" {
		cfg.Dir = store.DefaultDataDir()
	}
	return &FileStore{cfg: cfg, log: slog.Default()}
}

// SetLogger sets the operational logger.
func (s *FileStore) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.cfg.Dir
}

// Open creates the root directory if needed.
func (s *FileStore) Open(_ context.Context) error {
	if s.cfg.ReadOnly {
		return nil
	}
	if err := os.MkdirAll(s.cfg.Dir, dirMode); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func (s *FileStore) pathFor(key string) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%q: %w", key, err)
	}
	return filepath.Join(s.cfg.Dir, filepath.FromSlash(key)), nil
}

// Get reads the document stored under key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes the document atomically, creating parent directories.
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	if s.cfg.ReadOnly {
		return store.ErrReadOnly
	}
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := writeFileAtomically(p, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func writeFileAtomically(fpath string, data []byte) error {
	dir := filepath.Dir(fpath)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	t, err := renameio.TempFile(dir, fpath)
	if err != nil {
		return err
	}
	defer func() {
		_ = t.Cleanup()
	}()
	if err := t.Chmod(fileMode); err != nil {
		return err
	}
	w := bufio.NewWriter(t)
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

// Delete removes the document and any directories it leaves empty,
// up to but excluding the root.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if s.cfg.ReadOnly {
		return store.ErrReadOnly
	}
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.pruneEmptyDirs(path.Dir(key))
	return nil
}

func (s *FileStore) pruneEmptyDirs(dir string) {
	for dir != "." && dir != "/" && dir != "" {
		full := filepath.Join(s.cfg.Dir, filepath.FromSlash(dir))
		entries, err := os.ReadDir(full)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(full); err != nil {
			s.log.Debug("failed to remove empty directory", "dir", full, "error", err)
			return
		}
		dir = path.Dir(dir)
	}
}

// List returns the sorted keys starting with prefix. Hidden files, such as
// in-flight temp files, are skipped.
func (s *FileStore) List(_ context.Context, prefix string) ([]string, error) {
	// Walk only the deepest directory fully named by the prefix.
	base := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		base = prefix[:i]
	}
	root := s.cfg.Dir
	if base != "" {
		if err := store.ValidateKey(base); err != nil {
			return []string{}, nil
		}
		root = filepath.Join(root, filepath.FromSlash(base))
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if hidden(m) {
			continue
		}
		key := m
		if base != "" {
			key = base + "/" + m
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// Ensure FileStore implements store.DocumentStore.
var _ store.DocumentStore = (*FileStore)(nil)
