// Package history tracks the URLs previous runs already reported, so the same
// story never appears in two reports inside the retention window.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Window is the retention period; URLs older than this are eligible to
// reappear as new.
const Window = 7 * 24 * time.Hour

// HistoryFile is the local backend's file name inside the output directory.
const HistoryFile = "processed_urls.json"

// Store is a durable set of previously-seen URLs.
type Store interface {
	// Load returns the URLs seen within the retention window.
	Load(ctx context.Context) (map[string]struct{}, error)
	// Save merges the URLs, timestamped now, into storage and prunes expired
	// entries.
	Save(ctx context.Context, urls map[string]struct{}) error
}

// FileStore persists a URL -> Unix-seconds map as JSON in a local directory.
// An unreadable or corrupt file counts as empty history; it is never an
// error.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, HistoryFile)
}

func (s *FileStore) read() map[string]float64 {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return map[string]float64{}
	}
	var entries map[string]float64
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return map[string]float64{}
	}
	return entries
}

// Load returns the unexpired URLs. Expired entries are filtered out here and
// physically removed on the next Save.
func (s *FileStore) Load(_ context.Context) (map[string]struct{}, error) {
	cutoff := float64(time.Now().Add(-Window).Unix())

	urls := make(map[string]struct{})
	for url, ts := range s.read() {
		if ts > cutoff {
			urls[url] = struct{}{}
		}
	}
	return urls, nil
}

// Save merges urls into the existing file, prunes entries older than the
// window, and rewrites the whole map.
func (s *FileStore) Save(_ context.Context, urls map[string]struct{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	entries := s.read()
	now := float64(time.Now().Unix())
	for url := range urls {
		entries[url] = now
	}

	cutoff := now - Window.Seconds()
	for url, ts := range entries {
		if ts <= cutoff {
			delete(entries, url)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// URLLister is the read side of a remote table holding exported items.
type URLLister interface {
	ListURLs(ctx context.Context) (map[string]struct{}, error)
}

// RemoteStore reads history from a remote table. Save is a no-op: rows are
// appended through the export path, so saving here would double-write.
// A failing remote degrades to empty history; the caller records the error
// as a warning and the run continues.
type RemoteStore struct {
	lister URLLister
}

// NewRemoteStore wraps a remote URL lister.
func NewRemoteStore(lister URLLister) *RemoteStore {
	return &RemoteStore{lister: lister}
}

func (s *RemoteStore) Load(ctx context.Context) (map[string]struct{}, error) {
	urls, err := s.lister.ListURLs(ctx)
	if err != nil {
		return map[string]struct{}{}, fmt.Errorf("load remote history: %w", err)
	}
	return urls, nil
}

func (s *RemoteStore) Save(context.Context, map[string]struct{}) error {
	return nil
}
