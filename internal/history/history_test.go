package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"newsagent/internal/history"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := history.NewFileStore(dir)
	ctx := context.Background()

	err := store.Save(ctx, map[string]struct{}{
		"https://ex.com/a": {},
		"https://ex.com/b": {},
	})
	require.NoError(t, err)

	urls, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Contains(t, urls, "https://ex.com/a")
	require.Contains(t, urls, "https://ex.com/b")
}

func TestFileStoreExpiry(t *testing.T) {
	dir := t.TempDir()
	stale := float64(time.Now().Add(-history.Window - time.Hour).Unix())
	fresh := float64(time.Now().Unix())

	writeHistory(t, dir, map[string]float64{
		"https://ex.com/stale": stale,
		"https://ex.com/fresh": fresh,
	})

	store := history.NewFileStore(dir)
	urls, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.Contains(t, urls, "https://ex.com/fresh")
}

func TestFileStoreSavePrunesExpired(t *testing.T) {
	dir := t.TempDir()
	stale := float64(time.Now().Add(-history.Window - time.Hour).Unix())
	writeHistory(t, dir, map[string]float64{"https://ex.com/stale": stale})

	store := history.NewFileStore(dir)
	err := store.Save(context.Background(), map[string]struct{}{"https://ex.com/new": {}})
	require.NoError(t, err)

	require.Equal(t, []string{"https://ex.com/new"}, storedURLs(t, dir))
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, history.HistoryFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := history.NewFileStore(dir)
	urls, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, urls)

	// Save over the corrupt file must also work.
	err = store.Save(context.Background(), map[string]struct{}{"https://ex.com/a": {}})
	require.NoError(t, err)
	require.Equal(t, []string{"https://ex.com/a"}, storedURLs(t, dir))
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := history.NewFileStore(t.TempDir())
	urls, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, urls)
}

type fakeLister struct {
	urls map[string]struct{}
	err  error
}

func (f *fakeLister) ListURLs(context.Context) (map[string]struct{}, error) {
	return f.urls, f.err
}

func TestRemoteStoreLoad(t *testing.T) {
	store := history.NewRemoteStore(&fakeLister{urls: map[string]struct{}{"https://ex.com/a": {}}})
	urls, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, urls, "https://ex.com/a")
}

func TestRemoteStoreDegradesToEmpty(t *testing.T) {
	store := history.NewRemoteStore(&fakeLister{err: errors.New("boom")})
	urls, err := store.Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, urls)
	require.Empty(t, urls)
}

func TestRemoteStoreSaveIsNoop(t *testing.T) {
	store := history.NewRemoteStore(&fakeLister{})
	require.NoError(t, store.Save(context.Background(), map[string]struct{}{"x": {}}))
}

func writeHistory(t *testing.T, dir string, entries map[string]float64) {
	t.Helper()
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, history.HistoryFile), data, 0o644))
}

func storedURLs(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, history.HistoryFile))
	require.NoError(t, err)
	var entries map[string]float64
	require.NoError(t, json.Unmarshal(data, &entries))
	urls := make([]string, 0, len(entries))
	for url := range entries {
		urls = append(urls, url)
	}
	return urls
}
