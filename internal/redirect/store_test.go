package redirect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingDocumentIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "redirects.json"), nil)

	tbl, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestFileStoreUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.json")
	store := NewFileStore(path, nil)
	a, b, c := testID(3, "a"), testID(4, "b"), testID(4, "c")

	_, err := store.Update(context.Background(), func(tbl *Table) error { return tbl.Add(a, b) })
	require.NoError(t, err)
	_, err = store.Update(context.Background(), func(tbl *Table) error { return tbl.Add(b, c) })
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, map[string]string{a: c, b: c}, doc.Redirects)

	reloaded, err := NewFileStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, c, reloaded.Resolve(a))
}

func TestFileStoreFailedUpdateWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.json")
	store := NewFileStore(path, nil)
	a := testID(4, "a")

	_, err := store.Update(context.Background(), func(tbl *Table) error { return tbl.Add(a, a) })
	require.ErrorIs(t, err, ErrSelfRedirect)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "document must not be created by a failed update")
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.json")
	a, b := testID(4, "a"), testID(4, "b")
	doc := Document{Version: 1, Redirects: map[string]string{a: b, b: a}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = NewFileStore(path, nil).Load(context.Background())
	assert.ErrorIs(t, err, ErrCycle)
}

func TestFileStoreSerializesWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redirects.json")
	target := testID(4, "target")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate stores model separate processes sharing the lock file.
			store := NewFileStore(path, nil)
			from := testID(2, string(rune('a'+i)))
			if _, err := store.Update(context.Background(), func(tbl *Table) error {
				return tbl.Add(from, target)
			}); err != nil {
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	tbl, err := NewFileStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, tbl.Len())
}

func TestFileStoreSharedAcrossGoroutines(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "redirects.json"), nil)
	target := testID(4, "target")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := testID(2, fmt.Sprintf("shared-%d", i))
			if _, err := store.Update(context.Background(), func(tbl *Table) error {
				return tbl.Add(from, target)
			}); err != nil {
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	tbl, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, tbl.Len())
}
