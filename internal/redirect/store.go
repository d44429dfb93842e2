package redirect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/rasterandstate/majestic-canon/internal/fileutil"
	"github.com/rasterandstate/majestic-canon/internal/logging"
)

// documentVersion is the on-disk layout version of the redirect document.
const documentVersion = 1

const lockRetryDelay = 50 * time.Millisecond

// Document is the persisted form of a Table.
type Document struct {
	Version   int               `json:"version"`
	Redirects map[string]string `json:"redirects"`
}

// FileStore persists a Table at a fixed path. Writers in separate processes
// serialize on a lock file next to the document; callers sharing one store
// serialize on mu, since a flock.Flock already held by this store grants
// the lock again without blocking.
type FileStore struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *slog.Logger
}

// NewFileStore returns a store for the document at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "redirect"),
	}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document under a shared lock. A missing document yields an
// empty table.
func (s *FileStore) Load(ctx context.Context) (*Table, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire redirect read lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquire redirect read lock: not acquired")
	}
	defer s.unlock()

	return s.read()
}

// Update loads the document under an exclusive lock, applies fn and saves the
// result atomically. Nothing is written when fn fails.
func (s *FileStore) Update(ctx context.Context, fn func(*Table) error) (*Table, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire redirect lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquire redirect lock: not acquired")
	}
	defer s.unlock()

	table, err := s.read()
	if err != nil {
		return nil, err
	}
	before := table.Len()
	if err := fn(table); err != nil {
		return nil, err
	}
	if err := s.write(table); err != nil {
		return nil, err
	}

	s.logger.Debug("redirect table saved",
		logging.String("path", s.path),
		logging.Int("entry_count", table.Len()),
		logging.Int("added", table.Len()-before))
	return table, nil
}

func (s *FileStore) read() (*Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read redirect table: %w", err)
	}
	if len(data) == 0 {
		return New(), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse redirect table: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("redirect table version %d is newer than supported %d", doc.Version, documentVersion)
	}
	table, err := Load(doc.Redirects)
	if err != nil {
		logging.ErrorWithContext(s.logger, "redirect table is corrupt", "redirect_load_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "repair the listed chains by hand; nothing was truncated"))
		return nil, fmt.Errorf("load redirect table %s: %w", s.path, err)
	}
	return table, nil
}

func (s *FileStore) write(t *Table) error {
	doc := Document{Version: documentVersion, Redirects: t.Map()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal redirect table: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist redirect table: %w", err)
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create redirect directory: %w", err)
	}
	return nil
}

func (s *FileStore) unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release redirect lock",
			logging.String(logging.FieldEventType, "redirect_unlock_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the stale lock file if writers hang"),
			logging.String(logging.FieldImpact, "later writers may block"))
	}
}
