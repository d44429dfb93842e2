package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rasterandstate/majestic-canon/internal/fileutil"
	"github.com/rasterandstate/majestic-canon/internal/logging"
)

// Export writes each current edition document to dir as <hex>.json, the
// persisted layout named by identity digest. It returns the number written.
func (s *Store) Export(ctx context.Context, dir string) (int, error) {
	entries, err := s.List(ctx, false)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.ID.Hex()+".json")
		if err := fileutil.WriteFileAtomic(path, entry.Document, 0o644); err != nil {
			return 0, fmt.Errorf("export %s: %w", entry.ID, err)
		}
	}
	s.logger.Info("catalog exported", logging.String("dir", dir), logging.Int("editions", len(entries)))
	return len(entries), nil
}
