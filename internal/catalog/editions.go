package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/logging"
	"github.com/rasterandstate/majestic-canon/internal/redirect"
)

// Submission is a validated edition together with the identity derived
// from it.
type Submission struct {
	ID        identity.ID
	Version   identity.Version
	Canonical []byte
	Edition   *edition.Edition
}

// Entry is one stored edition.
type Entry struct {
	ID          identity.ID
	HashVersion identity.Version
	Canonical   []byte
	Document    []byte
	UPC         string
	Publisher   string
	CommittedAt time.Time
	RetiredBy   identity.ID
	RetiredAt   *time.Time
}

// Retired reports whether the edition has been superseded.
func (e *Entry) Retired() bool {
	return e.RetiredBy != ""
}

// Edition decodes the stored document.
func (e *Entry) Edition() (*edition.Edition, error) {
	return edition.Decode(e.Document)
}

// Redirects persists redirect table updates. *redirect.FileStore satisfies
// it.
type Redirects interface {
	Update(ctx context.Context, fn func(*redirect.Table) error) (*redirect.Table, error)
}

const entryColumns = `edition_id, hash_version, canonical, document, upc, publisher, committed_at, retired_by, retired_at`

// Commit stores sub. Committing an identity that already exists is a no-op
// and reports created=false. The canonical bytes must hash to sub.ID.
func (s *Store) Commit(ctx context.Context, sub Submission) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := s.insert(ctx, tx, sub)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit edition: %w", err)
	}
	if created {
		s.logger.Info("edition committed",
			logging.String(logging.FieldEditionID, string(sub.ID)),
			logging.String(logging.FieldHashVersion, sub.Version.String()))
	}
	return created, nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, sub Submission) (bool, error) {
	if err := checkSubmission(sub); err != nil {
		return false, err
	}
	document, err := edition.Encode(sub.Edition)
	if err != nil {
		return false, fmt.Errorf("encode edition: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO editions (
            edition_id, digest, hash_version, canonical, document, upc, publisher, committed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(edition_id) DO NOTHING`,
		string(sub.ID),
		sub.ID.Hex(),
		int(sub.Version),
		string(sub.Canonical),
		string(document),
		nullableString(edition.NormalizeUPC(sub.Edition.UPC)),
		strings.TrimSpace(sub.Edition.Publisher),
		s.timestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("insert edition: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

func checkSubmission(sub Submission) error {
	if sub.Edition == nil {
		return errors.New("submission has no edition")
	}
	if _, err := identity.ParseID(string(sub.ID)); err != nil {
		return err
	}
	if sub.ID.Version() != sub.Version {
		return fmt.Errorf("%w: id %s does not carry hash version %s", ErrIntegrity, sub.ID, sub.Version)
	}
	derived, err := identity.Derive(sub.Canonical, sub.Version)
	if err != nil {
		return err
	}
	if derived != sub.ID {
		return fmt.Errorf("%w: canonical bytes hash to %s, not %s", ErrIntegrity, derived, sub.ID)
	}
	return nil
}

// Get returns the edition stored under id.
func (s *Store) Get(ctx context.Context, id identity.ID) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM editions WHERE edition_id = ?`, string(id))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get edition: %w", err)
	}
	return entry, nil
}

// Lookup resolves id through redirects and returns the current edition. A
// retired id never reports not-found while its replacement exists.
func (s *Store) Lookup(ctx context.Context, id identity.ID, redirects *redirect.Table) (*Entry, error) {
	current := id
	if redirects != nil {
		current = identity.ID(redirects.Resolve(string(id)))
	}
	entry, err := s.Get(ctx, current)
	if err != nil {
		return nil, err
	}
	if entry.Retired() {
		// The redirect document lags the catalog; follow the stored pointer.
		return s.Get(ctx, entry.RetiredBy)
	}
	return entry, nil
}

// FindByUPC returns every stored edition carrying upc, oldest first.
func (s *Store) FindByUPC(ctx context.Context, upc string) ([]*Entry, error) {
	upc = edition.NormalizeUPC(upc)
	if upc == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM editions WHERE upc = ? ORDER BY committed_at, edition_id`, upc)
	if err != nil {
		return nil, fmt.Errorf("find by upc: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// List returns stored editions ordered by commit time. Retired editions are
// included only when includeRetired is set.
func (s *Store) List(ctx context.Context, includeRetired bool) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM editions`
	if !includeRetired {
		query += ` WHERE retired_by IS NULL`
	}
	query += ` ORDER BY committed_at, edition_id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Supersede commits replacement, retires old in its favor and records the
// redirect. The catalog change is rolled back when the redirect cannot be
// written, and the redirect is withdrawn when the catalog commit fails.
func (s *Store) Supersede(ctx context.Context, old identity.ID, replacement Submission, redirects Redirects) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.insert(ctx, tx, replacement); err != nil {
		return err
	}
	if err := s.retire(ctx, tx, old, replacement.ID); err != nil {
		return err
	}
	var formerly []string
	if redirects != nil {
		if _, err := redirects.Update(ctx, func(t *redirect.Table) error {
			formerly = t.Pointing(string(old))
			return t.Add(string(old), string(replacement.ID))
		}); err != nil {
			return fmt.Errorf("record redirect: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		err = fmt.Errorf("commit supersede: %w", err)
		if redirects != nil {
			err = s.withdrawRedirect(ctx, redirects, old, formerly, err)
		}
		return err
	}

	s.logger.Info("edition superseded",
		logging.String("retired", string(old)),
		logging.String(logging.FieldEditionID, string(replacement.ID)))
	return nil
}

// withdrawRedirect undoes the redirect recorded for old after the catalog
// commit failed. cause is returned, joined with any failure to undo.
func (s *Store) withdrawRedirect(ctx context.Context, redirects Redirects, old identity.ID, formerly []string, cause error) error {
	_, err := redirects.Update(context.WithoutCancel(ctx), func(t *redirect.Table) error {
		t.Unretire(string(old), formerly)
		return nil
	})
	if err == nil {
		return cause
	}
	logging.ErrorWithContext(s.logger, "redirect left pointing at an uncommitted edition", "supersede_redirect_orphaned",
		logging.String("retired", string(old)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "remove the entry for the retired id from the redirect table by hand"))
	return errors.Join(cause, fmt.Errorf("withdraw redirect: %w", err))
}

// retire marks old as superseded by replacement and repoints every edition
// previously retired into old, mirroring redirect flattening.
func (s *Store) retire(ctx context.Context, tx *sql.Tx, old, replacement identity.ID) error {
	if old == replacement {
		return fmt.Errorf("%w: %s", redirect.ErrSelfRedirect, old)
	}
	var retiredBy sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT retired_by FROM editions WHERE edition_id = ?`, string(old)).Scan(&retiredBy)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, old)
	}
	if err != nil {
		return fmt.Errorf("read edition: %w", err)
	}
	if retiredBy.Valid {
		return fmt.Errorf("%w: %s by %s", ErrAlreadyRetired, old, retiredBy.String)
	}

	ts := s.timestamp()
	if _, err := tx.ExecContext(ctx,
		`UPDATE editions SET retired_by = ?, retired_at = ? WHERE edition_id = ?`,
		string(replacement), ts, string(old)); err != nil {
		return fmt.Errorf("retire edition: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE editions SET retired_by = ? WHERE retired_by = ?`,
		string(replacement), string(old)); err != nil {
		return fmt.Errorf("repoint retired editions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry       Entry
		id          string
		version     int
		canonical   string
		document    string
		upc         sql.NullString
		committedAt string
		retiredBy   sql.NullString
		retiredAt   sql.NullString
	)
	if err := row.Scan(&id, &version, &canonical, &document, &upc, &entry.Publisher, &committedAt, &retiredBy, &retiredAt); err != nil {
		return nil, err
	}
	entry.ID = identity.ID(id)
	entry.HashVersion = identity.Version(version)
	entry.Canonical = []byte(canonical)
	entry.Document = []byte(document)
	entry.UPC = upc.String
	entry.CommittedAt = parseTime(committedAt)
	if retiredBy.Valid {
		entry.RetiredBy = identity.ID(retiredBy.String)
	}
	if retiredAt.Valid {
		t := parseTime(retiredAt.String)
		entry.RetiredAt = &t
	}
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var out []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edition: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate editions: %w", err)
	}
	return out, nil
}
