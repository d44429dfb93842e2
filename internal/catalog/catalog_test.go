package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rasterandstate/majestic-canon/internal/canon"
	"github.com/rasterandstate/majestic-canon/internal/catalog"
	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/gs1"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/redirect"
	"github.com/rasterandstate/majestic-canon/internal/testsupport"
)

func submission(t *testing.T, e *edition.Edition) catalog.Submission {
	t.Helper()
	canonical, err := canon.Canonicalize(e, identity.Current, nil)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	id, err := identity.Derive(canonical, identity.Current)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	return catalog.Submission{ID: id, Version: identity.Current, Canonical: canonical, Edition: e}
}

func TestCommitAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	sub := submission(t, testsupport.NewEdition(testsupport.WithUPC("071551509912")))
	created, err := store.Commit(ctx, sub)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !created {
		t.Fatal("expected first commit to create the edition")
	}
	created, err = store.Commit(ctx, sub)
	if err != nil || created {
		t.Fatalf("expected idempotent recommit, got created=%v err=%v", created, err)
	}

	entry, err := store.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.HashVersion != identity.Current || string(entry.Canonical) != string(sub.Canonical) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.UPC != "071551509912" || entry.Publisher != "criterion" {
		t.Fatalf("unexpected indexed fields upc=%q publisher=%q", entry.UPC, entry.Publisher)
	}
	decoded, err := entry.Edition()
	if err != nil {
		t.Fatalf("decode stored document: %v", err)
	}
	if decoded.ReleaseYear != 2022 || len(decoded.Discs) != 2 {
		t.Fatalf("stored document lost data: %+v", decoded)
	}

	byUPC, err := store.FindByUPC(ctx, "0-71551-50991-2")
	if err != nil || len(byUPC) != 1 {
		t.Fatalf("FindByUPC = %v, %v", byUPC, err)
	}
}

func TestCommitRejectsMismatchedIdentity(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	sub := submission(t, testsupport.NewEdition())
	sub.Canonical = append([]byte(nil), sub.Canonical...)
	sub.Canonical[len(sub.Canonical)-2] = 'X'

	if _, err := store.Commit(context.Background(), sub); !errors.Is(err, catalog.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestGetMissingReportsNotFound(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	sub := submission(t, testsupport.NewEdition())
	if _, err := store.Get(context.Background(), sub.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSupersedeResolvesThroughRedirects(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	redirects := redirect.NewFileStore(cfg.Paths.RedirectTable, nil)
	ctx := context.Background()

	first := submission(t, testsupport.NewEdition())
	second := submission(t, testsupport.NewEdition(testsupport.WithUPC("071551509912")))
	third := submission(t, testsupport.NewEdition(testsupport.WithUPC("071551509912"), testsupport.WithPublisher("arrow")))

	if _, err := store.Commit(ctx, first); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := store.Supersede(ctx, first.ID, second, redirects); err != nil {
		t.Fatalf("Supersede first failed: %v", err)
	}
	if err := store.Supersede(ctx, second.ID, third, redirects); err != nil {
		t.Fatalf("Supersede second failed: %v", err)
	}

	table, err := redirects.Load(ctx)
	if err != nil {
		t.Fatalf("load redirects: %v", err)
	}
	for _, id := range []identity.ID{first.ID, second.ID, third.ID} {
		entry, err := store.Lookup(ctx, id, table)
		if err != nil {
			t.Fatalf("Lookup(%s) failed: %v", id, err)
		}
		if entry.ID != third.ID {
			t.Fatalf("Lookup(%s) = %s, want %s", id, entry.ID, third.ID)
		}
	}

	firstEntry, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get retired: %v", err)
	}
	if firstEntry.RetiredBy != third.ID {
		t.Fatalf("retired_by not flattened: %s", firstEntry.RetiredBy)
	}

	// Without the redirect document the stored pointer still resolves.
	entry, err := store.Lookup(ctx, first.ID, nil)
	if err != nil || entry.ID != third.ID {
		t.Fatalf("Lookup without redirects = %v, %v", entry, err)
	}

	current, err := store.List(ctx, false)
	if err != nil || len(current) != 1 {
		t.Fatalf("List current = %d entries, %v", len(current), err)
	}

	if err := store.Supersede(ctx, first.ID, third, redirects); !errors.Is(err, catalog.ErrAlreadyRetired) {
		t.Fatalf("expected ErrAlreadyRetired, got %v", err)
	}
}

type failingRedirects struct{}

func (failingRedirects) Update(context.Context, func(*redirect.Table) error) (*redirect.Table, error) {
	return nil, errors.New("disk full")
}

func TestSupersedeRollsBackWhenRedirectFails(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	first := submission(t, testsupport.NewEdition())
	second := submission(t, testsupport.NewEdition(testsupport.WithPublisher("arrow")))

	if _, err := store.Commit(ctx, first); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := store.Supersede(ctx, first.ID, second, failingRedirects{}); err == nil {
		t.Fatal("expected redirect failure")
	}
	entry, err := store.Get(ctx, first.ID)
	if err != nil || entry.Retired() {
		t.Fatalf("expected first edition untouched, got %+v, %v", entry, err)
	}
	if _, err := store.Get(ctx, second.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected replacement rolled back, got %v", err)
	}
}

// cancelAfterUpdate records the redirect, then cancels the supersede context
// so the catalog commit fails.
type cancelAfterUpdate struct {
	store  *redirect.FileStore
	cancel context.CancelFunc
	calls  int
}

func (c *cancelAfterUpdate) Update(ctx context.Context, fn func(*redirect.Table) error) (*redirect.Table, error) {
	c.calls++
	tbl, err := c.store.Update(ctx, fn)
	if c.calls == 1 {
		c.cancel()
	}
	return tbl, err
}

func TestSupersedeWithdrawsRedirectWhenCommitFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	redirects := redirect.NewFileStore(cfg.Paths.RedirectTable, nil)

	zero := submission(t, testsupport.NewEdition(testsupport.WithMovies(7)))
	first := submission(t, testsupport.NewEdition())
	second := submission(t, testsupport.NewEdition(testsupport.WithPublisher("arrow")))
	if _, err := store.Commit(context.Background(), zero); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := store.Supersede(context.Background(), zero.ID, first, redirects); err != nil {
		t.Fatalf("Supersede failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	failing := &cancelAfterUpdate{store: redirects, cancel: cancel}
	if err := store.Supersede(ctx, first.ID, second, failing); err == nil {
		t.Fatal("expected commit failure")
	}
	if failing.calls != 2 {
		t.Fatalf("expected the redirect to be withdrawn, got %d updates", failing.calls)
	}

	table, err := redirects.Load(context.Background())
	if err != nil {
		t.Fatalf("load redirects: %v", err)
	}
	if table.Retired(string(first.ID)) {
		t.Fatal("expected first edition to stay current in the redirect table")
	}
	if got := table.Resolve(string(zero.ID)); got != string(first.ID) {
		t.Fatalf("earlier redirect = %s, want %s", got, first.ID)
	}
	if _, err := store.Get(context.Background(), second.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected replacement not committed, got %v", err)
	}
}

func TestPrefixHistoryIsAppendOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	retiredAt := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.AppendPrefixes(ctx,
		gs1.Record{Prefix: "0760137", CompanyName: "Previous Holder", ValidTo: &retiredAt},
		gs1.Record{Prefix: "0760137", CompanyName: "Arrow Films", PublisherID: "arrow", ValidFrom: retiredAt},
	); err != nil {
		t.Fatalf("AppendPrefixes failed: %v", err)
	}
	if err := store.AppendPrefixes(ctx, gs1.Record{Prefix: "bad"}); err == nil {
		t.Fatal("expected invalid prefix to be rejected")
	}

	reg, err := store.LoadRegistry(ctx)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", reg.Len())
	}
	if got := reg.Resolve("0760137000001", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); got.PublisherID != "arrow" {
		t.Fatalf("Resolve current = %+v", got)
	}
	if got := reg.Resolve("0760137000001", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)); got.CompanyName != "Previous Holder" {
		t.Fatalf("Resolve historical = %+v", got)
	}

	db, err := sql.Open("sqlite", cfg.Paths.CatalogDB)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE gs1_prefixes SET company_name = 'x'`); err == nil {
		t.Fatal("expected update to be rejected")
	}
	if _, err := db.Exec(`DELETE FROM gs1_prefixes`); err == nil {
		t.Fatal("expected delete to be rejected")
	}
}

func TestVerifyIntegrityFlagsTampering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	ctx := context.Background()

	good := submission(t, testsupport.NewEdition())
	bad := submission(t, testsupport.NewEdition(testsupport.WithPublisher("arrow")))
	for _, sub := range []catalog.Submission{good, bad} {
		if _, err := store.Commit(ctx, sub); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	problems, err := store.VerifyIntegrity(ctx, nil)
	if err != nil || len(problems) != 0 {
		t.Fatalf("expected clean catalog, got %v, %v", problems, err)
	}

	db, err := sql.Open("sqlite", cfg.Paths.CatalogDB)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE editions SET document = replace(document, '"arrow"', '"kino"') WHERE edition_id = ?`, string(bad.ID)); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	problems, err = store.VerifyIntegrity(ctx, nil)
	if err != nil {
		t.Fatalf("VerifyIntegrity failed: %v", err)
	}
	if len(problems) != 1 || problems[0].ID != bad.ID || problems[0].Kind != catalog.ProblemCanonical {
		t.Fatalf("unexpected problems %v", problems)
	}
}

func TestExportNamesDocumentsByDigest(t *testing.T) {
	store := testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
	ctx := context.Background()
	sub := submission(t, testsupport.NewEdition())
	if _, err := store.Commit(ctx, sub); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	dir := t.TempDir()
	n, err := store.Export(ctx, dir)
	if err != nil || n != 1 {
		t.Fatalf("Export = %d, %v", n, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, sub.ID.Hex()+".json"))
	if err != nil {
		t.Fatalf("read exported document: %v", err)
	}
	if _, err := edition.Decode(data); err != nil {
		t.Fatalf("exported document does not decode: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.Paths.CatalogDB)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := catalog.Open(cfg, nil); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
