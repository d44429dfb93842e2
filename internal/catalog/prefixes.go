package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rasterandstate/majestic-canon/internal/gs1"
	"github.com/rasterandstate/majestic-canon/internal/logging"
)

// AppendPrefixes records GS1 prefix facts in order. Records are validated
// together before anything is written.
func (s *Store) AppendPrefixes(ctx context.Context, records ...gs1.Record) error {
	if len(records) == 0 {
		return nil
	}
	checked, err := gs1.NewRegistry(records...)
	if err != nil {
		return fmt.Errorf("invalid gs1 records: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prefix tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := s.timestamp()
	for _, rec := range checked.Records() {
		var validTo sql.NullString
		if rec.ValidTo != nil {
			validTo = nullableString(rec.ValidTo.UTC().Format(time.RFC3339))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO gs1_prefixes (
                prefix, publisher_id, company_name, brand_name, status, valid_from, valid_to, recorded_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Prefix,
			nullableString(rec.PublisherID),
			rec.CompanyName,
			nullableString(rec.BrandName),
			string(rec.Status),
			rec.ValidFrom.UTC().Format(time.RFC3339),
			validTo,
			ts,
		); err != nil {
			return fmt.Errorf("insert gs1 prefix %s: %w", rec.Prefix, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit gs1 prefixes: %w", err)
	}
	s.logger.Debug("gs1 prefixes appended", logging.Int("count", len(records)))
	return nil
}

// LoadRegistry rebuilds the prefix index from the stored history in append
// order.
func (s *Store) LoadRegistry(ctx context.Context) (*gs1.Registry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT prefix, publisher_id, company_name, brand_name, status, valid_from, valid_to
           FROM gs1_prefixes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query gs1 prefixes: %w", err)
	}
	defer rows.Close()

	var records []gs1.Record
	for rows.Next() {
		var (
			rec                             gs1.Record
			publisherID, brandName, validTo sql.NullString
			status, validFrom               string
		)
		if err := rows.Scan(&rec.Prefix, &publisherID, &rec.CompanyName, &brandName, &status, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("scan gs1 prefix: %w", err)
		}
		rec.PublisherID = publisherID.String
		rec.BrandName = brandName.String
		rec.Status = gs1.Status(status)
		if rec.ValidFrom, err = gs1.ParseDate(validFrom); err != nil {
			return nil, fmt.Errorf("gs1 prefix %s valid_from: %w", rec.Prefix, err)
		}
		if validTo.Valid {
			to, err := gs1.ParseDate(validTo.String)
			if err != nil {
				return nil, fmt.Errorf("gs1 prefix %s valid_to: %w", rec.Prefix, err)
			}
			rec.ValidTo = &to
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gs1 prefixes: %w", err)
	}
	return gs1.NewRegistry(records...)
}
