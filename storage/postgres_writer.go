package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"zap-scraper/models"
	"zap-scraper/utils"
)

const pgColumnsPerRow = 15

// PostgresWriter upserts listing records into PostgreSQL, keyed by the
// portal's listing ID.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, waits for the server to answer and
// runs the schema migration.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw, err := NewPostgresWriterFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return pw, nil
}

// NewPostgresWriterFromDB wraps an already open handle and migrates it.
func NewPostgresWriterFromDB(ctx context.Context, db *sql.DB) (*PostgresWriter, error) {
	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id               SERIAL PRIMARY KEY,
			run_id           UUID          NOT NULL,
			listing_id       TEXT          UNIQUE NOT NULL,
			price            NUMERIC(14,2) NOT NULL DEFAULT 0,
			condominium_fee  NUMERIC(14,2) NOT NULL DEFAULT 0,
			property_tax_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
			floor_size_sqm   NUMERIC(10,2) NOT NULL DEFAULT 0,
			bedrooms         INTEGER       NOT NULL DEFAULT 0,
			bathrooms        INTEGER       NOT NULL DEFAULT 0,
			parking_spaces   INTEGER       NOT NULL DEFAULT 0,
			address          TEXT          NOT NULL DEFAULT '',
			title            TEXT          NOT NULL DEFAULT '',
			link             TEXT          NOT NULL DEFAULT '',
			publisher_name   TEXT          NOT NULL DEFAULT '',
			unit_types       TEXT[]        NOT NULL DEFAULT '{}',
			description      TEXT          NOT NULL DEFAULT '',
			scraped_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price    ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_run_id   ON listings(run_id);
		CREATE INDEX IF NOT EXISTS idx_listings_bedrooms ON listings(bedrooms);
	`)
	return err
}

// Write upserts every record that carries a listing ID inside one
// transaction. When an ID repeats within the run the last record wins.
func (pw *PostgresWriter) Write(ctx context.Context, result *models.RunResult) error {
	records := uniqueByListingID(result.Records)
	if len(records) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Path: "listings", Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		if err := insertBatch(ctx, tx, result.RunID, records[i:end]); err != nil {
			return &WriteError{Path: "listings", Op: "insert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Path: "listings", Op: "commit", Err: err}
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, runID string, batch []models.ListingRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*pgColumnsPerRow)

	for idx, r := range batch {
		base := idx * pgColumnsPerRow
		placeholders := make([]string, pgColumnsPerRow)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		unitTypes := r.UnitTypes
		if unitTypes == nil {
			unitTypes = []string{}
		}
		valueArgs = append(valueArgs,
			runID, r.ListingID, r.Price, r.CondominiumFee, r.PropertyTaxFee, r.FloorSizeSqm,
			r.Bedrooms, r.Bathrooms, r.ParkingSpaces, r.Address, r.Title, r.Link,
			r.PublisherName, pq.Array(unitTypes), r.Description)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (run_id, listing_id, price, condominium_fee, property_tax_fee,
			floor_size_sqm, bedrooms, bathrooms, parking_spaces, address, title, link,
			publisher_name, unit_types, description)
		VALUES %s
		ON CONFLICT (listing_id) DO UPDATE SET
			run_id           = EXCLUDED.run_id,
			price            = EXCLUDED.price,
			condominium_fee  = EXCLUDED.condominium_fee,
			property_tax_fee = EXCLUDED.property_tax_fee,
			floor_size_sqm   = EXCLUDED.floor_size_sqm,
			bedrooms         = EXCLUDED.bedrooms,
			bathrooms        = EXCLUDED.bathrooms,
			parking_spaces   = EXCLUDED.parking_spaces,
			address          = EXCLUDED.address,
			title            = EXCLUDED.title,
			link             = EXCLUDED.link,
			publisher_name   = EXCLUDED.publisher_name,
			unit_types       = EXCLUDED.unit_types,
			description      = EXCLUDED.description,
			scraped_at       = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// CountByRun returns how many stored rows were last written by runID.
func (pw *PostgresWriter) CountByRun(ctx context.Context, runID string) (int, error) {
	var n int
	err := pw.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE run_id = $1`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count run %s: %w", runID, err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func uniqueByListingID(records []models.ListingRecord) []models.ListingRecord {
	index := make(map[string]int, len(records))
	out := make([]models.ListingRecord, 0, len(records))
	for _, r := range records {
		if r.ListingID == "" {
			continue
		}
		if i, ok := index[r.ListingID]; ok {
			out[i] = r
			continue
		}
		index[r.ListingID] = len(out)
		out = append(out, r)
	}
	return out
}
