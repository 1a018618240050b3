package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/autocrawl/autocrawl/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "autocrawl.db"

// CrawlDB stores finished crawls and their listings.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		cache_hits INTEGER NOT NULL DEFAULT 0,
		listing_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_start_url ON crawls(start_url);
	CREATE INDEX IF NOT EXISTS idx_crawls_started_at ON crawls(started_at);

	-- position keeps the crawl order of listings
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL REFERENCES crawls(id),
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		year INTEGER NOT NULL DEFAULT 0,
		price INTEGER NOT NULL DEFAULT 0,
		odometer INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL DEFAULT '',
		UNIQUE(crawl_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_crawl ON listings(crawl_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlSummary describes a stored crawl without its listings.
type CrawlSummary struct {
	ID         int64
	StartURL   string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	CacheHits  int
	Listings   int
}

// SaveCrawl stores a finished crawl and its listings in one transaction and
// returns the new crawl ID.
func (cdb *CrawlDB) SaveCrawl(ctx context.Context, result *model.CrawlResult) (id int64, err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawls (start_url, started_at, finished_at, pages, cache_hits, listing_count)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.StartURL,
		formatTimestamp(result.StartedAt),
		formatTimestamp(result.FinishedAt),
		result.Pages,
		result.CacheHits,
		len(result.Listings),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get crawl id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO listings (crawl_id, position, title, url, year, price, odometer, state)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare listing insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range result.Listings {
		if _, err = stmt.ExecContext(ctx, id, i, l.Title, l.URL, l.Year, l.Price, l.Odometer, l.State); err != nil {
			return 0, fmt.Errorf("failed to insert listing %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl: %w", err)
	}

	return id, nil
}

// ListCrawls returns stored crawls, newest first. An empty startURL lists
// every crawl.
func (cdb *CrawlDB) ListCrawls(ctx context.Context, startURL string) ([]CrawlSummary, error) {
	query := `
	SELECT id, start_url, started_at, finished_at, pages, cache_hits, listing_count
	FROM crawls
	`
	var args []any
	if startURL != "" {
		query += " WHERE start_url = ?"
		args = append(args, startURL)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	defer rows.Close()

	var summaries []CrawlSummary
	for rows.Next() {
		var s CrawlSummary
		var startedAt, finishedAt string

		if err := rows.Scan(&s.ID, &s.StartURL, &startedAt, &finishedAt, &s.Pages, &s.CacheHits, &s.Listings); err != nil {
			return nil, fmt.Errorf("failed to scan crawl: %w", err)
		}

		s.StartedAt = parseTimestamp(startedAt)
		s.FinishedAt = parseTimestamp(finishedAt)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetCrawl returns a stored crawl with its listings in crawl order.
// It returns nil, nil when no crawl has the given ID.
func (cdb *CrawlDB) GetCrawl(ctx context.Context, id int64) (*model.CrawlResult, error) {
	var result model.CrawlResult
	var startedAt, finishedAt string

	err := cdb.db.QueryRowContext(ctx, `
	SELECT start_url, started_at, finished_at, pages, cache_hits
	FROM crawls
	WHERE id = ?
	`, id).Scan(&result.StartURL, &startedAt, &finishedAt, &result.Pages, &result.CacheHits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl: %w", err)
	}

	result.StartedAt = parseTimestamp(startedAt)
	result.FinishedAt = parseTimestamp(finishedAt)

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT title, url, year, price, odometer, state
	FROM listings
	WHERE crawl_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	defer rows.Close()

	result.Listings = make([]model.Listing, 0)
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.Title, &l.URL, &l.Year, &l.Price, &l.Odometer, &l.State); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		result.Listings = append(result.Listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}

	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // also matches timestampLayout
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// timestampLayout has a fixed-width fraction so that text ordering matches
// time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp renders t in UTC for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
