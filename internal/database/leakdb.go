package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/leakwatch/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "leakwatch.db"

// timestampLayout is a fixed-width UTC layout so that stored timestamps
// sort lexicographically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// LeakDB provides SQLite-based storage for findings.
type LeakDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures LeakDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers are not blocked
	// by a running crawl.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a LeakDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*LeakDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ldb := &LeakDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := ldb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ldb, nil
}

// Path returns the path of the database file.
func (ldb *LeakDB) Path() string {
	return ldb.dbPath
}

// Close closes the database connection.
func (ldb *LeakDB) Close() error {
	return ldb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (ldb *LeakDB) createTables() error {
	schema := `
	-- One row per source URL
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		data_json TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_findings_query ON findings(query);
	CREATE INDEX IF NOT EXISTS idx_findings_timestamp ON findings(timestamp);

	-- Exploded set members for membership lookups
	CREATE TABLE IF NOT EXISTS finding_values (
		finding_id INTEGER NOT NULL REFERENCES findings(id),
		category TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (finding_id, category, value)
	);

	CREATE INDEX IF NOT EXISTS idx_values_lookup ON finding_values(category, value);
	`

	_, err := ldb.db.ExecContext(context.Background(), schema)
	return err
}

// Exists reports whether a finding for url is stored.
func (ldb *LeakDB) Exists(ctx context.Context, url string) (bool, error) {
	var count int
	err := ldb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check finding: %w", err)
	}
	return count > 0, nil
}

// Insert stores a new finding.
//
// The finding row and its exploded values are written in one transaction.
// A finding whose URL is already stored is rejected with ErrDuplicateURL
// and leaves the stored row untouched.
func (ldb *LeakDB) Insert(ctx context.Context, f *model.Finding) error {
	if strings.TrimSpace(f.URL) == "" {
		return ErrMissingURL
	}
	if f.Data.IsEmpty() {
		return ErrEmptyFinding
	}

	dataJSON, err := json.Marshal(f.Data)
	if err != nil {
		return fmt.Errorf("failed to serialize finding data: %w", err)
	}

	tx, err := ldb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO findings (query, url, data_json, timestamp)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`,
		f.Query,
		f.URL,
		string(dataJSON),
		formatTimestamp(f.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert finding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert finding: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, f.URL)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read finding id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO finding_values (finding_id, category, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare value insert: %w", err)
	}
	defer stmt.Close()

	for _, category := range model.Categories() {
		for _, value := range f.Data.Set(category).Values() {
			if _, err := stmt.ExecContext(ctx, id, string(category), value); err != nil {
				return fmt.Errorf("failed to insert %s value: %w", category, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit finding: %w", err)
	}
	return nil
}

// FindByAny returns the findings containing any of the lookup's identifiers.
// Only non-empty fields participate. The result is ordered newest first and
// is never nil; a lookup with no identifiers matches nothing.
func (ldb *LeakDB) FindByAny(ctx context.Context, lookup model.Lookup) ([]model.Finding, error) {
	criteria := lookup.Criteria()
	if len(criteria) == 0 {
		return []model.Finding{}, nil
	}

	anyOf := sq.Or{}
	for _, category := range model.Categories() {
		if value, ok := criteria[category]; ok {
			anyOf = append(anyOf, sq.Eq{"category": string(category), "value": value})
		}
	}

	subSQL, subArgs, err := psql.Select("finding_id").From("finding_values").Where(anyOf).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup query: %w", err)
	}

	return ldb.queryFindings(ctx, selectFindings().
		Where(sq.Expr("id IN ("+subSQL+")", subArgs...)))
}

// List returns up to limit findings, newest first.
// A limit of zero or less returns every finding.
func (ldb *LeakDB) List(ctx context.Context, limit int) ([]model.Finding, error) {
	builder := selectFindings()
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return ldb.queryFindings(ctx, builder)
}

// Count returns the number of stored findings.
func (ldb *LeakDB) Count(ctx context.Context) (int, error) {
	var count int
	if err := ldb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count findings: %w", err)
	}
	return count, nil
}

// psql is the statement builder for SQLite's "?" placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// selectFindings starts a query over the public finding columns, newest first.
func selectFindings() sq.SelectBuilder {
	return psql.Select("query", "url", "data_json", "timestamp").
		From("findings").
		OrderBy("timestamp DESC", "id DESC")
}

func (ldb *LeakDB) queryFindings(ctx context.Context, builder sq.SelectBuilder) ([]model.Finding, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := ldb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	findings := make([]model.Finding, 0)
	for rows.Next() {
		var (
			f         model.Finding
			dataJSON  string
			timestamp string
		)
		if err := rows.Scan(&f.Query, &f.URL, &dataJSON, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &f.Data); err != nil {
			return nil, fmt.Errorf("failed to parse finding data for %s: %w", f.URL, err)
		}
		f.Data = normalizeData(f.Data)
		f.Timestamp = parseTimestamp(timestamp)
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// normalizeData allocates any category missing from a stored document.
func normalizeData(d model.Data) model.Data {
	if d.Emails == nil {
		d.Emails = model.NewStringSet()
	}
	if d.Phones == nil {
		d.Phones = model.NewStringSet()
	}
	if d.CreditCards == nil {
		d.CreditCards = model.NewStringSet()
	}
	return d
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
