// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/domain"
	"github.com/tablero-hq/tablero-backend/internal/logger"
)

var customLog = logger.NewLogger()

// SQLiteStore is the Store implementation backed by a single SQLite file.
// Table definitions live in a `tables` metadata table (fields serialized as
// JSON); record payloads live in a `records` table with a JSON data column.
type SQLiteStore struct {
	db *sql.DB
}

// Connect opens (creating if needed) the SQLite database at dir/file and
// ensures the schema exists.
func Connect(dir, file string) (*SQLiteStore, error) {
	dbPath := filepath.Join(dir, file)
	customLog.Printf("Storage: Initializing database: %s", dbPath)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS tables (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		fields TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (company_id, slug)
	);`
	if _, err = db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure tables table: %w", err)
	}

	createRecordsSQL := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		table_slug TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_table ON records (company_id, table_slug);`
	if _, err = db.Exec(createRecordsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure records table: %w", err)
	}

	customLog.Println("Storage: Database connection successful.")
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// --- Table Operations ---

// CreateTable inserts a new table definition, assigning ID and CreatedAt.
func (s *SQLiteStore) CreateTable(ctx context.Context, table *domain.Table) error {
	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(table.Fields)
	if err != nil {
		return fmt.Errorf("failed to serialize fields: %w", err)
	}

	sqlStatement := `INSERT INTO tables (id, company_id, slug, name, icon, description, is_active, fields, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, sqlStatement,
		table.ID, table.CompanyID, table.Slug, table.Name, table.Icon, table.Description,
		boolToInt(table.IsActive), string(fieldsJSON), table.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrTableExists
		}
		customLog.Warnf("Storage: Failed to insert table '%s': %v", table.Slug, err)
		return fmt.Errorf("database error creating table: %w", err)
	}
	return nil
}

// GetTable retrieves a table definition by company and slug.
func (s *SQLiteStore) GetTable(ctx context.Context, companyID, slug string) (*domain.Table, error) {
	sqlStatement := `SELECT id, company_id, slug, name, icon, description, is_active, fields, created_at
		FROM tables WHERE company_id = ? AND slug = ? LIMIT 1`
	return s.scanTable(s.db.QueryRowContext(ctx, sqlStatement, companyID, slug))
}

// ListTables retrieves all table definitions for a company, newest first.
func (s *SQLiteStore) ListTables(ctx context.Context, companyID string) ([]domain.Table, error) {
	sqlStatement := `SELECT id, company_id, slug, name, icon, description, is_active, fields, created_at
		FROM tables WHERE company_id = ? ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, sqlStatement, companyID)
	if err != nil {
		customLog.Warnf("Storage: Failed listing tables for company %s: %v", companyID, err)
		return nil, fmt.Errorf("database error listing tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		table, err := s.scanTableRow(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *table)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading table list: %w", err)
	}
	return tables, nil
}

// UpdateTable persists changes to an existing table definition. The slug of a
// table that already holds records cannot change.
func (s *SQLiteStore) UpdateTable(ctx context.Context, table *domain.Table) error {
	var currentSlug string
	err := s.db.QueryRowContext(ctx, `SELECT slug FROM tables WHERE id = ?`, table.ID).Scan(&currentSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("database error updating table: %w", err)
	}

	if currentSlug != table.Slug {
		count, err := s.CountRecords(ctx, table.CompanyID, currentSlug)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrTableHasRecords
		}
	}

	fieldsJSON, err := json.Marshal(table.Fields)
	if err != nil {
		return fmt.Errorf("failed to serialize fields: %w", err)
	}

	sqlStatement := `UPDATE tables SET slug = ?, name = ?, icon = ?, description = ?, is_active = ?, fields = ?
		WHERE id = ?`
	_, err = s.db.ExecContext(ctx, sqlStatement,
		table.Slug, table.Name, table.Icon, table.Description, boolToInt(table.IsActive),
		string(fieldsJSON), table.ID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrTableExists
		}
		customLog.Warnf("Storage: Failed to update table '%s': %v", table.Slug, err)
		return fmt.Errorf("database error updating table: %w", err)
	}
	return nil
}

// DeleteTable removes a table definition and all of its records.
func (s *SQLiteStore) DeleteTable(ctx context.Context, companyID, slug string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE company_id = ? AND slug = ?`, companyID, slug)
	if err != nil {
		return fmt.Errorf("database error deleting table: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming table delete: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTableNotFound
	}

	if _, err = s.db.ExecContext(ctx, `DELETE FROM records WHERE company_id = ? AND table_slug = ?`, companyID, slug); err != nil {
		customLog.Warnf("Storage: Failed deleting records of dropped table '%s': %v", slug, err)
		return fmt.Errorf("database error deleting table records: %w", err)
	}
	return nil
}

// --- Record Operations ---

// InsertRecord persists a new record for the given table.
func (s *SQLiteStore) InsertRecord(ctx context.Context, companyID, tableSlug string, data map[string]any) (*domain.Record, error) {
	if _, err := s.GetTable(ctx, companyID, tableSlug); err != nil {
		return nil, err
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record data: %w", err)
	}

	now := time.Now().UTC()
	rec := &domain.Record{
		ID:        uuid.NewString(),
		TableSlug: tableSlug,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sqlStatement := `INSERT INTO records (id, company_id, table_slug, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err = s.db.ExecContext(ctx, sqlStatement, rec.ID, companyID, tableSlug, string(dataJSON), rec.CreatedAt, rec.UpdatedAt); err != nil {
		customLog.Warnf("Storage: Failed INSERT into '%s': %v", tableSlug, err)
		return nil, fmt.Errorf("database error during insert: %w", err)
	}
	return rec, nil
}

// GetRecord retrieves a single record by ID within a table.
func (s *SQLiteStore) GetRecord(ctx context.Context, companyID, tableSlug, recordID string) (*domain.Record, error) {
	sqlStatement := `SELECT id, table_slug, data, created_at, updated_at
		FROM records WHERE company_id = ? AND table_slug = ? AND id = ? LIMIT 1`
	row := s.db.QueryRowContext(ctx, sqlStatement, companyID, tableSlug, recordID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// UpdateRecord replaces a record's data map. Callers merge partial updates and
// re-validate before reaching the store.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, companyID, tableSlug, recordID string, data map[string]any) (*domain.Record, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record data: %w", err)
	}

	now := time.Now().UTC()
	sqlStatement := `UPDATE records SET data = ?, updated_at = ?
		WHERE company_id = ? AND table_slug = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, sqlStatement, string(dataJSON), now, companyID, tableSlug, recordID)
	if err != nil {
		customLog.Warnf("Storage: Failed UPDATE of record %s: %v", recordID, err)
		return nil, fmt.Errorf("database error during update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed confirming update: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.GetRecord(ctx, companyID, tableSlug, recordID)
}

// DeleteRecord removes a record by ID.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, companyID, tableSlug, recordID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE company_id = ? AND table_slug = ? AND id = ?`,
		companyID, tableSlug, recordID)
	if err != nil {
		return fmt.Errorf("database error during delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming delete: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// QueryRecords loads the table's records and delegates filter/search/sort/
// pagination semantics to the engine (core.ApplyQuery).
func (s *SQLiteStore) QueryRecords(ctx context.Context, companyID, tableSlug string, opts core.QueryOptions) ([]domain.Record, int, error) {
	table, err := s.GetTable(ctx, companyID, tableSlug)
	if err != nil {
		return nil, 0, err
	}

	sqlStatement := `SELECT id, table_slug, data, created_at, updated_at
		FROM records WHERE company_id = ? AND table_slug = ?`
	rows, err := s.db.QueryContext(ctx, sqlStatement, companyID, tableSlug)
	if err != nil {
		customLog.Warnf("Storage: Failed SELECT for table '%s': %v", tableSlug, err)
		return nil, 0, fmt.Errorf("database error listing records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed processing records: %w", err)
	}

	paged, total := core.ApplyQuery(table, records, opts)
	return paged, total, nil
}

// CountRecords returns the number of records stored for a table.
func (s *SQLiteStore) CountRecords(ctx context.Context, companyID, tableSlug string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE company_id = ? AND table_slug = ?`,
		companyID, tableSlug).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database error counting records: %w", err)
	}
	return count, nil
}

// RecentRecordCount returns how many records were created in the last
// sinceDays days.
func (s *SQLiteStore) RecentRecordCount(ctx context.Context, companyID, tableSlug string, sinceDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -sinceDays)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE company_id = ? AND table_slug = ? AND created_at >= ?`,
		companyID, tableSlug, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database error counting recent records: %w", err)
	}
	return count, nil
}

// --- Scan Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanTable(row rowScanner) (*domain.Table, error) {
	table, err := s.scanTableRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return table, nil
}

func (s *SQLiteStore) scanTableRow(row rowScanner) (*domain.Table, error) {
	var table domain.Table
	var isActive int
	var fieldsJSON string
	err := row.Scan(&table.ID, &table.CompanyID, &table.Slug, &table.Name, &table.Icon,
		&table.Description, &isActive, &fieldsJSON, &table.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed reading table definition: %w", err)
	}
	table.IsActive = isActive != 0
	if err := json.Unmarshal([]byte(fieldsJSON), &table.Fields); err != nil {
		return nil, fmt.Errorf("failed to parse table fields: %w", err)
	}
	return &table, nil
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var dataJSON string
	err := row.Scan(&rec.ID, &rec.TableSlug, &dataJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed reading record data: %w", err)
	}
	if err := json.Unmarshal([]byte(dataJSON), &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to parse record data: %w", err)
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
