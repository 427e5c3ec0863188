// internal/storage/store.go
package storage

import (
	"context"
	"errors"

	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/domain"
)

// Specific errors for store operations
var (
	ErrTableNotFound   = errors.New("table not found")
	ErrTableExists     = errors.New("table slug already exists for this company")
	ErrRecordNotFound  = errors.New("record not found")
	ErrTableHasRecords = errors.New("table slug is immutable once records exist")
)

// Store is the persistence contract the record engine requires. The engine
// computes filter/sort/paginate semantics (core.ApplyQuery); implementations
// execute them. All operations are scoped by an already-resolved company ID;
// authorization happens upstream.
type Store interface {
	CreateTable(ctx context.Context, table *domain.Table) error
	GetTable(ctx context.Context, companyID, slug string) (*domain.Table, error)
	ListTables(ctx context.Context, companyID string) ([]domain.Table, error)
	UpdateTable(ctx context.Context, table *domain.Table) error
	DeleteTable(ctx context.Context, companyID, slug string) error

	InsertRecord(ctx context.Context, companyID, tableSlug string, data map[string]any) (*domain.Record, error)
	GetRecord(ctx context.Context, companyID, tableSlug, recordID string) (*domain.Record, error)
	UpdateRecord(ctx context.Context, companyID, tableSlug, recordID string, data map[string]any) (*domain.Record, error)
	DeleteRecord(ctx context.Context, companyID, tableSlug, recordID string) error

	QueryRecords(ctx context.Context, companyID, tableSlug string, opts core.QueryOptions) ([]domain.Record, int, error)
	CountRecords(ctx context.Context, companyID, tableSlug string) (int, error)
	RecentRecordCount(ctx context.Context, companyID, tableSlug string, sinceDays int) (int, error)
}
