// internal/importer/importer.go
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablero-hq/tablero-backend/internal/core"
	"github.com/tablero-hq/tablero-backend/internal/domain"
	"github.com/tablero-hq/tablero-backend/internal/logger"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

var customLog = logger.NewLogger()

// Job status values reported to pollers.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// rowIndexKey carries the original 1-based row number through the dedup stage.
// The deduplicator only reads declared field names, so this key never affects
// composite keys. It is stripped before validation.
const rowIndexKey = "__row_index"

// Job tracks one bulk import from submission to report.
type Job struct {
	ID         string               `json:"id"`
	CompanyID  string               `json:"-"`
	TableSlug  string               `json:"table_slug"`
	Status     Status               `json:"status"`
	Report     *domain.ImportReport `json:"report,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at,omitzero"`
}

// Options tunes one import run.
type Options struct {
	// TableName is the display name used when the target table does not exist
	// yet and is created from the inferred schema. Defaults to the slug.
	TableName string
	// KeyFields restricts duplicate detection to a subset of fields.
	// Empty means every field participates.
	KeyFields []string
}

// Service runs bulk imports off the synchronous request path. Callers receive
// a job ID immediately and poll for the report; finished jobs are kept for a
// TTL and then dropped.
type Service struct {
	store  storage.Store
	jobTTL time.Duration

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewService creates an import service backed by the given store.
func NewService(store storage.Store, jobTTL time.Duration) *Service {
	return &Service{
		store:  store,
		jobTTL: jobTTL,
		jobs:   make(map[string]*Job),
	}
}

// StartImport registers a job and runs the pipeline in the background:
// header normalization, schema inference, dedup, then per-row validation and
// insert. A failing row does not abort the batch; successful rows still commit.
func (s *Service) StartImport(companyID, tableSlug string, headers []string, rows [][]string, opts Options) (*Job, error) {
	if len(headers) == 0 {
		return nil, errors.New("import requires a non-empty header row")
	}
	slug := core.Slugify(tableSlug)
	if slug == "" {
		return nil, errors.New("import requires a valid table slug")
	}

	job := &Job{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		TableSlug: slug,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	customLog.Printf("Importer: Job %s started for table '%s' (%d rows)", job.ID, slug, len(rows))
	go s.run(job, headers, rows, opts)

	return s.snapshot(job.ID), nil
}

// Job returns a snapshot of a job's current state.
func (s *Service) Job(id string) (*Job, bool) {
	job := s.snapshot(id)
	return job, job != nil
}

func (s *Service) snapshot(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	if job.Report != nil {
		report := *job.Report
		report.Errors = append([]domain.ImportRowError(nil), job.Report.Errors...)
		copied.Report = &report
	}
	return &copied
}

// run executes the import pipeline. The request context is gone by the time
// this runs, so store calls use a background context.
func (s *Service) run(job *Job, headers []string, rows [][]string, opts Options) {
	ctx := context.Background()

	table, err := s.resolveTable(ctx, job, headers, rows, opts)
	if err != nil {
		s.fail(job.ID, err)
		return
	}

	rowMaps := buildRowMaps(table, headers, rows)
	deduped, removed := core.DedupRecords(rowMaps, table.Fields, opts.KeyFields)

	report := &domain.ImportReport{
		Total:             len(rows),
		DuplicatesRemoved: removed,
	}

	for _, rowMap := range deduped {
		rowNum := rowMap[rowIndexKey].(int)
		delete(rowMap, rowIndexKey)

		if fieldErrs := core.ValidateRecord(table, rowMap); len(fieldErrs) > 0 {
			report.Failed++
			report.Errors = append(report.Errors, domain.ImportRowError{
				Row:    rowNum,
				Reason: joinFieldErrors(fieldErrs),
			})
			continue
		}

		coerced := core.CoerceRecord(table, rowMap)
		if _, err := s.store.InsertRecord(ctx, job.CompanyID, table.Slug, coerced); err != nil {
			customLog.Warnf("Importer: Job %s failed inserting row %d: %v", job.ID, rowNum, err)
			report.Failed++
			report.Errors = append(report.Errors, domain.ImportRowError{
				Row:    rowNum,
				Reason: "store error: " + err.Error(),
			})
			continue
		}
		report.Successful++
	}

	s.complete(job.ID, report)
	customLog.Printf("Importer: Job %s finished: %d ok, %d failed, %d duplicates removed",
		job.ID, report.Successful, report.Failed, report.DuplicatesRemoved)
}

// resolveTable loads the target table, creating it from the inferred schema
// when the slug does not exist yet (the upload-spreadsheet-into-a-new-table
// flow).
func (s *Service) resolveTable(ctx context.Context, job *Job, headers []string, rows [][]string, opts Options) (*domain.Table, error) {
	table, err := s.store.GetTable(ctx, job.CompanyID, job.TableSlug)
	if err == nil {
		return table, nil
	}
	if !errors.Is(err, storage.ErrTableNotFound) {
		return nil, err
	}

	name := opts.TableName
	if name == "" {
		name = job.TableSlug
	}
	table = &domain.Table{
		CompanyID: job.CompanyID,
		Slug:      job.TableSlug,
		Name:      name,
		IsActive:  true,
		Fields:    core.InferFields(headers, rows),
	}
	if err := s.store.CreateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("failed creating table from inferred schema: %w", err)
	}
	customLog.Printf("Importer: Job %s created table '%s' with %d inferred field(s)",
		job.ID, table.Slug, len(table.Fields))
	return table, nil
}

// buildRowMaps turns raw rows into payload maps keyed by normalized header
// name, keeping only columns the table declares (tolerating header drift
// against a pre-existing schema). Empty cells are omitted.
func buildRowMaps(table *domain.Table, headers []string, rows [][]string) []map[string]any {
	names := core.NormalizeHeaders(headers)

	rowMaps := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		rowMap := make(map[string]any, len(names)+1)
		for col, name := range names {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			if _, ok := table.FieldByName(name); !ok {
				continue
			}
			rowMap[name] = cell
		}
		rowMap[rowIndexKey] = i + 1
		rowMaps = append(rowMaps, rowMap)
	}
	return rowMaps
}

func joinFieldErrors(errs []core.FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (s *Service) fail(jobID string, err error) {
	customLog.Warnf("Importer: Job %s failed: %v", jobID, err)
	s.finish(jobID, func(job *Job) {
		job.Status = StatusFailed
		job.Error = err.Error()
	})
}

func (s *Service) complete(jobID string, report *domain.ImportReport) {
	s.finish(jobID, func(job *Job) {
		job.Status = StatusCompleted
		job.Report = report
	})
}

func (s *Service) finish(jobID string, apply func(*Job)) {
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		apply(job)
		job.FinishedAt = time.Now().UTC()
	}
	s.mu.Unlock()

	if s.jobTTL > 0 {
		time.AfterFunc(s.jobTTL, func() {
			s.mu.Lock()
			delete(s.jobs, jobID)
			s.mu.Unlock()
		})
	}
}
