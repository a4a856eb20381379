package gtfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/feedforge/feedforge_core/internal/logger"
	"github.com/feedforge/feedforge_core/internal/models"
)

// ErrMissingImportContext is returned when no authenticated owner
// identity accompanies the import request.
var ErrMissingImportContext = errors.New("missing owner identity for import")

// ErrImportInProgress is returned when another import already holds the
// project's import lock. Two concurrent imports into the same project are
// rejected rather than interleaved.
var ErrImportInProgress = errors.New("an import for this project is already running")

// Locker guards a project against concurrent imports. Implementations may
// degrade to a no-op when the lock backend is unavailable.
type Locker interface {
	AcquireImportLock(ctx context.Context, ownerID, projectID string) (release func(), acquired bool, err error)
}

// Importer runs the import pipeline: extract, then per recognized file
// ingest, reconcile and load. It owns the scratch directory for the
// invocation and removes it on every exit path.
type Importer struct {
	store   Store
	log     logger.Logger
	workDir string
	lock    Locker
}

func NewImporter(store Store, log logger.Logger, workDir string, lock Locker) *Importer {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Importer{store: store, log: log, workDir: workDir, lock: lock}
}

// Run imports the GTFS archive at zipPath into the owner's project.
// sourceName is the uploaded file's original name, kept on the batch row
// as an audit trail. Table-level failures land in the summary manifest
// and do not abort sibling tables; only errors before any table is
// processed (bad archive, missing context, store unreachable) are
// returned as errors.
func (imp *Importer) Run(ctx context.Context, ownerID, projectID, zipPath, sourceName string) (*models.ImportSummary, error) {
	if ownerID == "" {
		return nil, ErrMissingImportContext
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: no project", ErrMissingImportContext)
	}

	if imp.lock != nil {
		release, acquired, err := imp.lock.AcquireImportLock(ctx, ownerID, projectID)
		if err != nil {
			imp.log.Warn("import lock unavailable, continuing unguarded", "error", err)
		} else if !acquired {
			return nil, ErrImportInProgress
		} else {
			defer release()
		}
	}

	if err := imp.store.EnsureProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	batchID, err := imp.store.CreateBatch(ctx, ownerID, projectID, sourceName)
	if err != nil {
		return nil, err
	}

	summary := &models.ImportSummary{
		BatchID:    batchID,
		OwnerID:    ownerID,
		ProjectID:  projectID,
		SourceFile: sourceName,
		StartedAt:  time.Now().UTC(),
	}

	scratch, err := NewScratchDir(imp.workDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	extracted, err := ExtractArchive(zipPath, scratch)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(extracted))
	for _, name := range extracted {
		present[name] = true
	}

	// Recognized tables load in dependency order; whatever else the feed
	// carries is reported as skipped.
	for _, spec := range Tables() {
		if !present[spec.File] {
			continue
		}
		delete(present, spec.File)
		summary.Tables = append(summary.Tables,
			imp.importTable(ctx, spec, filepath.Join(scratch, spec.File), ownerID, projectID, batchID))
	}
	for name := range present {
		imp.log.Debug("skipping unrecognized file", "file", name)
		summary.Tables = append(summary.Tables, models.TableReport{
			File:   name,
			Status: models.TableSkippedUnknown,
		})
	}

	summary.Duration = time.Since(summary.StartedAt)
	imp.log.Info("import finished",
		"batch_id", batchID,
		"project_id", projectID,
		"rows", summary.RowsLoaded(),
		"success", summary.Succeeded(),
		"duration", summary.Duration.String(),
	)

	return summary, nil
}

func (imp *Importer) importTable(ctx context.Context, spec *TableSpec, path, ownerID, projectID string, batchID int64) models.TableReport {
	report := models.TableReport{File: spec.File, Table: spec.Name}

	table, err := IngestFile(path, batchID)
	if err != nil {
		// A broken header fails this file, not the whole import.
		report.Status = models.TableFailed
		report.Error = err.Error()
		imp.log.Error("table ingest failed", "file", spec.File, "error", err)
		return report
	}
	report.MalformedRows = table.Malformed

	cols := UsableColumns(table.Header, spec)
	if len(cols) == 0 {
		report.Status = models.TableSkippedNoColumns
		imp.log.Warn("no usable columns, table skipped", "file", spec.File)
		return report
	}
	if !HasKeyColumns(cols, spec) {
		report.Status = models.TableFailed
		report.Error = fmt.Sprintf("missing key column(s) %v", spec.RequiredKeyColumns())
		imp.log.Error("table missing key columns", "file", spec.File, "keys", spec.RequiredKeyColumns())
		return report
	}

	rows := make([][]any, 0, len(table.Records))
	for _, rec := range table.Records {
		rows = append(rows, RowValues(Reconcile(rec, spec), cols))
	}

	plan := LoadPlan{
		OwnerID:   ownerID,
		ProjectID: projectID,
		BatchID:   batchID,
		Spec:      spec,
		Columns:   cols,
	}
	loaded, err := imp.store.LoadTable(ctx, plan, rows)
	if err != nil {
		report.Status = models.TableFailed
		report.Error = err.Error()
		imp.log.Error("table load failed", "table", spec.Name, "error", err)
		return report
	}

	report.Status = models.TableLoaded
	report.RowsLoaded = loaded
	imp.log.Info("table loaded", "table", spec.Name, "rows", loaded, "malformed", table.Malformed)
	return report
}
