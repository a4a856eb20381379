package gtfs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProjectNotFound is returned when the requested project does not
// exist or is not owned by the caller.
var ErrProjectNotFound = errors.New("project not found")

// LoadPlan binds one table load to its scope: who owns the rows, which
// project they belong to, which batch wrote them, and which file columns
// carry values.
type LoadPlan struct {
	OwnerID   string
	ProjectID string
	BatchID   int64
	Spec      *TableSpec
	Columns   []string
}

// Store is the persistence handle the pipeline works against. Passing it
// explicitly keeps the pipeline free of global connection state and lets
// tests substitute an in-memory double.
type Store interface {
	// EnsureProject creates the project if it does not exist yet.
	EnsureProject(ctx context.Context, ownerID, projectID string) error
	// ProjectName returns the project's display name, or
	// ErrProjectNotFound for an unknown id/owner pair.
	ProjectName(ctx context.Context, ownerID, projectID string) (string, error)
	// CreateBatch records one import attempt and returns its id.
	CreateBatch(ctx context.Context, ownerID, projectID, sourceFile string) (int64, error)
	// LoadTable upserts the given rows, aligned with plan.Columns, into
	// the plan's table. The load is transactional per table: on any
	// rejected row the whole table rolls back and the error is returned.
	LoadTable(ctx context.Context, plan LoadPlan, rows [][]any) (int, error)
	// FetchTable returns the table's export columns and all row values
	// scoped to the owner and project.
	FetchTable(ctx context.Context, ownerID, projectID string, spec *TableSpec) ([]string, [][]any, error)
}

// PGStore implements Store on a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const loadChunkSize = 1000

func (s *PGStore) EnsureProject(ctx context.Context, ownerID, projectID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO project (id, owner_id, name)
		VALUES ($1, $2, $1)
		ON CONFLICT (owner_id, id) DO NOTHING
	`, projectID, ownerID)
	if err != nil {
		return fmt.Errorf("ensuring project %s: %w", projectID, err)
	}
	return nil
}

func (s *PGStore) ProjectName(ctx context.Context, ownerID, projectID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `
		SELECT name FROM project WHERE id = $1 AND owner_id = $2
	`, projectID, ownerID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up project %s: %w", projectID, err)
	}
	return name, nil
}

func (s *PGStore) CreateBatch(ctx context.Context, ownerID, projectID, sourceFile string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO import_batch (owner_id, project_id, source_file)
		VALUES ($1, $2, $3)
		RETURNING id
	`, ownerID, projectID, sourceFile).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating import batch: %w", err)
	}
	return id, nil
}

// LoadTable upserts rows in chunked pgx batches inside one transaction.
// Key collisions within the owner/project scope update the non-key file
// columns and re-tag the row with the current batch id; any store
// rejection rolls the whole table back.
func (s *PGStore) LoadTable(ctx context.Context, plan LoadPlan, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := buildUpsertSQL(plan.Spec, plan.Columns)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning %s load: %w", plan.Spec.Name, err)
	}
	defer tx.Rollback(ctx)

	loaded := 0
	for start := 0; start < len(rows); start += loadChunkSize {
		end := start + loadChunkSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := &pgx.Batch{}
		for _, row := range rows[start:end] {
			args := make([]any, 0, len(row)+3)
			args = append(args, plan.OwnerID, plan.ProjectID, plan.BatchID)
			args = append(args, row...)
			batch.Queue(query, args...)
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return 0, fmt.Errorf("loading %s row %d: %w", plan.Spec.Name, start+i+1, err)
			}
		}
		if err := results.Close(); err != nil {
			return 0, fmt.Errorf("flushing %s batch: %w", plan.Spec.Name, err)
		}
		loaded = end
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing %s load: %w", plan.Spec.Name, err)
	}

	return loaded, nil
}

func (s *PGStore) FetchTable(ctx context.Context, ownerID, projectID string, spec *TableSpec) ([]string, [][]any, error) {
	cols := spec.ExportColumns()
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE owner_id = $1 AND project_id = $2",
		strings.Join(cols, ", "), spec.SQLName,
	)

	rows, err := s.pool.Query(ctx, query, ownerID, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", spec.Name, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s row: %w", spec.Name, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating %s: %w", spec.Name, err)
	}

	return cols, out, nil
}

// buildUpsertSQL renders the per-file upsert. Scope columns come first,
// then the reconciled file columns; the conflict target is the scoped
// natural key and every non-key file column is updated on collision,
// along with the batch tag.
func buildUpsertSQL(spec *TableSpec, cols []string) string {
	var sb strings.Builder

	sb.WriteString("INSERT INTO ")
	sb.WriteString(spec.SQLName)
	sb.WriteString(" (owner_id, project_id, ")
	sb.WriteString(ImportBatchColumn)
	for _, c := range cols {
		sb.WriteString(", ")
		sb.WriteString(c)
	}
	sb.WriteString(") VALUES (")
	for i := 0; i < len(cols)+3; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", i+1)
	}
	sb.WriteString(") ON CONFLICT (owner_id, project_id, ")
	sb.WriteString(strings.Join(spec.KeyColumns, ", "))
	sb.WriteString(") DO UPDATE SET ")

	sb.WriteString(ImportBatchColumn)
	sb.WriteString(" = EXCLUDED.")
	sb.WriteString(ImportBatchColumn)
	for _, c := range cols {
		if spec.IsKeyColumn(c) {
			continue
		}
		sb.WriteString(", ")
		sb.WriteString(c)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(c)
	}

	return sb.String()
}
