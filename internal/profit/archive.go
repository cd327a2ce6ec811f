package profit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive persists queued export requests and their generated files. It is
// the only state this system writes; report runs themselves persist nothing.
type Archive struct {
	pool *pgxpool.Pool
}

// NewArchive constructs an archive backed by the given pool.
func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// Create records a new pending export request. A repeated id reports
// ErrExportExists so enqueueing stays idempotent.
func (a *Archive) Create(ctx context.Context, id uuid.UUID, filter ReportFilter) (*ExportRequest, error) {
	if a == nil || a.pool == nil {
		return nil, fmt.Errorf("profit: archive not initialised")
	}
	payload, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}
	const query = `
		INSERT INTO profitability_exports (id, filter, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, updated_at
	`
	req := ExportRequest{ID: id, Filter: filter, Status: ExportStatusPending}
	err = a.pool.QueryRow(ctx, query, id, payload, ExportStatusPending).
		Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return nil, ErrExportExists
		}
		return nil, err
	}
	return &req, nil
}

// Get loads an export request without its file payload.
func (a *Archive) Get(ctx context.Context, id uuid.UUID) (*ExportRequest, error) {
	if a == nil || a.pool == nil {
		return nil, fmt.Errorf("profit: archive not initialised")
	}
	const query = `
		SELECT id, filter, status, COALESCE(filename, ''), COALESCE(file_size, 0),
		       error, created_at, updated_at
		FROM profitability_exports
		WHERE id = $1
	`
	var req ExportRequest
	var payload []byte
	err := a.pool.QueryRow(ctx, query, id).Scan(&req.ID, &payload, &req.Status,
		&req.Filename, &req.FileSize, &req.Error, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExportNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &req.Filter); err != nil {
		return nil, fmt.Errorf("unmarshal filter: %w", err)
	}
	return &req, nil
}

// MarkInProgress transitions a pending request before generation starts.
func (a *Archive) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	return a.setStatus(ctx, id,
		`UPDATE profitability_exports SET status = $2, updated_at = now() WHERE id = $1`,
		ExportStatusInProgress)
}

// MarkReady stores the generated file and completes the request.
func (a *Archive) MarkReady(ctx context.Context, id uuid.UUID, filename string, data []byte) error {
	if a == nil || a.pool == nil {
		return fmt.Errorf("profit: archive not initialised")
	}
	const query = `
		UPDATE profitability_exports
		SET status = $2, filename = $3, file = $4, file_size = $5, error = NULL, updated_at = now()
		WHERE id = $1
	`
	tag, err := a.pool.Exec(ctx, query, id, ExportStatusReady, filename, data, int64(len(data)))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}

// MarkFailed records the failure reason surfaced to the user.
func (a *Archive) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if a == nil || a.pool == nil {
		return fmt.Errorf("profit: archive not initialised")
	}
	const query = `
		UPDATE profitability_exports
		SET status = $2, error = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := a.pool.Exec(ctx, query, id, ExportStatusFailed, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}

// File returns the stored workbook of a ready request.
func (a *Archive) File(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	if a == nil || a.pool == nil {
		return "", nil, fmt.Errorf("profit: archive not initialised")
	}
	const query = `
		SELECT status, COALESCE(filename, ''), file
		FROM profitability_exports
		WHERE id = $1
	`
	var status ExportStatus
	var filename string
	var data []byte
	err := a.pool.QueryRow(ctx, query, id).Scan(&status, &filename, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrExportNotFound
		}
		return "", nil, err
	}
	if status != ExportStatusReady {
		return "", nil, ErrExportNotReady
	}
	return filename, data, nil
}

// DeleteOlderThan removes export rows past the retention window and reports
// how many were purged.
func (a *Archive) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if a == nil || a.pool == nil {
		return 0, fmt.Errorf("profit: archive not initialised")
	}
	cutoff := time.Now().Add(-age)
	tag, err := a.pool.Exec(ctx,
		`DELETE FROM profitability_exports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (a *Archive) setStatus(ctx context.Context, id uuid.UUID, query string, status ExportStatus) error {
	if a == nil || a.pool == nil {
		return fmt.Errorf("profit: archive not initialised")
	}
	tag, err := a.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}
