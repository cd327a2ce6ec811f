package profit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/vantage-erp/vantage-erp/jobs"
)

// ExportStore is the archive surface the worker job depends on.
type ExportStore interface {
	Get(ctx context.Context, id uuid.UUID) (*ExportRequest, error)
	MarkInProgress(ctx context.Context, id uuid.UUID) error
	MarkReady(ctx context.Context, id uuid.UUID, filename string, data []byte) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Service *Service
	Store   ExportStore
	// Workbook renders a report into an xlsx payload.
	Workbook  func(*Report) ([]byte, error)
	Retention time.Duration
	Logger    *slog.Logger
}

// Job processes queued export requests coming from the queue.
type Job struct {
	service   *Service
	store     ExportStore
	workbook  func(*Report) ([]byte, error)
	retention time.Duration
	logger    *slog.Logger
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	retention := cfg.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &Job{
		service:   cfg.Service,
		store:     cfg.Store,
		workbook:  cfg.Workbook,
		retention: retention,
		logger:    cfg.Logger,
	}
}

// HandleExport fulfils the asynq.HandlerFunc contract for export generation.
func (j *Job) HandleExport(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.service == nil || j.store == nil || j.workbook == nil {
		return fmt.Errorf("profit: export job not configured")
	}
	var payload jobs.ProfitabilityExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	id, err := uuid.Parse(payload.RequestID)
	if err != nil {
		return asynq.SkipRetry
	}
	req, err := j.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExportNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	if req.Status == ExportStatusReady {
		return nil
	}
	if err := j.store.MarkInProgress(ctx, req.ID); err != nil {
		return err
	}
	report, err := j.service.BuildReport(ctx, req.Filter)
	if err != nil {
		_ = j.store.MarkFailed(ctx, req.ID, err.Error())
		if errors.Is(err, ErrInvalidFilter) || errors.Is(err, ErrNoMatchingOrders) {
			// Retrying cannot change the outcome for these.
			return asynq.SkipRetry
		}
		return err
	}
	data, err := j.workbook(report)
	if err != nil {
		_ = j.store.MarkFailed(ctx, req.ID, err.Error())
		return err
	}
	if err := j.store.MarkReady(ctx, req.ID, req.Filter.ExcelFilename(), data); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("profitability export ready",
			slog.String("request_id", req.ID.String()),
			slog.Int("bytes", len(data)))
	}
	return nil
}

// HandleCleanup purges exports past the retention window.
func (j *Job) HandleCleanup(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.store == nil {
		return fmt.Errorf("profit: export job not configured")
	}
	purged, err := j.store.DeleteOlderThan(ctx, j.retention)
	if err != nil {
		return err
	}
	if j.logger != nil && purged > 0 {
		j.logger.Info("expired exports purged", slog.Int64("count", purged))
	}
	return nil
}
