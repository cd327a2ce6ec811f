// Package profithttp exposes the profitability reporting API.
package profithttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/vantage-erp/vantage-erp/internal/platform/httpx"
	"github.com/vantage-erp/vantage-erp/internal/profit"
	"github.com/vantage-erp/vantage-erp/internal/profit/export"
	"github.com/vantage-erp/vantage-erp/jobs"
)

// ArchiveStore is the archive surface the HTTP layer depends on.
type ArchiveStore interface {
	Create(ctx context.Context, id uuid.UUID, filter profit.ReportFilter) (*profit.ExportRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*profit.ExportRequest, error)
	File(ctx context.Context, id uuid.UUID) (string, []byte, error)
}

// Enqueuer submits background tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PDFRenderer converts an HTML document into PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Handler wires HTTP endpoints for profitability reports.
type Handler struct {
	logger   *slog.Logger
	service  *profit.Service
	archive  ArchiveStore
	enqueuer Enqueuer
	pdf      PDFRenderer
}

// NewHandler constructs a Handler value.
func NewHandler(logger *slog.Logger, service *profit.Service, archive ArchiveStore, enqueuer Enqueuer, pdf PDFRenderer) *Handler {
	return &Handler{logger: logger, service: service, archive: archive, enqueuer: enqueuer, pdf: pdf}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/report", h.report)
	r.Post("/export", h.exportXLSX)
	r.Post("/print", h.print)
	r.Post("/exports", h.createExport)
	r.Get("/exports/{id}", h.exportStatus)
	r.Get("/exports/{id}/download", h.downloadExport)
}

type reportRequest struct {
	DateFrom     string  `json:"date_from"`
	DateTo       string  `json:"date_to"`
	CompanyID    int64   `json:"company_id"`
	CustomerIDs  []int64 `json:"customer_ids,omitempty"`
	CategoryIDs  []int64 `json:"category_ids,omitempty"`
	GroupBy      string  `json:"group_by,omitempty"`
	ShowDetails  *bool   `json:"show_details,omitempty"`
	IncludeTaxes *bool   `json:"include_taxes,omitempty"`
}

type exportRequestBody struct {
	reportRequest
	RequestID string `json:"request_id,omitempty"`
}

func (r reportRequest) toFilter() (profit.ReportFilter, error) {
	filter := profit.ReportFilter{
		CompanyID:    r.CompanyID,
		CustomerIDs:  r.CustomerIDs,
		CategoryIDs:  r.CategoryIDs,
		GroupBy:      profit.GroupByOrder,
		ShowDetails:  true,
		IncludeTaxes: true,
	}
	if r.GroupBy != "" {
		filter.GroupBy = profit.GroupBy(r.GroupBy)
	}
	if r.ShowDetails != nil {
		filter.ShowDetails = *r.ShowDetails
	}
	if r.IncludeTaxes != nil {
		filter.IncludeTaxes = *r.IncludeTaxes
	}
	var err error
	if filter.DateFrom, err = parseDate(r.DateFrom); err != nil {
		return filter, fmt.Errorf("%w: date_from: %v", profit.ErrInvalidFilter, err)
	}
	if filter.DateTo, err = parseDate(r.DateTo); err != nil {
		return filter, fmt.Errorf("%w: date_to: %v", profit.ErrInvalidFilter, err)
	}
	return filter, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("required")
	}
	return time.Parse("2006-01-02", value)
}

// report runs the pipeline and responds with JSON or a printable HTML page.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	var body reportRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	filter, err := body.toFilter()
	if err != nil {
		h.respondError(w, r, "Error generating report", err)
		return
	}
	view, err := h.service.GenerateReport(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, "Error generating report", err)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, export.BuildHTML(view))
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

// exportXLSX generates the workbook synchronously and streams it back.
func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	var body reportRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	filter, err := body.toFilter()
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	report, err := h.service.BuildReport(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	data, err := export.WriteWorkbook(report)
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	serveAttachment(w, filter.ExcelFilename(), profit.XLSXContentType, data)
}

// print renders the report as a PDF via Gotenberg.
func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Printing Unavailable", "PDF rendering is not configured.")
		return
	}
	var body reportRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	filter, err := body.toFilter()
	if err != nil {
		h.respondError(w, r, "Error printing report", err)
		return
	}
	view, err := h.service.GenerateReport(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, "Error printing report", err)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), export.BuildHTML(view))
	if err != nil {
		h.respondError(w, r, "Error printing report", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="sales_profitability.pdf"`)
	_, _ = io.Copy(w, bytes.NewReader(pdf))
}

// createExport records a queued export request and submits the job.
func (h *Handler) createExport(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil || h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Exports Unavailable", "Queued exports are not configured.")
		return
	}
	var body exportRequestBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	filter, err := body.toFilter()
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	if err := filter.Validate(); err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	id := uuid.New()
	if body.RequestID != "" {
		parsed, err := uuid.Parse(body.RequestID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request_id must be a UUID.")
			return
		}
		id = parsed
	}
	req, err := h.archive.Create(r.Context(), id, filter)
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	task, err := jobs.NewProfitabilityExportTask(jobs.ProfitabilityExportPayload{RequestID: req.ID.String()})
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	if _, err := h.enqueuer.EnqueueContext(r.Context(), task); err != nil {
		h.logger.Error("enqueue profitability export", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Error creating Excel file", "Could not submit the export job.")
		return
	}
	httpx.JSON(w, http.StatusAccepted, req)
}

// exportStatus reports the lifecycle state of a queued export.
func (h *Handler) exportStatus(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Exports Unavailable", "Queued exports are not configured.")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be a UUID.")
		return
	}
	req, err := h.archive.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

// downloadExport streams the workbook of a ready queued export.
func (h *Handler) downloadExport(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Exports Unavailable", "Queued exports are not configured.")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "id must be a UUID.")
		return
	}
	filename, data, err := h.archive.File(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "Error creating Excel file", err)
		return
	}
	serveAttachment(w, filename, profit.XLSXContentType, data)
}

func serveAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = io.Copy(w, bytes.NewReader(data))
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, profit.ErrInvalidFilter):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, profit.ErrNoMatchingOrders):
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Matching Data", err.Error())
	case errors.Is(err, profit.ErrExportNotFound):
		httpx.Problem(w, http.StatusNotFound, "Export Not Found", "No export request with that id.")
	case errors.Is(err, profit.ErrExportExists):
		httpx.Problem(w, http.StatusConflict, "Export Exists", "An export request with that id already exists.")
	case errors.Is(err, profit.ErrExportNotReady):
		httpx.Problem(w, http.StatusConflict, "Export Not Ready", "The export file is not ready yet.")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, op, "An unexpected error occurred.")
	}
}
