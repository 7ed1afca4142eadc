// Package api exposes the approval workflow and the import, aggregation and
// report operations over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kintai/internal/services"
	"kintai/internal/worker"
)

// Handler holds the services behind the HTTP surface. Importer may be nil
// when no calendar is configured; the import endpoint then answers 503.
type Handler struct {
	Approvals  *services.ApprovalService
	Aggregator *services.Aggregator
	Reports    *services.ReportService
	Importer   *worker.ImportWorker
}

func NewHandler(approvals *services.ApprovalService, aggregator *services.Aggregator, reports *services.ReportService, importer *worker.ImportWorker) *Handler {
	return &Handler{
		Approvals:  approvals,
		Aggregator: aggregator,
		Reports:    reports,
		Importer:   importer,
	}
}

type (
	submitApprovalRequest struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		TargetMonth string `json:"targetMonth"`
		Decision    string `json:"decision"`
		Comment     string `json:"comment"`
	}

	submitApprovalResponse struct {
		Success     bool                  `json:"success"`
		NeedsReport bool                  `json:"needsReportGeneration"`
		FormData    submitApprovalRequest `json:"formData"`
	}

	approvalListResponse struct {
		Headers []string   `json:"headers"`
		Rows    [][]string `json:"rows"`
	}

	monthOptionDTO struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}

	monthSummaryResponse struct {
		CompletedTasks  string `json:"completedTasks"`
		InProgressTasks string `json:"inProgressTasks"`
		Remarks         string `json:"remarks"`
	}

	workDetailDTO struct {
		Date        string  `json:"date"`
		Hours       float64 `json:"hours"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
	}

	importResponse struct {
		Success bool `json:"success"`
		Created int  `json:"created"`
		Updated int  `json:"updated"`
		Deleted int  `json:"deleted"`
	}

	generateReportRequest struct {
		Month string `json:"month"`
	}

	generateReportResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		URL     string `json:"url"`
		Name    string `json:"name"`
	}
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	// Readiness only needs the query side to answer.
	if _, err := h.Approvals.ListUnapprovedMonths(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "backend not reachable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// SubmitApproval records one approval form submission.
func (h *Handler) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	var req submitApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.TargetMonth) == "" || strings.TrimSpace(req.Decision) == "" {
		writeError(w, http.StatusBadRequest, "targetMonth and decision are required", nil)
		return
	}

	res, err := h.Approvals.Submit(r.Context(), services.SubmitInput{
		Email:       req.Email,
		Name:        req.Name,
		TargetMonth: req.TargetMonth,
		Decision:    req.Decision,
		Comment:     req.Comment,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record approval", err)
		return
	}

	writeJSON(w, http.StatusCreated, submitApprovalResponse{
		Success:     true,
		NeedsReport: res.NeedsReport,
		FormData:    req,
	})
}

func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	list, err := h.Approvals.ListApprovals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list approvals", err)
		return
	}
	if list.Rows == nil {
		list.Rows = [][]string{}
	}
	writeJSON(w, http.StatusOK, approvalListResponse{Headers: list.Headers, Rows: list.Rows})
}

func (h *Handler) ListUnapprovedMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.Approvals.ListUnapprovedMonths(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list unapproved months", err)
		return
	}

	dtos := make([]monthOptionDTO, len(months))
	for i, m := range months {
		dtos[i] = monthOptionDTO{Value: m.Value, Label: m.Label}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetMonthSummary(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	summary, err := h.Approvals.SummaryForMonth(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read summary", err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "no summary for month "+month, nil)
		return
	}

	writeJSON(w, http.StatusOK, monthSummaryResponse{
		CompletedTasks:  summary.CompletedTasks,
		InProgressTasks: summary.InProgressTasks,
		Remarks:         summary.Remarks,
	})
}

func (h *Handler) GetMonthDetails(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	details, err := h.Approvals.WorkDetailsForMonth(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read work details", err)
		return
	}

	dtos := make([]workDetailDTO, len(details))
	for i, d := range details {
		dtos[i] = workDetailDTO{
			Date:        d.Date,
			Hours:       d.Hours,
			Description: d.Description,
			Status:      d.Status,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TriggerImport runs one reconcile-and-aggregate pass on demand.
func (h *Handler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar import is not configured", nil)
		return
	}

	stats, err := h.Importer.RunOnce(r.Context())
	if err != nil {
		var missing *services.MissingConfigError
		if errors.As(err, &missing) {
			writeError(w, http.StatusUnprocessableEntity, missing.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "import failed", err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Success: true,
		Created: stats.Created,
		Updated: stats.Updated,
		Deleted: stats.Deleted,
	})
}

func (h *Handler) TriggerAggregate(w http.ResponseWriter, r *http.Request) {
	if err := h.Aggregator.Run(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "aggregation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GenerateReport renders a report synchronously. An empty month targets the
// previous calendar month.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req generateReportRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	rendered, err := h.Reports.Generate(r.Context(), req.Month)
	if errors.Is(err, services.ErrMonthNotFound) {
		writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, generateReportResponse{
		Success: true,
		Message: rendered.Name + " を作成しました",
		URL:     rendered.URL,
		Name:    rendered.Name,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Error(message, "error", err)
	}
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
