package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/application/usecase"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/pkg/auth"
)

const (
	maxProfileBytes  = 1 << 20
	maxWorkbookBytes = 10 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// EvaluationHandler exposes the evaluation use cases over HTTP.
type EvaluationHandler struct {
	evaluate *usecase.EvaluateApplicationUseCase
	get      *usecase.GetEvaluationUseCase
	list     *usecase.ListEvaluationsUseCase
	batch    *usecase.BatchEvaluateUseCase
	logger   *slog.Logger
}

// NewEvaluationHandler creates the handler. batch may be nil, in which case
// the batch route is not registered.
func NewEvaluationHandler(
	evaluate *usecase.EvaluateApplicationUseCase,
	get *usecase.GetEvaluationUseCase,
	list *usecase.ListEvaluationsUseCase,
	batch *usecase.BatchEvaluateUseCase,
	logger *slog.Logger,
) *EvaluationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationHandler{
		evaluate: evaluate,
		get:      get,
		list:     list,
		batch:    batch,
		logger:   logger,
	}
}

// RegisterRoutes registers the evaluation endpoints on the provided ServeMux.
func (h *EvaluationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/evaluations", h.Evaluate)
	mux.HandleFunc("GET /v1/evaluations/{id}", h.GetEvaluation)
	mux.HandleFunc("GET /v1/applicants/{reference}/evaluations", h.ListEvaluations)
	if h.batch != nil {
		mux.HandleFunc("POST /v1/batches", h.Batch)
	}
}

// Evaluate handles POST /v1/evaluations. The body is either
// {"profile": {...}, "prior": {...}} or a bare profile object.
func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAPIClient) {
		return
	}

	req, err := decodeEvaluateRequest(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.evaluate.Execute(r.Context(), req)
	if err != nil {
		h.writeUseCaseError(w, r, "evaluate applicant", err)
		return
	}

	w.Header().Set("Location", "/v1/evaluations/"+resp.ID)
	writeJSON(w, http.StatusCreated, resp)
}

// GetEvaluation handles GET /v1/evaluations/{id}.
func (h *EvaluationHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAnalyst, auth.RoleAPIClient) {
		return
	}

	resp, err := h.get.Execute(r.Context(), dto.GetEvaluationRequest{EvaluationID: r.PathValue("id")})
	if err != nil {
		h.writeUseCaseError(w, r, "get evaluation", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEvaluations handles GET /v1/applicants/{reference}/evaluations?limit=N.
func (h *EvaluationHandler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAnalyst) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	resp, err := h.list.Execute(r.Context(), dto.ListEvaluationsRequest{
		ApplicantReference: r.PathValue("reference"),
		Limit:              limit,
	})
	if err != nil {
		h.writeUseCaseError(w, r, "list evaluations", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Batch handles POST /v1/batches. The body is an xlsx workbook. Query
// parameters: sheet, upload=true to store the report, ttl for the link
// lifetime, and format=xlsx to receive the report itself instead of a
// JSON summary.
func (h *EvaluationHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleAdmin, auth.RoleUnderwriter) {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorkbookBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "workbook too large")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "workbook is required")
		return
	}

	q := r.URL.Query()
	req := dto.BatchEvaluateRequest{
		Workbook:   data,
		Sheet:      q.Get("sheet"),
		ReportName: q.Get("name"),
		Upload:     q.Get("upload") == "true",
	}
	if raw := q.Get("ttl"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ttl")
			return
		}
		req.LinkTTL = ttl
	}

	resp, err := h.batch.Execute(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "batch evaluation failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "batch evaluation failed")
		return
	}

	if q.Get("format") == "xlsx" {
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="credit-decisions.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Report)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EvaluationHandler) writeUseCaseError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var incomplete *model.ProfileIncompleteError
	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   model.ErrProfileIncomplete.Error(),
			Missing: incomplete.Missing,
		})
	case errors.Is(err, model.ErrProfileIncomplete):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrEvaluationNotFound):
		writeError(w, http.StatusNotFound, "evaluation not found")
	default:
		h.logger.ErrorContext(r.Context(), "failed to "+op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeEvaluateRequest keeps numbers as json.Number so amounts are parsed
// as decimals downstream.
func decodeEvaluateRequest(body io.Reader) (dto.EvaluateRequest, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return dto.EvaluateRequest{}, err
	}

	profile, wrapped := raw["profile"].(map[string]any)
	if !wrapped {
		return dto.EvaluateRequest{Profile: raw}, nil
	}
	req := dto.EvaluateRequest{Profile: profile}
	if prior, ok := raw["prior"].(map[string]any); ok {
		req.Prior = prior
	}
	return req, nil
}

func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	for _, role := range roles {
		if claims.HasRole(role) {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "insufficient permissions")
	return false
}
