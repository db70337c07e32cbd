package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/reconcile"
	"github.com/sells-group/underwrite/internal/rollup"
)

const maxBodyBytes = 1 << 20

// reconciliationRequest is the PUT body. Weights are percentages (0-100).
type reconciliationRequest struct {
	SalesWeight       float64    `json:"sales_weight"`
	CostWeight        float64    `json:"cost_weight"`
	IncomeWeight      float64    `json:"income_weight"`
	Narrative         string     `json:"narrative"`
	EffectiveDate     string     `json:"effective_date"`
	Override          *float64   `json:"override"`
	ClearOverride     bool       `json:"clear_override"`
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at"`
}

func (req reconciliationRequest) toSave() (reconcile.SaveRequest, error) {
	if req.Override != nil && req.ClearOverride {
		return reconcile.SaveRequest{}, apperr.Validation("override and clear_override are mutually exclusive")
	}
	weights, err := reconcile.WeightsFromPercent(req.SalesWeight, req.CostWeight, req.IncomeWeight)
	if err != nil {
		return reconcile.SaveRequest{}, err
	}
	out := reconcile.SaveRequest{
		Weights:           weights,
		Narrative:         req.Narrative,
		Override:          req.Override,
		ClearOverride:     req.ClearOverride,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
	}
	if req.EffectiveDate != "" {
		d, err := time.Parse(time.DateOnly, req.EffectiveDate)
		if err != nil {
			return reconcile.SaveRequest{}, apperr.Validation("effective_date %q must be YYYY-MM-DD", req.EffectiveDate)
		}
		out.EffectiveDate = &d
	}
	return out, nil
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	projectID, err := rollup.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.reports.GenerateID(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) getReconciliation(w http.ResponseWriter, r *http.Request) {
	projectID, err := rollup.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.recon.Get(r.Context(), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) putReconciliation(w http.ResponseWriter, r *http.Request) {
	projectID, err := rollup.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body reconciliationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, r, apperr.Validation("request body is required"))
			return
		}
		writeError(w, r, apperr.Validation("invalid request body: %s", err.Error()))
		return
	}

	req, err := body.toSave()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.recon.Save(r.Context(), projectID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Section   string `json:"section,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	body := errorBody{
		Error:     err.Error(),
		Kind:      string(kind),
		Section:   apperr.SectionOf(err),
		RequestID: RequestIDFrom(r.Context()),
	}
	if kind == apperr.KindInternal {
		body.Error = strings.ToLower(http.StatusText(status))
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("request_id", body.RequestID),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
