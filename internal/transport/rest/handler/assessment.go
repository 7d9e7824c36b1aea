package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"skillcheck/internal/model"
	"skillcheck/internal/service"
	"skillcheck/internal/transport/rest/middleware"
)

// AssessmentHandler handles assessment session endpoints
type AssessmentHandler struct {
	assessmentSvc *service.AssessmentService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentSvc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentSvc: assessmentSvc}
}

// Start handles GET /v1/start-assessment/{id}
func (h *AssessmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	assessmentID := mux.Vars(r)["id"]
	candidateID := middleware.GetCandidateID(r.Context())

	resp, err := h.assessmentSvc.Start(r.Context(), assessmentID, candidateID)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Sync handles POST /v1/assessment-submission/{id}
func (h *AssessmentHandler) Sync(w http.ResponseWriter, r *http.Request) {
	assessmentID := mux.Vars(r)["id"]
	candidateID := middleware.GetCandidateID(r.Context())

	var req model.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.assessmentSvc.Sync(r.Context(), assessmentID, candidateID, req.ResponseSheet); err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrAttemptNotStarted):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// SubmitFinal handles PUT /v1/assessment-submission/{id}/final
func (h *AssessmentHandler) SubmitFinal(w http.ResponseWriter, r *http.Request) {
	assessmentID := mux.Vars(r)["id"]
	candidateID := middleware.GetCandidateID(r.Context())

	var req model.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.assessmentSvc.SubmitFinal(r.Context(), assessmentID, candidateID, req.ResponseSheet)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
