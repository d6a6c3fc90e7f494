package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/grading"
)

// AdminHandler exposes the grading back-office over plain HTTP. Auth is an
// upstream gateway concern; these endpoints assume an already-authorized
// caller.
type AdminHandler struct {
	grading *grading.Service
	results grading.ResultRepository
}

func NewAdminHandler(service *grading.Service, results grading.ResultRepository) *AdminHandler {
	return &AdminHandler{grading: service, results: results}
}

// Register mounts the admin routes on a mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/grade-ranges", h.applyRanges)
	mux.HandleFunc("/admin/marks", h.uploadMarks)
	mux.HandleFunc("/admin/recompute", h.recompute)
	mux.HandleFunc("/admin/results", h.listResults)
}

type applyRangesRequest struct {
	Year    int                `json:"year"`
	Subject domain.Subject     `json:"subject"`
	Ranges  domain.GradeRanges `json:"ranges"`
}

func (h *AdminHandler) applyRanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req applyRangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation)
		return
	}
	report, err := h.grading.ApplyRanges(r.Context(), req.Year, req.Subject, req.Ranges)
	h.writeReport(w, report, err)
}

// uploadMarks accepts a CSV body (?year=YYYY), maps it at the boundary
// into typed rows, saves and recomputes.
func (h *AdminHandler) uploadMarks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	year, err := yearParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := grading.ParseMarksCSV(r.Body, year)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.grading.SaveMarks(r.Context(), rows)
	h.writeReport(w, report, err)
}

func (h *AdminHandler) recompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	year, err := yearParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.grading.Recompute(r.Context(), year)
	h.writeReport(w, report, err)
}

func (h *AdminHandler) listResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	year, err := yearParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.results.ListByYear(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// writeReport surfaces partial batch failures with 502 so admins see an
// explicit retry affordance instead of a silent partial apply.
func (h *AdminHandler) writeReport(w http.ResponseWriter, report grading.BatchReport, err error) {
	if err != nil && report.Updated == 0 && report.Failed == 0 {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if report.Failed > 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, report)
}

func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("%w: missing or invalid year parameter", domain.ErrValidation)
	}
	return year, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorPayload{Kind: errorKind(err), Message: err.Error()})
}
