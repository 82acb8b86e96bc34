package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentqa/mentor/internal/models"
	"github.com/agentqa/mentor/internal/oracle"
	"github.com/agentqa/mentor/internal/reporting"
)

// registerRoutes sets up the API routes on the given mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/v1/qa", s.handleQa)
	mux.HandleFunc("GET /api/v1/qa/report", s.handleLastReport)
}

// handleHealth returns a simple health check response.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleQa analyzes one conversation trace and returns the QA report.
func (s *Server) handleQa(w http.ResponseWriter, r *http.Request) {
	var req models.QaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Trace.ConversationID == "" || len(req.Trace.Events) == 0 {
		writeError(w, http.StatusBadRequest, "trace requires a conversation_id and at least one event")
		return
	}

	analyzer := s.newAnalyzer(req.SessionID)
	report, err := analyzer.RunAnalysis(r.Context(), &req.Trace)
	if err != nil {
		s.logger.Error("QA analysis failed", "conversation_id", req.Trace.ConversationID, "error", err)

		status := http.StatusInternalServerError
		var rawErr *oracle.RawResponseError
		if errors.As(err, &rawErr) {
			// The oracle answered but violated its contract.
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	s.setLastReport(report)
	writeJSON(w, http.StatusOK, report)
}

// handleLastReport renders the most recent QA report as HTML.
func (s *Server) handleLastReport(w http.ResponseWriter, _ *http.Request) {
	report := s.getLastReport()
	if report == nil {
		writeError(w, http.StatusNotFound, "no QA report available yet")
		return
	}

	html, err := reporting.HTML(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html)) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
