package http

import (
	"encoding/json"
	"net/http"

	"digimart/internal/report"
)

type apiError struct {
	Error string `json:"error"`
}

// handleAPIReport serves the report as JSON.
func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	_, rep, err := s.buildReport(r)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = "failed to build report"
		}
		writeJSON(w, status, apiError{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, report.NewJSONReport(rep, s.svc.Years()))
	s.events.LogReportServed(r.Context(), rep, "api")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
