package http

import (
	"bytes"
	"context"
	"net/http"

	"digimart/internal/core"
	applog "digimart/internal/log"
	"digimart/internal/report"
)

// handleDashboard renders the full dashboard page for the selection in the
// query string, so pushed URLs can be reloaded.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	rep, _, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	s.render(w, r, "dashboard_page", newReportView(rep, s.svc), NewHTMXResponse())
	s.events.LogReportServed(r.Context(), rep, "dashboard_page")
}

// handleReport returns every card and chart for a selection and pushes the
// matching page URL.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	rep, p, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	resp := NewHTMXResponse().
		PushURL(pushURL(p)).
		TriggerReportUpdated(p)
	s.render(w, r, "report", newReportView(rep, s.svc), resp)
	s.events.LogReportServed(r.Context(), rep, "report")
}

// handlePartial renders a single card or chart.
func (s *Server) handlePartial(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := RequireGET(r); resp != nil {
			resp.Write(w)
			return
		}

		rep, _, ok := s.loadReport(w, r)
		if !ok {
			return
		}
		s.render(w, r, name, newReportView(rep, s.svc), NewHTMXResponse())
		s.events.LogReportServed(r.Context(), rep, name)
	}
}

// loadReport parses the selection and builds its report. When it returns
// false the error response has been written.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (core.Report, report.Params, bool) {
	p, rep, err := s.buildReport(r)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = "Failed to build report"
		}
		ErrorResponse(status, msg).Write(w)
		return core.Report{}, report.Params{}, false
	}
	return rep, p, true
}

func (s *Server) buildReport(r *http.Request) (report.Params, core.Report, error) {
	logger := applog.FromContext(r.Context())

	p, err := ParseReportParams(r.URL.Query(), s.svc)
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid report parameters",
			applog.FieldQuery, r.URL.RawQuery,
			applog.FieldError, err)
		return p, core.Report{}, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rep, err := s.svc.Report(ctx, p)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			s.events.LogError(ctx, "Report build failed", err, applog.ComponentReport, applog.OpBuild,
				applog.NewFields().WithRange(p.Range))
		}
		return p, core.Report{}, err
	}
	return p, rep, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any, resp *HTMXResponseBuilder) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		fields := applog.NewFields()
		fields[applog.FieldTemplate] = name
		s.events.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender, fields)
		InternalServerError("Failed to render " + name).Write(w)
		return
	}
	resp.HTML(buf.Bytes()).Write(w)
}
