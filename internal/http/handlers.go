package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady reports ready once templates are parsed and the dataset is
// loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.svc.Table() == nil {
		checks["dataset"] = "not_loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = map[string]interface{}{
			"rows":   s.svc.Table().Len(),
			"years":  s.svc.Years(),
			"status": "ok",
		}
	}

	if c := s.svc.Cache(); c != nil {
		stats := c.Stats()
		checks["cache"] = map[string]interface{}{
			"entries": stats.Size,
			"status":  "ok",
		}
	} else {
		checks["cache"] = "disabled"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides request, cache and security counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()

	w.WriteHeader(http.StatusOK)

	counter(w, "http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter(w, "http_server_errors_total", "Total number of 5xx responses", traceMetrics.ServerErrors)
	gauge(w, "http_response_time_average_us", "Average response time in microseconds", traceMetrics.AverageResponseTime)

	if s.svc.Table() != nil {
		gauge(w, "dataset_rows", "Order lines in the loaded dataset", int64(s.svc.Table().Len()))
		counter(w, "dataset_reloads_total", "Times the order table was replaced", int64(s.svc.Generation()))
	}
	if c := s.svc.Cache(); c != nil {
		stats := c.Stats()
		counter(w, "report_cache_hits_total", "Total report cache hits", stats.Hits)
		counter(w, "report_cache_misses_total", "Total report cache misses", stats.Misses)
		gauge(w, "report_cache_entries", "Current report cache entries", int64(stats.Size))
	}

	counter(w, "rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	gauge(w, "active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	counter(w, "suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	counter(w, "invalid_ip_attempts_total", "Forwarded headers with an unparseable client address", securityMetrics.InvalidIPAttempts)
	gauge(w, "uptime_seconds", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func counter(w http.ResponseWriter, name, help string, v int64) {
	metric(w, name, help, "counter", v)
}

func gauge(w http.ResponseWriter, name, help string, v int64) {
	metric(w, name, help, "gauge", v)
}

func metric(w http.ResponseWriter, name, help, kind string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, v)
}
