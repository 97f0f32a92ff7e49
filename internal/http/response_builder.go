package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"digimart/internal/report"
)

// errorTarget is the banner on the dashboard page that error fragments are
// swapped into.
const errorTarget = "#report-error"

// HTMXResponseBuilder collects the status, HX-* headers and body of one
// response and writes them in one go.
type HTMXResponseBuilder struct {
	status   int
	header   http.Header
	triggers map[string]any
	body     []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{status: http.StatusOK, header: make(http.Header)}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Trigger queues a client event for the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	if b.triggers == nil {
		b.triggers = make(map[string]any)
	}
	b.triggers[name] = detail
	return b
}

// TriggerReportUpdated announces the selection a swapped report shows.
func (b *HTMXResponseBuilder) TriggerReportUpdated(p report.Params) *HTMXResponseBuilder {
	return b.Trigger("report:updated", map[string]any{
		"start": p.Range.Start.String(),
		"end":   p.Range.End.String(),
		"year":  p.Year,
	})
}

// PushURL makes the browser location track the selection.
func (b *HTMXResponseBuilder) PushURL(u string) *HTMXResponseBuilder {
	return b.Header("HX-Push-Url", u)
}

// Retarget swaps the body into selector instead of the requesting target.
func (b *HTMXResponseBuilder) Retarget(selector string) *HTMXResponseBuilder {
	return b.Header("HX-Retarget", selector).Header("HX-Reswap", "innerHTML")
}

// HTML sets an HTML body.
func (b *HTMXResponseBuilder) HTML(body []byte) *HTMXResponseBuilder {
	b.body = body
	return b.Header("Content-Type", "text/html; charset=utf-8")
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.header {
		h[name] = values
	}
	if len(b.triggers) > 0 {
		if detail, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", string(detail))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, into the error banner.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		Retarget(errorTarget).
		HTML([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// RequireGET returns a 405 response unless r is a GET or HEAD.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil
	}
	return NewHTMXResponse().Status(http.StatusMethodNotAllowed).Header("Allow", "GET, HEAD")
}
