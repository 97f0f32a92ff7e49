package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"digimart/internal/core"
	"digimart/internal/report"
)

func TestHTMXResponseBuilder_Defaults(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().HTML([]byte("<p>ok</p>")).Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	for _, h := range []string{"HX-Trigger", "HX-Push-Url", "HX-Retarget"} {
		if w.Header().Get(h) != "" {
			t.Errorf("%s set on a plain response", h)
		}
	}
}

func TestHTMXResponseBuilder_ReportUpdated(t *testing.T) {
	p := report.Params{
		Range: core.NewDateRange(core.NewDate(2017, 1, 1), core.NewDate(2017, 12, 31)),
		Year:  2017,
	}
	w := httptest.NewRecorder()
	NewHTMXResponse().
		PushURL("/?year=2017").
		TriggerReportUpdated(p).
		Write(w)

	if got := w.Header().Get("HX-Push-Url"); got != "/?year=2017" {
		t.Errorf("HX-Push-Url = %q", got)
	}
	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"report:updated"`, `"start":"2017-01-01"`, `"end":"2017-12-31"`, `"year":2017`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "unprocessable range",
			builder:    ErrorResponse(http.StatusUnprocessableEntity, "start date 2018-01-01 is after end date 2017-01-01"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">start date 2018-01-01 is after end date 2017-01-01</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Failed to build report"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Failed to build report</div>`,
		},
		{
			name:       "escapes markup",
			builder:    ErrorResponse(http.StatusBadRequest, "<script>alert('xss')</script>"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if got := w.Header().Get("HX-Retarget"); got != errorTarget {
				t.Errorf("HX-Retarget = %q, want %q", got, errorTarget)
			}
			if got := w.Header().Get("HX-Reswap"); got != "innerHTML" {
				t.Errorf("HX-Reswap = %q", got)
			}
		})
	}
}

func TestRequireGET(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead} {
		if b := RequireGET(httptest.NewRequest(m, "/", nil)); b != nil {
			t.Errorf("%s rejected", m)
		}
	}

	b := RequireGET(httptest.NewRequest(http.MethodPost, "/", nil))
	if b == nil {
		t.Fatal("POST accepted")
	}
	w := httptest.NewRecorder()
	b.Write(w)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, HEAD" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "GET, HEAD")
	}
}
