package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digimart/internal/core"
	"digimart/internal/dataset"
	applog "digimart/internal/log"
	"digimart/internal/report"
)

func days(d float64) *float64 { return &d }

func testTable() *dataset.Table {
	at := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 10, 0, 0, 0, time.UTC) }
	return dataset.New([]core.Order{
		{OrderID: "A", PaymentType: core.CreditCard, PaymentValue: decimal.NewFromInt(10), PurchasedAt: at(2017, 3, 1), DeliveryTime: days(5)},
		{OrderID: "A", PaymentType: core.CreditCard, PaymentValue: decimal.NewFromInt(10), PurchasedAt: at(2017, 3, 1), DeliveryTime: days(5)},
		{OrderID: "B", PaymentType: core.Boleto, PaymentValue: decimal.NewFromInt(20), PurchasedAt: at(2017, 3, 2), DeliveryTime: days(6.5)},
		{OrderID: "C", PaymentType: core.Voucher, PaymentValue: decimal.NewFromInt(5), PurchasedAt: at(2018, 1, 15)},
	})
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Output: io.Discard})
	}
	svc := report.NewService(testTable(), report.WithCache(8, time.Minute))
	s := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboardPage(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "DigiMart Dashboard")
	assert.Contains(t, body, `value="2017-03-01"`, "start defaults to the first purchase day")
	assert.Contains(t, body, `value="2018-01-15"`, "end defaults to the last purchase day")
	assert.Contains(t, body, "US $45.00")
	assert.Contains(t, body, "US $11.25")
	assert.Contains(t, body, "Credit Card")
	assert.Contains(t, body, "6.5 days")
	assert.Contains(t, body, `<option value="2017" selected>`)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestDashboardUnknownPath(t *testing.T) {
	s := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope").Code)
}

func TestReportPartial(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/ui/report?start=2017-01-01&end=2017-12-31&year=2017")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/?end=2017-12-31&start=2017-03-01&year=2017", rec.Header().Get("HX-Push-Url"))
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "report:updated")

	body := rec.Body.String()
	assert.Contains(t, body, "US $40.00")
	assert.Contains(t, body, "US $13.33")
	assert.Contains(t, body, "March")
	assert.NotContains(t, body, "<html", "partials are fragments")
}

func TestPartials(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		path string
		want string
	}{
		{"/ui/summary", "Total transactions"},
		{"/ui/payment-types", "Boleto"},
		{"/ui/monthly", "January"},
		{"/ui/delivery-time", "5 days"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path+"?year=2018")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestEmptySelectionRendersPlaceholders(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/ui/report?start=2017-06-01&end=2017-06-30")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No orders in the selected range")
	assert.Contains(t, body, "n/a", "average of an empty selection is not shown")
	assert.Contains(t, body, "US $0.00")
}

func TestReportParameterErrors(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"bad start", "/ui/report?start=01/02/2017", http.StatusBadRequest, "invalid start date"},
		{"bad end", "/ui/summary?end=tomorrow", http.StatusBadRequest, "invalid end date"},
		{"inverted range", "/ui/report?start=2017-12-31&end=2017-01-01", http.StatusUnprocessableEntity, "is after end date"},
		{"inverted api range", "/api/report?start=2017-12-31&end=2017-01-01", http.StatusUnprocessableEntity, "is after end date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			if strings.HasPrefix(tt.target, "/ui/") {
				assert.Equal(t, "#report-error", rec.Header().Get("HX-Retarget"))
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/", "/ui/report", "/ui/monthly", "/api/report"} {
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("Allow"), path)
	}
}

func TestAPIReport(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/api/report?start=2017-01-01&end=2017-12-31&year=2017")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got report.JSONReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "2017-03-01", got.Range.Start, "start is clamped to the dataset")
	assert.Equal(t, "2017-12-31", got.Range.End)
	assert.Equal(t, 2017, got.Year)
	assert.Equal(t, []int{2017, 2018}, got.Years)
	assert.Equal(t, 3, got.Rows)

	assert.Equal(t, 3, got.Summary.TotalOrders)
	assert.Equal(t, "40.00", got.Summary.TotalTransactions)
	assert.Equal(t, "13.33", got.Summary.AverageTransactions)
	assert.True(t, got.Summary.HasData)

	require.Len(t, got.PaymentTypes, 2)
	assert.Equal(t, report.JSONPaymentType{PaymentType: "boleto", Label: "Boleto", Orders: 1}, got.PaymentTypes[0])
	assert.Equal(t, report.JSONPaymentType{PaymentType: "credit_card", Label: "Credit Card", Orders: 1}, got.PaymentTypes[1])

	require.Len(t, got.Monthly, 1)
	assert.Equal(t, report.JSONMonth{MonthEnd: "2017-03-31", Month: "March", TotalOrders: 2, Income: "40.00"}, got.Monthly[0])

	assert.Equal(t, []report.JSONDelivery{{Days: 5, Orders: 1}, {Days: 6.5, Orders: 1}}, got.DeliveryTime)
}

func TestAPIReportYearFallback(t *testing.T) {
	s := newTestServer(t, Options{})

	var got report.JSONReport
	rec := get(t, s, "/api/report?start=2018-01-01&year=1999")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2018, got.Year, "unknown year falls back to the first year in range")
	assert.Equal(t, "2018-01-15", got.Range.End)
	assert.Equal(t, 1, got.Rows)
}

func TestAPIRateLimit(t *testing.T) {
	s := newTestServer(t, Options{APIRequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, get(t, s, "/api/report").Code)
	}
	rec := get(t, s, "/api/report")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	// The dashboard itself is not rate limited.
	assert.Equal(t, http.StatusOK, get(t, s, "/ui/summary").Code)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = get(t, s, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	var ready struct {
		Status string `json:"status"`
		Checks struct {
			Dataset struct {
				Rows int `json:"rows"`
			} `json:"dataset"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, 4, ready.Checks.Dataset.Rows)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, Options{})

	get(t, s, "/api/report")
	get(t, s, "/api/report")
	get(t, s, "/.env")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "# TYPE http_requests_total counter")
	assert.Contains(t, body, "dataset_rows 4")
	assert.Contains(t, body, "dataset_reloads_total 0")
	assert.Contains(t, body, "report_cache_hits_total 1")
	assert.Contains(t, body, "suspicious_requests_total 1")
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css"))

	rec = get(t, s, "/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "htmx:beforeSwap")
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := newTestServer(t, Options{})
	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))
}
