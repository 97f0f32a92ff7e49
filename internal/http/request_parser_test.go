package http

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digimart/internal/core"
	"digimart/internal/dataset"
	"digimart/internal/report"
)

func TestParseReportParams(t *testing.T) {
	svc := report.NewService(testTable())

	tests := []struct {
		name      string
		query     url.Values
		wantRange string
		wantYear  int
	}{
		{"defaults", url.Values{}, "2017-03-01..2018-01-15", 2017},
		{"inside bounds", url.Values{"start": {"2017-03-02"}, "end": {"2017-12-31"}}, "2017-03-02..2017-12-31", 2017},
		{"clamped", url.Values{"start": {"2010-01-01"}, "end": {"2030-01-01"}}, "2017-03-01..2018-01-15", 2017},
		{"explicit year", url.Values{"year": {"2018"}}, "2017-03-01..2018-01-15", 2018},
		{"year outside dataset", url.Values{"year": {"2016"}}, "2017-03-01..2018-01-15", 2017},
		{"garbage year", url.Values{"year": {"twenty"}}, "2017-03-01..2018-01-15", 2017},
		{"range in later year", url.Values{"start": {"2018-01-01"}}, "2018-01-01..2018-01-15", 2018},
		{"whitespace", url.Values{"start": {" 2017-04-01\t"}}, "2017-04-01..2018-01-15", 2017},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseReportParams(tt.query, svc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRange, p.Range.String())
			assert.Equal(t, tt.wantYear, p.Year)
		})
	}
}

func TestParseReportParamsErrors(t *testing.T) {
	svc := report.NewService(testTable())

	tests := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"unparseable start", url.Values{"start": {"2017-13-01"}}, http.StatusBadRequest},
		{"unparseable end", url.Values{"end": {"31-12-2017"}}, http.StatusBadRequest},
		{"start after end", url.Values{"start": {"2018-01-02"}, "end": {"2018-01-01"}}, http.StatusUnprocessableEntity},
		{"inverted outside bounds", url.Values{"start": {"2030-01-02"}, "end": {"2030-01-01"}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReportParams(tt.query, svc)
			var pe *ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.status, pe.Status)
			assert.Equal(t, tt.status, statusFor(err))
		})
	}
}

func TestParseReportParamsInvertedRangeIsInvalidRange(t *testing.T) {
	svc := report.NewService(testTable())
	_, err := ParseReportParams(url.Values{"start": {"2018-01-02"}, "end": {"2018-01-01"}}, svc)
	assert.True(t, errors.Is(err, core.ErrInvalidRange))
}

func TestParseReportParamsEmptyTable(t *testing.T) {
	svc := report.NewService(dataset.New(nil))

	p, err := ParseReportParams(url.Values{}, svc)
	require.NoError(t, err)
	assert.Equal(t, p.Range.Start, p.Range.End, "an empty table selects a single day")
	assert.Equal(t, 0, p.Year)

	p, err = ParseReportParams(url.Values{"start": {"2017-01-01"}, "end": {"2017-01-31"}}, svc)
	require.NoError(t, err)
	assert.Equal(t, "2017-01-01..2017-01-31", p.Range.String(), "nothing to clamp against")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(core.ErrInvalidRange))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "2017-01-01", sanitizeInput("  2017-\x0001-01\n"))
	assert.Equal(t, "a\tb", sanitizeInput("a\tb"))
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 0, percentOf(0, 10))
	assert.Equal(t, 0, percentOf(5, 0))
	assert.Equal(t, 2, percentOf(1, 1000), "small values stay visible")
	assert.Equal(t, 50, percentOf(5, 10))
	assert.Equal(t, 100, percentOf(10, 10))

	assert.Equal(t, 33, percentOfDecimal(decimal.NewFromInt(1), decimal.NewFromInt(3)))
	assert.Equal(t, 0, percentOfDecimal(decimal.Zero, decimal.NewFromInt(3)))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "1 day", formatDays(1))
	assert.Equal(t, "6.5 days", formatDays(6.5))
	assert.Equal(t, "10 days", formatDays(10))
}
