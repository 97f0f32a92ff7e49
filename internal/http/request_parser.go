// Package http serves the dashboard page, its htmx partials and the JSON API.
//
// This file turns the start/end/year query parameters into report
// parameters bounded by the loaded dataset.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"digimart/internal/core"
	"digimart/internal/report"
)

const dateLayout = "2006-01-02"

// ParamError is a request parameter problem with the status it maps to.
type ParamError struct {
	Status  int
	Message string
	Err     error
}

func (e *ParamError) Error() string { return e.Message }

func (e *ParamError) Unwrap() error { return e.Err }

// ParseReportParams reads start, end and year from query.
//
// Missing dates default to the dataset bounds and dates outside the bounds
// are clamped to them. An unparseable date is a 400, start after end a 422.
// A missing or unknown year falls back to the first dataset year the range
// covers.
func ParseReportParams(query url.Values, svc *report.Service) (report.Params, error) {
	min, max, ok := svc.Table().DateBounds()
	if !ok {
		today := core.DateOf(time.Now().UTC())
		min, max = today, today
	}

	start, err := parseDateParam(query, "start", min)
	if err != nil {
		return report.Params{}, err
	}
	end, err := parseDateParam(query, "end", max)
	if err != nil {
		return report.Params{}, err
	}

	r := core.NewDateRange(start, end)
	if err := r.Validate(); err != nil {
		return report.Params{}, &ParamError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("start date %s is after end date %s", start, end),
			Err:     err,
		}
	}
	if ok {
		r = r.Clamp(min, max)
	}

	p := report.Params{Range: r, Year: svc.DefaultYear(r)}
	if v := sanitizeInput(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && svc.Table().HasYear(y) {
			p.Year = y
		}
	}
	return p, nil
}

func parseDateParam(query url.Values, name string, fallback core.Date) (core.Date, error) {
	v := sanitizeInput(query.Get(name))
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return core.Date{}, &ParamError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid %s date %q, expected YYYY-MM-DD", name, v),
			Err:     err,
		}
	}
	return core.DateOf(t), nil
}

// statusFor maps a report error to an HTTP status.
func statusFor(err error) int {
	var pe *ParamError
	switch {
	case errors.As(err, &pe):
		return pe.Status
	case errors.Is(err, core.ErrInvalidRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
