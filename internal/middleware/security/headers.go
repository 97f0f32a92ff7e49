// Package security sets response security headers and flags suspicious
// requests.
package security

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersConfig lists the response headers to send. Empty values are
// skipped.
type HeadersConfig struct {
	// CSP directives, joined with "; ".
	CSP []string

	// Strict-Transport-Security, sent on TLS requests only when MaxAge > 0.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginEmbedder string
	CrossOriginResource string
}

// DefaultHeadersConfig suits the dashboard: scripts from self and unpkg
// (htmx), inline styles for the chart bar sizes.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: []string{
			"default-src 'self'",
			"script-src 'self' https://unpkg.com",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubdomains: true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// HeadersMiddleware stamps a fixed set of security headers on every
// response.
type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

// NewHeadersMiddleware renders config into header values once.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{static: make(http.Header)}
	for name, value := range map[string]string{
		"Content-Security-Policy":      strings.Join(config.CSP, "; "),
		"X-Frame-Options":              config.XFrameOptions,
		"X-Content-Type-Options":       config.XContentTypeOptions,
		"Referrer-Policy":              config.ReferrerPolicy,
		"Permissions-Policy":           config.PermissionsPolicy,
		"Cross-Origin-Opener-Policy":   config.CrossOriginOpener,
		"Cross-Origin-Embedder-Policy": config.CrossOriginEmbedder,
		"Cross-Origin-Resource-Policy": config.CrossOriginResource,
	} {
		if value != "" {
			h.static.Set(name, value)
		}
	}

	if config.HSTSMaxAge > 0 {
		hsts := []string{"max-age=" + strconv.Itoa(config.HSTSMaxAge)}
		if config.HSTSIncludeSubdomains {
			hsts = append(hsts, "includeSubDomains")
		}
		if config.HSTSPreload {
			hsts = append(hsts, "preload")
		}
		h.hsts = strings.Join(hsts, "; ")
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for name := range h.static {
			dst.Set(name, h.static.Get(name))
		}
		if r.TLS != nil && h.hsts != "" {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware lets clients cache embedded assets for maxAge
// seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	cacheControl := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", cacheControl)
			}
			next.ServeHTTP(w, r)
		})
	}
}
