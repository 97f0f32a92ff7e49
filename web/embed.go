// Package web embeds the dashboard templates and stylesheet.
package web

import "embed"

// TemplatesFS embeds the dashboard page and its htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
