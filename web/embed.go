// Package web holds the embedded templates and static assets of the UI.
package web

import "embed"

// TemplatesFS embeds the HTML templates rendered by internal/http.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
