// Package web holds the dashboard page templates.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every page template. Page templates are addressed by file name.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(files, "templates/*.html")
}
