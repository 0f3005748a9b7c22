package app

import (
	"embed"
	"html/template"
)

// templateFS contains the page and fragment templates bundled with the binary.
//
//go:embed templates/*.gohtml
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.New("base").ParseFS(templateFS, "templates/*.gohtml")
}
