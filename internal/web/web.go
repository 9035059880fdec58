// Package web renders the upload form.
package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// IndexData feeds the upload form.
type IndexData struct {
	Messages    []string
	MaxUploadMB int64
}

func RenderIndex(w io.Writer, data IndexData) error {
	return indexTemplate.Execute(w, data)
}
