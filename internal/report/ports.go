// Package report defines the port for the document-rendering collaborator.
// The core projects one month of data into a flat field map plus a tabular
// detail block; everything else (template lookup, placeholder substitution,
// format export) belongs to the renderer.
package report

import (
	"context"
	"errors"

	"kintai/internal/core"
)

// ErrTemplateNotFound is returned when the configured report template is
// missing or unreadable.
var ErrTemplateNotFound = errors.New("report template not found")

// RenderedFile is the renderer's handle to the produced document.
type RenderedFile struct {
	URL  string
	Name string
}

// Renderer substitutes fields as {{key}} placeholders and inserts the
// detail rows at the table placeholder, returning a shareable file.
type Renderer interface {
	Render(ctx context.Context, fileName string, fields map[string]string, details []core.WorkDetail) (RenderedFile, error)
}
