// Package memory provides an in-memory renderer used by tests and the
// development backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kintai/internal/core"
	"kintai/internal/report"
)

// Renderer records every render call and returns a synthetic file ref.
type Renderer struct {
	mu    sync.Mutex
	calls []Call
}

type Call struct {
	FileName string
	Fields   map[string]string
	Details  []core.WorkDetail
}

var _ report.Renderer = (*Renderer)(nil)

func New() *Renderer { return &Renderer{} }

func (r *Renderer) Render(_ context.Context, fileName string, fields map[string]string, details []core.WorkDetail) (report.RenderedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{FileName: fileName, Fields: fields, Details: details})
	return report.RenderedFile{
		URL:  fmt.Sprintf("mem:report/%d", len(r.calls)),
		Name: fileName,
	}, nil
}

// Calls returns a copy of all recorded render calls.
func (r *Renderer) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
