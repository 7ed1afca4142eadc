// Package gdoc renders monthly reports by copying a Google Docs template and
// filling its placeholders.
package gdoc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kintai/internal/core"
	"kintai/internal/report"

	gdocs "google.golang.org/api/docs/v1"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
)

// Config names the template document and the folder rendered reports land in.
type Config struct {
	TemplateFileID  string
	OutputFolderID  string
	CredentialsJSON []byte
}

type Renderer struct {
	docs           *gdocs.Service
	drive          *gdrive.Service
	templateFileID string
	outputFolderID string
}

var _ report.Renderer = (*Renderer)(nil)

func New(ctx context.Context, cfg Config) (*Renderer, error) {
	if strings.TrimSpace(cfg.TemplateFileID) == "" {
		return nil, errors.New("missing template file id")
	}
	if len(cfg.CredentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	driveSvc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(cfg.CredentialsJSON),
		goption.WithScopes(gdrive.DriveScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	docsSvc, err := gdocs.NewService(ctx,
		goption.WithCredentialsJSON(cfg.CredentialsJSON),
		goption.WithScopes(gdocs.DocumentsScope))
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}

	return &Renderer{
		docs:           docsSvc,
		drive:          driveSvc,
		templateFileID: cfg.TemplateFileID,
		outputFolderID: cfg.OutputFolderID,
	}, nil
}

// Render copies the template, replaces every {{field}} placeholder, and
// expands {{workDetails}} into one line per work day.
func (r *Renderer) Render(ctx context.Context, fileName string, fields map[string]string, details []core.WorkDetail) (report.RenderedFile, error) {
	copyReq := &gdrive.File{Name: fileName}
	if r.outputFolderID != "" {
		copyReq.Parents = []string{r.outputFolderID}
	}

	copied, err := r.drive.Files.Copy(r.templateFileID, copyReq).
		SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return report.RenderedFile{}, fmt.Errorf("template %s: %w", r.templateFileID, report.ErrTemplateNotFound)
		}
		return report.RenderedFile{}, fmt.Errorf("copy template: %w", err)
	}

	var requests []*gdocs.Request
	for key, value := range fields {
		requests = append(requests, replaceAll("{{"+key+"}}", value))
	}
	requests = append(requests, replaceAll("{{workDetails}}", detailsBlock(details)))

	_, err = r.docs.Documents.BatchUpdate(copied.Id, &gdocs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return report.RenderedFile{}, fmt.Errorf("fill template copy %s: %w", copied.Id, err)
	}

	return report.RenderedFile{
		URL:  "https://docs.google.com/document/d/" + copied.Id + "/edit",
		Name: fileName,
	}, nil
}

func replaceAll(placeholder, value string) *gdocs.Request {
	return &gdocs.Request{
		ReplaceAllText: &gdocs.ReplaceAllTextRequest{
			ContainsText: &gdocs.SubstringMatchCriteria{
				Text:      placeholder,
				MatchCase: true,
			},
			ReplaceText: value,
		},
	}
}

// detailsBlock renders the per-day lines placed at the {{workDetails}}
// marker, one tab-separated line per work day.
func detailsBlock(details []core.WorkDetail) string {
	var b strings.Builder
	for i, d := range details {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Date)
		b.WriteString("\t")
		b.WriteString(strconv.FormatFloat(d.Hours, 'f', 1, 64))
		b.WriteString("\t")
		b.WriteString(d.Description)
		b.WriteString("\t")
		b.WriteString(d.Status)
	}
	return b.String()
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}
