package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	exportadapter "github.com/khoahotran/resume-builder/adapters/export"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/document"
	"github.com/khoahotran/resume-builder/internal/render/preview"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/metrics"
)

var tracer = otel.Tracer("export_usecase")

// StoreSource hands out the resume store of a user. The server passes its
// resume.Manager; the worker builds a fresh store per job.
type StoreSource interface {
	For(ctx context.Context, userID string) (*resume.Store, error)
}

// FreshStores loads a new store from the cache on every call and runs the
// loaders on it, so long lived processes never render a stale copy.
type FreshStores struct {
	Registry *section.Registry
	Cache    resume.Cache
	Loaders  []func(ctx context.Context, st *resume.Store) error
}

func (f FreshStores) For(ctx context.Context, userID string) (*resume.Store, error) {
	st := resume.NewStore(userID, f.Registry, f.Cache)
	if err := st.Load(ctx); err != nil {
		return nil, err
	}
	for _, load := range f.Loaders {
		if err := load(ctx, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Artifact is one rendered export file.
type Artifact struct {
	Format      document.Format
	FileName    string
	ContentType string
	Data        []byte
	Pages       int
}

// Renderer turns the current preview of a resume into a file. Both export
// paths go through it so downloads and background jobs stay identical.
type Renderer struct {
	generator *preview.Generator
	writers   map[document.Format]document.Writer
	now       func() time.Time
}

func NewRenderer(generator *preview.Generator, writers ...document.Writer) *Renderer {
	r := &Renderer{generator: generator, writers: make(map[document.Format]document.Writer, len(writers)), now: time.Now}
	for _, w := range writers {
		r.writers[w.Format()] = w
	}
	return r
}

func (r *Renderer) Supports(f document.Format) bool {
	_, ok := r.writers[f]
	return ok
}

func (r *Renderer) Render(ctx context.Context, st *resume.Store, format document.Format) (*Artifact, error) {
	ctx, span := tracer.Start(ctx, "Renderer.Render",
		trace.WithAttributes(attribute.String("export.format", string(format))))
	defer span.End()

	w, ok := r.writers[format]
	if !ok {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("unsupported export format %q", format), nil)
	}

	start := time.Now()
	data := st.Snapshot()
	page, err := r.generator.Generate(data, st.Customization())
	if err != nil {
		return nil, apperror.NewInternal("failed to generate preview", err)
	}
	doc, err := document.FromHTML(page)
	if err != nil {
		return nil, apperror.NewInternal("failed to read preview", err)
	}
	if len(doc.Blocks) == 0 {
		return nil, apperror.NewInvalidInput("resume is empty, fill in at least one section first", nil)
	}

	out, err := w.Write(ctx, doc)
	if err != nil {
		span.RecordError(err)
		metrics.Exports.WithLabelValues(string(format), "error").Inc()
		return nil, apperror.NewInternal("failed to write "+string(format), err)
	}

	pages, err := verify(format, out)
	if err != nil {
		span.RecordError(err)
		metrics.Exports.WithLabelValues(string(format), "error").Inc()
		return nil, apperror.NewInternal("generated file failed verification", err)
	}
	span.SetAttributes(attribute.Int("export.pages", pages), attribute.Int("export.bytes", len(out)))
	metrics.Exports.WithLabelValues(string(format), "ok").Inc()
	metrics.ExportDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())

	first, last := names(data)
	return &Artifact{
		Format:      format,
		FileName:    document.FileName(first, last, r.now(), w.Extension()),
		ContentType: w.ContentType(),
		Data:        out,
		Pages:       pages,
	}, nil
}

// verify re-opens the produced file. PDFs must have at least one page and
// Word files must contain text.
func verify(format document.Format, data []byte) (int, error) {
	switch format {
	case document.FormatPDF:
		n, err := exportadapter.PDFPageCount(data)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, fmt.Errorf("pdf has no pages")
		}
		return n, nil
	case document.FormatDOCX:
		text, err := exportadapter.DOCXText(data)
		if err != nil {
			return 0, err
		}
		if strings.TrimSpace(text) == "" {
			return 0, fmt.Errorf("docx has no text")
		}
		return 0, nil
	}
	return 0, nil
}

func names(data map[string]any) (string, string) {
	p, _ := data[section.Personal].(map[string]any)
	first, _ := p["firstName"].(string)
	last, _ := p["lastName"].(string)
	return first, last
}
