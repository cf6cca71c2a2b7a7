package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/khoahotran/resume-builder/internal/render/document"
)

var ErrNotPDF = errors.New("renderer output is not a PDF")

// PDFWriter prints the document with headless Chrome on A4 paper.
type PDFWriter struct {
	chromePath string
	timeout    time.Duration
}

func NewPDFWriter(chromePath string, timeout time.Duration) *PDFWriter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PDFWriter{chromePath: chromePath, timeout: timeout}
}

func (w *PDFWriter) Format() document.Format { return document.FormatPDF }
func (w *PDFWriter) ContentType() string     { return "application/pdf" }
func (w *PDFWriter) Extension() string       { return "pdf" }

func (w *PDFWriter) Write(ctx context.Context, doc *document.Document) ([]byte, error) {
	html, err := document.ToHTML(doc)
	if err != nil {
		return nil, err
	}
	return w.RenderHTML(ctx, html)
}

// RenderHTML prints an arbitrary HTML page.
func (w *PDFWriter) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if w.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(w.chromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, w.timeout)
	defer cancelRun()

	tmpDir, err := os.MkdirTemp("", "resume-export-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("write temp html: %w", err)
	}

	var pdfBuf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm -> 8.27in x 11.69in
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	if !bytes.HasPrefix(pdfBuf, []byte("%PDF")) {
		return nil, ErrNotPDF
	}
	return pdfBuf, nil
}
