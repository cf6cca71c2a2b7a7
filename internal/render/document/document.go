// Package document holds the format neutral model every export backend
// consumes: ordered blocks of styled text runs.
package document

import (
	"context"
	"strings"
	"time"
	"unicode"
)

type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockList      BlockKind = "list"
)

type Run struct {
	Text      string `json:"text"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
	Link      string `json:"link,omitempty"`
}

func (r Run) sameStyle(o Run) bool {
	return r.Bold == o.Bold && r.Italic == o.Italic && r.Underline == o.Underline && r.Link == o.Link
}

type ListItem struct {
	Runs  []Run `json:"runs"`
	Depth int   `json:"depth,omitempty"`
}

type Block struct {
	Kind    BlockKind  `json:"kind"`
	Level   int        `json:"level,omitempty"`
	Ordered bool       `json:"ordered,omitempty"`
	Runs    []Run      `json:"runs,omitempty"`
	Items   []ListItem `json:"items,omitempty"`
}

type Document struct {
	Title        string  `json:"title"`
	HeadingColor string  `json:"headingColor,omitempty"`
	FontFamily   string  `json:"fontFamily,omitempty"`
	Blocks       []Block `json:"blocks"`
}

// Text returns the plain text of a block.
func (b Block) Text() string {
	if b.Kind == BlockList {
		lines := make([]string, len(b.Items))
		for i, it := range b.Items {
			lines[i] = RunsText(it.Runs)
		}
		return strings.Join(lines, "\n")
	}
	return RunsText(b.Runs)
}

func RunsText(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// PlainText flattens the document, one block per paragraph.
func (d *Document) PlainText() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, b.Text())
	}
	return strings.Join(parts, "\n\n")
}

// Format identifies an export backend.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

func (f Format) IsValid() bool {
	return f == FormatPDF || f == FormatDOCX
}

// Writer turns a Document into the bytes of one file format.
type Writer interface {
	Format() Format
	ContentType() string
	Extension() string
	Write(ctx context.Context, doc *Document) ([]byte, error)
}

// FileName builds "<First>_<Last>_Resume_<YYYY-MM-DD>.<ext>". Missing name
// parts are left out.
func FileName(firstName, lastName string, date time.Time, ext string) string {
	var parts []string
	for _, p := range []string{firstName, lastName} {
		if p = sanitize(p); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, "Resume", date.Format("2006-01-02"))
	return strings.Join(parts, "_") + "." + strings.TrimPrefix(ext, ".")
}

func sanitize(s string) string {
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			sb.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) && !lastUnderscore:
			sb.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(sb.String(), "_")
}
