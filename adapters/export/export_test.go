package export

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/document"
	"github.com/khoahotran/resume-builder/internal/render/preview"
)

func sampleDocument(t *testing.T) *document.Document {
	t.Helper()
	html, err := preview.NewGenerator(section.Default()).Generate(map[string]any{
		section.Personal: map[string]any{"firstName": "Grace", "lastName": "Hopper", "email": "grace@example.com"},
		section.Summary:  "Rear admiral & computer scientist.",
		section.Skills:   []string{"COBOL", "Compilers"},
	}, resume.DefaultCustomization())
	require.NoError(t, err)

	doc, err := document.FromHTML(html)
	require.NoError(t, err)
	return doc
}

func TestDOCXWriter_RoundTrip(t *testing.T) {
	w := NewDOCXWriter()
	out, err := w.Write(context.Background(), sampleDocument(t))
	require.NoError(t, err)
	assert.Equal(t, "docx", w.Extension())
	assert.Equal(t, []byte("PK"), out[:2])

	text, err := DOCXText(out)
	require.NoError(t, err)
	assert.Contains(t, text, "Grace Hopper")
	assert.Contains(t, text, "Professional Summary")
	assert.Contains(t, text, "Rear admiral & computer scientist.")
	assert.Contains(t, text, "• COBOL")

	imported, err := ExtractText("cv.DOCX", out)
	require.NoError(t, err)
	assert.Equal(t, text, imported)
}

func TestWordXMLToText(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Ada</w:t></w:r><w:r><w:t xml:space="preserve"> Lovelace</w:t></w:r></w:p>
<w:p><w:r><w:t>R&amp;D &lt;lead&gt;</w:t><w:tab/><w:t>1843</w:t></w:r></w:p>
<w:p><w:r><w:t>Notes</w:t><w:br/><w:t>on the engine</w:t></w:r></w:p>
<w:p><w:r><w:instrText>PAGE</w:instrText></w:r></w:p>
</w:body></w:document>`

	text, err := wordXMLToText(body)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\nR&D <lead> 1843\nNotes\non the engine", text)

	_, err = wordXMLToText(`<w:p><w:t>unclosed</w:p>`)
	assert.Error(t, err)
}

func TestExtractText_RejectsOtherFormats(t *testing.T) {
	_, err := ExtractText("cv.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestPDFWriter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping headless Chrome test in short mode")
	}
	chrome := os.Getenv("CHROME_PATH")
	if chrome == "" {
		t.Skip("CHROME_PATH not set")
	}

	w := NewPDFWriter(chrome, 0)
	out, err := w.Write(context.Background(), sampleDocument(t))
	require.NoError(t, err)

	pages, err := PDFPageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}
