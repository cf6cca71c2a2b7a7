package document

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html><html><head><title>Ada  Lovelace - Resume</title><style>h1{}</style></head>
<body>
<header><h1 style="color: #15803D">Ada Lovelace</h1><p class="job-title">Analyst</p></header>
<main>
<section><h2 style="color: #15803d">Work Experience</h2>
<div class="entry"><div class="entry-head"><h3>Engineer, <em>Engines</em></h3>
<span class="dates"><i>1842 – Present</i></span></div>
<p>Wrote <b>the</b> <span style="font-weight: 700">first</span> <u>program</u>.</p>
<ul><li>One</li><li>Two<ul><li>Nested</li></ul></li></ul>
</div></section>
<ol><li><a href="https://example.com">Link</a></li></ol>
loose text<br>after break
<script>ignored()</script>
</main></body></html>`

func TestFromHTML(t *testing.T) {
	doc, err := FromHTML(page)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace - Resume", doc.Title)
	assert.Equal(t, "#15803d", doc.HeadingColor)

	var kinds []BlockKind
	for _, b := range doc.Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []BlockKind{
		BlockHeading, BlockParagraph, BlockHeading, BlockHeading, BlockParagraph,
		BlockParagraph, BlockList, BlockList, BlockParagraph, BlockParagraph,
	}, kinds)

	h3 := doc.Blocks[3]
	assert.Equal(t, 3, h3.Level)
	assert.Equal(t, []Run{{Text: "Engineer, "}, {Text: "Engines", Italic: true}}, h3.Runs)

	dates := doc.Blocks[4]
	assert.Equal(t, []Run{{Text: "1842 – Present", Italic: true}}, dates.Runs)

	p := doc.Blocks[5]
	assert.Equal(t, []Run{
		{Text: "Wrote "},
		{Text: "the", Bold: true},
		{Text: " "},
		{Text: "first", Bold: true},
		{Text: " "},
		{Text: "program", Underline: true},
		{Text: "."},
	}, p.Runs)

	list := doc.Blocks[6]
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Nested", RunsText(list.Items[2].Runs))
	assert.Equal(t, 1, list.Items[2].Depth)
	assert.False(t, list.Ordered)

	ol := doc.Blocks[7]
	assert.True(t, ol.Ordered)
	assert.Equal(t, "https://example.com", ol.Items[0].Runs[0].Link)

	assert.Equal(t, "loose text", doc.Blocks[8].Text())
	assert.Equal(t, "after break", doc.Blocks[9].Text())
	assert.NotContains(t, doc.PlainText(), "ignored")
}

func TestFileName(t *testing.T) {
	d := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "Ada_Lovelace_Resume_2026-10-16.pdf", FileName("Ada", "Lovelace", d, "pdf"))
	assert.Equal(t, "Mary_Ann_Evans_Resume_2026-10-16.docx", FileName(" Mary  Ann ", "Evans/../", d, ".docx"))
	assert.Equal(t, "Resume_2026-10-16.pdf", FileName("", "", d, "pdf"))
}

func TestWordML_IsWellFormed(t *testing.T) {
	doc := &Document{
		HeadingColor: "#1d4ed8",
		Blocks: []Block{
			{Kind: BlockHeading, Level: 1, Runs: []Run{{Text: "R&D <Lead>"}}},
			{Kind: BlockParagraph, Runs: []Run{{Text: "plain "}, {Text: "bold", Bold: true}}},
			{Kind: BlockList, Ordered: true, Items: []ListItem{{Runs: []Run{{Text: "a"}}}, {Runs: []Run{{Text: "b"}}}}},
		},
	}
	out := WordML(doc)

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
	assert.Contains(t, out, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, out, "R&amp;D &lt;Lead&gt;")
	assert.Contains(t, out, `<w:color w:val="1d4ed8"/>`)
	assert.Contains(t, out, "<w:b/>")
	assert.Contains(t, out, ">2. </w:t>")
}

func TestToHTML(t *testing.T) {
	doc := &Document{
		Title:        "T",
		HeadingColor: "#b91c1c",
		FontFamily:   `Georgia, serif`,
		Blocks: []Block{
			{Kind: BlockHeading, Level: 2, Runs: []Run{{Text: "Skills"}}},
			{Kind: BlockParagraph, Runs: []Run{{Text: "x<y", Italic: true, Underline: true}}},
			{Kind: BlockList, Items: []ListItem{{Runs: []Run{{Text: "Go", Bold: true}}, Depth: 1}}},
		},
	}
	out, err := ToHTML(doc)
	require.NoError(t, err)
	assert.Contains(t, out, `<h2 style="color: #b91c1c">Skills</h2>`)
	assert.Contains(t, out, "<p><i><u>x&lt;y</u></i></p>")
	assert.Contains(t, out, `<li style="margin-left: 2em"><b>Go</b></li>`)
	assert.Contains(t, out, "font-family: Georgia, serif")
}
