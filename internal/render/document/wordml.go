package document

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

// WordML renders the document as the body of word/document.xml. Headings use
// the built in Heading1..Heading3 styles, list items are indented paragraphs
// prefixed with a bullet or their number.
func WordML(doc *Document) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<w:document ` + wordNS + `><w:body>`)

	color := strings.TrimPrefix(doc.HeadingColor, "#")
	if !isHexColor(color) {
		color = ""
	}

	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockHeading:
			level := b.Level
			if level < 1 || level > 3 {
				level = 3
			}
			sb.WriteString(fmt.Sprintf(`<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr>`, level))
			writeRuns(&sb, b.Runs, color)
			sb.WriteString(`</w:p>`)

		case BlockList:
			for i, it := range b.Items {
				marker := "• "
				if b.Ordered {
					marker = fmt.Sprintf("%d. ", i+1)
				}
				sb.WriteString(fmt.Sprintf(`<w:p><w:pPr><w:pStyle w:val="ListParagraph"/><w:ind w:left="%d" w:hanging="284"/></w:pPr>`, 567*(it.Depth+1)))
				writeRuns(&sb, append([]Run{{Text: marker}}, it.Runs...), "")
				sb.WriteString(`</w:p>`)
			}

		default:
			sb.WriteString(`<w:p>`)
			writeRuns(&sb, b.Runs, "")
			sb.WriteString(`</w:p>`)
		}
	}

	sb.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="907" w:right="907" w:bottom="907" w:left="907" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr>`)
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}

func writeRuns(sb *strings.Builder, runs []Run, color string) {
	for _, r := range runs {
		sb.WriteString(`<w:r>`)
		if r.Bold || r.Italic || r.Underline || r.Link != "" || color != "" {
			sb.WriteString(`<w:rPr>`)
			if r.Bold {
				sb.WriteString(`<w:b/>`)
			}
			if r.Italic {
				sb.WriteString(`<w:i/>`)
			}
			switch {
			case color != "":
				sb.WriteString(`<w:color w:val="` + color + `"/>`)
			case r.Link != "":
				sb.WriteString(`<w:color w:val="1D4ED8"/>`)
			}
			if r.Underline || r.Link != "" {
				sb.WriteString(`<w:u w:val="single"/>`)
			}
			sb.WriteString(`</w:rPr>`)
		}
		sb.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(sb, []byte(r.Text))
		sb.WriteString(`</w:t></w:r>`)
	}
}

func isHexColor(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
