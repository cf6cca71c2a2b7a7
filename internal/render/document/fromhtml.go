package document

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type inline struct {
	bold, italic, underline bool
	link                    string
}

type builder struct {
	doc     *Document
	pending []Run
}

// FromHTML walks a rendered preview page and collects its headings,
// paragraphs and lists. Inline emphasis comes from b/strong, i/em, u tags
// and from font-weight, font-style and text-decoration declarations.
func FromHTML(page string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	b := &builder{doc: &Document{}}

	if t := find(root, atom.Title); t != nil {
		b.doc.Title = collapse(textOf(t))
	}
	if body := find(root, atom.Body); body != nil {
		b.doc.FontFamily = styleValue(body, "font-family")
		b.container(body, inline{})
	}
	b.flush()
	return b.doc, nil
}

func (b *builder) container(n *html.Node, st inline) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			b.pending = appendRun(b.pending, c.Data, st)

		case c.Type != html.ElementNode:

		case skipped(c.DataAtom):

		case headingLevel(c.DataAtom) > 0:
			b.flush()
			if b.doc.HeadingColor == "" {
				b.doc.HeadingColor = styleValue(c, "color")
			}
			b.emit(Block{Kind: BlockHeading, Level: headingLevel(c.DataAtom), Runs: b.runs(c, st)})

		case c.DataAtom == atom.P || c.DataAtom == atom.Blockquote || c.DataAtom == atom.Pre:
			b.flush()
			b.emit(Block{Kind: BlockParagraph, Runs: b.runs(c, st)})

		case c.DataAtom == atom.Ul || c.DataAtom == atom.Ol:
			b.flush()
			blk := Block{Kind: BlockList, Ordered: c.DataAtom == atom.Ol}
			b.listItems(c, st, 0, &blk)
			if len(blk.Items) > 0 {
				b.doc.Blocks = append(b.doc.Blocks, blk)
			}

		case c.DataAtom == atom.Br:
			b.flush()

		case isBlock(c.DataAtom):
			b.flush()
			b.container(c, withStyle(c, st))
			b.flush()

		default:
			b.inlineInto(&b.pending, c, st)
		}
	}
}

func (b *builder) listItems(list *html.Node, st inline, depth int, blk *Block) {
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		var runs []Run
		var nested []*html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				nested = append(nested, c)
				continue
			}
			if c.Type == html.TextNode {
				runs = appendRun(runs, c.Data, withStyle(li, st))
				continue
			}
			b.inlineInto(&runs, c, withStyle(li, st))
		}
		if runs = trimRuns(runs); len(runs) > 0 {
			blk.Items = append(blk.Items, ListItem{Runs: runs, Depth: depth})
		}
		for _, n := range nested {
			b.listItems(n, st, depth+1, blk)
		}
	}
}

// runs collects the inline content of a block element.
func (b *builder) runs(n *html.Node, st inline) []Run {
	var out []Run
	b.inlineInto(&out, n, st)
	return trimRuns(out)
}

func (b *builder) inlineInto(out *[]Run, n *html.Node, st inline) {
	if n.Type == html.TextNode {
		*out = appendRun(*out, n.Data, st)
		return
	}
	if n.Type != html.ElementNode || skipped(n.DataAtom) {
		return
	}
	if n.DataAtom == atom.Br {
		*out = appendRun(*out, " ", st)
		return
	}
	st = withStyle(n, st)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.inlineInto(out, c, st)
	}
}

func (b *builder) emit(blk Block) {
	if len(blk.Runs) == 0 {
		return
	}
	b.doc.Blocks = append(b.doc.Blocks, blk)
}

func (b *builder) flush() {
	runs := trimRuns(b.pending)
	b.pending = nil
	b.emit(Block{Kind: BlockParagraph, Runs: runs})
}

func withStyle(n *html.Node, st inline) inline {
	switch n.DataAtom {
	case atom.B, atom.Strong, atom.Th:
		st.bold = true
	case atom.I, atom.Em, atom.Cite:
		st.italic = true
	case atom.U, atom.Ins:
		st.underline = true
	case atom.A:
		for _, a := range n.Attr {
			if a.Key == "href" {
				st.link = a.Val
			}
		}
	}

	if w := styleValue(n, "font-weight"); w != "" {
		st.bold = isBoldWeight(w)
	}
	if s := styleValue(n, "font-style"); s != "" {
		st.italic = s == "italic" || s == "oblique"
	}
	if d := styleValue(n, "text-decoration"); d != "" {
		st.underline = strings.Contains(d, "underline")
	}
	if d := styleValue(n, "text-decoration-line"); d != "" {
		st.underline = strings.Contains(d, "underline")
	}
	return st
}

func isBoldWeight(w string) bool {
	switch w {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

// styleValue reads one declaration of the inline style attribute.
func styleValue(n *html.Node, prop string) string {
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		for _, decl := range strings.Split(a.Val, ";") {
			name, val, ok := strings.Cut(decl, ":")
			if ok && strings.EqualFold(strings.TrimSpace(name), prop) {
				return strings.ToLower(strings.TrimSpace(val))
			}
		}
	}
	return ""
}

func appendRun(runs []Run, text string, st inline) []Run {
	text = collapseKeepEdges(text)
	if text == "" {
		return runs
	}
	r := Run{Text: text, Bold: st.bold, Italic: st.italic, Underline: st.underline, Link: st.link}
	if n := len(runs); n > 0 {
		last := &runs[n-1]
		if strings.HasSuffix(last.Text, " ") && strings.HasPrefix(r.Text, " ") {
			r.Text = strings.TrimPrefix(r.Text, " ")
			if r.Text == "" {
				return runs
			}
		}
		if last.sameStyle(r) {
			last.Text += r.Text
			return runs
		}
	}
	return append(runs, r)
}

// trimRuns strips leading and trailing whitespace of the block and drops
// runs left empty.
func trimRuns(runs []Run) []Run {
	for len(runs) > 0 {
		runs[0].Text = strings.TrimLeft(runs[0].Text, " ")
		if runs[0].Text != "" {
			break
		}
		runs = runs[1:]
	}
	for len(runs) > 0 {
		last := len(runs) - 1
		runs[last].Text = strings.TrimRight(runs[last].Text, " ")
		if runs[last].Text != "" {
			break
		}
		runs = runs[:last]
	}
	if len(runs) == 0 {
		return nil
	}
	return runs
}

// collapseKeepEdges folds whitespace runs into one space but keeps a single
// leading or trailing space so words of adjacent runs stay apart.
func collapseKeepEdges(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func skipped(a atom.Atom) bool {
	switch a {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Button, atom.Input, atom.Select, atom.Textarea:
		return true
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main, atom.Aside, atom.Nav,
		atom.Body, atom.Dl, atom.Dt, atom.Dd, atom.Table, atom.Tbody, atom.Thead, atom.Tr, atom.Td, atom.Th,
		atom.Figure, atom.Form, atom.Fieldset, atom.Address, atom.Hr:
		return true
	}
	return false
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
