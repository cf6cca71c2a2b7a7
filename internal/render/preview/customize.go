package preview

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/khoahotran/resume-builder/internal/domain/resume"
)

// ApplyCustomization walks the headings of a rendered preview and overrides
// their colour with the one of opts.ColorScheme. Other style declarations on
// the heading are kept.
func ApplyCustomization(page string, opts resume.TemplateCustomization) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse preview: %w", err)
	}

	color := opts.HeadingColor()
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isHeading(n.DataAtom) {
			setStyle(n, "color", color)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func setStyle(n *html.Node, prop, value string) {
	decl := prop + ": " + value
	for i, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		var kept []string
		for _, d := range strings.Split(a.Val, ";") {
			d = strings.TrimSpace(d)
			if d == "" {
				continue
			}
			name, _, _ := strings.Cut(d, ":")
			if strings.EqualFold(strings.TrimSpace(name), prop) {
				continue
			}
			kept = append(kept, d)
		}
		n.Attr[i].Val = strings.Join(append(kept, decl), "; ")
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: decl})
}
