package document

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/print.gohtml
var printFS embed.FS

var printTmpl = template.Must(template.New("print.gohtml").Funcs(template.FuncMap{
	"indent": func(depth int) template.CSS {
		return template.CSS(fmt.Sprintf("margin-left: %dem", depth*2))
	},
	"font": func(s string) template.CSS {
		if s == "" || strings.ContainsAny(s, ";{}<>\\") {
			return template.CSS("Arial, sans-serif")
		}
		return template.CSS(s)
	},
}).ParseFS(printFS, "templates/print.gohtml"))

// ToHTML renders the document as a print ready A4 page.
func ToHTML(doc *Document) (string, error) {
	var buf bytes.Buffer
	if err := printTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("print html: %w", err)
	}
	return buf.String(), nil
}
