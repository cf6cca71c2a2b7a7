package preview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmpl = template.Must(template.New("preview").ParseFS(templateFS, "templates/*.gohtml"))

// Generator turns a resume document into a standalone HTML page. The output
// depends only on its inputs.
type Generator struct {
	reg *section.Registry
}

func NewGenerator(reg *section.Registry) *Generator {
	return &Generator{reg: reg}
}

type headerView struct {
	Name     string
	JobTitle string
	Contacts []linkView
}

type linkView struct {
	Text string
	Href string
}

type entryView struct {
	Title    string
	Subtitle string
	Dates    string
	Link     linkView
	Body     []string
	Details  []detailView
	Bullets  []string
}

type detailView struct {
	Label string
	Value string
}

type sectionView struct {
	ID         string
	Title      string
	Paragraphs []string
	Tags       []string
	Entries    []entryView
	Details    []detailView
}

type pageView struct {
	Title       string
	FontStack   template.CSS
	LayoutStyle string
	Header      headerView
	Sections    []sectionView
}

// Generate renders data (section id -> canonical value) with the given
// customization. Sections that are absent, blank or empty are left out.
func (g *Generator) Generate(data map[string]any, opts resume.TemplateCustomization) (string, error) {
	opts = opts.WithDefaults()
	page := pageView{
		FontStack:   template.CSS(opts.FontStack()),
		LayoutStyle: opts.LayoutStyle,
	}

	if raw, ok := data[section.Personal]; ok {
		if schema, ok := g.reg.GetSectionConfig(section.Personal); ok {
			page.Header = buildHeader(schema, raw)
		}
	}
	page.Title = "Resume"
	if page.Header.Name != "" {
		page.Title = page.Header.Name + " - Resume"
	}

	for _, schema := range g.reg.Sections() {
		if schema.ID == section.Personal {
			continue
		}
		raw, ok := data[schema.ID]
		if !ok || section.IsEmpty(raw) {
			continue
		}
		v, err := section.Normalize(schema, raw)
		if err != nil {
			return "", fmt.Errorf("preview section %s: %w", schema.ID, err)
		}
		sv, ok := buildSection(schema, v)
		if !ok {
			continue
		}
		page.Sections = append(page.Sections, sv)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page", page); err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	return ApplyCustomization(buf.String(), opts)
}

func buildHeader(schema section.SectionSchema, raw any) headerView {
	v, err := section.Normalize(schema, raw)
	if err != nil {
		return headerView{}
	}
	m := v.(map[string]any)
	str := func(k string) string {
		s, _ := m[k].(string)
		return strings.TrimSpace(s)
	}

	h := headerView{
		Name:     strings.TrimSpace(str("firstName") + " " + str("lastName")),
		JobTitle: str("jobTitle"),
	}
	if e := str("email"); e != "" {
		h.Contacts = append(h.Contacts, linkView{Text: e, Href: "mailto:" + e})
	}
	if p := str("phone"); p != "" {
		h.Contacts = append(h.Contacts, linkView{Text: p})
	}
	if l := str("location"); l != "" {
		h.Contacts = append(h.Contacts, linkView{Text: l})
	}
	for _, k := range []string{"website", "linkedin", "github"} {
		if u := str(k); u != "" {
			h.Contacts = append(h.Contacts, linkView{Text: displayURL(u), Href: u})
		}
	}
	return h
}

func buildSection(schema section.SectionSchema, v any) (sectionView, bool) {
	sv := sectionView{ID: schema.ID, Title: schema.Title}

	if schema.Shape == section.ShapeObject {
		sv.Details = details(schema.Fields, v.(map[string]any), nil)
		return sv, len(sv.Details) > 0
	}

	f := schema.Fields[0]
	switch f.Type {
	case section.FieldTypeTags:
		sv.Tags, _ = v.([]string)
		return sv, len(sv.Tags) > 0
	case section.FieldTypeList:
		items, _ := v.([]section.Item)
		for _, it := range items {
			if section.IsEmpty(it) {
				continue
			}
			sv.Entries = append(sv.Entries, buildEntry(f, schema.Preview, it))
		}
		return sv, len(sv.Entries) > 0
	default:
		s, _ := v.(string)
		sv.Paragraphs = paragraphs(s)
		return sv, len(sv.Paragraphs) > 0
	}
}

func buildEntry(list section.FieldDescriptor, hint section.PreviewHint, it section.Item) entryView {
	str := func(name string) string {
		if name == "" {
			return ""
		}
		f, ok := list.ItemField(name)
		if !ok {
			return ""
		}
		return displayValue(f, it[name])
	}

	e := entryView{
		Title:    str(hint.TitleField),
		Subtitle: str(hint.SubtitleField),
		Body:     paragraphs(str(hint.BodyField)),
	}

	start, end := str(hint.StartField), str(hint.EndField)
	if hint.CurrentField != "" {
		if cur, _ := it[hint.CurrentField].(bool); cur {
			end = "Present"
		}
	}
	switch {
	case start != "" && end != "":
		e.Dates = start + " – " + end
	case start != "":
		e.Dates = start
	case end != "":
		e.Dates = end
	}

	if u := str(hint.LinkField); u != "" {
		e.Link = linkView{Text: displayURL(u), Href: u}
	}

	used := map[string]bool{
		hint.TitleField: true, hint.SubtitleField: true, hint.StartField: true, hint.EndField: true,
		hint.CurrentField: true, hint.LinkField: true, hint.BodyField: true,
	}
	for _, f := range list.ItemFields {
		if f.Type != section.FieldTypeList || used[f.Name] {
			continue
		}
		used[f.Name] = true
		sub, _ := it[f.Name].([]section.Item)
		for _, s := range sub {
			for _, sf := range f.ItemFields {
				if t := displayValue(sf, s[sf.Name]); t != "" {
					e.Bullets = append(e.Bullets, t)
				}
			}
		}
	}
	e.Details = details(list.ItemFields, it, used)
	return e
}

func details(fields []section.FieldDescriptor, m map[string]any, skip map[string]bool) []detailView {
	var out []detailView
	for _, f := range fields {
		if skip[f.Name] || f.Type == section.FieldTypeList {
			continue
		}
		if v := displayValue(f, m[f.Name]); v != "" {
			out = append(out, detailView{Label: f.Label, Value: v})
		}
	}
	return out
}

// displayValue formats a canonical field value for reading.
func displayValue(f section.FieldDescriptor, v any) string {
	switch f.Type {
	case section.FieldTypeCheckbox:
		if b, _ := v.(bool); b {
			return "Yes"
		}
		return ""
	case section.FieldTypeTags:
		tags, _ := v.([]string)
		return strings.Join(tags, ", ")
	case section.FieldTypeList:
		return ""
	}

	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch f.Type {
	case section.FieldTypeSelect, section.FieldTypeRadio:
		for _, o := range f.Options {
			if o.Value == s {
				return o.Label
			}
		}
	case section.FieldTypeDate:
		return formatDate(s)
	}
	return s
}

func formatDate(s string) string {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2 Jan 2006")
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Format("Jan 2006")
	}
	return s
}

func paragraphs(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func displayURL(u string) string {
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	return strings.TrimSuffix(u, "/")
}
