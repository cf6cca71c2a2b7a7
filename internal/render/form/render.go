package form

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"unicode/utf8"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

// ActionField is the name of the submit button value that carries an
// add/remove action instead of a save.
const ActionField = "_action"

//go:embed templates/*.gohtml
var templateFS embed.FS

var tmpl = template.Must(template.New("form").ParseFS(templateFS, "templates/*.gohtml"))

// Markup is the rendered form fragment of one section.
type Markup struct {
	SectionID string
	HTML      template.HTML
}

type renderOptions struct {
	errors map[string]string
}

type Option func(*renderOptions)

// WithErrors shows validation messages next to the offending fields.
func WithErrors(errs section.FieldErrors) Option {
	return func(o *renderOptions) {
		for _, e := range errs {
			if _, exists := o.errors[e.Path]; !exists {
				o.errors[e.Path] = e.Message
			}
		}
	}
}

type sectionView struct {
	ID          string
	Title       string
	Description string
	Rows        []rowView
}

type rowView struct {
	Full   bool
	Fields []fieldView
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type itemView struct {
	ID           string
	Label        string
	Number       int
	OrderKey     string
	RemoveAction string
	Rows         []rowView
}

type tagView struct {
	Value        string
	RemoveAction string
}

type fieldView struct {
	Path        string
	DOMID       string
	Name        string
	Type        string
	Label       string
	Required    bool
	Placeholder string
	HelpText    string
	MaxLength   int
	Pattern     string
	Error       string

	Value   string
	Length  int
	Checked bool
	Options []optionView

	Tags      []tagView
	NewTagKey string

	ItemLabel string
	Items     []itemView
	AddAction string
}

// Render produces the form fragment for a section. A nil or partial value
// falls back to the field defaults.
func Render(schema section.SectionSchema, value any, opts ...Option) (Markup, error) {
	o := &renderOptions{errors: make(map[string]string)}
	for _, opt := range opts {
		opt(o)
	}

	v, err := section.Normalize(schema, value)
	if err != nil {
		return Markup{}, fmt.Errorf("render %s: %w", schema.ID, err)
	}

	view := sectionView{ID: schema.ID, Title: schema.Title, Description: schema.Description}
	if schema.Shape == section.ShapeSingle {
		f := schema.Fields[0]
		view.Rows = []rowView{{
			Full:   true,
			Fields: []fieldView{buildField(f, section.FieldPath(schema.ID, f.Name), v, o)},
		}}
	} else {
		view.Rows = buildRows(schema.Fields, schema.ID, v.(map[string]any), o)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "section", view); err != nil {
		return Markup{}, fmt.Errorf("render %s: %w", schema.ID, err)
	}
	return Markup{SectionID: schema.ID, HTML: template.HTML(buf.String())}, nil
}

func buildRows(fields []section.FieldDescriptor, prefix string, values map[string]any, o *renderOptions) []rowView {
	layout := Layout(fields)
	rows := make([]rowView, 0, len(layout))
	for _, r := range layout {
		rv := rowView{Full: r.Full}
		for _, f := range r.Fields {
			rv.Fields = append(rv.Fields, buildField(f, section.FieldPath(prefix, f.Name), values[f.Name], o))
		}
		rows = append(rows, rv)
	}
	return rows
}

func buildField(f section.FieldDescriptor, path string, v any, o *renderOptions) fieldView {
	fv := fieldView{
		Path:        path,
		DOMID:       section.DOMID(path),
		Name:        f.Name,
		Type:        f.Type.String(),
		Label:       f.Label,
		Required:    f.Required,
		Placeholder: f.Placeholder,
		HelpText:    f.HelpText,
		MaxLength:   f.MaxLength,
		Pattern:     f.Pattern,
		Error:       o.errors[path],
	}

	switch f.Type {
	case section.FieldTypeCheckbox:
		fv.Checked, _ = v.(bool)

	case section.FieldTypeTags:
		tags, _ := v.([]string)
		fv.NewTagKey = section.NewTagKey(path)
		for _, t := range tags {
			fv.Tags = append(fv.Tags, tagView{Value: t, RemoveAction: removeTagAction(path, t)})
		}

	case section.FieldTypeList:
		items, _ := v.([]section.Item)
		fv.ItemLabel = f.ItemLabel
		if fv.ItemLabel == "" {
			fv.ItemLabel = f.Label
		}
		fv.AddAction = addAction(path)
		for i, it := range items {
			itemPath := section.ItemPath(path, it.ID())
			fv.Items = append(fv.Items, itemView{
				ID:           it.ID(),
				Label:        fv.ItemLabel,
				Number:       i + 1,
				OrderKey:     section.OrderKey(path),
				RemoveAction: removeAction(path, it.ID()),
				Rows:         buildRows(f.ItemFields, itemPath, it, o),
			})
		}

	default:
		s, _ := v.(string)
		fv.Value = s
		fv.Length = utf8.RuneCountInString(s)
		for _, opt := range f.Options {
			fv.Options = append(fv.Options, optionView{Value: opt.Value, Label: opt.Label, Selected: opt.Value == s})
		}
	}
	return fv
}
