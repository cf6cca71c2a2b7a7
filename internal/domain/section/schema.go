package section

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Shape tells how a section value is laid out in the resume document.
type Shape string

const (
	// ShapeSingle sections hold the bare value of their only field
	// (a string, a tag slice or a slice of list items).
	ShapeSingle Shape = "single"
	// ShapeObject sections hold a map keyed by field name.
	ShapeObject Shape = "object"
)

// PreviewHint names the fields the preview uses to lay out a list item.
type PreviewHint struct {
	TitleField    string `json:"titleField,omitempty"`
	SubtitleField string `json:"subtitleField,omitempty"`
	StartField    string `json:"startField,omitempty"`
	EndField      string `json:"endField,omitempty"`
	CurrentField  string `json:"currentField,omitempty"`
	LinkField     string `json:"linkField,omitempty"`
	BodyField     string `json:"bodyField,omitempty"`
}

type SectionSchema struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Shape       Shape             `json:"shape"`
	Fields      []FieldDescriptor `json:"fields"`
	Preview     PreviewHint       `json:"preview"`
}

// Field returns the field with the given name.
func (s SectionSchema) Field(name string) (FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// ListField returns the list descriptor backing a ShapeSingle list section.
func (s SectionSchema) ListField() (FieldDescriptor, bool) {
	if s.Shape == ShapeSingle && len(s.Fields) == 1 && s.Fields[0].Type == FieldTypeList {
		return s.Fields[0], true
	}
	return FieldDescriptor{}, false
}

// IsList reports whether each entry of the section is stored separately.
func (s SectionSchema) IsList() bool {
	_, ok := s.ListField()
	return ok
}

// Slug is the kebab-case form used in REST paths.
func (s SectionSchema) Slug() string {
	return Kebab(s.ID)
}

var (
	ErrDuplicateSection = errors.New("duplicate section id")
	ErrInvalidSchema    = errors.New("invalid section schema")

	sectionIDRegex = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	fieldNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// Registry is the immutable lookup table of section schemas. Lookups never
// fail loudly: unknown ids yield ok == false.
type Registry struct {
	order  []string
	byID   map[string]SectionSchema
	bySlug map[string]string
}

func NewRegistry(schemas ...SectionSchema) (*Registry, error) {
	r := &Registry{
		order:  make([]string, 0, len(schemas)),
		byID:   make(map[string]SectionSchema, len(schemas)),
		bySlug: make(map[string]string, len(schemas)),
	}
	for _, s := range schemas {
		if err := validateSchema(s); err != nil {
			return nil, err
		}
		if _, exists := r.byID[s.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSection, s.ID)
		}
		r.order = append(r.order, s.ID)
		r.byID[s.ID] = s
		r.bySlug[s.Slug()] = s.ID
	}
	return r, nil
}

func MustRegistry(schemas ...SectionSchema) *Registry {
	r, err := NewRegistry(schemas...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) GetSectionConfig(id string) (SectionSchema, bool) {
	s, ok := r.byID[id]
	return s, ok
}

func (r *Registry) GetAllSectionConfigs() map[string]SectionSchema {
	out := make(map[string]SectionSchema, len(r.byID))
	for k, v := range r.byID {
		out[k] = v
	}
	return out
}

// BySlug resolves a kebab-case REST path segment.
func (r *Registry) BySlug(slug string) (SectionSchema, bool) {
	id, ok := r.bySlug[slug]
	if !ok {
		return SectionSchema{}, false
	}
	return r.byID[id], true
}

// Order returns section ids in declaration order.
func (r *Registry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Sections returns the schemas in declaration order.
func (r *Registry) Sections() []SectionSchema {
	out := make([]SectionSchema, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func validateSchema(s SectionSchema) error {
	if !sectionIDRegex.MatchString(s.ID) {
		return fmt.Errorf("%w: section id %q", ErrInvalidSchema, s.ID)
	}
	switch s.Shape {
	case ShapeSingle:
		if len(s.Fields) != 1 {
			return fmt.Errorf("%w: single section %s must declare exactly one field", ErrInvalidSchema, s.ID)
		}
	case ShapeObject:
		if len(s.Fields) == 0 {
			return fmt.Errorf("%w: object section %s has no fields", ErrInvalidSchema, s.ID)
		}
	default:
		return fmt.Errorf("%w: section %s has unknown shape %q", ErrInvalidSchema, s.ID, s.Shape)
	}
	return validateFields(s.ID, s.Fields, 0)
}

func validateFields(owner string, fields []FieldDescriptor, depth int) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !fieldNameRegex.MatchString(f.Name) {
			return fmt.Errorf("%w: %s has invalid field name %q", ErrInvalidSchema, owner, f.Name)
		}
		if depth > 0 && f.Name == ItemIDKey {
			return fmt.Errorf("%w: %s uses reserved item field %q", ErrInvalidSchema, owner, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s declares field %q twice", ErrInvalidSchema, owner, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.IsValid() {
			return fmt.Errorf("%w: %s.%s has unknown type %q", ErrInvalidSchema, owner, f.Name, f.Type)
		}
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				return fmt.Errorf("%w: %s.%s pattern: %v", ErrInvalidSchema, owner, f.Name, err)
			}
		}
		switch f.Type {
		case FieldTypeSelect, FieldTypeRadio:
			if len(f.Options) == 0 {
				return fmt.Errorf("%w: %s.%s needs options", ErrInvalidSchema, owner, f.Name)
			}
		case FieldTypeList:
			if depth >= 2 {
				return fmt.Errorf("%w: %s.%s nests lists more than one level", ErrInvalidSchema, owner, f.Name)
			}
			if len(f.ItemFields) == 0 {
				return fmt.Errorf("%w: %s.%s list has no item fields", ErrInvalidSchema, owner, f.Name)
			}
			for k := range f.DefaultItemData {
				if _, ok := f.ItemField(k); !ok {
					return fmt.Errorf("%w: %s.%s default item data names unknown field %q", ErrInvalidSchema, owner, f.Name, k)
				}
			}
			if err := validateFields(owner+"."+f.Name, f.ItemFields, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Kebab converts a camelCase identifier to kebab-case.
func Kebab(id string) string {
	var b strings.Builder
	for i, r := range id {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
