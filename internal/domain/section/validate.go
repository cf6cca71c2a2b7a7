package section

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldError describes one rejected field. Path follows the form naming scheme.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

type FieldErrors []FieldError

func (es FieldErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// Validate checks a canonical section value against its schema. A required
// list may be empty; required-ness applies to the fields of each item.
func Validate(s SectionSchema, value any) FieldErrors {
	var errs FieldErrors
	if s.Shape == ShapeSingle {
		validateField(s.Fields[0], FieldPath(s.ID, s.Fields[0].Name), value, &errs)
		return errs
	}
	m, _ := value.(map[string]any)
	for _, f := range s.Fields {
		validateField(f, FieldPath(s.ID, f.Name), m[f.Name], &errs)
	}
	return errs
}

func validateField(f FieldDescriptor, path string, v any, errs *FieldErrors) {
	add := func(msg string) {
		*errs = append(*errs, FieldError{Path: path, Message: msg})
	}

	switch f.Type {
	case FieldTypeCheckbox:
		if b, _ := v.(bool); f.Required && !b {
			add(f.Label + " must be checked")
		}
		return
	case FieldTypeTags:
		tags, _ := v.([]string)
		if f.Required && len(tags) == 0 {
			add(f.Label + " needs at least one entry")
		}
		for _, t := range tags {
			if f.MaxLength > 0 && utf8.RuneCountInString(t) > f.MaxLength {
				add(fmt.Sprintf("%q is longer than %d characters", t, f.MaxLength))
			}
		}
		return
	case FieldTypeList:
		items, _ := v.([]Item)
		for _, it := range items {
			prefix := ItemPath(path, it.ID())
			for _, sub := range f.ItemFields {
				validateField(sub, FieldPath(prefix, sub.Name), it[sub.Name], errs)
			}
		}
		return
	}

	s, _ := v.(string)
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		if f.Required {
			add(f.Label + " is required")
		}
		return
	}
	if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
		add(fmt.Sprintf("%s must be at most %d characters", f.Label, f.MaxLength))
	}
	if f.Pattern != "" {
		if re, err := regexp.Compile(f.Pattern); err == nil && !re.MatchString(trimmed) {
			add(f.Label + " has an invalid format")
		}
	}

	switch f.Type {
	case FieldTypeSelect, FieldTypeRadio:
		if !f.HasOption(s) {
			add(fmt.Sprintf("%q is not a valid choice for %s", s, f.Label))
		}
	case FieldTypeURL:
		u, err := url.Parse(trimmed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(f.Label + " must be a full http(s) URL")
		}
	case FieldTypeNumber:
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			add(f.Label + " must be a number")
		}
	case FieldTypeDate:
		if !isDate(trimmed) {
			add(f.Label + " must be a date (YYYY-MM-DD, YYYY-MM or YYYY)")
		}
	}
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
