package section

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ItemIDKey holds the stable synthetic id of a list item.
const ItemIDKey = "id"

// Item is one element of a list field. It always carries ItemIDKey.
type Item map[string]any

func (it Item) ID() string {
	id, _ := it[ItemIDKey].(string)
	return id
}

// NewItemID generates list item ids. Tests may replace it.
var NewItemID = func() string { return uuid.NewString() }

// Canonical Go types of section values:
//
//	text, textarea, select, radio, date, url, number -> string
//	checkbox                                          -> bool
//	tags                                              -> []string
//	list                                              -> []Item
//	ShapeObject section                               -> map[string]any

// DefaultValue is the value of a section nobody has filled yet.
func DefaultValue(s SectionSchema) any {
	if s.Shape == ShapeSingle {
		return DefaultFieldValue(s.Fields[0])
	}
	return defaultObject(s.Fields)
}

func defaultObject(fields []FieldDescriptor) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = DefaultFieldValue(f)
	}
	return out
}

func DefaultFieldValue(f FieldDescriptor) any {
	switch f.Type {
	case FieldTypeCheckbox:
		return f.Default == "true"
	case FieldTypeTags:
		return []string{}
	case FieldTypeList:
		return []Item{}
	default:
		return f.Default
	}
}

// DefaultItem builds a fresh list item seeded with DefaultItemData.
func DefaultItem(list FieldDescriptor) Item {
	it := Item{ItemIDKey: NewItemID()}
	for _, f := range list.ItemFields {
		raw, ok := list.DefaultItemData[f.Name]
		if !ok {
			it[f.Name] = DefaultFieldValue(f)
			continue
		}
		v, err := normalizeField(f, raw)
		if err != nil {
			v = DefaultFieldValue(f)
		}
		it[f.Name] = v
	}
	return it
}

// Normalize converts a decoded JSON value (or an already canonical value)
// into the canonical representation of the section. Missing fields are
// default-filled and unknown keys are dropped. List items without an id get one.
func Normalize(s SectionSchema, raw any) (any, error) {
	if s.Shape == ShapeSingle {
		return normalizeField(s.Fields[0], raw)
	}
	if raw == nil {
		return defaultObject(s.Fields), nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("section %s: expected object, got %T", s.ID, raw)
	}
	return normalizeObject(s.Fields, m)
}

func normalizeObject(fields []FieldDescriptor, m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := normalizeField(f, m[f.Name])
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func normalizeField(f FieldDescriptor, raw any) (any, error) {
	if raw == nil {
		return DefaultFieldValue(f), nil
	}
	switch f.Type {
	case FieldTypeCheckbox:
		return normalizeBool(f, raw)
	case FieldTypeTags:
		return normalizeTags(f, raw)
	case FieldTypeList:
		return normalizeList(f, raw)
	default:
		return normalizeString(f, raw)
	}
}

func normalizeString(f FieldDescriptor, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("field %s: expected string, got %T", f.Name, raw)
}

func normalizeBool(f FieldDescriptor, raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true, nil
		case "", "false", "off", "0", "no":
			return false, nil
		}
	case float64:
		return v != 0, nil
	}
	return false, fmt.Errorf("field %s: expected boolean, got %T", f.Name, raw)
}

func normalizeTags(f FieldDescriptor, raw any) ([]string, error) {
	var in []string
	switch v := raw.(type) {
	case []string:
		in = v
	case []any:
		in = make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("field %s: tags must be strings, got %T", f.Name, e)
			}
			in = append(in, s)
		}
	case string:
		in = strings.Split(v, ",")
	default:
		return nil, fmt.Errorf("field %s: expected tag list, got %T", f.Name, raw)
	}
	return CleanTags(in), nil
}

// CleanTags trims tags, drops blanks and repeated tags, and keeps insertion order.
func CleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

func normalizeList(f FieldDescriptor, raw any) ([]Item, error) {
	var elems []map[string]any
	switch v := raw.(type) {
	case []Item:
		elems = make([]map[string]any, len(v))
		for i, it := range v {
			elems[i] = it
		}
	case []map[string]any:
		elems = v
	case []any:
		elems = make([]map[string]any, 0, len(v))
		for _, e := range v {
			switch m := e.(type) {
			case map[string]any:
				elems = append(elems, m)
			case Item:
				elems = append(elems, m)
			default:
				return nil, fmt.Errorf("field %s: list items must be objects, got %T", f.Name, e)
			}
		}
	default:
		return nil, fmt.Errorf("field %s: expected list, got %T", f.Name, raw)
	}

	out := make([]Item, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for _, m := range elems {
		fields, err := normalizeObject(f.ItemFields, m)
		if err != nil {
			return nil, err
		}
		it := Item(fields)
		id, _ := m[ItemIDKey].(string)
		if id == "" || seen[id] {
			id = NewItemID()
		}
		seen[id] = true
		it[ItemIDKey] = id
		out = append(out, it)
	}
	return out, nil
}

// IsEmpty reports whether a section value should be treated as "not filled":
// nil, a blank string, an empty slice, or an object whose fields are all empty.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case []string:
		return len(t) == 0
	case []Item:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case Item:
		return isEmptyMap(t)
	case map[string]any:
		return isEmptyMap(t)
	}
	return false
}

func isEmptyMap(m map[string]any) bool {
	for k, v := range m {
		if k == ItemIDKey {
			continue
		}
		if !IsEmpty(v) {
			return false
		}
	}
	return true
}

// Clone deep-copies a canonical value so callers can't alias store state.
func Clone(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []Item:
		out := make([]Item, len(t))
		for i, it := range t {
			out[i] = Item(cloneMap(it))
		}
		return out
	case Item:
		return Item(cloneMap(t))
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}
