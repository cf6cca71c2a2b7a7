package section

// JSONSchema describes a whole resume document (section id -> value) as a
// draft-07 JSON Schema. Unknown section ids are rejected.
func (r *Registry) JSONSchema() map[string]any {
	props := make(map[string]any, len(r.order))
	for _, s := range r.Sections() {
		var sch map[string]any
		if s.Shape == ShapeSingle {
			sch = fieldSchema(s.Fields[0])
		} else {
			sch = objectSchema(s.Fields, false)
		}
		sch["title"] = s.Title
		props[s.ID] = sch
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "Resume",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func objectSchema(fields []FieldDescriptor, withID bool) map[string]any {
	props := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
	}
	if withID {
		props[ItemIDKey] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func fieldSchema(f FieldDescriptor) map[string]any {
	switch f.Type {
	case FieldTypeCheckbox:
		return map[string]any{"type": []any{"boolean", "string"}}
	case FieldTypeTags:
		return map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
	case FieldTypeList:
		return map[string]any{
			"type":  "array",
			"items": objectSchema(f.ItemFields, true),
		}
	case FieldTypeNumber:
		return map[string]any{"type": []any{"string", "number"}}
	}
	sch := map[string]any{"type": "string"}
	if f.MaxLength > 0 {
		sch["maxLength"] = f.MaxLength
	}
	if len(f.Options) > 0 {
		enum := make([]any, 0, len(f.Options)+1)
		enum = append(enum, "")
		for _, o := range f.Options {
			enum = append(enum, o.Value)
		}
		sch["enum"] = enum
	}
	return sch
}
