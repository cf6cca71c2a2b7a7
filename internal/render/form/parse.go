package form

import (
	"net/url"
	"strings"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

// Parse reads a submitted form back into the canonical section value. It is
// the only parse routine: live updates, saves and actions all go through it.
// List items come back in the order their ids were submitted.
func Parse(schema section.SectionSchema, values url.Values) (any, error) {
	if schema.Shape == section.ShapeSingle {
		f := schema.Fields[0]
		return parseField(f, section.FieldPath(schema.ID, f.Name), values), nil
	}
	return parseObject(schema.Fields, schema.ID, values), nil
}

func parseObject(fields []section.FieldDescriptor, prefix string, values url.Values) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = parseField(f, section.FieldPath(prefix, f.Name), values)
	}
	return out
}

func parseField(f section.FieldDescriptor, path string, values url.Values) any {
	switch f.Type {
	case section.FieldTypeCheckbox:
		switch strings.ToLower(values.Get(path)) {
		case "true", "on", "1", "yes":
			return true
		}
		return false

	case section.FieldTypeTags:
		tags := append([]string{}, values[section.TagsKey(path)]...)
		tags = append(tags, strings.Split(values.Get(section.NewTagKey(path)), ",")...)
		return section.CleanTags(tags)

	case section.FieldTypeList:
		ids := values[section.OrderKey(path)]
		items := make([]section.Item, 0, len(ids))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			it := section.Item(parseObject(f.ItemFields, section.ItemPath(path, id), values))
			it[section.ItemIDKey] = id
			items = append(items, it)
		}
		return items

	case section.FieldTypeTextarea:
		return strings.ReplaceAll(values.Get(path), "\r\n", "\n")
	}
	return values.Get(path)
}
