package section

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/internal/domain/section"
)

// valueKey holds the bare value of single sections that are not lists
// (headline text, skill tags).
const valueKey = "value"

// withEntryIDs gives every top level list item a uuid id, since list items
// are stored as rows keyed by that id. Other values pass through.
func withEntryIDs(schema section.SectionSchema, value any) any {
	items, ok := value.([]section.Item)
	if !ok || !schema.IsList() {
		return value
	}
	out := make([]section.Item, len(items))
	for i, it := range items {
		if _, err := uuid.Parse(it.ID()); err != nil {
			it = section.Clone(it).(section.Item)
			it[section.ItemIDKey] = uuid.NewString()
		}
		out[i] = it
	}
	return out
}

// toEntries splits a canonical section value into rows. The value must
// already have passed through withEntryIDs.
func toEntries(schema section.SectionSchema, userID uuid.UUID, value any, now time.Time) ([]*entry.Entry, error) {
	if schema.IsList() {
		items, ok := value.([]section.Item)
		if !ok {
			return nil, fmt.Errorf("section %s: expected list items, got %T", schema.ID, value)
		}
		entries := make([]*entry.Entry, len(items))
		for i, it := range items {
			id, err := uuid.Parse(it.ID())
			if err != nil {
				return nil, fmt.Errorf("section %s: item id %q: %w", schema.ID, it.ID(), err)
			}
			data := map[string]any(section.Clone(it).(section.Item))
			delete(data, section.ItemIDKey)
			entries[i] = &entry.Entry{
				ID: id, UserID: userID, SectionID: schema.ID, Position: i,
				Data: data, CreatedAt: now, UpdatedAt: now,
			}
		}
		return entries, nil
	}

	return []*entry.Entry{{
		ID: uuid.New(), UserID: userID, SectionID: schema.ID,
		Data: entryData(schema, value), CreatedAt: now, UpdatedAt: now,
	}}, nil
}

func entryData(schema section.SectionSchema, value any) map[string]any {
	if m, ok := value.(map[string]any); ok && schema.Shape == section.ShapeObject {
		return section.Clone(m).(map[string]any)
	}
	return map[string]any{valueKey: section.Clone(value)}
}

// fromEntries rebuilds the canonical section value from its rows.
func fromEntries(schema section.SectionSchema, entries []*entry.Entry) (any, error) {
	if schema.IsList() {
		items := make([]any, 0, len(entries))
		for _, e := range entries {
			items = append(items, entryItem(e))
		}
		return section.Normalize(schema, items)
	}
	if len(entries) == 0 {
		return section.DefaultValue(schema), nil
	}
	return entryValue(schema, entries[0])
}

func entryItem(e *entry.Entry) map[string]any {
	m := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		m[k] = v
	}
	m[section.ItemIDKey] = e.ID.String()
	return m
}

func entryValue(schema section.SectionSchema, e *entry.Entry) (any, error) {
	if schema.Shape == section.ShapeObject {
		return section.Normalize(schema, e.Data)
	}
	return section.Normalize(schema, e.Data[valueKey])
}
