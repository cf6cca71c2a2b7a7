package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

var (
	ErrUnknownAction = errors.New("unknown form action")
	ErrBadPath       = errors.New("form path does not match the section schema")
)

const (
	actionAdd       = "add"
	actionRemove    = "remove"
	actionRemoveTag = "remove-tag"
)

func addAction(listPath string) string {
	return actionAdd + ":" + listPath
}

func removeAction(listPath, id string) string {
	return actionRemove + ":" + listPath + ":" + id
}

func removeTagAction(tagsPath, tag string) string {
	return actionRemoveTag + ":" + tagsPath + ":" + tag
}

// ApplyAction runs an add/remove control against a parsed section value:
//
//	add:<listPath>               append a new item seeded with DefaultItemData
//	remove:<listPath>:<itemID>   drop that item
//	remove-tag:<tagsPath>:<tag>  drop that tag
//
// Items and tags not targeted keep their relative order.
func ApplyAction(schema section.SectionSchema, value any, action string) (any, error) {
	kind, rest, ok := strings.Cut(action, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	var (
		path string
		arg  string
	)
	switch kind {
	case actionAdd:
		path = rest
	case actionRemove, actionRemoveTag:
		path, arg, ok = strings.Cut(rest, ":")
		if !ok || arg == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	segs, err := splitPath(schema.ID, path)
	if err != nil {
		return nil, err
	}

	v, err := section.Normalize(schema, section.Clone(value))
	if err != nil {
		return nil, err
	}

	// Single sections are treated as an object with one field for the walk.
	single := schema.Shape == section.ShapeSingle
	var root map[string]any
	if single {
		root = map[string]any{schema.Fields[0].Name: v}
	} else {
		root = v.(map[string]any)
	}

	err = walk(schema.Fields, root, segs, func(f section.FieldDescriptor, cur any) (any, error) {
		switch kind {
		case actionAdd:
			if f.Type != section.FieldTypeList {
				return nil, fmt.Errorf("%w: %s is not a list", ErrBadPath, path)
			}
			items, _ := cur.([]section.Item)
			return append(items, section.DefaultItem(f)), nil

		case actionRemove:
			if f.Type != section.FieldTypeList {
				return nil, fmt.Errorf("%w: %s is not a list", ErrBadPath, path)
			}
			items, _ := cur.([]section.Item)
			out := make([]section.Item, 0, len(items))
			for _, it := range items {
				if it.ID() != arg {
					out = append(out, it)
				}
			}
			return out, nil

		default:
			if f.Type != section.FieldTypeTags {
				return nil, fmt.Errorf("%w: %s is not a tag field", ErrBadPath, path)
			}
			tags, _ := cur.([]string)
			out := make([]string, 0, len(tags))
			for _, t := range tags {
				if !strings.EqualFold(t, arg) {
					out = append(out, t)
				}
			}
			return out, nil
		}
	})
	if err != nil {
		return nil, err
	}

	if single {
		return root[schema.Fields[0].Name], nil
	}
	return root, nil
}

type segment struct {
	name string
	id   string
}

// splitPath turns "experience.experience[abc].highlights" into
// [{experience abc} {highlights ""}].
func splitPath(sectionID, path string) ([]segment, error) {
	rest, ok := strings.CutPrefix(path, sectionID+".")
	if !ok || rest == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}

	var segs []segment
	for rest != "" {
		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			segs = append(segs, segment{name: rest})
			break
		}
		seg := segment{name: rest[:end]}
		if rest[end] == '[' {
			closeAt := strings.IndexByte(rest[end:], ']')
			if closeAt < 0 {
				return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
			}
			seg.id = rest[end+1 : end+closeAt]
			end += closeAt + 1
		}
		if seg.name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
		segs = append(segs, seg)
		rest = rest[end:]
		if rest == "" {
			break
		}
		if rest[0] != '.' {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
		rest = rest[1:]
	}
	if segs[len(segs)-1].id != "" {
		return nil, fmt.Errorf("%w: %q ends inside a list item", ErrBadPath, path)
	}
	return segs, nil
}

func walk(fields []section.FieldDescriptor, obj map[string]any, segs []segment, fn func(section.FieldDescriptor, any) (any, error)) error {
	seg := segs[0]
	var f section.FieldDescriptor
	found := false
	for _, cand := range fields {
		if cand.Name == seg.name {
			f, found = cand, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: unknown field %q", ErrBadPath, seg.name)
	}

	if len(segs) == 1 {
		nv, err := fn(f, obj[f.Name])
		if err != nil {
			return err
		}
		obj[f.Name] = nv
		return nil
	}

	if f.Type != section.FieldTypeList || seg.id == "" {
		return fmt.Errorf("%w: %q is not a list item", ErrBadPath, seg.name)
	}
	items, _ := obj[f.Name].([]section.Item)
	for _, it := range items {
		if it.ID() == seg.id {
			return walk(f.ItemFields, it, segs[1:], fn)
		}
	}
	return fmt.Errorf("%w: no %s item with id %q", ErrBadPath, seg.name, seg.id)
}
