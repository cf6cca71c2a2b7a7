package form

import "github.com/khoahotran/resume-builder/internal/domain/section"

// Row is one line of the form grid.
type Row struct {
	Fields []section.FieldDescriptor
	Full   bool
}

// Layout places fields on rows. Full width fields and lists take a row alone,
// fields sharing a LayoutGroup share the row opened by the first of them, and
// the remaining fields pair up two per row in declaration order.
func Layout(fields []section.FieldDescriptor) []Row {
	var rows []Row
	groupRow := make(map[string]int)
	pending := -1

	for _, f := range fields {
		switch {
		case f.FullWidth || f.Type == section.FieldTypeList:
			pending = -1
			rows = append(rows, Row{Fields: []section.FieldDescriptor{f}, Full: true})

		case f.LayoutGroup != "":
			if i, ok := groupRow[f.LayoutGroup]; ok {
				rows[i].Fields = append(rows[i].Fields, f)
				continue
			}
			pending = -1
			groupRow[f.LayoutGroup] = len(rows)
			rows = append(rows, Row{Fields: []section.FieldDescriptor{f}})

		case pending >= 0:
			rows[pending].Fields = append(rows[pending].Fields, f)
			pending = -1

		default:
			pending = len(rows)
			rows = append(rows, Row{Fields: []section.FieldDescriptor{f}})
		}
	}
	return rows
}
