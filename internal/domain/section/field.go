package section

// FieldType is the variant of a FieldDescriptor.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeTags     FieldType = "tags"
	FieldTypeDate     FieldType = "date"
	FieldTypeURL      FieldType = "url"
	FieldTypeNumber   FieldType = "number"
	FieldTypeList     FieldType = "list"
)

// AllFieldTypes returns all valid field types
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeTextarea,
		FieldTypeSelect,
		FieldTypeCheckbox,
		FieldTypeRadio,
		FieldTypeTags,
		FieldTypeDate,
		FieldTypeURL,
		FieldTypeNumber,
		FieldTypeList,
	}
}

func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText,
		FieldTypeTextarea,
		FieldTypeSelect,
		FieldTypeCheckbox,
		FieldTypeRadio,
		FieldTypeTags,
		FieldTypeDate,
		FieldTypeURL,
		FieldTypeNumber,
		FieldTypeList:
		return true
	default:
		return false
	}
}

// IsScalarText reports whether values of this type are stored as a plain string.
func (t FieldType) IsScalarText() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeRadio,
		FieldTypeDate, FieldTypeURL, FieldTypeNumber:
		return true
	}
	return false
}

func (t FieldType) String() string {
	return string(t)
}

// Option is a choice of a select or radio field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDescriptor declares one form field. ItemFields and DefaultItemData are
// only meaningful for lists; Options only for select and radio.
type FieldDescriptor struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Required    bool      `json:"required,omitempty"`
	FullWidth   bool      `json:"fullWidth,omitempty"`
	LayoutGroup string    `json:"layoutGroup,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	HelpText    string    `json:"helpText,omitempty"`
	MaxLength   int       `json:"maxLength,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
	Default     string    `json:"default,omitempty"`
	Options     []Option  `json:"options,omitempty"`

	ItemLabel       string            `json:"itemLabel,omitempty"`
	ItemFields      []FieldDescriptor `json:"itemFields,omitempty"`
	DefaultItemData map[string]any    `json:"defaultItemData,omitempty"`
}

func (f FieldDescriptor) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// ItemField finds a nested field of a list descriptor by name.
func (f FieldDescriptor) ItemField(name string) (FieldDescriptor, bool) {
	for _, it := range f.ItemFields {
		if it.Name == name {
			return it, true
		}
	}
	return FieldDescriptor{}, false
}
