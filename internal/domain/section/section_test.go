package section

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs(t *testing.T) {
	t.Helper()
	prev := NewItemID
	n := 0
	NewItemID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	t.Cleanup(func() { NewItemID = prev })
}

func TestRegistry_Lookup(t *testing.T) {
	reg := Default()

	edu, ok := reg.GetSectionConfig(Education)
	require.True(t, ok)
	assert.Equal(t, "Education", edu.Title)
	assert.True(t, edu.IsList())

	_, ok = reg.GetSectionConfig("hobbies")
	assert.False(t, ok)

	all := reg.GetAllSectionConfigs()
	assert.Len(t, all, len(BuiltinSections()))
	delete(all, Education)
	assert.True(t, reg.Has(Education), "returned map must be a copy")

	order := reg.Order()
	assert.Equal(t, Personal, order[0])
	assert.Equal(t, PersonalDetails, order[len(order)-1])

	s, ok := reg.BySlug("personal-details")
	require.True(t, ok)
	assert.Equal(t, PersonalDetails, s.ID)
}

func TestRegistry_RejectsBadSchemas(t *testing.T) {
	text := FieldDescriptor{Name: "a", Type: FieldTypeText, Label: "A"}

	_, err := NewRegistry(
		SectionSchema{ID: "one", Shape: ShapeSingle, Fields: []FieldDescriptor{text}},
		SectionSchema{ID: "one", Shape: ShapeSingle, Fields: []FieldDescriptor{text}},
	)
	assert.True(t, errors.Is(err, ErrDuplicateSection))

	tests := []struct {
		name   string
		schema SectionSchema
	}{
		{"single with two fields", SectionSchema{ID: "x", Shape: ShapeSingle, Fields: []FieldDescriptor{text, {Name: "b", Type: FieldTypeText}}}},
		{"unknown shape", SectionSchema{ID: "x", Shape: "grid", Fields: []FieldDescriptor{text}}},
		{"unknown type", SectionSchema{ID: "x", Shape: ShapeObject, Fields: []FieldDescriptor{{Name: "a", Type: "color"}}}},
		{"select without options", SectionSchema{ID: "x", Shape: ShapeObject, Fields: []FieldDescriptor{{Name: "a", Type: FieldTypeSelect}}}},
		{"reserved item field", SectionSchema{ID: "x", Shape: ShapeSingle, Fields: []FieldDescriptor{
			{Name: "l", Type: FieldTypeList, ItemFields: []FieldDescriptor{{Name: "id", Type: FieldTypeText}}},
		}}},
		{"lists nested twice", SectionSchema{ID: "x", Shape: ShapeSingle, Fields: []FieldDescriptor{
			{Name: "l", Type: FieldTypeList, ItemFields: []FieldDescriptor{
				{Name: "m", Type: FieldTypeList, ItemFields: []FieldDescriptor{
					{Name: "n", Type: FieldTypeList, ItemFields: []FieldDescriptor{text}},
				}},
			}},
		}}},
		{"default item data for unknown field", SectionSchema{ID: "x", Shape: ShapeSingle, Fields: []FieldDescriptor{
			{Name: "l", Type: FieldTypeList, ItemFields: []FieldDescriptor{text}, DefaultItemData: map[string]any{"zzz": "1"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.schema)
			assert.True(t, errors.Is(err, ErrInvalidSchema), "got %v", err)
		})
	}
}

func TestDefaultValue_AllSections(t *testing.T) {
	for _, s := range Default().Sections() {
		t.Run(s.ID, func(t *testing.T) {
			v := DefaultValue(s)
			assert.True(t, IsEmpty(v))
			for _, e := range Validate(s, v) {
				assert.Contains(t, e.Message, "is required", e.Path)
			}
		})
	}
}

func TestDefaultItem_UsesDefaultItemData(t *testing.T) {
	sequentialIDs(t)
	exp, _ := Default().GetSectionConfig(Experience)
	list, _ := exp.ListField()

	it := DefaultItem(list)
	assert.Equal(t, "item-1", it.ID())
	assert.Equal(t, "full-time", it["employmentType"])
	assert.Equal(t, false, it["current"])
	assert.Equal(t, []Item{}, it["highlights"])
	assert.Equal(t, "", it["jobTitle"])
}

func TestNormalize_FromJSON(t *testing.T) {
	sequentialIDs(t)
	exp, _ := Default().GetSectionConfig(Experience)

	var raw any
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "w1", "jobTitle": "Engineer", "company": "Acme", "current": "on", "unknown": 1,
		 "highlights": [{"text": "Shipped v2"}]},
		{"jobTitle": "Intern", "company": "Beta", "startDate": 2019}
	]`), &raw))

	v, err := Normalize(exp, raw)
	require.NoError(t, err)
	items := v.([]Item)
	require.Len(t, items, 2)

	assert.Equal(t, "w1", items[0].ID())
	assert.Equal(t, true, items[0]["current"])
	assert.NotContains(t, items[0], "unknown")
	hl := items[0]["highlights"].([]Item)
	require.Len(t, hl, 1)
	assert.Equal(t, "Shipped v2", hl[0]["text"])
	assert.Equal(t, "item-1", hl[0].ID())

	assert.Equal(t, "item-2", items[1].ID())
	assert.Equal(t, "2019", items[1]["startDate"])
	assert.Equal(t, "", items[1]["location"])
}

func TestNormalize_TagsAndObjects(t *testing.T) {
	skills, _ := Default().GetSectionConfig(Skills)
	v, err := Normalize(skills, []any{" Go ", "SQL", "", "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, v)

	v, err = Normalize(skills, "Docker, Kubernetes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Docker", "Kubernetes"}, v)

	personal, _ := Default().GetSectionConfig(Personal)
	_, err = Normalize(personal, []any{"nope"})
	assert.Error(t, err)

	v, err = Normalize(personal, nil)
	require.NoError(t, err)
	assert.Equal(t, "", v.(map[string]any)["firstName"])
}

func TestValidate(t *testing.T) {
	personal, _ := Default().GetSectionConfig(Personal)
	errs := Validate(personal, map[string]any{
		"firstName": "", "lastName": "Doe", "email": "not-an-email",
		"website": "ftp://example.com", "linkedin": "", "github": "",
	})
	paths := map[string]bool{}
	for _, e := range errs {
		paths[e.Path] = true
	}
	assert.True(t, paths["personal.firstName"])
	assert.True(t, paths["personal.email"])
	assert.True(t, paths["personal.website"])
	assert.False(t, paths["personal.lastName"])

	edu, _ := Default().GetSectionConfig(Education)
	errs = Validate(edu, []Item{{"id": "e1", "degree": "BSc", "institute": "", "startYear": "20x8"}})
	require.Len(t, errs, 2)
	assert.Equal(t, "education.education[e1].institute", errs[0].Path)
	assert.Equal(t, "education.education[e1].startYear", errs[1].Path)

	assert.Empty(t, Validate(edu, []Item{}), "an empty list is always valid")

	langs, _ := Default().GetSectionConfig(Languages)
	errs = Validate(langs, []Item{{"id": "l1", "language": "French", "proficiency": "godlike"}})
	require.Len(t, errs, 1)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty([]Item{}))
	assert.True(t, IsEmpty([]string{}))
	assert.True(t, IsEmpty(map[string]any{"a": "", "b": false, "c": []string{}}))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty([]Item{{"id": "1"}}))
	assert.False(t, IsEmpty(map[string]any{"a": "x"}))
}

func TestJSONSchema_ListsEverySection(t *testing.T) {
	sch := Default().JSONSchema()
	props := sch["properties"].(map[string]any)
	for _, id := range Default().Order() {
		assert.Contains(t, props, id)
	}
	assert.Equal(t, false, sch["additionalProperties"])
}

func TestKebab(t *testing.T) {
	assert.Equal(t, "personal-details", Kebab("personalDetails"))
	assert.Equal(t, "education", Kebab("education"))
}
