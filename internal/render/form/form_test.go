package form

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/khoahotran/resume-builder/internal/domain/section"
)

func sequentialIDs(t *testing.T) {
	t.Helper()
	prev := section.NewItemID
	n := 0
	section.NewItemID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	t.Cleanup(func() { section.NewItemID = prev })
}

func schemaOf(t *testing.T, id string) section.SectionSchema {
	t.Helper()
	s, ok := section.Default().GetSectionConfig(id)
	require.True(t, ok, id)
	return s
}

// submit collects the successful controls of the rendered form the way a
// browser does when the form is submitted without clicking an action button.
func submit(t *testing.T, m Markup) url.Values {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<form>" + string(m.HTML) + "</form>"))
	require.NoError(t, err)

	values := url.Values{}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			name := attr(n, "name")
			switch n.DataAtom {
			case atom.Input:
				typ := attr(n, "type")
				switch typ {
				case "submit", "button", "reset":
				case "checkbox", "radio":
					if hasAttr(n, "checked") && name != "" {
						values.Add(name, attr(n, "value"))
					}
				default:
					if name != "" {
						values.Add(name, attr(n, "value"))
					}
				}
			case atom.Textarea:
				var b strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					b.WriteString(c.Data)
				}
				values.Add(name, b.String())
			case atom.Select:
				var first, chosen *html.Node
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.DataAtom != atom.Option {
						continue
					}
					if first == nil {
						first = c
					}
					if hasAttr(c, "selected") {
						chosen = c
					}
				}
				if chosen == nil {
					chosen = first
				}
				if chosen != nil {
					values.Add(name, attr(chosen, "value"))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return values
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func roundTrip(t *testing.T, s section.SectionSchema, v any) any {
	t.Helper()
	m, err := Render(s, v)
	require.NoError(t, err)
	got, err := Parse(s, submit(t, m))
	require.NoError(t, err)
	return got
}

func TestRender_EmptyDataYieldsDefaults(t *testing.T) {
	for _, s := range section.Default().Sections() {
		t.Run(s.ID, func(t *testing.T) {
			assert.Equal(t, section.DefaultValue(s), roundTrip(t, s, nil))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	exp := schemaOf(t, section.Experience)
	raw := []any{
		map[string]any{
			"id": "w1", "jobTitle": "Staff Engineer", "company": "R&D <Labs>", "location": "Berlin",
			"employmentType": "contract", "startDate": "2020-02", "endDate": "", "current": true,
			"description": "\nLed the \"payments\" team.\nShipped v2.",
			"highlights": []any{
				map[string]any{"id": "h1", "text": "Cut latency by 40%"},
				map[string]any{"id": "h2", "text": "Mentored 4 engineers"},
			},
		},
		map[string]any{
			"id": "w2", "jobTitle": "Engineer", "company": "Acme", "startDate": "2017",
			"employmentType": "", "current": false,
		},
	}
	want, err := section.Normalize(exp, raw)
	require.NoError(t, err)
	assert.Equal(t, want, roundTrip(t, exp, want))

	personal := schemaOf(t, section.Personal)
	want, err = section.Normalize(personal, map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
		"website": "https://ada.dev", "github": "https://github.com/ada",
	})
	require.NoError(t, err)
	assert.Equal(t, want, roundTrip(t, personal, want))

	details := schemaOf(t, section.PersonalDetails)
	want, err = section.Normalize(details, map[string]any{
		"gender": "female", "maritalStatus": "single", "drivingLicense": true, "address": "1 Main St\nLondon",
	})
	require.NoError(t, err)
	assert.Equal(t, want, roundTrip(t, details, want))

	skills := schemaOf(t, section.Skills)
	assert.Equal(t, []string{"Go", "C++"}, roundTrip(t, skills, []string{"Go", "C++"}))

	summary := schemaOf(t, section.Summary)
	assert.Equal(t, "Two\nlines", roundTrip(t, summary, "Two\nlines"))
}

func TestParse_ListOrderFollowsSubmittedIDs(t *testing.T) {
	edu := schemaOf(t, section.Education)
	values := url.Values{
		"education.education[]":           {"b", "a", "b", ""},
		"education.education[a].degree":    {"MSc"},
		"education.education[b].degree":    {"BSc"},
		"education.education[a].institute": {"ETH"},
	}
	got, err := Parse(edu, values)
	require.NoError(t, err)
	items := got.([]section.Item)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID())
	assert.Equal(t, "BSc", items[0]["degree"])
	assert.Equal(t, "a", items[1].ID())
	assert.Equal(t, "ETH", items[1]["institute"])
	assert.Equal(t, "", items[0]["institute"])
}

func TestScenario_AddEducationAndSave(t *testing.T) {
	sequentialIDs(t)
	edu := schemaOf(t, section.Education)

	v, err := ApplyAction(edu, nil, "add:education.education")
	require.NoError(t, err)

	m, err := Render(edu, v)
	require.NoError(t, err)
	assert.Contains(t, string(m.HTML), `name="education.education[item-1].degree"`)

	form := submit(t, m)
	form.Set("education.education[item-1].degree", "B.Tech")
	form.Set("education.education[item-1].institute", "MIT")
	form.Set("education.education[item-1].startYear", "2018")
	form.Set("education.education[item-1].endYear", "2022")

	got, err := Parse(edu, form)
	require.NoError(t, err)
	assert.Empty(t, section.Validate(edu, got))
	assert.Equal(t, []section.Item{{
		"id": "item-1", "degree": "B.Tech", "institute": "MIT", "startYear": "2018", "endYear": "2022",
		"field": "", "grade": "", "description": "",
	}}, got)
}

func TestScenario_TagInput(t *testing.T) {
	skills := schemaOf(t, section.Skills)
	m, err := Render(skills, nil)
	require.NoError(t, err)

	form := submit(t, m)
	form.Set("skills.skills[new]", "JavaScript, Python")
	got, err := Parse(skills, form)
	require.NoError(t, err)
	assert.Equal(t, []string{"JavaScript", "Python"}, got)

	m, err = Render(skills, got)
	require.NoError(t, err)
	form = submit(t, m)
	form.Set("skills.skills[new]", "Go")
	got, err = Parse(skills, form)
	require.NoError(t, err)
	assert.Equal(t, []string{"JavaScript", "Python", "Go"}, got)

	got, err = ApplyAction(skills, got, "remove-tag:skills.skills:python")
	require.NoError(t, err)
	assert.Equal(t, []string{"JavaScript", "Go"}, got)
}

func TestScenario_RemoveOnlyRequiredEntry(t *testing.T) {
	exp := schemaOf(t, section.Experience)
	v, err := section.Normalize(exp, []any{map[string]any{"id": "w1", "jobTitle": "Dev", "company": "Acme", "startDate": "2020"}})
	require.NoError(t, err)

	v, err = ApplyAction(exp, v, "remove:experience.experience:w1")
	require.NoError(t, err)
	assert.Equal(t, []section.Item{}, v)
	assert.Empty(t, section.Validate(exp, v))

	m, err := Render(exp, v)
	require.NoError(t, err)
	assert.Contains(t, string(m.HTML), "No Position entries yet.")
	assert.Equal(t, []section.Item{}, roundTrip(t, exp, v))
}

func TestAddNRemoveK(t *testing.T) {
	for _, id := range []string{section.Education, section.Projects, section.Languages} {
		t.Run(id, func(t *testing.T) {
			sequentialIDs(t)
			s := schemaOf(t, id)
			list, _ := s.ListField()
			listPath := section.FieldPath(s.ID, list.Name)

			var v any
			var err error
			for i := 0; i < 4; i++ {
				v, err = ApplyAction(s, v, "add:"+listPath)
				require.NoError(t, err)
			}
			v, err = ApplyAction(s, v, "remove:"+listPath+":item-2")
			require.NoError(t, err)

			items := roundTrip(t, s, v).([]section.Item)
			require.Len(t, items, 3)
			assert.Equal(t, "item-1", items[0].ID())
			assert.Equal(t, "item-3", items[1].ID())
			assert.Equal(t, "item-4", items[2].ID())
		})
	}
}

func TestApplyAction_NestedList(t *testing.T) {
	sequentialIDs(t)
	exp := schemaOf(t, section.Experience)

	v, err := ApplyAction(exp, nil, "add:experience.experience")
	require.NoError(t, err)
	v, err = ApplyAction(exp, v, "add:experience.experience[item-1].highlights")
	require.NoError(t, err)

	items := v.([]section.Item)
	require.Len(t, items, 1)
	assert.Equal(t, "full-time", items[0]["employmentType"])
	hl := items[0]["highlights"].([]section.Item)
	require.Len(t, hl, 1)
	assert.Equal(t, "item-2", hl[0].ID())

	m, err := Render(exp, v)
	require.NoError(t, err)
	assert.Contains(t, string(m.HTML), `value="remove:experience.experience[item-1].highlights:item-2"`)
	assert.Equal(t, v, roundTrip(t, exp, v))
}

func TestApplyAction_Errors(t *testing.T) {
	exp := schemaOf(t, section.Experience)
	tests := []struct {
		action string
		want   error
	}{
		{"explode", ErrUnknownAction},
		{"rename:experience.experience", ErrUnknownAction},
		{"remove:experience.experience", ErrUnknownAction},
		{"add:education.education", ErrBadPath},
		{"add:experience.nope", ErrBadPath},
		{"add:experience.experience[missing].highlights", ErrBadPath},
		{"remove-tag:experience.experience:x", ErrBadPath},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			_, err := ApplyAction(exp, nil, tt.action)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLayout(t *testing.T) {
	rows := Layout(schemaOf(t, section.Personal).Fields)
	names := make([][]string, len(rows))
	for i, r := range rows {
		for _, f := range r.Fields {
			names[i] = append(names[i], f.Name)
		}
	}
	assert.Equal(t, [][]string{
		{"firstName", "lastName"},
		{"jobTitle"},
		{"email", "phone"},
		{"location", "website"},
		{"linkedin", "github"},
	}, names)
	assert.True(t, rows[1].Full)
}

func TestRender_ShowsErrorsAndCounters(t *testing.T) {
	personal := schemaOf(t, section.Personal)
	v := map[string]any{"firstName": "Ada", "email": "nope"}
	errs := section.Validate(personal, mustNormalize(t, personal, v))

	m, err := Render(personal, v, WithErrors(errs))
	require.NoError(t, err)
	out := string(m.HTML)
	assert.Contains(t, out, "Email has an invalid format")
	assert.Contains(t, out, "Last Name is required")
	assert.Contains(t, out, `>3/50<`)
}

func mustNormalize(t *testing.T, s section.SectionSchema, v any) any {
	t.Helper()
	out, err := section.Normalize(s, v)
	require.NoError(t, err)
	return out
}
