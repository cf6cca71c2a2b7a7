package section

import "sync"

const (
	Personal        = "personal"
	Headline        = "headline"
	Summary         = "summary"
	Experience      = "experience"
	Education       = "education"
	Skills          = "skills"
	Projects        = "projects"
	Accomplishments = "accomplishments"
	Certifications  = "certifications"
	Languages       = "languages"
	Interests       = "interests"
	PersonalDetails = "personalDetails"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of built-in resume sections.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = MustRegistry(BuiltinSections()...)
	})
	return defaultRegistry
}

var monthYearHelp = "YYYY-MM"

func BuiltinSections() []SectionSchema {
	return []SectionSchema{
		{
			ID:          Personal,
			Title:       "Personal Information",
			Description: "Name and contact details shown in the resume header.",
			Shape:       ShapeObject,
			Fields: []FieldDescriptor{
				{Name: "firstName", Type: FieldTypeText, Label: "First Name", Required: true, MaxLength: 50, LayoutGroup: "name"},
				{Name: "lastName", Type: FieldTypeText, Label: "Last Name", Required: true, MaxLength: 50, LayoutGroup: "name"},
				{Name: "jobTitle", Type: FieldTypeText, Label: "Job Title", Placeholder: "Software Engineer", MaxLength: 80, FullWidth: true},
				{Name: "email", Type: FieldTypeText, Label: "Email", Required: true, Pattern: `^[^@\s]+@[^@\s]+\.[^@\s]+$`, LayoutGroup: "contact"},
				{Name: "phone", Type: FieldTypeText, Label: "Phone", MaxLength: 30, LayoutGroup: "contact"},
				{Name: "location", Type: FieldTypeText, Label: "Location", Placeholder: "City, Country", MaxLength: 80},
				{Name: "website", Type: FieldTypeURL, Label: "Website"},
				{Name: "linkedin", Type: FieldTypeURL, Label: "LinkedIn", LayoutGroup: "social"},
				{Name: "github", Type: FieldTypeURL, Label: "GitHub", LayoutGroup: "social"},
			},
		},
		{
			ID:          Headline,
			Title:       "Resume Headline",
			Description: "One line that sums up your profile.",
			Shape:       ShapeSingle,
			Fields: []FieldDescriptor{
				{Name: "headline", Type: FieldTypeText, Label: "Headline", MaxLength: 250, FullWidth: true,
					Placeholder: "Backend engineer with 5 years of experience building payment systems"},
			},
		},
		{
			ID:          Summary,
			Title:       "Professional Summary",
			Description: "A short paragraph about your experience and goals.",
			Shape:       ShapeSingle,
			Fields: []FieldDescriptor{
				{Name: "summary", Type: FieldTypeTextarea, Label: "Summary", MaxLength: 1000, FullWidth: true},
			},
		},
		{
			ID:          Experience,
			Title:       "Work Experience",
			Description: "Your employment history, most recent first.",
			Shape:       ShapeSingle,
			Preview: PreviewHint{
				TitleField: "jobTitle", SubtitleField: "company", StartField: "startDate",
				EndField: "endDate", CurrentField: "current", BodyField: "description",
			},
			Fields: []FieldDescriptor{
				{
					Name: "experience", Type: FieldTypeList, Label: "Positions", Required: true, ItemLabel: "Position",
					ItemFields: []FieldDescriptor{
						{Name: "jobTitle", Type: FieldTypeText, Label: "Job Title", Required: true, MaxLength: 100},
						{Name: "company", Type: FieldTypeText, Label: "Company", Required: true, MaxLength: 100},
						{Name: "location", Type: FieldTypeText, Label: "Location", MaxLength: 80},
						{Name: "employmentType", Type: FieldTypeSelect, Label: "Employment Type", Options: []Option{
							{Value: "full-time", Label: "Full-time"},
							{Value: "part-time", Label: "Part-time"},
							{Value: "contract", Label: "Contract"},
							{Value: "internship", Label: "Internship"},
							{Value: "freelance", Label: "Freelance"},
						}},
						{Name: "startDate", Type: FieldTypeDate, Label: "Start Date", Required: true, HelpText: monthYearHelp, LayoutGroup: "dates"},
						{Name: "endDate", Type: FieldTypeDate, Label: "End Date", HelpText: monthYearHelp, LayoutGroup: "dates"},
						{Name: "current", Type: FieldTypeCheckbox, Label: "I currently work here", FullWidth: true},
						{Name: "description", Type: FieldTypeTextarea, Label: "Description", MaxLength: 2000, FullWidth: true},
						{
							Name: "highlights", Type: FieldTypeList, Label: "Highlights", ItemLabel: "Highlight", FullWidth: true,
							ItemFields: []FieldDescriptor{
								{Name: "text", Type: FieldTypeText, Label: "Highlight", MaxLength: 300, FullWidth: true},
							},
						},
					},
					DefaultItemData: map[string]any{"employmentType": "full-time"},
				},
			},
		},
		{
			ID:          Education,
			Title:       "Education",
			Description: "Degrees, diplomas and schools.",
			Shape:       ShapeSingle,
			Preview: PreviewHint{
				TitleField: "degree", SubtitleField: "institute", StartField: "startYear",
				EndField: "endYear", BodyField: "description",
			},
			Fields: []FieldDescriptor{
				{
					Name: "education", Type: FieldTypeList, Label: "Education", ItemLabel: "Education",
					ItemFields: []FieldDescriptor{
						{Name: "degree", Type: FieldTypeText, Label: "Degree", Required: true, MaxLength: 100},
						{Name: "institute", Type: FieldTypeText, Label: "Institute", Required: true, MaxLength: 150},
						{Name: "startYear", Type: FieldTypeNumber, Label: "Start Year", LayoutGroup: "years"},
						{Name: "endYear", Type: FieldTypeNumber, Label: "End Year", LayoutGroup: "years"},
						{Name: "field", Type: FieldTypeText, Label: "Field of Study", MaxLength: 100},
						{Name: "grade", Type: FieldTypeText, Label: "Grade / GPA", MaxLength: 20},
						{Name: "description", Type: FieldTypeTextarea, Label: "Description", MaxLength: 1000, FullWidth: true},
					},
				},
			},
		},
		{
			ID:          Skills,
			Title:       "Skills",
			Description: "Technologies, tools and competencies.",
			Shape:       ShapeSingle,
			Fields: []FieldDescriptor{
				{Name: "skills", Type: FieldTypeTags, Label: "Skills", Placeholder: "Type a skill and press Enter", FullWidth: true},
			},
		},
		{
			ID:          Projects,
			Title:       "Projects",
			Description: "Personal, academic or professional projects.",
			Shape:       ShapeSingle,
			Preview: PreviewHint{
				TitleField: "title", SubtitleField: "role", StartField: "startDate",
				EndField: "endDate", LinkField: "url", BodyField: "description",
			},
			Fields: []FieldDescriptor{
				{
					Name: "projects", Type: FieldTypeList, Label: "Projects", ItemLabel: "Project",
					ItemFields: []FieldDescriptor{
						{Name: "title", Type: FieldTypeText, Label: "Project Title", Required: true, MaxLength: 100},
						{Name: "role", Type: FieldTypeText, Label: "Role", MaxLength: 80},
						{Name: "url", Type: FieldTypeURL, Label: "Project URL", FullWidth: true},
						{Name: "startDate", Type: FieldTypeDate, Label: "Start Date", HelpText: monthYearHelp, LayoutGroup: "dates"},
						{Name: "endDate", Type: FieldTypeDate, Label: "End Date", HelpText: monthYearHelp, LayoutGroup: "dates"},
						{Name: "technologies", Type: FieldTypeTags, Label: "Technologies", FullWidth: true},
						{Name: "description", Type: FieldTypeTextarea, Label: "Description", MaxLength: 1500, FullWidth: true},
					},
				},
			},
		},
		{
			ID:          Accomplishments,
			Title:       "Accomplishments",
			Description: "Awards, honours and notable achievements.",
			Shape:       ShapeSingle,
			Preview:     PreviewHint{TitleField: "title", SubtitleField: "issuer", StartField: "date", BodyField: "description"},
			Fields: []FieldDescriptor{
				{
					Name: "accomplishments", Type: FieldTypeList, Label: "Accomplishments", ItemLabel: "Accomplishment",
					ItemFields: []FieldDescriptor{
						{Name: "title", Type: FieldTypeText, Label: "Title", Required: true, MaxLength: 120},
						{Name: "issuer", Type: FieldTypeText, Label: "Awarded By", MaxLength: 120},
						{Name: "date", Type: FieldTypeDate, Label: "Date", HelpText: monthYearHelp},
						{Name: "description", Type: FieldTypeTextarea, Label: "Description", MaxLength: 800, FullWidth: true},
					},
				},
			},
		},
		{
			ID:          Certifications,
			Title:       "Certifications",
			Description: "Professional certificates and licences.",
			Shape:       ShapeSingle,
			Preview:     PreviewHint{TitleField: "name", SubtitleField: "issuer", StartField: "date", LinkField: "url"},
			Fields: []FieldDescriptor{
				{
					Name: "certifications", Type: FieldTypeList, Label: "Certifications", ItemLabel: "Certification",
					ItemFields: []FieldDescriptor{
						{Name: "name", Type: FieldTypeText, Label: "Certification", Required: true, MaxLength: 120},
						{Name: "issuer", Type: FieldTypeText, Label: "Issuer", MaxLength: 120},
						{Name: "date", Type: FieldTypeDate, Label: "Issued", HelpText: monthYearHelp},
						{Name: "url", Type: FieldTypeURL, Label: "Credential URL"},
					},
				},
			},
		},
		{
			ID:          Languages,
			Title:       "Languages",
			Description: "Spoken languages and proficiency.",
			Shape:       ShapeSingle,
			Preview:     PreviewHint{TitleField: "language", SubtitleField: "proficiency"},
			Fields: []FieldDescriptor{
				{
					Name: "languages", Type: FieldTypeList, Label: "Languages", ItemLabel: "Language",
					ItemFields: []FieldDescriptor{
						{Name: "language", Type: FieldTypeText, Label: "Language", Required: true, MaxLength: 50},
						{Name: "proficiency", Type: FieldTypeSelect, Label: "Proficiency", Options: []Option{
							{Value: "native", Label: "Native"},
							{Value: "fluent", Label: "Fluent"},
							{Value: "professional", Label: "Professional"},
							{Value: "intermediate", Label: "Intermediate"},
							{Value: "basic", Label: "Basic"},
						}},
					},
					DefaultItemData: map[string]any{"proficiency": "professional"},
				},
			},
		},
		{
			ID:          Interests,
			Title:       "Interests",
			Description: "Hobbies and interests outside work.",
			Shape:       ShapeSingle,
			Fields: []FieldDescriptor{
				{Name: "interests", Type: FieldTypeTags, Label: "Interests", FullWidth: true},
			},
		},
		{
			ID:          PersonalDetails,
			Title:       "Personal Details",
			Description: "Optional details some regions expect on a resume.",
			Shape:       ShapeObject,
			Fields: []FieldDescriptor{
				{Name: "dateOfBirth", Type: FieldTypeDate, Label: "Date of Birth", HelpText: "YYYY-MM-DD"},
				{Name: "gender", Type: FieldTypeRadio, Label: "Gender", Options: []Option{
					{Value: "female", Label: "Female"},
					{Value: "male", Label: "Male"},
					{Value: "other", Label: "Other"},
				}},
				{Name: "nationality", Type: FieldTypeText, Label: "Nationality", MaxLength: 60},
				{Name: "maritalStatus", Type: FieldTypeSelect, Label: "Marital Status", Options: []Option{
					{Value: "single", Label: "Single"},
					{Value: "married", Label: "Married"},
					{Value: "other", Label: "Prefer not to say"},
				}},
				{Name: "drivingLicense", Type: FieldTypeCheckbox, Label: "Driving licence"},
				{Name: "address", Type: FieldTypeTextarea, Label: "Address", MaxLength: 300, FullWidth: true},
			},
		},
	}
}
