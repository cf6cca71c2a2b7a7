package template

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type memTemplates struct {
	mu   sync.Mutex
	rows map[uuid.UUID]template.Template
}

func (m *memTemplates) Save(_ context.Context, t *template.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.rows {
		if o.Name == t.Name {
			return apperror.NewConflict("template", "name", t.Name)
		}
	}
	m.rows[t.ID] = *t
	return nil
}

func (m *memTemplates) Update(_ context.Context, t *template.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return apperror.NewNotFound("template", t.ID.String())
	}
	m.rows[t.ID] = *t
	return nil
}

func (m *memTemplates) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memTemplates) FindByID(_ context.Context, id uuid.UUID) (*template.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("template", id.String())
	}
	return &t, nil
}

func (m *memTemplates) List(_ context.Context, activeOnly bool) ([]*template.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*template.Template
	for _, t := range m.rows {
		if activeOnly && !t.IsActive {
			continue
		}
		c := t
		out = append(out, &c)
	}
	return out, nil
}

func (m *memTemplates) Stats(context.Context) (*template.Stats, error) {
	return &template.Stats{Total: len(m.rows)}, nil
}

type customizerFunc func(uuid.UUID, resume.TemplateCustomization) (resume.TemplateCustomization, error)

func (f customizerFunc) UpdateCustomization(_ context.Context, uid uuid.UUID, c resume.TemplateCustomization) (resume.TemplateCustomization, error) {
	return f(uid, c)
}

func TestTemplateUseCase_PartialUpdate(t *testing.T) {
	repo := &memTemplates{rows: map[uuid.UUID]template.Template{}}
	uc := NewTemplateUseCase(repo, nil, nil, logger.NewNopLogger())
	ctx := context.Background()

	created, err := uc.CreateTemplate(ctx, CreateTemplateInput{
		Name:          "Classic",
		Description:   "Serif headings",
		Category:      "professional",
		Customization: map[string]any{"colorScheme": "green"},
		IsActive:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "green", created.Customization["colorScheme"])
	assert.NotEmpty(t, created.Customization["fontFamily"], "defaults are filled in")

	premium := true
	updated, err := uc.UpdateTemplate(ctx, UpdateTemplateInput{ID: created.ID, Patch: template.Patch{IsPremium: &premium}})
	require.NoError(t, err)
	assert.True(t, updated.IsPremium)
	assert.Equal(t, "Classic", updated.Name)
	assert.Equal(t, "Serif headings", updated.Description)
	assert.Equal(t, "green", updated.Customization["colorScheme"])

	blank := "  "
	_, err = uc.UpdateTemplate(ctx, UpdateTemplateInput{ID: created.ID, Patch: template.Patch{Name: &blank}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = uc.CreateTemplate(ctx, CreateTemplateInput{Name: "Bad", Customization: map[string]any{"colorScheme": "neon"}})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestTemplateUseCase_ApplyTemplate(t *testing.T) {
	repo := &memTemplates{rows: map[uuid.UUID]template.Template{}}
	var applied resume.TemplateCustomization
	uc := NewTemplateUseCase(repo, nil, customizerFunc(func(_ uuid.UUID, c resume.TemplateCustomization) (resume.TemplateCustomization, error) {
		applied = c
		return c, nil
	}), logger.NewNopLogger())
	ctx := context.Background()

	tpl, err := uc.CreateTemplate(ctx, CreateTemplateInput{Name: "Modern", Customization: map[string]any{"layoutStyle": "modern"}, IsActive: true})
	require.NoError(t, err)

	_, err = uc.ApplyTemplate(ctx, uuid.New(), tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "modern", applied.LayoutStyle)

	hidden, err := uc.CreateTemplate(ctx, CreateTemplateInput{Name: "Draft"})
	require.NoError(t, err)
	_, err = uc.ApplyTemplate(ctx, uuid.New(), hidden.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	active, err := uc.ListTemplates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := uc.ListTemplates(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
