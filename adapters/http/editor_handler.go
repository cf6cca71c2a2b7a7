package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	sectionuc "github.com/khoahotran/resume-builder/internal/application/usecase/section"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

//go:embed templates/*.gohtml
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "templates/*.gohtml"))

// EditorHandler serves the server rendered editor. Every form post returns a
// whole page, so the editor works without client scripts.
type EditorHandler struct {
	reg           *section.Registry
	editorUseCase *sectionuc.EditorUseCase
	logger        logger.Logger
}

func NewEditorHandler(reg *section.Registry, uc *sectionuc.EditorUseCase, log logger.Logger) *EditorHandler {
	return &EditorHandler{reg: reg, editorUseCase: uc, logger: log}
}

type editorPage struct {
	Sections []section.SectionSchema
	Current  string
	State    *sectionuc.FormState
}

type customizationPage struct {
	Sections      []section.SectionSchema
	Current       string
	Customization resume.TemplateCustomization
	ColorSchemes  []string
	FontFamilies  []string
	Layouts       []string
	Preview       string
}

// Home opens the first section.
func (h *EditorHandler) Home(c *gin.Context) {
	order := h.reg.Order()
	if len(order) == 0 {
		c.Error(apperror.NewNotFound("section", ""))
		return
	}
	c.Redirect(http.StatusSeeOther, "/app/sections/"+order[0])
}

func (h *EditorHandler) OpenSection(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	state, err := h.editorUseCase.OpenSection(c.Request.Context(), sectionuc.OpenSectionInput{
		UserID:    userID,
		SectionID: c.Param("sectionId"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	h.renderEditor(c, http.StatusOK, state)
}

// LiveUpdate stores the unsaved form and answers with the new preview page.
func (h *EditorHandler) LiveUpdate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.Error(apperror.NewInvalidInput("invalid form body", err))
		return
	}
	page, err := h.editorUseCase.LiveUpdate(c.Request.Context(), sectionuc.FormInput{
		UserID:    userID,
		SectionID: c.Param("sectionId"),
		Values:    c.Request.PostForm,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Submit handles save, cancel and the add/remove buttons of list fields.
// An invalid save re-renders the form with its errors.
func (h *EditorHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.Error(apperror.NewInvalidInput("invalid form body", err))
		return
	}
	state, err := h.editorUseCase.Submit(c.Request.Context(), sectionuc.FormInput{
		UserID:    userID,
		SectionID: c.Param("sectionId"),
		Values:    c.Request.PostForm,
	})
	if err != nil {
		if state != nil && errors.Is(err, apperror.ErrValidation) {
			h.renderEditor(c, http.StatusUnprocessableEntity, state)
			return
		}
		c.Error(err)
		return
	}
	h.renderEditor(c, http.StatusOK, state)
}

func (h *EditorHandler) Retry(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	state, err := h.editorUseCase.RetrySection(c.Request.Context(), sectionuc.RetrySectionInput{
		UserID:    userID,
		SectionID: c.Param("sectionId"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	h.renderEditor(c, http.StatusOK, state)
}

func (h *EditorHandler) Preview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, err := h.editorUseCase.Preview(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// GetCustomization answers JSON clients with the settings and browsers with
// the settings page.
func (h *EditorHandler) GetCustomization(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	custom, err := h.editorUseCase.Customization(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, custom)
		return
	}
	h.renderCustomization(c, custom)
}

// UpdateCustomization takes JSON (PUT) or a form post from the settings page.
func (h *EditorHandler) UpdateCustomization(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req resume.TemplateCustomization
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid customization", err))
		return
	}
	custom, err := h.editorUseCase.UpdateCustomization(c.Request.Context(), userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	if c.Request.Method == http.MethodPut || wantsJSON(c) {
		c.JSON(http.StatusOK, custom)
		return
	}
	h.renderCustomization(c, custom)
}

func (h *EditorHandler) renderEditor(c *gin.Context, status int, state *sectionuc.FormState) {
	h.render(c, status, "editor.gohtml", editorPage{
		Sections: h.reg.Sections(),
		Current:  state.Schema.ID,
		State:    state,
	})
}

func (h *EditorHandler) renderCustomization(c *gin.Context, custom resume.TemplateCustomization) {
	userID, _ := GetUserIDFromGinContext(c)
	preview, err := h.editorUseCase.Preview(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	h.render(c, http.StatusOK, "customization.gohtml", customizationPage{
		Sections:      h.reg.Sections(),
		Customization: custom,
		ColorSchemes:  sortedKeys(resume.ColorSchemes),
		FontFamilies:  sortedKeys(resume.FontFamilies),
		Layouts:       []string{resume.LayoutClassic, resume.LayoutModern, resume.LayoutCompact},
		Preview:       preview,
	})
}

func (h *EditorHandler) render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		c.Error(apperror.NewInternal("failed to render page", err))
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
