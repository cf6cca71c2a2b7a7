package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sectionuc "github.com/khoahotran/resume-builder/internal/application/usecase/section"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

// SectionHandler serves the per-section REST resources. Every section of the
// registry gets the same four routes under its kebab-case slug.
type SectionHandler struct {
	reg          *section.Registry
	entryUseCase *sectionuc.EntryUseCase
}

func NewSectionHandler(reg *section.Registry, entryUC *sectionuc.EntryUseCase) *SectionHandler {
	return &SectionHandler{reg: reg, entryUseCase: entryUC}
}

// Register mounts the section routes on an authenticated group.
func (h *SectionHandler) Register(api *gin.RouterGroup) {
	for _, schema := range h.reg.Sections() {
		g := api.Group("/" + schema.Slug())
		g.GET("/:userId", h.list(schema))
		g.POST("", h.create(schema))
		g.PUT("/:id", h.update(schema))
		g.DELETE("/:id", h.delete(schema))
	}
}

func (h *SectionHandler) list(schema section.SectionSchema) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireSelfOrAdmin(c, "userId")
		if !ok {
			return
		}

		entries, err := h.entryUseCase.ListEntries(c.Request.Context(), sectionuc.ListEntriesInput{
			UserID:    userID,
			SectionID: schema.ID,
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, ToEntryDTOs(entries))
	}
}

func (h *SectionHandler) create(schema section.SectionSchema) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var data map[string]any
		if err := c.ShouldBindJSON(&data); err != nil {
			c.Error(apperror.NewInvalidInput("request body must be a JSON object", err))
			return
		}

		e, err := h.entryUseCase.CreateEntry(c.Request.Context(), sectionuc.CreateEntryInput{
			UserID:    userID,
			SectionID: schema.ID,
			Data:      data,
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, ToEntryDTO(e))
	}
}

func (h *SectionHandler) update(schema section.SectionSchema) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		entryID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Error(apperror.NewInvalidInput("invalid entry ID", err))
			return
		}
		var data map[string]any
		if err := c.ShouldBindJSON(&data); err != nil {
			c.Error(apperror.NewInvalidInput("request body must be a JSON object", err))
			return
		}

		e, err := h.entryUseCase.UpdateEntry(c.Request.Context(), sectionuc.UpdateEntryInput{
			UserID:    userID,
			SectionID: schema.ID,
			EntryID:   entryID,
			Data:      data,
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, ToEntryDTO(e))
	}
}

func (h *SectionHandler) delete(schema section.SectionSchema) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		entryID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Error(apperror.NewInvalidInput("invalid entry ID", err))
			return
		}

		err = h.entryUseCase.DeleteEntry(c.Request.Context(), sectionuc.DeleteEntryInput{
			UserID:    userID,
			SectionID: schema.ID,
			EntryID:   entryID,
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
