package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	favoriteUC "github.com/khoahotran/resume-builder/internal/application/usecase/favorite"
	templateUC "github.com/khoahotran/resume-builder/internal/application/usecase/template"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type TemplateHandler struct {
	templateUseCase *templateUC.TemplateUseCase
	favoriteUseCase *favoriteUC.FavoriteUseCase
	logger          logger.Logger
}

func NewTemplateHandler(tuc *templateUC.TemplateUseCase, fuc *favoriteUC.FavoriteUseCase, log logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateUseCase: tuc,
		favoriteUseCase: fuc,
		logger:          log,
	}
}

// ListTemplates shows active templates. Admins also see inactive ones.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateUseCase.ListTemplates(c.Request.Context(), IsAdmin(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid template ID", err))
		return
	}
	t, err := h.templateUseCase.GetTemplate(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if !t.IsActive && !IsAdmin(c) {
		c.Error(apperror.NewNotFound("template", id.String()))
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTemplate accepts either a JSON body or a multipart form with the JSON
// in a 'data' field and an optional 'thumbnail' image.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	req, thumb, err := bindTemplateRequest(c)
	if err != nil {
		c.Error(err)
		return
	}
	if thumb != nil {
		defer thumb.Close()
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.Error(apperror.NewValidation([]apperror.FieldError{{Path: "name", Message: "name is required"}}))
		return
	}

	input := templateUC.CreateTemplateInput{
		AdminID:       adminID,
		Name:          *req.Name,
		Customization: req.Customization,
		IsActive:      true,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Category != nil {
		input.Category = *req.Category
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	if req.IsPremium != nil {
		input.IsPremium = *req.IsPremium
	}
	if thumb != nil {
		input.Thumbnail = thumb
	}

	t, err := h.templateUseCase.CreateTemplate(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid template ID", err))
		return
	}
	req, thumb, err := bindTemplateRequest(c)
	if err != nil {
		c.Error(err)
		return
	}
	if thumb != nil {
		defer thumb.Close()
	}

	input := templateUC.UpdateTemplateInput{
		ID:      id,
		AdminID: adminID,
		Patch: template.Patch{
			Name:          req.Name,
			Description:   req.Description,
			Category:      req.Category,
			Customization: req.Customization,
			IsActive:      req.IsActive,
			IsPremium:     req.IsPremium,
		},
	}
	if thumb != nil {
		input.Thumbnail = thumb
	}

	t, err := h.templateUseCase.UpdateTemplate(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid template ID", err))
		return
	}
	if err := h.templateUseCase.DeleteTemplate(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) Stats(c *gin.Context) {
	stats, err := h.templateUseCase.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ApplyTemplate copies the template look onto the caller's resume.
func (h *TemplateHandler) ApplyTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid template ID", err))
		return
	}
	custom, err := h.templateUseCase.ApplyTemplate(c.Request.Context(), userID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, custom)
}

func (h *TemplateHandler) ListFavorites(c *gin.Context) {
	userID, ok := requireSelfOrAdmin(c, "userId")
	if !ok {
		return
	}
	favs, err := h.favoriteUseCase.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

func (h *TemplateHandler) AddFavorite(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request body", err))
		return
	}
	userID := callerID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			c.Error(apperror.NewInvalidInput("invalid user ID", err))
			return
		}
		if id != callerID && !IsAdmin(c) {
			c.Error(apperror.NewPermissionDenied("you can only manage your own favorites"))
			return
		}
		userID = id
	}
	templateID, _ := uuid.Parse(req.TemplateID)

	fav, err := h.favoriteUseCase.AddFavorite(c.Request.Context(), favoriteUC.AddFavoriteInput{
		UserID:     userID,
		TemplateID: templateID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func (h *TemplateHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := requireSelfOrAdmin(c, "userId")
	if !ok {
		return
	}
	templateID, err := uuid.Parse(c.Param("templateId"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid template ID", err))
		return
	}
	if err := h.favoriteUseCase.RemoveFavorite(c.Request.Context(), userID, templateID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindTemplateRequest(c *gin.Context) (*TemplateRequest, io.ReadCloser, error) {
	var req TemplateRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, nil, apperror.NewInvalidInput("invalid request body", err)
		}
		return &req, nil, nil
	}

	if data := c.PostForm("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			return nil, nil, apperror.NewInvalidInput("'data' field is not valid JSON", err)
		}
	}
	fileHeader, err := c.FormFile("thumbnail")
	if err != nil {
		if err == http.ErrMissingFile {
			return &req, nil, nil
		}
		return nil, nil, apperror.NewInvalidInput("invalid thumbnail upload", err)
	}
	if err := checkImage(fileHeader); err != nil {
		return nil, nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, apperror.NewInternal("failed to open file", err)
	}
	return &req, file, nil
}
