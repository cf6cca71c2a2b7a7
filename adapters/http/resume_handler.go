package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sectionuc "github.com/khoahotran/resume-builder/internal/application/usecase/section"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

const maxImportBytes = 10 << 20

type ResumeHandler struct {
	reg           *section.Registry
	resumeUseCase *sectionuc.ResumeUseCase
}

func NewResumeHandler(reg *section.Registry, uc *sectionuc.ResumeUseCase) *ResumeHandler {
	return &ResumeHandler{reg: reg, resumeUseCase: uc}
}

// ListSections exposes the registry so clients can build their own forms.
func (h *ResumeHandler) ListSections(c *gin.Context) {
	c.JSON(http.StatusOK, h.reg.Sections())
}

func (h *ResumeHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, h.reg.JSONSchema())
}

func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.resumeUseCase.GetResume(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ResumeHandler) Import(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.Error(apperror.NewInvalidInput("request body must be a JSON object", err))
		return
	}

	result, err := h.resumeUseCase.Import(c.Request.Context(), sectionuc.ImportInput{UserID: userID, Document: doc})
	if err != nil {
		c.Error(err)
		return
	}
	status := http.StatusOK
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// ImportFile reads an uploaded PDF or DOCX resume.
func (h *ResumeHandler) ImportFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	if fileHeader.Size > maxImportBytes {
		c.Error(apperror.NewInvalidInput("file must be 10MB or smaller", nil))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		c.Error(apperror.NewInvalidInput("failed to read upload", err))
		return
	}

	result, err := h.resumeUseCase.ImportFile(c.Request.Context(), sectionuc.ImportFileInput{
		UserID:   userID,
		FileName: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PublicResume serves the read-only resume page of a user.
func (h *ResumeHandler) PublicResume(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.Error(apperror.NewNotFound("resume", c.Param("userId")))
		return
	}
	page, err := h.resumeUseCase.PublicResume(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}
