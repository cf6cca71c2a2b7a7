package http

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	exportUC "github.com/khoahotran/resume-builder/internal/application/usecase/export"
	"github.com/khoahotran/resume-builder/internal/render/document"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type ExportHandler struct {
	requestUC  *exportUC.RequestExportUseCase
	getUC      *exportUC.GetExportUseCase
	downloadUC *exportUC.ExportDocumentUseCase
	logger     logger.Logger
}

func NewExportHandler(
	requestUC *exportUC.RequestExportUseCase,
	getUC *exportUC.GetExportUseCase,
	downloadUC *exportUC.ExportDocumentUseCase,
	log logger.Logger,
) *ExportHandler {
	return &ExportHandler{
		requestUC:  requestUC,
		getUC:      getUC,
		downloadUC: downloadUC,
		logger:     log,
	}
}

// RequestExport queues a file for the worker and answers with the pending job.
func (h *ExportHandler) RequestExport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req requestExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("format must be pdf or docx", err))
		return
	}

	job, err := h.requestUC.Execute(c.Request.Context(), exportUC.RequestExportInput{
		UserID: userID,
		Format: document.Format(req.Format),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Location", "/api/exports/"+job.ID.String())
	c.JSON(http.StatusAccepted, ToExportDTO(job))
}

func (h *ExportHandler) GetExport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid export ID", err))
		return
	}

	job, err := h.getUC.Execute(c.Request.Context(), exportUC.GetExportInput{UserID: userID, JobID: jobID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToExportDTO(job))
}

// Download renders the current resume and streams it as an attachment.
func (h *ExportHandler) Download(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	a, err := h.downloadUC.Execute(c.Request.Context(), exportUC.ExportDocumentInput{
		UserID: userID,
		Format: document.Format(c.Param("format")),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	if a.Pages > 0 {
		c.Header("X-Page-Count", strconv.Itoa(a.Pages))
	}
	c.Data(http.StatusOK, a.ContentType, a.Data)
}
