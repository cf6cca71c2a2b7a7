package http

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	mediaUC "github.com/khoahotran/resume-builder/internal/application/usecase/media"
	"github.com/khoahotran/resume-builder/internal/domain/media"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

const maxImageBytes = 5 << 20

type MediaHandler struct {
	uploadMediaUC *mediaUC.UploadMediaUseCase
	listMediaUC   *mediaUC.ListMediaUseCase
	logger        logger.Logger
}

func NewMediaHandler(uploadUC *mediaUC.UploadMediaUseCase, listUC *mediaUC.ListMediaUseCase, log logger.Logger) *MediaHandler {
	return &MediaHandler{
		uploadMediaUC: uploadUC,
		listMediaUC:   listUC,
		logger:        log,
	}
}

// UploadAvatar stores the original image right away; the worker builds the
// cropped avatar and updates the user afterwards.
func (h *MediaHandler) UploadAvatar(c *gin.Context) {
	userID, ok := requireSelfOrAdmin(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	if err := checkImage(fileHeader); err != nil {
		c.Error(err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	input := mediaUC.UploadMediaInput{
		OwnerID:  userID,
		TargetID: userID,
		Kind:     media.KindAvatar,
		File:     file,
		Metadata: map[string]any{"original_filename": fileHeader.Filename},
	}

	output, err := h.uploadMediaUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Upload media successfully, processing...",
		"media_id": output.MediaID,
		"url":      output.URL,
	})
}

func (h *MediaHandler) ListMedia(c *gin.Context) {
	userID, ok := requireSelfOrAdmin(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if page < 1 {
		page = 1
	}

	input := mediaUC.ListMediaInput{
		OwnerID: userID,
		Kind:    media.Kind(c.Query("kind")),
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}
	output, err := h.listMediaUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTOs(output.Medias))
}

func checkImage(fh *multipart.FileHeader) error {
	if fh.Size > maxImageBytes {
		return apperror.NewInvalidInput("image must be 5MB or smaller", nil)
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return apperror.NewInvalidInput("file must be an image", nil)
	}
	return nil
}
