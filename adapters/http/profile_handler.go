package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/resume-builder/internal/application/usecase/profile"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := requireSelfOrAdmin(c, "id")
	if !ok {
		return
	}

	input := profileUC.GetProfileInput{UserID: userID}
	output, err := h.profileUseCase.ExecuteGetProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.User, output.Profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireSelfOrAdmin(c, "id")
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperror.NewInvalidInput("invalid JSON body for profile update", err)
		c.Error(appErr)
		return
	}

	input := profileUC.UpdateProfileInput{
		UserID:      userID,
		Name:        req.Name,
		Phone:       req.Phone,
		Location:    req.Location,
		Bio:         req.Bio,
		Preferences: req.Preferences,
	}
	output, err := h.profileUseCase.ExecuteUpdateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.User, output.Profile))
}
