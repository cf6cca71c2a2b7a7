package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	adminUC "github.com/khoahotran/resume-builder/internal/application/usecase/admin"
	"github.com/khoahotran/resume-builder/pkg/apperror"
)

type AdminHandler struct {
	adminUseCase *adminUC.AdminUseCase
}

func NewAdminHandler(uc *adminUC.AdminUseCase) *AdminHandler {
	return &AdminHandler{adminUseCase: uc}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(apperror.NewInvalidInput("invalid query parameters", err))
		return
	}

	out, err := h.adminUseCase.ListUsers(c.Request.Context(), adminUC.ListUsersInput{
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": ToUserDTOs(out.Users),
		"total": out.Total,
		"page":  out.Page,
		"limit": out.Limit,
	})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid user ID", err))
		return
	}
	if err := h.adminUseCase.DeleteUser(c.Request.Context(), adminID, userID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminUseCase.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
