package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/resume-builder/internal/application/usecase/auth"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type AuthHandler struct {
	loginUseCase       *auth.LoginUseCase
	otpUseCase         *auth.OTPUseCase
	setPasswordUseCase *auth.SetPasswordUseCase
	resetUseCase       *auth.ResetPasswordUseCase
	tokenLifespan      int
	secureCookie       bool
	logger             logger.Logger
}

func NewAuthHandler(
	loginUC *auth.LoginUseCase,
	otpUC *auth.OTPUseCase,
	setPasswordUC *auth.SetPasswordUseCase,
	resetUC *auth.ResetPasswordUseCase,
	tokenLifespanSeconds int,
	secureCookie bool,
	log logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		loginUseCase:       loginUC,
		otpUseCase:         otpUC,
		setPasswordUseCase: setPasswordUC,
		resetUseCase:       resetUC,
		tokenLifespan:      tokenLifespanSeconds,
		secureCookie:       secureCookie,
		logger:             log,
	}
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	h.sendOTP(c, auth.PurposeRegister)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	h.sendOTP(c, auth.PurposeReset)
}

func (h *AuthHandler) sendOTP(c *gin.Context, purpose auth.Purpose) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request body", err))
		return
	}

	err := h.otpUseCase.SendOTP(c.Request.Context(), auth.SendOTPInput{Email: req.Email, Purpose: purpose})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If the address can receive it, a code is on its way"})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request body", err))
		return
	}

	input := auth.VerifyOTPInput{
		Email:   req.Email,
		Code:    req.Code,
		Purpose: auth.Purpose(req.Purpose),
	}
	if err := h.otpUseCase.VerifyOTP(c.Request.Context(), input); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// SetPassword completes registration for a verified email and logs the new
// user in.
func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request body", err))
		return
	}

	output, err := h.setPasswordUseCase.Execute(c.Request.Context(), auth.SetPasswordInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		c.Error(err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, output)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request body", err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}
	h.respondWithToken(c, http.StatusOK, output)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request body", err))
		return
	}

	err := h.resetUseCase.Execute(c.Request.Context(), auth.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

// respondWithToken also sets the token cookie so the editor pages work
// right after login.
func (h *AuthHandler) respondWithToken(c *gin.Context, status int, output *auth.LoginOutput) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, output.AccessToken, h.tokenLifespan, "/", "", h.secureCookie, true)

	c.JSON(status, gin.H{
		"access_token": output.AccessToken,
		"user":         ToUserDTO(output.User),
	})
}
