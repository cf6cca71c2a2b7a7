package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

const (
	GinContextKeyUserID = "userID"
	GinContextKeyRole   = "role"

	// TokenCookie carries the JWT for the server rendered editor pages.
	TokenCookie = "token"
)

// ErrorMiddleware turns the last error recorded with c.Error into a JSON
// response. Handlers that already wrote a body are left alone.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}
		status := apperror.ToHTTPStatus(appErr)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, fields...)
		} else {
			log.Debug("Request rejected", append(fields, zap.String("details", appErr.Details))...)
		}

		if c.Writer.Written() {
			return
		}
		body := appErr.ToJSON()
		if status < http.StatusInternalServerError && appErr.Details != "" {
			body["details"] = appErr.Details
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// RequestLogger logs one line per request with its latency.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// AuthMiddleware accepts a JWT from the Authorization header or, for the
// editor pages, from the token cookie.
func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Debug("Rejected token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeyUserID, claims.UserID)
		c.Set(GinContextKeyRole, claims.Role)

		c.Next()
	}
}

// OptionalAuthMiddleware records the caller when a valid token is present and
// lets anonymous requests through.
func OptionalAuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := tokenFromRequest(c); err == nil {
			if claims, err := jwtSvc.ValidateToken(tokenString); err == nil {
				c.Set(GinContextKeyUserID, claims.UserID)
				c.Set(GinContextKeyRole, claims.Role)
			}
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return "", errors.New("Invalid token format")
		}
		return tokenString, nil
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errors.New("Authorization header is required")
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(GinContextKeyUserID).(uuid.UUID)
	return userID, ok
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	userIDUUID, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return userIDUUID, true
}

func IsAdmin(c *gin.Context) bool {
	return c.GetString(GinContextKeyRole) == auth.RoleAdmin
}

// requireSelfOrAdmin reads the :param user id and checks the caller may act
// on it. It records the error and returns false otherwise.
func requireSelfOrAdmin(c *gin.Context, param string) (uuid.UUID, bool) {
	callerID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return uuid.Nil, false
	}
	target, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid user ID", err))
		return uuid.Nil, false
	}
	if target != callerID && !IsAdmin(c) {
		c.Error(apperror.NewPermissionDenied("you can only access your own data"))
		return uuid.Nil, false
	}
	return target, true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
	}
	return userID, ok
}
