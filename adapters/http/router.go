package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
	"github.com/khoahotran/resume-builder/pkg/metrics"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes out, which keeps handler tests small.
type Handlers struct {
	Auth     *AuthHandler
	Section  *SectionHandler
	Profile  *ProfileHandler
	Media    *MediaHandler
	Template *TemplateHandler
	Admin    *AdminHandler
	Resume   *ResumeHandler
	Export   *ExportHandler
	Editor   *EditorHandler
}

func NewRouter(h Handlers, jwtSvc *auth.JWTService, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), ErrorMiddleware(log))

	authMiddleware := AuthMiddleware(jwtSvc, log)
	optionalAuth := OptionalAuthMiddleware(jwtSvc)
	adminOnly := []gin.HandlerFunc{authMiddleware, RequireAdmin()}

	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

	if h.Auth != nil {
		api.POST("/send-otp", h.Auth.SendOTP)
		api.POST("/verify-otp", h.Auth.VerifyOTP)
		api.POST("/set-password", h.Auth.SetPassword)
		api.POST("/login", h.Auth.Login)
		api.POST("/logout", h.Auth.Logout)
		api.POST("/forgot-password", h.Auth.ForgotPassword)
		api.POST("/reset-password", h.Auth.ResetPassword)
	}

	private := api.Group("")
	private.Use(authMiddleware)

	if h.Section != nil {
		h.Section.Register(private)
	}

	if h.Profile != nil {
		private.GET("/users/:id/profile", h.Profile.GetProfile)
		private.PUT("/users/:id/profile", h.Profile.UpdateProfile)
	}
	if h.Media != nil {
		private.POST("/users/:id/avatar", h.Media.UploadAvatar)
		private.GET("/users/:id/media", h.Media.ListMedia)
	}

	if h.Template != nil {
		templates := api.Group("/templates")
		templates.GET("", optionalAuth, h.Template.ListTemplates)
		templates.GET("/stats", append(adminOnly, h.Template.Stats)...)
		templates.GET("/:id", optionalAuth, h.Template.GetTemplate)
		templates.POST("", append(adminOnly, h.Template.CreateTemplate)...)
		templates.PUT("/:id", append(adminOnly, h.Template.UpdateTemplate)...)
		templates.DELETE("/:id", append(adminOnly, h.Template.DeleteTemplate)...)
		templates.POST("/:id/apply", authMiddleware, h.Template.ApplyTemplate)

		private.GET("/favorites/:userId", h.Template.ListFavorites)
		private.POST("/favorites", h.Template.AddFavorite)
		private.DELETE("/favorites/:userId/:templateId", h.Template.RemoveFavorite)
	}

	if h.Admin != nil {
		admin := api.Group("/admin", adminOnly...)
		admin.GET("/users", h.Admin.ListUsers)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.GET("/stats", h.Admin.Stats)
	}

	if h.Resume != nil {
		api.GET("/sections", h.Resume.ListSections)
		api.GET("/resume/schema", h.Resume.Schema)
		private.GET("/resume", h.Resume.GetResume)
		private.POST("/resume/import", h.Resume.Import)
		private.POST("/resume/import-file", h.Resume.ImportFile)

		router.GET("/resume/:userId", h.Resume.PublicResume)
	}

	if h.Export != nil {
		private.POST("/exports", h.Export.RequestExport)
		private.GET("/exports/:id", h.Export.GetExport)
	}

	app := router.Group("/app", authMiddleware)
	if h.Editor != nil {
		app.GET("", h.Editor.Home)
		app.GET("/sections/:sectionId", h.Editor.OpenSection)
		app.POST("/sections/:sectionId", h.Editor.Submit)
		app.POST("/sections/:sectionId/live", h.Editor.LiveUpdate)
		app.POST("/sections/:sectionId/retry", h.Editor.Retry)
		app.GET("/preview", h.Editor.Preview)
		app.GET("/customization", h.Editor.GetCustomization)
		app.PUT("/customization", h.Editor.UpdateCustomization)
		app.POST("/customization", h.Editor.UpdateCustomization)
	}
	if h.Export != nil {
		app.GET("/export/:format", h.Export.Download)
	}

	return router
}
