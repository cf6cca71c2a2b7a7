package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	exportAdapter "github.com/khoahotran/resume-builder/adapters/export"
	httpAdapter "github.com/khoahotran/resume-builder/adapters/http"
	"github.com/khoahotran/resume-builder/adapters/media_storage"
	"github.com/khoahotran/resume-builder/adapters/persistence"
	adminUC "github.com/khoahotran/resume-builder/internal/application/usecase/admin"
	authUC "github.com/khoahotran/resume-builder/internal/application/usecase/auth"
	exportUC "github.com/khoahotran/resume-builder/internal/application/usecase/export"
	favoriteUC "github.com/khoahotran/resume-builder/internal/application/usecase/favorite"
	mediaUC "github.com/khoahotran/resume-builder/internal/application/usecase/media"
	profileUC "github.com/khoahotran/resume-builder/internal/application/usecase/profile"
	sectionUC "github.com/khoahotran/resume-builder/internal/application/usecase/section"
	templateUC "github.com/khoahotran/resume-builder/internal/application/usecase/template"
	"github.com/khoahotran/resume-builder/internal/config"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/preview"
	"github.com/khoahotran/resume-builder/pkg/auth"
	"github.com/khoahotran/resume-builder/pkg/logger"
	"github.com/khoahotran/resume-builder/pkg/tracing"
)

const (
	storeIdleTimeout = 30 * time.Minute
	sweepInterval    = 5 * time.Minute
)

func main() {
	fmt.Println("Start Resume Builder API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "resume-builder-api")
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Error("Failed to shutdown tracer", err)
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize dependencies
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Redis", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	entryRepo := persistence.NewPostgresEntryRepo(dbPool, appLogger)
	templateRepo := persistence.NewPostgresTemplateRepo(dbPool, appLogger)
	favoriteRepo := persistence.NewPostgresFavoriteRepo(dbPool, appLogger)
	mediaRepo := persistence.NewPostgresMediaRepo(dbPool, appLogger)
	exportRepo := persistence.NewPostgresExportRepo(dbPool, appLogger)

	// Caches
	resumeCache := persistence.NewRedisResumeCache(redisClient)
	otpStore := persistence.NewRedisOTPStore(redisClient, cfg.Auth.OTPAttempts)
	locker := persistence.NewRedisLocker(redisClient)
	pageCache := persistence.NewRedisPageCache(redisClient)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Resume core
	registry := section.Default()
	syncer := sectionUC.NewSyncer(registry, entryRepo, pageCache, appLogger)
	manager := resume.NewManager(registry, resumeCache, resume.WithLoader(syncer.Hydrate))
	generator := preview.NewGenerator(registry)
	renderer := exportUC.NewRenderer(generator,
		exportAdapter.NewPDFWriter(cfg.Export.ChromePath, cfg.Export.Timeout),
		exportAdapter.NewDOCXWriter(),
	)

	// Use Cases
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)
	otpUseCase := authUC.NewOTPUseCase(userRepo, otpStore, kafkaClient, cfg.Auth.OTPTTL, appLogger)
	setPasswordUseCase := authUC.NewSetPasswordUseCase(userRepo, otpStore, jwtSvc, appLogger)
	resetPasswordUseCase := authUC.NewResetPasswordUseCase(userRepo, otpUseCase, appLogger)

	editorUseCase := sectionUC.NewEditorUseCase(registry, manager, syncer, generator, appLogger)
	entryUseCase := sectionUC.NewEntryUseCase(registry, entryRepo, syncer, manager, appLogger)
	resumeUseCase, err := sectionUC.NewResumeUseCase(registry, manager, syncer, generator,
		resumeCache, pageCache, cfg.Export.PublicCache, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to compile resume JSON schema", err)
	}

	profileUseCase := profileUC.NewProfileUseCase(profileRepo, userRepo)
	uploadMediaUseCase := mediaUC.NewUploadMediaUseCase(mediaRepo, uploader, kafkaClient, appLogger)
	listMediaUseCase := mediaUC.NewListMediaUseCase(mediaRepo)
	templateUseCase := templateUC.NewTemplateUseCase(templateRepo, uploadMediaUseCase, editorUseCase, appLogger)
	favoriteUseCase := favoriteUC.NewFavoriteUseCase(favoriteRepo, templateRepo)
	adminUseCase := adminUC.NewAdminUseCase(userRepo, templateRepo, entryRepo, exportRepo, manager, appLogger)

	requestExportUseCase := exportUC.NewRequestExportUseCase(exportRepo, renderer, kafkaClient, appLogger)
	getExportUseCase := exportUC.NewGetExportUseCase(exportRepo)
	exportDocumentUseCase := exportUC.NewExportDocumentUseCase(manager, renderer, locker, cfg.Export.LockTTL, appLogger)

	// HTTP Handlers
	handlers := httpAdapter.Handlers{
		Auth: httpAdapter.NewAuthHandler(loginUseCase, otpUseCase, setPasswordUseCase, resetPasswordUseCase,
			int(cfg.Auth.TokenLifespan.Seconds()), cfg.App.Env == "production", appLogger),
		Section:  httpAdapter.NewSectionHandler(registry, entryUseCase),
		Profile:  httpAdapter.NewProfileHandler(profileUseCase, appLogger),
		Media:    httpAdapter.NewMediaHandler(uploadMediaUseCase, listMediaUseCase, appLogger),
		Template: httpAdapter.NewTemplateHandler(templateUseCase, favoriteUseCase, appLogger),
		Admin:    httpAdapter.NewAdminHandler(adminUseCase),
		Resume:   httpAdapter.NewResumeHandler(registry, resumeUseCase),
		Export:   httpAdapter.NewExportHandler(requestExportUseCase, getExportUseCase, exportDocumentUseCase, appLogger),
		Editor:   httpAdapter.NewEditorHandler(registry, editorUseCase, appLogger),
	}
	router := httpAdapter.NewRouter(handlers, jwtSvc, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepStores(ctx, manager, appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}

// sweepStores drops idle in-memory stores; their data stays in the cache.
func sweepStores(ctx context.Context, manager *resume.Manager, log logger.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := manager.Sweep(storeIdleTimeout); n > 0 {
				log.Debug("Swept idle resume stores", zap.Int("count", n))
			}
		}
	}
}
