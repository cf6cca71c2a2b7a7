package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	exportAdapter "github.com/khoahotran/resume-builder/adapters/export"
	"github.com/khoahotran/resume-builder/adapters/media_storage"
	"github.com/khoahotran/resume-builder/adapters/persistence"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/application/usecase/backup"
	exportUC "github.com/khoahotran/resume-builder/internal/application/usecase/export"
	mediaUC "github.com/khoahotran/resume-builder/internal/application/usecase/media"
	sectionUC "github.com/khoahotran/resume-builder/internal/application/usecase/section"
	"github.com/khoahotran/resume-builder/internal/config"
	"github.com/khoahotran/resume-builder/internal/domain/resume"
	"github.com/khoahotran/resume-builder/internal/domain/section"
	"github.com/khoahotran/resume-builder/internal/render/preview"
	"github.com/khoahotran/resume-builder/pkg/logger"
	"github.com/khoahotran/resume-builder/pkg/tracing"
)

func main() {
	fmt.Println("Starting Resume Builder Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "resume-builder-worker")
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", err)
	}
	defer tp.Shutdown(context.Background())

	// Database
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

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Export files go to S3 when a bucket is configured.
	var artifacts service.ArtifactStore = uploader
	if cfg.S3.Bucket != "" {
		s3Store, err := media_storage.NewS3ArtifactStore(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize S3 artifact store", err)
		}
		artifacts = s3Store
	}

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	entryRepo := persistence.NewPostgresEntryRepo(dbPool, appLogger)
	templateRepo := persistence.NewPostgresTemplateRepo(dbPool, appLogger)
	mediaRepo := persistence.NewPostgresMediaRepo(dbPool, appLogger)
	exportRepo := persistence.NewPostgresExportRepo(dbPool, appLogger)

	// Worker Use Cases
	registry := section.Default()
	syncer := sectionUC.NewSyncer(registry, entryRepo, persistence.NewRedisPageCache(redisClient), appLogger)
	stores := exportUC.FreshStores{
		Registry: registry,
		Cache:    persistence.NewRedisResumeCache(redisClient),
		Loaders:  []func(ctx context.Context, st *resume.Store) error{syncer.Hydrate},
	}
	renderer := exportUC.NewRenderer(preview.NewGenerator(registry),
		exportAdapter.NewPDFWriter(cfg.Export.ChromePath, cfg.Export.Timeout),
		exportAdapter.NewDOCXWriter(),
	)
	processExportUC := exportUC.NewProcessExportUseCase(exportRepo, userRepo, stores, renderer, artifacts, kafkaClient, appLogger)
	processMediaUC := mediaUC.NewProcessMediaUseCase(mediaRepo, userRepo, templateRepo, uploader, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	run := func(topic, group string, handle func(context.Context, []byte) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consume(ctx, cfg, topic, group, handle, appLogger)
		}()
	}

	run(event.TopicExportEvents, "export-processor-group", func(ctx context.Context, raw []byte) error {
		var payload event.ExportEventPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errSkip{err}
		}
		return processExportUC.Execute(ctx, payload)
	})
	run(event.TopicMediaEvents, "media-processor-group", func(ctx context.Context, raw []byte) error {
		var payload event.MediaEventPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errSkip{err}
		}
		return processMediaUC.Execute(ctx, payload)
	})
	run(event.TopicNotificationEvents, "notification-sender-group", func(ctx context.Context, raw []byte) error {
		var payload event.NotificationPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errSkip{err}
		}
		return deliverNotification(payload, appLogger)
	})

	// Scheduled database backups, off unless BACKUP_INTERVAL is set.
	if cfg.Backup.Interval > 0 {
		backupUC := backup.NewBackupUseCase(backup.PgDump{DSN: cfg.DB.DSN}, artifacts, appLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			backupUC.Run(ctx, cfg.Backup.Interval)
		}()
	}

	wg.Wait()
	appLogger.Info("Worker stopped")
}

// errSkip marks a message that can never succeed; it is committed anyway.
type errSkip struct{ err error }

func (e errSkip) Error() string { return e.err.Error() }

func consume(ctx context.Context, cfg config.Config, topic, group string, handle func(context.Context, []byte) error, log logger.Logger) {
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	l := log.With(zap.String("topic", topic))
	l.Info("Worker listening")

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.Error("Failed to read message from Kafka", err)
			continue
		}

		l.Debug("Received message", zap.String("key", string(msg.Key)))

		if err := handle(ctx, msg.Value); err != nil {
			if skip, ok := err.(errSkip); ok {
				l.Warn("Failed to unmarshal event, skipping", zap.Error(skip.err))
				commitMessage(consumer, msg, l)
				continue
			}
			l.Error("Failed to process event", err, zap.String("key", string(msg.Key)))
			continue
		}

		commitMessage(consumer, msg, l)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}

// deliverNotification stands in for the mail sender.
func deliverNotification(p event.NotificationPayload, log logger.Logger) error {
	log.Info("Notification delivered",
		zap.String("type", string(p.Type)),
		zap.String("email", p.Email),
		zap.Int("fields", len(p.Data)))
	return nil
}
