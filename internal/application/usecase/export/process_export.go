package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/export"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// ProcessExportUseCase runs in the worker for every export.requested event.
type ProcessExportUseCase struct {
	jobRepo   export.Repository
	userRepo  user.Repository
	stores    StoreSource
	renderer  *Renderer
	artifacts service.ArtifactStore
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewProcessExportUseCase(
	jr export.Repository,
	ur user.Repository,
	s StoreSource,
	r *Renderer,
	a service.ArtifactStore,
	p service.EventPublisher,
	log logger.Logger,
) *ProcessExportUseCase {
	return &ProcessExportUseCase{jobRepo: jr, userRepo: ur, stores: s, renderer: r, artifacts: a, publisher: p, logger: log}
}

func ArtifactKey(job *export.Job, fileName string) string {
	return fmt.Sprintf("exports/%s/%s/%s", job.UserID, job.ID, fileName)
}

// Execute returns an error only when the job could not be recorded; a
// failed render is stored on the job and the event counts as handled.
func (uc *ProcessExportUseCase) Execute(ctx context.Context, payload event.ExportEventPayload) error {
	ctx, span := tracer.Start(ctx, "ProcessExportUseCase.Execute")
	defer span.End()

	l := uc.logger.With(zap.String("job_id", payload.JobID.String()), zap.String("event_type", string(payload.EventType)))
	l.Info("Worker UseCase processing export event")

	job, err := uc.jobRepo.FindByID(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			l.Warn("Export job not found, skipping event")
			return nil
		}
		return apperror.NewInternal("failed to get export job", err)
	}
	if job.Status != export.StatusPending {
		l.Info("Export job already finished, skipping", zap.String("status", string(job.Status)))
		return nil
	}

	url, a, runErr := uc.run(ctx, job)
	job.UpdatedAt = time.Now().UTC()
	if runErr != nil {
		span.RecordError(runErr)
		l.Error("Export job failed", runErr)
		msg := runErr.Error()
		var appErr *apperror.AppError
		if errors.As(runErr, &appErr) {
			msg = appErr.Details
		}
		job.Status = export.StatusError
		job.Error = &msg
	} else {
		job.Status = export.StatusReady
		job.URL = &url
		job.FileName = a.FileName
		job.Pages = a.Pages
		job.SizeBytes = int64(len(a.Data))
	}

	if err := uc.jobRepo.Update(ctx, job); err != nil {
		return apperror.NewInternal("failed to update export job", err)
	}
	if runErr == nil {
		uc.notify(ctx, job)
		l.Info("Export job ready", zap.String("url", url), zap.Int64("bytes", job.SizeBytes))
	}
	return nil
}

func (uc *ProcessExportUseCase) run(ctx context.Context, job *export.Job) (string, *Artifact, error) {
	st, err := uc.stores.For(ctx, job.UserID.String())
	if err != nil {
		return "", nil, apperror.NewUnavailable("resume could not be loaded", err)
	}
	a, err := uc.renderer.Render(ctx, st, job.Format)
	if err != nil {
		return "", nil, err
	}
	url, err := uc.artifacts.Put(ctx, ArtifactKey(job, a.FileName), a.Data, a.ContentType)
	if err != nil {
		return "", nil, apperror.NewUnavailable("failed to store export file", err)
	}
	return url, a, nil
}

func (uc *ProcessExportUseCase) notify(ctx context.Context, job *export.Job) {
	if uc.userRepo == nil || uc.publisher == nil {
		return
	}
	u, err := uc.userRepo.FindByID(ctx, job.UserID)
	if err != nil {
		uc.logger.Warn("Skipping export notification, user not found", zap.String("user_id", job.UserID.String()), zap.Error(err))
		return
	}
	payload := event.NotificationPayload{
		Type:  event.NotificationExportReady,
		Email: u.Email,
		Data: map[string]string{
			"job_id":    job.ID.String(),
			"format":    string(job.Format),
			"file_name": job.FileName,
			"url":       *job.URL,
		},
	}
	if err := uc.publisher.PublishNotificationEvent(ctx, payload); err != nil {
		uc.logger.Error("Failed to publish 'export.ready' notification", err, zap.String("job_id", job.ID.String()))
	}
}
