package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/export"
	"github.com/khoahotran/resume-builder/internal/render/document"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

type RequestExportUseCase struct {
	jobRepo   export.Repository
	renderer  *Renderer
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewRequestExportUseCase(r export.Repository, rd *Renderer, p service.EventPublisher, log logger.Logger) *RequestExportUseCase {
	return &RequestExportUseCase{jobRepo: r, renderer: rd, publisher: p, logger: log}
}

type RequestExportInput struct {
	UserID uuid.UUID
	Format document.Format
}

func (uc *RequestExportUseCase) Execute(ctx context.Context, input RequestExportInput) (*export.Job, error) {
	if !input.Format.IsValid() || !uc.renderer.Supports(input.Format) {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("unsupported export format %q", input.Format), nil)
	}

	now := time.Now().UTC()
	job := &export.Job{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Format:    input.Format,
		Status:    export.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}

	go func() {
		payload := event.ExportEventPayload{
			EventType: event.ExportEventTypeRequested,
			JobID:     job.ID,
			UserID:    job.UserID,
			Format:    job.Format,
		}
		if err := uc.publisher.PublishExportEvent(context.Background(), payload); err != nil {
			uc.logger.Error("Failed to publish Kafka 'export.requested' event", err, zap.String("job_id", job.ID.String()))
		}
	}()

	return job, nil
}

type GetExportUseCase struct {
	jobRepo export.Repository
}

func NewGetExportUseCase(r export.Repository) *GetExportUseCase {
	return &GetExportUseCase{jobRepo: r}
}

type GetExportInput struct {
	UserID uuid.UUID
	JobID  uuid.UUID
}

func (uc *GetExportUseCase) Execute(ctx context.Context, input GetExportInput) (*export.Job, error) {
	return uc.jobRepo.FindForUser(ctx, input.JobID, input.UserID)
}
