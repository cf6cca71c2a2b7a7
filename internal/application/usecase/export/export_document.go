package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/render/document"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

func LockKey(userID uuid.UUID, format document.Format) string {
	return fmt.Sprintf("export:%s:%s", userID, format)
}

// ExportDocumentUseCase renders a file for immediate download. Only one
// export per user and format runs at a time.
type ExportDocumentUseCase struct {
	stores   StoreSource
	renderer *Renderer
	locker   service.Locker
	lockTTL  time.Duration
	logger   logger.Logger
}

func NewExportDocumentUseCase(s StoreSource, r *Renderer, l service.Locker, lockTTL time.Duration, log logger.Logger) *ExportDocumentUseCase {
	return &ExportDocumentUseCase{stores: s, renderer: r, locker: l, lockTTL: lockTTL, logger: log}
}

type ExportDocumentInput struct {
	UserID uuid.UUID
	Format document.Format
}

func (uc *ExportDocumentUseCase) Execute(ctx context.Context, input ExportDocumentInput) (*Artifact, error) {
	ctx, span := tracer.Start(ctx, "ExportDocumentUseCase.Execute")
	defer span.End()

	if !input.Format.IsValid() || !uc.renderer.Supports(input.Format) {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("unsupported export format %q", input.Format), nil)
	}

	release, ok, err := uc.locker.Acquire(ctx, LockKey(input.UserID, input.Format), uc.lockTTL)
	if err != nil {
		return nil, apperror.NewUnavailable("export lock is unavailable", err)
	}
	if !ok {
		return nil, apperror.NewBusy("export", "an export of this resume is already being generated")
	}
	defer release()

	st, err := uc.stores.For(ctx, input.UserID.String())
	if err != nil {
		return nil, apperror.NewUnavailable("resume could not be loaded", err)
	}

	a, err := uc.renderer.Render(ctx, st, input.Format)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.logger.Info("Export generated",
		zap.String("user_id", input.UserID.String()),
		zap.String("format", string(input.Format)),
		zap.Int("bytes", len(a.Data)))
	return a, nil
}
