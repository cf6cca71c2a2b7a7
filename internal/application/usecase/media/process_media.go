package media

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/media"
	"github.com/khoahotran/resume-builder/internal/domain/template"
	"github.com/khoahotran/resume-builder/internal/domain/user"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

// Cloudinary transformations of the derived images.
const (
	avatarTransformation    = "c_fill,g_face,w_256,h_256"
	thumbnailTransformation = "c_fill,g_north,w_400,h_566"
	mainTransformation      = "c_limit,w_1200"
)

type ProcessMediaUseCase struct {
	mediaRepo    media.Repository
	userRepo     user.Repository
	templateRepo template.Repository
	uploader     service.Uploader
	logger       logger.Logger
}

func NewProcessMediaUseCase(r media.Repository, ur user.Repository, tr template.Repository, u service.Uploader, log logger.Logger) *ProcessMediaUseCase {
	return &ProcessMediaUseCase{mediaRepo: r, userRepo: ur, templateRepo: tr, uploader: u, logger: log}
}

// Execute builds the resized variants of an uploaded image and points the
// user avatar or template thumbnail at them.
func (uc *ProcessMediaUseCase) Execute(ctx context.Context, payload event.MediaEventPayload) error {
	l := uc.logger.With(zap.String("media_id", payload.MediaID.String()), zap.String("event_type", string(payload.EventType)))
	l.Info("Worker UseCase processing media event")

	m, err := uc.mediaRepo.FindByID(ctx, payload.MediaID, payload.OwnerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			l.Warn("Media not found, skipping event", zap.String("media_id", payload.MediaID.String()))
			return nil
		}
		return apperror.NewInternal("failed to get media", err)
	}

	if m.Status == media.StatusReady {
		l.Info("Media already in 'ready' state, skipping", zap.String("status", string(m.Status)))
		return nil
	}

	cldClient := uc.uploader.GetClient()
	if cldClient == nil {
		return apperror.NewInternal("could not get cloudinary client from uploader", nil)
	}

	imgAsset, err := cldClient.Image(payload.OriginalPublicID)
	if err != nil {
		return apperror.NewInternal("failed to create cloudinary asset", err)
	}

	imgAsset.Transformation = mainTransformation
	mainURLStr, err := imgAsset.String()
	if err != nil {
		return apperror.NewInternal("failed to build main image URL", err)
	}

	imgAsset.Transformation = thumbnailTransformation
	if m.Kind == media.KindAvatar {
		imgAsset.Transformation = avatarTransformation
	}
	thumbURLStr, err := imgAsset.String()
	if err != nil {
		return apperror.NewInternal("failed to build thumbnail URL", err)
	}

	l.Info("Generated Cloudinary URLs for media", zap.String("kind", string(m.Kind)))

	if err := uc.attach(ctx, m.Kind, payload, thumbURLStr); err != nil {
		m.Status = media.StatusError
		if uerr := uc.mediaRepo.Update(ctx, m); uerr != nil {
			l.Error("Failed to mark media as 'error'", uerr)
		}
		if errors.Is(err, apperror.ErrNotFound) {
			l.Warn("Media target is gone, skipping", zap.String("target_id", payload.TargetID.String()))
			return nil
		}
		return err
	}

	m.URL = mainURLStr
	m.ThumbnailURL = &thumbURLStr
	m.Status = media.StatusReady

	if err := uc.mediaRepo.Update(ctx, m); err != nil {
		return apperror.NewInternal("failed to update media to 'ready'", err)
	}

	l.Info("Successfully processed media", zap.String("status", string(m.Status)))
	return nil
}

func (uc *ProcessMediaUseCase) attach(ctx context.Context, kind media.Kind, payload event.MediaEventPayload, url string) error {
	switch kind {
	case media.KindAvatar:
		return uc.userRepo.UpdateAvatar(ctx, payload.TargetID, url)
	case media.KindTemplateThumbnail:
		t, err := uc.templateRepo.FindByID(ctx, payload.TargetID)
		if err != nil {
			return err
		}
		template.Patch{ThumbnailURL: &url}.Apply(t)
		return uc.templateRepo.Update(ctx, t)
	}
	return apperror.NewInvalidInput("unknown media kind "+string(kind), nil)
}
