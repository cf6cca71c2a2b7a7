package media

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/resume-builder/adapters/event"
	"github.com/khoahotran/resume-builder/internal/application/service"
	"github.com/khoahotran/resume-builder/internal/domain/media"
	"github.com/khoahotran/resume-builder/pkg/apperror"
	"github.com/khoahotran/resume-builder/pkg/logger"
)

const ProviderCloudinary = "cloudinary"

type UploadMediaUseCase struct {
	mediaRepo media.Repository
	uploader  service.Uploader
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewUploadMediaUseCase(
	r media.Repository,
	u service.Uploader,
	p service.EventPublisher,
	log logger.Logger,
) *UploadMediaUseCase {
	return &UploadMediaUseCase{mediaRepo: r, uploader: u, publisher: p, logger: log}
}

// UploadMediaInput uploads an image for TargetID: the user of an avatar or
// the template of a thumbnail.
type UploadMediaInput struct {
	OwnerID  uuid.UUID
	TargetID uuid.UUID
	Kind     media.Kind
	File     io.Reader
	Metadata map[string]any
}
type UploadMediaOutput struct {
	MediaID uuid.UUID
	URL     string
}

func folderFor(kind media.Kind, target uuid.UUID) (string, error) {
	switch kind {
	case media.KindAvatar:
		return fmt.Sprintf("users/%s/avatars", target), nil
	case media.KindTemplateThumbnail:
		return fmt.Sprintf("templates/%s/thumbnails", target), nil
	}
	return "", apperror.NewInvalidInput(fmt.Sprintf("unknown media kind %q", kind), nil)
}

func (uc *UploadMediaUseCase) Execute(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error) {
	originalFolder, err := folderFor(input.Kind, input.TargetID)
	if err != nil {
		return nil, err
	}
	mediaID := uuid.New()
	originalPublicID := mediaID.String()

	originalURL, err := uc.uploader.Upload(ctx, input.File, originalFolder, originalPublicID)
	if err != nil {
		return nil, apperror.NewInternal("failed to upload original media file", err)
	}
	// Cloudinary prefixes the public id with the folder.
	fullPublicID := originalFolder + "/" + originalPublicID

	if input.Metadata == nil {
		input.Metadata = make(map[string]any)
	}
	input.Metadata["original_url"] = originalURL
	input.Metadata["original_public_id"] = fullPublicID
	input.Metadata["target_id"] = input.TargetID.String()

	now := time.Now().UTC()
	newMedia := &media.Media{
		ID:        mediaID,
		OwnerID:   input.OwnerID,
		Kind:      input.Kind,
		Provider:  ProviderCloudinary,
		URL:       originalURL,
		Status:    media.StatusPending,
		Metadata:  input.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.mediaRepo.Save(ctx, newMedia); err != nil {
		go uc.uploader.Delete(context.Background(), fullPublicID)
		return nil, err
	}

	go func() {
		payload := event.MediaEventPayload{
			EventType:        event.MediaEventTypeUploaded,
			MediaID:          newMedia.ID,
			OwnerID:          newMedia.OwnerID,
			TargetID:         input.TargetID,
			Kind:             string(newMedia.Kind),
			Provider:         newMedia.Provider,
			OriginalURL:      originalURL,
			OriginalPublicID: fullPublicID,
		}
		if err := uc.publisher.PublishMediaEvent(context.Background(), payload); err != nil {
			uc.logger.Error("Failed to publish Kafka 'media.uploaded' event", err, zap.String("media_id", newMedia.ID.String()))
		}
	}()

	return &UploadMediaOutput{MediaID: mediaID, URL: originalURL}, nil
}
