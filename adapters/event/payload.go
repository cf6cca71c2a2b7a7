package event

import (
	"github.com/google/uuid"

	"github.com/khoahotran/resume-builder/internal/render/document"
)

type ExportEventType string

const ExportEventTypeRequested ExportEventType = "export.requested"

type ExportEventPayload struct {
	EventType ExportEventType `json:"event_type"`
	JobID     uuid.UUID       `json:"job_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Format    document.Format `json:"format"`
}

type MediaEventType string

const MediaEventTypeUploaded MediaEventType = "media.uploaded"

// MediaEventPayload announces an uploaded image. TargetID is the user of an
// avatar or the template of a thumbnail.
type MediaEventPayload struct {
	EventType        MediaEventType `json:"event_type"`
	MediaID          uuid.UUID      `json:"media_id"`
	OwnerID          uuid.UUID      `json:"owner_id"`
	TargetID         uuid.UUID      `json:"target_id"`
	Kind             string         `json:"kind"`
	Provider         string         `json:"provider"`
	OriginalURL      string         `json:"original_url"`
	OriginalPublicID string         `json:"original_public_id"`
}

type NotificationType string

const (
	NotificationRegisterOTP NotificationType = "auth.register_otp"
	NotificationResetOTP    NotificationType = "auth.reset_otp"
	NotificationExportReady NotificationType = "export.ready"
)

// NotificationPayload is consumed by the mail sender. Data holds the
// template variables of the message.
type NotificationPayload struct {
	Type  NotificationType  `json:"type"`
	Email string            `json:"email"`
	Data  map[string]string `json:"data"`
}
