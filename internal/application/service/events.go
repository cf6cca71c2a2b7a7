package service

import (
	"context"

	"github.com/khoahotran/resume-builder/adapters/event"
)

type EventPublisher interface {
	PublishExportEvent(ctx context.Context, payload event.ExportEventPayload) error
	PublishMediaEvent(ctx context.Context, payload event.MediaEventPayload) error
	PublishNotificationEvent(ctx context.Context, payload event.NotificationPayload) error
}
