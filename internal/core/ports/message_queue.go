package ports

import (
	"context"

	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"
)

// DownloadPublisher публикует задачи на скачивание фото.
// Используется шлюзом и CLI
type DownloadPublisher interface {
	PublishDownloadRequest(ctx context.Context, payload payloads.DownloadPayload) error
}

// DownloadConsumer потребляет задачи на скачивание, используется воркером
type DownloadConsumer interface {
	// StartConsumingDownloadRequests начинает прослушивание очереди
	// и вызывает handler для каждого сообщения
	StartConsumingDownloadRequests(ctx context.Context, handler func(context.Context, payloads.DownloadPayload) error) error
}
