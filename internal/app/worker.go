package app

import (
	"context"
	"fmt"

	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"
)

// runWorker запускает потребителя RabbitMQ и обрабатывает задачи на скачивание
func (a *App) runWorker(ctx context.Context) error {
	a.logger.Info("worker started, waiting for download requests",
		"concurrency", a.Config.DownloadConcurrency,
	)

	messageHandler := func(ctx context.Context, payload payloads.DownloadPayload) error {
		download, err := a.downloads.ProcessDownload(ctx, payload)
		if err != nil {
			return err
		}
		a.logger.Info("download job done",
			"job_id", payload.JobID.String(),
			"unsplash_id", download.UnsplashID,
			"object_url", download.ObjectURL,
		)
		return nil
	}

	if err := a.consumer.StartConsumingDownloadRequests(ctx, messageHandler); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("worker received shutdown signal")
	return nil
}
