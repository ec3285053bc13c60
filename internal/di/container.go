package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoCollections/internal/adapter/backend"
	"github.com/GoArmGo/PhotoCollections/internal/adapter/storage/minio"
	"github.com/GoArmGo/PhotoCollections/internal/app"
	"github.com/GoArmGo/PhotoCollections/internal/config"
	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/database/client"
	"github.com/GoArmGo/PhotoCollections/internal/database/storage"
	"github.com/GoArmGo/PhotoCollections/internal/rabbitmq"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
)

// BuildCollections собирает usecase коллекций поверх HTTP-клиента бэкенда.
// Публикация скачиваний подключается, только если задан RABBITMQ_URL.
// Возвращаемую функцию нужно вызвать для освобождения ресурсов.
func BuildCollections(cfg *config.Config, logger *slog.Logger) (usecase.CollectionUseCase, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	backendClient := backend.NewClient(cfg, logger)

	var publisher ports.DownloadPublisher
	cleanup := func() {}
	if cfg.DownloadsEnabled() {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		publisher = rabbitMQClient
		cleanup = rabbitMQClient.Close
	} else {
		logger.Info("RABBITMQ_URL is not set, downloads are disabled")
	}

	return usecase.NewCollectionUseCase(backendClient, publisher, logger), cleanup, nil
}

// BuildServer инициализирует зависимости шлюза
func BuildServer(cfg *config.Config, logger *slog.Logger) (*app.App, error) {
	collections, cleanup, err := BuildCollections(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := usecase.NewSessionRegistry(cfg.SessionTTL, logger)
	application := app.NewServerApp(cfg, logger, collections, registry)
	application.OnShutdown("rabbitmq", func() error {
		cleanup()
		return nil
	})

	logger.Info("server dependencies initialized", "api_url", cfg.APIURL, "downloads", cfg.DownloadsEnabled())
	return application, nil
}

// BuildDownloadLedger подключает журнал скачиваний в PostgreSQL
func BuildDownloadLedger(cfg *config.Config, logger *slog.Logger) (*storage.DownloadStorage, *client.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}
	dbClient, err := client.NewClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewDownloadStorage(dbClient.DB, logger), dbClient, nil
}

// BuildWorker инициализирует зависимости воркера скачиваний
func BuildWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}

	// 1. Журнал скачиваний
	downloadStorage, dbClient, err := BuildDownloadLedger(cfg, logger)
	if err != nil {
		return nil, err
	}

	// 2. Файловое хранилище
	fileStorage, err := minio.NewMinioClient(ctx, cfg, logger)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	// 3. Очередь задач
	rabbitMQClient, err := rabbitmq.NewClient(cfg, logger)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	// 4. Бэкенд нужен для трекинга скачиваний
	backendClient := backend.NewClient(cfg, logger)

	downloads := usecase.NewDownloadUseCase(downloadStorage, fileStorage, backendClient, nil, logger)

	application := app.NewWorkerApp(cfg, logger, downloads, rabbitMQClient)
	application.OnShutdown("postgres", dbClient.Close)
	application.OnShutdown("rabbitmq", func() error {
		rabbitMQClient.Close()
		return nil
	})

	logger.Info("worker dependencies initialized",
		"bucket", cfg.MinioBucketName,
		"queue", cfg.RabbitMQ.RabbitMQQueueName,
	)
	return application, nil
}
