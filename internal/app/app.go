package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoCollections/internal/config"
	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/hashicorp/go-multierror"
)

// Mode режим запуска процесса
type Mode string

const (
	ModeServer Mode = "server"
	ModeWorker Mode = "worker"
)

type closer struct {
	name string
	fn   func() error
}

type App struct {
	Config *config.Config
	logger *slog.Logger

	// шлюз
	collections usecase.CollectionUseCase
	registry    *usecase.SessionRegistry

	// воркер
	downloads usecase.DownloadUseCase
	consumer  ports.DownloadConsumer

	closers []closer
}

// NewServerApp приложение в режиме HTTP/WebSocket шлюза
func NewServerApp(
	cfg *config.Config,
	logger *slog.Logger,
	collections usecase.CollectionUseCase,
	registry *usecase.SessionRegistry,
) *App {
	return &App{
		Config:      cfg,
		logger:      logger,
		collections: collections,
		registry:    registry,
	}
}

// NewWorkerApp приложение в режиме воркера скачиваний
func NewWorkerApp(
	cfg *config.Config,
	logger *slog.Logger,
	downloads usecase.DownloadUseCase,
	consumer ports.DownloadConsumer,
) *App {
	return &App{
		Config:    cfg,
		logger:    logger,
		downloads: downloads,
		consumer:  consumer,
	}
}

// OnShutdown регистрирует освобождение ресурса. Ресурсы закрываются
// в обратном порядке
func (a *App) OnShutdown(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Run блокирует до отмены ctx, после чего закрывает ресурсы
func (a *App) Run(ctx context.Context, mode Mode) error {
	a.logger.Info("starting application", "mode", string(mode))

	var err error
	switch mode {
	case ModeServer:
		err = a.runServer(ctx)
	case ModeWorker:
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}

	if err != nil {
		return err
	}
	a.logger.Info("application stopped gracefully", "mode", string(mode))
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			result = multierror.Append(result, fmt.Errorf("ошибка закрытия %s: %w", c.name, err))
			continue
		}
		a.logger.Debug("resource closed", "resource", c.name)
	}
	a.closers = nil
	return result.ErrorOrNil()
}
