package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/handler"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// runServer запускает HTTP/WebSocket шлюз и фоновую очистку сессий
func (a *App) runServer(ctx context.Context) error {
	router := handler.NewRouter(a.collections, a.registry, a.Config.RequestTimeout, a.logger)

	serverAddr := fmt.Sprintf(":%s", a.Config.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.registry.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.logger.Info("server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// подписчики WebSocket получают финальный снимок и закрытие
		a.registry.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		a.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
