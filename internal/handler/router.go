package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты шлюза
func NewRouter(uc usecase.CollectionUseCase, registry *usecase.SessionRegistry, requestTimeout time.Duration, logger *slog.Logger) http.Handler {
	sessions := NewSessionHandler(uc, registry, logger)
	collections := NewCollectionHandler(uc, logger)
	photos := NewPhotoHandler(uc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz(logger))

	// WebSocket живёт дольше таймаута запроса
	r.Get("/sessions/{sessionID}/events", sessions.Events)

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/search", sessions.CreateSearchSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessions.GetSession)
				r.Delete("/", sessions.CloseSession)
				r.Post("/search", sessions.Search)
				r.Post("/more", sessions.LoadMore)
				r.Delete("/query", sessions.ClearQuery)
				r.Post("/photos/{photoID}/tap", sessions.Tap)
			})
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", collections.List)
			r.Post("/", collections.Create)
			r.Route("/{collectionID}", func(r chi.Router) {
				r.Get("/", collections.Get)
				r.Put("/", collections.Rename)
				r.Delete("/", collections.Delete)
				r.Post("/bulk-remove", collections.BulkRemove)
			})
		})

		r.Route("/photos/{photoID}", func(r chi.Router) {
			r.Get("/", photos.Get)
			r.Post("/collections", photos.CreateCollection)
			r.Post("/collections/{collectionID}/toggle", photos.ToggleCollection)
			r.Post("/download", photos.Download)
		})
	})

	return r
}
