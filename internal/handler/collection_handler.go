package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// CollectionHandler HTTP-обработчики коллекций
type CollectionHandler struct {
	collections usecase.CollectionUseCase
	logger      *slog.Logger
}

func NewCollectionHandler(uc usecase.CollectionUseCase, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collections: uc, logger: logger}
}

type nameRequest struct {
	Name string `json:"name"`
}

type bulkRemoveRequest struct {
	IDs []string `json:"ids"`
}

type bulkRemoveResponse struct {
	Removed    int                    `json:"removed"`
	Failed     []string               `json:"failed,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Collection usecase.CollectionView `json:"collection"`
}

func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.ListCollections(r.Context())
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	if collections == nil {
		collections = []domain.Collection{}
	}
	respondWithJSON(w, http.StatusOK, collections, h.logger)
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err, h.logger)
		return
	}
	collection, err := h.collections.CreateCollection(r.Context(), req.Name)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, collection, h.logger)
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.collections.OpenCollection(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, session.View(), h.logger)
}

func (h *CollectionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err, h.logger)
		return
	}
	session := h.collections.ForCollection(chi.URLParam(r, "collectionID"))
	name, err := session.Rename(r.Context(), req.Name)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, domain.Collection{ID: session.View().ID, Name: name}, h.logger)
}

func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := h.collections.ForCollection(chi.URLParam(r, "collectionID"))
	if err := session.Delete(r.Context()); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkRemove удаляет из коллекции несколько фото сразу. При частичной
// ошибке возвращает 502 со списком неудавшихся фото и прежним составом.
func (h *CollectionHandler) BulkRemove(w http.ResponseWriter, r *http.Request) {
	var req bulkRemoveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err, h.logger)
		return
	}

	session, err := h.collections.OpenCollection(r.Context(), chi.URLParam(r, "collectionID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	if err := session.SelectForRemoval(req.IDs); err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	removed, err := session.BulkRemove(r.Context())
	var bulkErr *usecase.BulkRemoveError
	switch {
	case errors.As(err, &bulkErr):
		h.logger.Error("bulk remove partially failed", "failed", bulkErr.Failed, "error", err)
		respondWithJSON(w, http.StatusBadGateway, bulkRemoveResponse{
			Failed:     bulkErr.Failed,
			Error:      domain.UserMessage(bulkErr.Err),
			Collection: session.View(),
		}, h.logger)
	case err != nil:
		respondWithError(w, err, h.logger)
	default:
		respondWithJSON(w, http.StatusOK, bulkRemoveResponse{Removed: removed, Collection: session.View()}, h.logger)
	}
}
