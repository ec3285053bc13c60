package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PhotoHandler обработчик HTTP-запросов экрана фото
type PhotoHandler struct {
	collections usecase.CollectionUseCase
	logger      *slog.Logger
}

func NewPhotoHandler(uc usecase.CollectionUseCase, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{collections: uc, logger: logger}
}

type toggleResponse struct {
	CollectionID string `json:"collection_id"`
	Member       bool   `json:"member"`
}

type downloadResponse struct {
	JobID uuid.UUID `json:"job_id"`
}

// Get детали фото вместе со списком коллекций и отметками принадлежности
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.collections.OpenPhoto(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, session.View(), h.logger)
}

func (h *PhotoHandler) ToggleCollection(w http.ResponseWriter, r *http.Request) {
	session, err := h.collections.OpenPhoto(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}

	collectionID := chi.URLParam(r, "collectionID")
	member, err := session.ToggleCollection(r.Context(), collectionID)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, toggleResponse{CollectionID: collectionID, Member: member}, h.logger)
}

// CreateCollection создаёт коллекцию и сразу добавляет в неё фото
func (h *PhotoHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err, h.logger)
		return
	}

	session, err := h.collections.OpenPhoto(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	collection, err := session.CreateCollectionAndAdd(r.Context(), req.Name)
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, collection, h.logger)
}

// Download ставит фото в очередь на скачивание
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	session, err := h.collections.OpenPhoto(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	jobID, err := session.RequestDownload(r.Context())
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusAccepted, downloadResponse{JobID: jobID}, h.logger)
}
