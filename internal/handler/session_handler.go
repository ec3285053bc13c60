package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionHandler HTTP-обработчики экранов поиска
type SessionHandler struct {
	collections usecase.CollectionUseCase
	registry    *usecase.SessionRegistry
	logger      *slog.Logger
}

func NewSessionHandler(uc usecase.CollectionUseCase, registry *usecase.SessionRegistry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{collections: uc, registry: registry, logger: logger}
}

type searchRequest struct {
	Query string `json:"query"`
}

type loadMoreResponse struct {
	Loaded   bool                   `json:"loaded"`
	Snapshot usecase.SearchSnapshot `json:"snapshot"`
}

type tapResponse struct {
	Result   usecase.TapResult      `json:"result"`
	Snapshot usecase.SearchSnapshot `json:"snapshot"`
}

// CreateSearchSession открывает экран поиска: синхронизирует коллекцию
// и выполняет начальный поиск, если он задан
func (h *SessionHandler) CreateSearchSession(w http.ResponseWriter, r *http.Request) {
	var opts usecase.SearchOptions
	if err := decodeJSON(r, &opts); err != nil {
		respondBadRequest(w, err, h.logger)
		return
	}

	session := h.collections.OpenSearch(opts)
	h.registry.Add(session)

	if err := session.Start(r.Context()); err != nil {
		// ошибка начального поиска видна в снимке, сессия остаётся рабочей
		h.logger.Warn("search session started with error",
			"session_id", session.ID().String(),
			"error", err,
		)
	}

	h.logger.Info("search session opened",
		"session_id", session.ID().String(),
		"collection_id", opts.CollectionID,
	)
	respondWithJSON(w, http.StatusCreated, session.Snapshot(), h.logger)
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, session.Snapshot(), h.logger)
}

func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithError(w, domain.ErrSessionNotFound, h.logger)
		return
	}
	if err := h.registry.Remove(id); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err, h.logger)
		return
	}

	if err := session.Search(r.Context(), req.Query); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, session.Snapshot(), h.logger)
}

func (h *SessionHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	loaded, err := session.LoadMore(r.Context())
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, loadMoreResponse{Loaded: loaded, Snapshot: session.Snapshot()}, h.logger)
}

func (h *SessionHandler) ClearQuery(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.ClearQuery(); err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, session.Snapshot(), h.logger)
}

func (h *SessionHandler) Tap(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := session.Tap(r.Context(), chi.URLParam(r, "photoID"))
	if err != nil {
		respondWithError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, tapResponse{Result: result, Snapshot: session.Snapshot()}, h.logger)
}

// Events поток снимков состояния экрана через WebSocket
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	updates, unsubscribe := session.Subscribe()
	log := h.logger.With("session_id", session.ID().String())
	log.Info("websocket subscriber connected")

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, updates, done, log)

	unsubscribe()
	log.Info("websocket subscriber disconnected")
}

// readPump читает управляющие кадры, пока клиент не отключится
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, updates <-chan usecase.SearchSnapshot, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				log.Warn("failed to write snapshot", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*usecase.SearchSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondWithError(w, domain.ErrSessionNotFound, h.logger)
		return nil, false
	}
	session, err := h.registry.Get(id)
	if err != nil {
		respondWithError(w, err, h.logger)
		return nil, false
	}
	return session, true
}
