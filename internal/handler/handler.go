package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

// errorResponse тело ответа с ошибкой
type errorResponse struct {
	Error string      `json:"error"`
	Kind  domain.Kind `json:"kind"`
}

// respondWithJSON отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError переводит ошибку в код ответа по её категории
func respondWithError(w http.ResponseWriter, err error, logger *slog.Logger) {
	kind := domain.ErrorKind(err)
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", string(kind), "error", err)
	} else {
		logger.Warn("request rejected", "kind", string(kind), "error", err)
	}
	respondWithJSON(w, code, errorResponse{Error: domain.UserMessage(err), Kind: kind}, logger)
}

func statusFor(err error) int {
	switch domain.ErrorKind(err) {
	case domain.KindInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindTransport:
		return http.StatusBadGateway
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errBadBody = errors.New("invalid request body")

// decodeJSON читает тело запроса. Пустое тело допустимо.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// respondBadRequest ответ на некорректное тело запроса
func respondBadRequest(w http.ResponseWriter, err error, logger *slog.Logger) {
	logger.Warn("bad request", "error", err)
	respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: domain.KindInput}, logger)
}

// Healthz проверка живости шлюза
func Healthz(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
