package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrEmptyQuery         = errors.New("search query is empty")
	ErrEmptyName          = errors.New("collection name is empty")
	ErrNotInCollection    = errors.New("photo is not in the collection")
	ErrTransport          = errors.New("backend unreachable")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrNotFound           = errors.New("not found")
	ErrSessionClosed      = errors.New("session closed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionNotStarted  = errors.New("session is not started")
	ErrSuperseded         = errors.New("result superseded by a newer search")
	ErrDownloadInProgress = errors.New("download already in progress")
	ErrDownloadsDisabled  = errors.New("downloads are not configured")
)

// APIError ответ бэкенда с кодом вне диапазона 2xx
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap сводит известные коды к сигнальным ошибкам, чтобы работал errors.Is
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusForbidden:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Kind категория ошибки для отображения пользователю
type Kind string

const (
	KindNone        Kind = ""
	KindInput       Kind = "input"
	KindRateLimited Kind = "rate_limited"
	KindUnavailable Kind = "unavailable"
	KindTransport   Kind = "transport"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindGeneric     Kind = "generic"
)

// ErrorKind классифицирует ошибку по таксономии клиента
func ErrorKind(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrEmptyName), errors.Is(err, ErrNotInCollection):
		return KindInput
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, ErrDownloadsDisabled):
		return KindUnavailable
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, ErrDownloadInProgress), errors.Is(err, ErrSessionClosed),
		errors.Is(err, ErrSessionNotStarted):
		return KindConflict
	default:
		return KindGeneric
	}
}

// UserMessage текст, который экран показывает пользователю
func UserMessage(err error) string {
	switch ErrorKind(err) {
	case KindNone:
		return ""
	case KindInput:
		return err.Error()
	case KindRateLimited:
		return "Too many requests right now. Please wait a moment and try again."
	case KindUnavailable:
		return "The photo service is busy. Please try again shortly."
	case KindTransport:
		return "Could not reach the server. Check your connection."
	case KindNotFound:
		return "Nothing was found."
	case KindConflict:
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
