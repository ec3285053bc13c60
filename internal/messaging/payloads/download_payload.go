package payloads

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidPayload = errors.New("invalid download payload")

// DownloadPayload задача на скачивание фото в полном размере,
// передаётся через RabbitMQ
type DownloadPayload struct {
	JobID            uuid.UUID `json:"job_id"`
	UnsplashID       string    `json:"unsplash_id"`
	ImageURL         string    `json:"image_url"`
	DownloadLocation string    `json:"download_location"`
}

// Validate проверяет, что в задаче есть фото и ссылка на файл
func (p DownloadPayload) Validate() error {
	if p.UnsplashID == "" || p.ImageURL == "" {
		return ErrInvalidPayload
	}
	return nil
}
