package domain

import (
	"time"

	"github.com/google/uuid"
)

// Download запись о скачанном фото, соответствует таблице downloads в бд
type Download struct {
	ID          uuid.UUID `json:"id" db:"id"`
	JobID       uuid.UUID `json:"job_id" db:"job_id"`
	UnsplashID  string    `json:"unsplash_id" db:"unsplash_id"`
	SourceURL   string    `json:"source_url" db:"source_url"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	ObjectURL   string    `json:"object_url" db:"object_url"`
	ContentType string    `json:"content_type" db:"content_type"`
	Tracked     bool      `json:"tracked" db:"tracked"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (Download) TableName() string {
	return "downloads"
}
