package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

// DownloadStorage журнал скачанных фото (PostgreSQL)
type DownloadStorage interface {
	SaveDownload(ctx context.Context, download *domain.Download) error
	GetDownloadByUnsplashID(ctx context.Context, unsplashID string) (*domain.Download, error)
	MarkTracked(ctx context.Context, unsplashID string) error
	ListDownloads(ctx context.Context, page, perPage int) ([]domain.Download, error)
}

// FileStorage файловое хранилище (AWS S3, MinIO)
type FileStorage interface {
	// UploadFile загружает файл и возвращает его URL
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}
