package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DownloadStorage журнал скачанных фото в PostgreSQL
type DownloadStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewDownloadStorage(db *sqlx.DB, logger *slog.Logger) *DownloadStorage {
	return &DownloadStorage{db: db, logger: logger}
}

// SaveDownload записывает скачивание. Повторная запись того же фото игнорируется.
func (s *DownloadStorage) SaveDownload(ctx context.Context, download *domain.Download) error {
	start := time.Now()

	if download.ID == uuid.Nil {
		download.ID = uuid.New()
	}
	if download.CreatedAt.IsZero() {
		download.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO downloads (id, job_id, unsplash_id, source_url, object_key, object_url, content_type, tracked, created_at)
	VALUES (:id, :job_id, :unsplash_id, :source_url, :object_key, :object_url, :content_type, :tracked, :created_at)
	ON CONFLICT (unsplash_id) DO NOTHING
	`

	if _, err := s.db.NamedExecContext(ctx, query, download); err != nil {
		s.logger.Error("failed to save download", "unsplash_id", download.UnsplashID, "error", err)
		return fmt.Errorf("ошибка при сохранении скачивания: %w", err)
	}

	s.logger.Info("download saved",
		"id", download.ID,
		"unsplash_id", download.UnsplashID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetDownloadByUnsplashID возвращает domain.ErrNotFound, если фото ещё не скачивали
func (s *DownloadStorage) GetDownloadByUnsplashID(ctx context.Context, unsplashID string) (*domain.Download, error) {
	start := time.Now()

	var download domain.Download
	query := `SELECT * FROM downloads WHERE unsplash_id = $1 LIMIT 1`

	err := s.db.GetContext(ctx, &download, query, unsplashID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("скачивание %s: %w", unsplashID, domain.ErrNotFound)
		}
		s.logger.Error("failed to get download", "unsplash_id", unsplashID, "error", err)
		return nil, fmt.Errorf("ошибка при получении скачивания по Unsplash ID: %w", err)
	}

	s.logger.Debug("download retrieved",
		"unsplash_id", unsplashID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &download, nil
}

// MarkTracked отмечает, что бэкенд уведомлён о скачивании
func (s *DownloadStorage) MarkTracked(ctx context.Context, unsplashID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE downloads SET tracked = TRUE WHERE unsplash_id = $1`, unsplashID)
	if err != nil {
		s.logger.Error("failed to mark download tracked", "unsplash_id", unsplashID, "error", err)
		return fmt.Errorf("ошибка при обновлении скачивания: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("скачивание %s: %w", unsplashID, domain.ErrNotFound)
	}
	return nil
}

// ListDownloads журнал с пагинацией, новые сверху
func (s *DownloadStorage) ListDownloads(ctx context.Context, page, perPage int) ([]domain.Download, error) {
	start := time.Now()

	offset := (page - 1) * perPage
	query := `SELECT * FROM downloads ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var downloads []domain.Download
	if err := s.db.SelectContext(ctx, &downloads, query, perPage, offset); err != nil {
		s.logger.Error("failed to list downloads", "page", page, "per_page", perPage, "error", err)
		return nil, fmt.Errorf("ошибка при получении журнала скачиваний: %w", err)
	}

	s.logger.Info("downloads listed",
		"page", page,
		"per_page", perPage,
		"count", len(downloads),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return downloads, nil
}
