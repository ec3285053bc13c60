package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"
	"github.com/google/uuid"
)

// DownloadTracker уведомление бэкенда о скачивании
type DownloadTracker interface {
	TrackDownload(ctx context.Context, ref domain.ImageRef) error
}

// DownloadUseCase обработка задач на скачивание фото
type DownloadUseCase interface {
	// ProcessDownload скачивает фото в файловое хранилище и записывает его в журнал.
	// Повторная задача для уже скачанного фото ничего не скачивает.
	ProcessDownload(ctx context.Context, payload payloads.DownloadPayload) (*domain.Download, error)

	// ListDownloads журнал скачиваний, новые сверху
	ListDownloads(ctx context.Context, page, perPage int) ([]domain.Download, error)
}

type downloadUseCase struct {
	storage    ports.DownloadStorage
	files      ports.FileStorage
	tracker    DownloadTracker
	httpClient *http.Client
	logger     *slog.Logger
}

func NewDownloadUseCase(
	storage ports.DownloadStorage,
	files ports.FileStorage,
	tracker DownloadTracker,
	httpClient *http.Client,
	logger *slog.Logger,
) DownloadUseCase {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	return &downloadUseCase{
		storage:    storage,
		files:      files,
		tracker:    tracker,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (uc *downloadUseCase) ProcessDownload(ctx context.Context, payload payloads.DownloadPayload) (*domain.Download, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("задача %s: %w", payload.JobID, err)
	}
	log := uc.logger.With("job_id", payload.JobID.String(), "unsplash_id", payload.UnsplashID)

	existing, err := uc.storage.GetDownloadByUnsplashID(ctx, payload.UnsplashID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("проверка журнала скачиваний: %w", err)
	}
	if existing != nil {
		log.Info("photo already downloaded", "object_key", existing.ObjectKey)
		if !existing.Tracked {
			uc.track(ctx, log, payload)
		}
		return existing, nil
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.ImageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("запрос изображения: %w", err)
	}
	resp, err := uc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("скачивание %s: %w", payload.ImageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("неуспешный статус при скачивании %s: %s", payload.ImageURL, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}

	key := ObjectKey(payload.UnsplashID)
	objectURL, err := uc.files.UploadFile(ctx, key, resp.Body, contentType)
	if err != nil {
		return nil, fmt.Errorf("загрузка %s в хранилище: %w", key, err)
	}

	jobID := payload.JobID
	if jobID == uuid.Nil {
		jobID = uuid.New()
	}
	download := &domain.Download{
		ID:          uuid.New(),
		JobID:       jobID,
		UnsplashID:  payload.UnsplashID,
		SourceURL:   payload.ImageURL,
		ObjectKey:   key,
		ObjectURL:   objectURL,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.storage.SaveDownload(ctx, download); err != nil {
		// без записи в журнале объект никто не найдёт, задача будет повторена
		if delErr := uc.files.DeleteFile(ctx, key); delErr != nil {
			log.Warn("failed to remove orphaned object", "object_key", key, "error", delErr)
		}
		return nil, fmt.Errorf("запись в журнал скачиваний: %w", err)
	}

	log.Info("photo downloaded",
		"object_key", key,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	download.Tracked = uc.track(ctx, log, payload)
	return download, nil
}

// track сообщает бэкенду о скачивании. Ошибка только логируется.
func (uc *downloadUseCase) track(ctx context.Context, log *slog.Logger, payload payloads.DownloadPayload) bool {
	if uc.tracker == nil || payload.DownloadLocation == "" {
		return false
	}
	ref := domain.ImageRef{
		UnsplashID:       payload.UnsplashID,
		ImageURL:         payload.ImageURL,
		DownloadLocation: payload.DownloadLocation,
	}
	if err := uc.tracker.TrackDownload(ctx, ref); err != nil {
		log.Warn("track download failed", "error", err)
		return false
	}
	if err := uc.storage.MarkTracked(ctx, payload.UnsplashID); err != nil {
		log.Warn("failed to mark download as tracked", "error", err)
		return false
	}
	return true
}

func (uc *downloadUseCase) ListDownloads(ctx context.Context, page, perPage int) ([]domain.Download, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = domain.DefaultPerPage
	}
	downloads, err := uc.storage.ListDownloads(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("получение журнала скачиваний: %w", err)
	}
	return downloads, nil
}

// ObjectKey ключ объекта в хранилище для фото
func ObjectKey(unsplashID string) string {
	return fmt.Sprintf("downloads/%s.jpg", unsplashID)
}
