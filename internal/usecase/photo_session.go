package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CollectionChoice коллекция в списке экрана фото с отметкой выбора
type CollectionChoice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// PhotoDetailView состояние экрана деталей фото
type PhotoDetailView struct {
	Photo       domain.Photo       `json:"photo"`
	Collections []CollectionChoice `json:"collections"`
	ShareText   string             `json:"share_text"`
	Downloading bool               `json:"downloading"`
}

// PhotoSession экран деталей фото: коллекции, в которых оно лежит,
// переключение принадлежности, создание коллекции и скачивание.
type PhotoSession struct {
	backend   ports.Backend
	publisher ports.DownloadPublisher
	photoID   string
	logger    *slog.Logger

	mu          sync.Mutex
	photo       *domain.Photo
	collections []domain.Collection
	selected    domain.MembershipSet
	pending     map[string]struct{}
	downloading bool
}

// NewPhotoSession publisher может быть nil, тогда скачивание недоступно
func NewPhotoSession(backend ports.Backend, publisher ports.DownloadPublisher, photoID string, logger *slog.Logger) *PhotoSession {
	return &PhotoSession{
		backend:   backend,
		publisher: publisher,
		photoID:   photoID,
		logger:    logger.With("unsplash_id", photoID),
		selected:  domain.MembershipSet{},
		pending:   map[string]struct{}{},
	}
}

// Load параллельно загружает фото, все коллекции и коллекции, где фото уже есть
func (s *PhotoSession) Load(ctx context.Context) (PhotoDetailView, error) {
	var (
		photo       *domain.Photo
		collections []domain.Collection
		containing  []domain.Collection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.backend.GetPhoto(gctx, s.photoID)
		if err != nil {
			return fmt.Errorf("получение фото: %w", err)
		}
		photo = p
		return nil
	})
	g.Go(func() error {
		list, err := s.backend.ListCollections(gctx)
		if err != nil {
			return fmt.Errorf("список коллекций: %w", err)
		}
		collections = list
		return nil
	})
	g.Go(func() error {
		list, err := s.backend.ListCollectionsForPhoto(gctx, s.photoID)
		if err != nil {
			return fmt.Errorf("коллекции с фото: %w", err)
		}
		containing = list
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load photo detail", "error", err)
		return PhotoDetailView{}, err
	}

	selected := make(domain.MembershipSet, len(containing))
	for _, c := range containing {
		selected.Add(c.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = photo
	s.collections = collections
	s.selected = selected
	return s.viewLocked(), nil
}

// ToggleCollection убирает фото из коллекции, если оно там есть, иначе добавляет.
// Возвращает новое состояние принадлежности.
func (s *PhotoSession) ToggleCollection(ctx context.Context, collectionID string) (bool, error) {
	photo, err := s.loadedPhoto()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if _, busy := s.pending[collectionID]; busy {
		present := s.selected.Has(collectionID)
		s.mu.Unlock()
		return present, nil
	}
	present := s.selected.Has(collectionID)
	s.pending[collectionID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, collectionID)
		s.mu.Unlock()
	}()

	if present {
		err = s.backend.RemoveImageFromCollection(ctx, collectionID, photo.ID)
	} else {
		err = s.backend.AddImageToCollection(ctx, collectionID, photo.CollectionRef())
	}
	if err != nil {
		s.logger.Error("failed to toggle collection", "collection_id", collectionID, "error", err)
		return present, err
	}

	s.mu.Lock()
	if present {
		s.selected.Remove(collectionID)
	} else {
		s.selected.Add(collectionID)
	}
	s.mu.Unlock()

	s.logger.Info("collection toggled", "collection_id", collectionID, "member", !present)
	return !present, nil
}

// CreateCollectionAndAdd создаёт коллекцию и сразу кладёт в неё фото
func (s *PhotoSession) CreateCollectionAndAdd(ctx context.Context, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	photo, err := s.loadedPhoto()
	if err != nil {
		return nil, err
	}

	collection, err := s.backend.CreateCollection(ctx, name)
	if err != nil {
		s.logger.Error("failed to create collection", "name", name, "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.collections = append(s.collections, *collection)
	s.mu.Unlock()

	if err := s.backend.AddImageToCollection(ctx, collection.ID, photo.CollectionRef()); err != nil {
		s.logger.Error("collection created but photo was not added",
			"collection_id", collection.ID,
			"error", err,
		)
		return collection, fmt.Errorf("добавление фото в новую коллекцию %s: %w", collection.ID, err)
	}

	s.mu.Lock()
	s.selected.Add(collection.ID)
	s.mu.Unlock()

	s.logger.Info("collection created with photo", "collection_id", collection.ID, "name", name)
	return collection, nil
}

// ShareText текст для отправки фото
func (s *PhotoSession) ShareText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shareText(s.photo)
}

func shareText(photo *domain.Photo) string {
	if photo == nil {
		return ""
	}
	text := fmt.Sprintf("Check out this photo by %s on Unsplash", photo.AuthorName)
	if photo.HTMLURL != "" {
		text += " " + photo.HTMLURL
	}
	return text
}

// RequestDownload ставит фото в очередь на скачивание в полном размере.
// Одновременно в сессии выполняется только одна такая операция.
func (s *PhotoSession) RequestDownload(ctx context.Context) (uuid.UUID, error) {
	if s.publisher == nil {
		return uuid.Nil, domain.ErrDownloadsDisabled
	}
	photo, err := s.loadedPhoto()
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	if s.downloading {
		s.mu.Unlock()
		return uuid.Nil, domain.ErrDownloadInProgress
	}
	s.downloading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.downloading = false
		s.mu.Unlock()
	}()

	ref := photo.DownloadRef()
	payload := payloads.DownloadPayload{
		JobID:            uuid.New(),
		UnsplashID:       ref.UnsplashID,
		ImageURL:         ref.ImageURL,
		DownloadLocation: ref.DownloadLocation,
	}
	if err := s.publisher.PublishDownloadRequest(ctx, payload); err != nil {
		s.logger.Error("failed to publish download request", "error", err)
		return uuid.Nil, fmt.Errorf("постановка скачивания в очередь: %w", err)
	}

	s.logger.Info("download requested", "job_id", payload.JobID.String())
	return payload.JobID, nil
}

func (s *PhotoSession) View() PhotoDetailView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *PhotoSession) viewLocked() PhotoDetailView {
	view := PhotoDetailView{
		Collections: make([]CollectionChoice, 0, len(s.collections)),
		ShareText:   shareText(s.photo),
		Downloading: s.downloading,
	}
	if s.photo != nil {
		view.Photo = *s.photo
	}
	for _, c := range s.collections {
		view.Collections = append(view.Collections, CollectionChoice{
			ID:       c.ID,
			Name:     c.Name,
			Selected: s.selected.Has(c.ID),
		})
	}
	return view
}

func (s *PhotoSession) loadedPhoto() (domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.photo == nil {
		return domain.Photo{}, fmt.Errorf("фото %s ещё не загружено: %w", s.photoID, domain.ErrNotFound)
	}
	return *s.photo, nil
}
