package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

// CollectionUseCase точка входа для шлюза и CLI: список коллекций
// и открытие экранов поиска, коллекции и фото
type CollectionUseCase interface {
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	CreateCollection(ctx context.Context, name string) (*domain.Collection, error)

	// OpenSearch создаёт экран поиска; синхронизацию запускает SearchSession.Start
	OpenSearch(opts SearchOptions) *SearchSession

	// OpenCollection создаёт экран коллекции и загружает её состав
	OpenCollection(ctx context.Context, collectionID string) (*CollectionSession, error)

	// ForCollection экран коллекции без загрузки состава, для переименования,
	// удаления и группового удаления по известным id
	ForCollection(collectionID string) *CollectionSession

	// OpenPhoto создаёт экран фото и загружает детали
	OpenPhoto(ctx context.Context, photoID string) (*PhotoSession, error)
}

type collectionUseCase struct {
	backend   ports.Backend
	publisher ports.DownloadPublisher
	logger    *slog.Logger
}

// NewCollectionUseCase publisher может быть nil, если очередь скачиваний не настроена
func NewCollectionUseCase(backend ports.Backend, publisher ports.DownloadPublisher, logger *slog.Logger) CollectionUseCase {
	return &collectionUseCase{
		backend:   backend,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *collectionUseCase) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	collections, err := uc.backend.ListCollections(ctx)
	if err != nil {
		uc.logger.Error("failed to list collections", "error", err)
		return nil, fmt.Errorf("получение списка коллекций: %w", err)
	}
	return collections, nil
}

func (uc *collectionUseCase) CreateCollection(ctx context.Context, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	collection, err := uc.backend.CreateCollection(ctx, name)
	if err != nil {
		uc.logger.Error("failed to create collection", "name", name, "error", err)
		return nil, fmt.Errorf("создание коллекции %q: %w", name, err)
	}
	uc.logger.Info("collection created", "collection_id", collection.ID, "name", collection.Name)
	return collection, nil
}

func (uc *collectionUseCase) OpenSearch(opts SearchOptions) *SearchSession {
	return NewSearchSession(uc.backend, opts, uc.logger)
}

func (uc *collectionUseCase) OpenCollection(ctx context.Context, collectionID string) (*CollectionSession, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return nil, fmt.Errorf("не указана коллекция: %w", domain.ErrNotFound)
	}
	session := NewCollectionSession(uc.backend, collectionID, "", uc.logger)
	if _, err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *collectionUseCase) ForCollection(collectionID string) *CollectionSession {
	return NewCollectionSession(uc.backend, strings.TrimSpace(collectionID), "", uc.logger)
}

func (uc *collectionUseCase) OpenPhoto(ctx context.Context, photoID string) (*PhotoSession, error) {
	photoID = strings.TrimSpace(photoID)
	if photoID == "" {
		return nil, fmt.Errorf("не указано фото: %w", domain.ErrNotFound)
	}
	session := NewPhotoSession(uc.backend, uc.publisher, photoID, uc.logger)
	if _, err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}
