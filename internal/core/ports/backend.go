package ports

import (
	"context"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

// PhotoSearcher поиск фото через бэкенд
type PhotoSearcher interface {
	Search(ctx context.Context, query string, page int) (domain.SearchResultPage, error)
}

// PhotoCatalog детали фото и трекинг скачиваний
type PhotoCatalog interface {
	GetPhoto(ctx context.Context, id string) (*domain.Photo, error)
	TrackDownload(ctx context.Context, ref domain.ImageRef) error
}

// CollectionImages операции над составом одной коллекции
type CollectionImages interface {
	ListCollectionImages(ctx context.Context, collectionID string) (*domain.Collection, error)
	AddImageToCollection(ctx context.Context, collectionID string, ref domain.ImageRef) error
	RemoveImageFromCollection(ctx context.Context, collectionID, unsplashID string) error
}

// CollectionStore управление самими коллекциями
type CollectionStore interface {
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	ListCollectionsForPhoto(ctx context.Context, unsplashID string) ([]domain.Collection, error)
	CreateCollection(ctx context.Context, name string) (*domain.Collection, error)
	RenameCollection(ctx context.Context, collectionID, name string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, collectionID string) error
}

// Backend полный контракт удалённого сервиса
type Backend interface {
	PhotoSearcher
	PhotoCatalog
	CollectionImages
	CollectionStore
}
