package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/logger"
)

var testLogger = logger.Nop()

// fakeBackend реализует ports.Backend в памяти и записывает порядок вызовов
type fakeBackend struct {
	mu sync.Mutex

	calls []string

	// searchFn, если задан, заменяет выдачу по pages
	searchFn func(ctx context.Context, query string, page int) (domain.SearchResultPage, error)
	pages    map[int]domain.SearchResultPage

	// listFn, если задан, заменяет выдачу состава коллекции по images
	listFn     func(ctx context.Context, collectionID string) (*domain.Collection, error)
	images     map[string][]domain.CollectionImage
	listErr    error
	addErr     error
	removeErrs map[string]error
	added      []domain.ImageRef
	removed    []string

	photo       *domain.Photo
	photoErr    error
	collections []domain.Collection
	containing  []domain.Collection
	created     []string
	renamed     map[string]string
	deleted     []string
	tracked     []domain.ImageRef
	trackErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		pages:      map[int]domain.SearchResultPage{},
		images:     map[string][]domain.CollectionImage{},
		removeErrs: map[string]error{},
		renamed:    map[string]string{},
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Search(ctx context.Context, query string, page int) (domain.SearchResultPage, error) {
	f.record(fmt.Sprintf("search:%s:%d", query, page))
	if f.searchFn != nil {
		return f.searchFn(ctx, query, page)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.pages[page]
	if !ok {
		return domain.SearchResultPage{Query: query, Page: page, PerPage: domain.DefaultPerPage}, nil
	}
	result.Query = query
	result.Page = page
	return result, nil
}

func (f *fakeBackend) GetPhoto(_ context.Context, id string) (*domain.Photo, error) {
	f.record("get_photo:" + id)
	if f.photoErr != nil {
		return nil, f.photoErr
	}
	if f.photo == nil {
		return nil, domain.ErrNotFound
	}
	p := *f.photo
	return &p, nil
}

func (f *fakeBackend) TrackDownload(_ context.Context, ref domain.ImageRef) error {
	f.record("track:" + ref.UnsplashID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trackErr != nil {
		return f.trackErr
	}
	f.tracked = append(f.tracked, ref)
	return nil
}

func (f *fakeBackend) ListCollectionImages(ctx context.Context, collectionID string) (*domain.Collection, error) {
	f.record("list_images:" + collectionID)
	if f.listFn != nil {
		return f.listFn(ctx, collectionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	images := append([]domain.CollectionImage(nil), f.images[collectionID]...)
	return &domain.Collection{ID: collectionID, Images: images}, nil
}

func (f *fakeBackend) AddImageToCollection(_ context.Context, collectionID string, ref domain.ImageRef) error {
	f.record("add:" + collectionID + ":" + ref.UnsplashID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, ref)
	f.images[collectionID] = append(f.images[collectionID], domain.CollectionImage{UnsplashID: ref.UnsplashID, ImageURL: ref.ImageURL})
	return nil
}

func (f *fakeBackend) RemoveImageFromCollection(_ context.Context, collectionID, unsplashID string) error {
	f.record("remove:" + collectionID + ":" + unsplashID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErrs[unsplashID]; err != nil {
		return err
	}
	f.removed = append(f.removed, unsplashID)
	return nil
}

func (f *fakeBackend) ListCollections(context.Context) ([]domain.Collection, error) {
	f.record("list_collections")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Collection(nil), f.collections...), nil
}

func (f *fakeBackend) ListCollectionsForPhoto(_ context.Context, unsplashID string) ([]domain.Collection, error) {
	f.record("collections_for_photo:" + unsplashID)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Collection(nil), f.containing...), nil
}

func (f *fakeBackend) CreateCollection(_ context.Context, name string) (*domain.Collection, error) {
	f.record("create:" + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	return &domain.Collection{ID: fmt.Sprintf("new-%d", len(f.created)), Name: name}, nil
}

func (f *fakeBackend) RenameCollection(_ context.Context, collectionID, name string) (*domain.Collection, error) {
	f.record("rename:" + collectionID)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed[collectionID] = name
	return &domain.Collection{ID: collectionID, Name: name}, nil
}

func (f *fakeBackend) DeleteCollection(_ context.Context, collectionID string) error {
	f.record("delete:" + collectionID)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, collectionID)
	return nil
}

// makePhotos создаёт n фото с id prefix-0..prefix-(n-1)
func makePhotos(prefix string, n int) []domain.Photo {
	photos := make([]domain.Photo, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		photos = append(photos, domain.Photo{
			ID:               id,
			AuthorName:       "Author " + id,
			DownloadLocation: "https://api.unsplash.com/photos/" + id + "/download",
			URLs: domain.PhotoURLs{
				Full:    "https://images.example.com/full/" + id,
				Regular: "https://images.example.com/regular/" + id,
			},
		})
	}
	return photos
}

func fullPage(photos []domain.Photo, totalPages int) domain.SearchResultPage {
	return domain.SearchResultPage{
		PerPage:    domain.DefaultPerPage,
		Photos:     photos,
		Total:      totalPages * domain.DefaultPerPage,
		TotalPages: totalPages,
	}
}
