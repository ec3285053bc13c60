package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

// MembershipCache локальное множество фото, уже лежащих в целевой коллекции.
// Заполняется одним запросом и меняется только после успешных удалённых вызовов.
type MembershipCache struct {
	images       ports.CollectionImages
	collectionID string
	logger       *slog.Logger

	mu      sync.Mutex
	set     domain.MembershipSet
	pending map[string]struct{}
	loaded  bool
}

// NewMembershipCache создаёт пустой кэш для коллекции collectionID
func NewMembershipCache(images ports.CollectionImages, collectionID string, logger *slog.Logger) *MembershipCache {
	return &MembershipCache{
		images:       images,
		collectionID: collectionID,
		logger:       logger,
		set:          domain.MembershipSet{},
		pending:      map[string]struct{}{},
	}
}

func (m *MembershipCache) CollectionID() string {
	return m.collectionID
}

// Load заполняет множество из списка изображений коллекции.
// При ошибке множество не меняется.
func (m *MembershipCache) Load(ctx context.Context) (domain.MembershipSet, error) {
	start := time.Now()

	collection, err := m.images.ListCollectionImages(ctx, m.collectionID)
	if err != nil {
		return nil, fmt.Errorf("загрузка состава коллекции %s: %w", m.collectionID, err)
	}

	set := domain.NewMembershipSet(collection.Images)

	m.mu.Lock()
	m.set = set
	m.loaded = true
	m.mu.Unlock()

	m.logger.Info("collection membership loaded",
		"collection_id", m.collectionID,
		"count", len(set),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return set.Clone(), nil
}

// Loaded true после успешного Load
func (m *MembershipCache) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *MembershipCache) Contains(photoID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Has(photoID)
}

// Snapshot копия текущего множества
func (m *MembershipCache) Snapshot() domain.MembershipSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Clone()
}

// Add добавляет фото в коллекцию. Если фото уже в коллекции или добавление
// для него уже выполняется, ничего не делает и возвращает false.
func (m *MembershipCache) Add(ctx context.Context, photo domain.Photo) (bool, error) {
	if !m.begin(photo.ID, true) {
		return false, nil
	}
	defer m.finish(photo.ID)

	if err := m.images.AddImageToCollection(ctx, m.collectionID, photo.CollectionRef()); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.set.Add(photo.ID)
	m.mu.Unlock()

	m.logger.Info("photo added to collection", "collection_id", m.collectionID, "unsplash_id", photo.ID)
	return true, nil
}

// Remove убирает фото из коллекции; для фото вне коллекции ничего не делает.
func (m *MembershipCache) Remove(ctx context.Context, photoID string) (bool, error) {
	if !m.begin(photoID, false) {
		return false, nil
	}
	defer m.finish(photoID)

	if err := m.images.RemoveImageFromCollection(ctx, m.collectionID, photoID); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.set.Remove(photoID)
	m.mu.Unlock()

	m.logger.Info("photo removed from collection", "collection_id", m.collectionID, "unsplash_id", photoID)
	return true, nil
}

// begin резервирует photoID под удалённый вызов. wantAbsent задаёт,
// в каком состоянии фото должно быть, чтобы вызов имел смысл.
func (m *MembershipCache) begin(photoID string, wantAbsent bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.pending[photoID]; busy {
		return false
	}
	if m.set.Has(photoID) == wantAbsent {
		return false
	}
	m.pending[photoID] = struct{}{}
	return true
}

func (m *MembershipCache) finish(photoID string) {
	m.mu.Lock()
	delete(m.pending, photoID)
	m.mu.Unlock()
}
