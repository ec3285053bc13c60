package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// CollectionBackend то, что нужно экрану коллекции от бэкенда
type CollectionBackend interface {
	ports.CollectionImages
	RenameCollection(ctx context.Context, collectionID, name string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, collectionID string) error
}

// BulkRemoveError ошибка группового удаления. Локальный список при ней не меняется.
type BulkRemoveError struct {
	CollectionID string
	Failed       []string
	Err          error
}

func (e *BulkRemoveError) Error() string {
	return fmt.Sprintf("не удалось удалить %d фото из коллекции %s: %v", len(e.Failed), e.CollectionID, e.Err)
}

func (e *BulkRemoveError) Unwrap() error {
	return e.Err
}

// CollectionView состояние экрана коллекции
type CollectionView struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Images    []domain.CollectionImage `json:"images"`
	Selecting bool                     `json:"selecting"`
	Selected  []string                 `json:"selected"`
}

// CollectionSession экран одной коллекции: список фото, режим выбора,
// групповое удаление, переименование и удаление коллекции.
type CollectionSession struct {
	backend      CollectionBackend
	collectionID string
	logger       *slog.Logger

	mu        sync.Mutex
	name      string
	images    []domain.CollectionImage
	selecting bool
	selected  domain.MembershipSet
	closed    bool
}

func NewCollectionSession(backend CollectionBackend, collectionID, name string, logger *slog.Logger) *CollectionSession {
	return &CollectionSession{
		backend:      backend,
		collectionID: collectionID,
		name:         name,
		logger:       logger.With("collection_id", collectionID),
		selected:     domain.MembershipSet{},
	}
}

// Load загружает состав коллекции. Имя обновляется, если бэкенд его вернул.
func (s *CollectionSession) Load(ctx context.Context) (CollectionView, error) {
	if err := s.ensureOpen(); err != nil {
		return CollectionView{}, err
	}

	collection, err := s.backend.ListCollectionImages(ctx, s.collectionID)
	if err != nil {
		s.logger.Error("failed to load collection images", "error", err)
		return CollectionView{}, fmt.Errorf("загрузка коллекции %s: %w", s.collectionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.images = collection.Images
	if collection.Name != "" {
		s.name = collection.Name
	}
	return s.viewLocked(), nil
}

// EnterSelection включает режим выбора (долгое нажатие)
func (s *CollectionSession) EnterSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selecting = true
}

// Toggle переключает выбор фото. Когда выбор пустеет, режим выбора выключается.
func (s *CollectionSession) Toggle(unsplashID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected.Has(unsplashID) {
		s.selected.Remove(unsplashID)
		if len(s.selected) == 0 {
			s.selecting = false
		}
		return false
	}
	s.selected.Add(unsplashID)
	s.selecting = true
	return true
}

func (s *CollectionSession) CancelSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selecting = false
	s.selected = domain.MembershipSet{}
}

// SelectForRemoval выбирает фото для группового удаления. Фото, которых нет
// в загруженном составе, не выбираются и возвращаются как ошибка ввода.
func (s *CollectionSession) SelectForRemoval(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := domain.NewMembershipSet(s.images)
	var unknown []string
	for _, id := range ids {
		if !present.Has(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("фото %s: %w", strings.Join(unknown, ", "), domain.ErrNotInCollection)
	}
	if len(ids) == 0 {
		return nil
	}

	s.selecting = true
	for _, id := range ids {
		s.selected.Add(id)
	}
	return nil
}

// Selected отсортированный список выбранных фото
func (s *CollectionSession) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected.IDs()
}

// BulkRemove удаляет выбранные фото параллельно. Локальный список меняется
// только если все удаления прошли; иначе возвращается *BulkRemoveError.
func (s *CollectionSession) BulkRemove(ctx context.Context) (int, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	ids := s.Selected()
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	var (
		g      errgroup.Group
		errMu  sync.Mutex
		merr   *multierror.Error
		failed []string
	)
	for _, id := range ids {
		g.Go(func() error {
			err := s.backend.RemoveImageFromCollection(ctx, s.collectionID, id)
			if err != nil {
				err = fmt.Errorf("фото %s: %w", id, err)
				errMu.Lock()
				merr = multierror.Append(merr, err)
				failed = append(failed, id)
				errMu.Unlock()
			}
			return err
		})
	}

	// Wait отдаёт только первую ошибку, полный список собран в merr
	if err := g.Wait(); err != nil {
		sort.Strings(failed)
		s.logger.Error("bulk remove failed",
			"requested", len(ids),
			"failed", len(failed),
			"error", merr,
		)
		return 0, &BulkRemoveError{CollectionID: s.collectionID, Failed: failed, Err: merr.ErrorOrNil()}
	}

	removed := domain.MembershipSet{}
	for _, id := range ids {
		removed.Add(id)
	}

	s.mu.Lock()
	kept := s.images[:0:0]
	for _, img := range s.images {
		if !removed.Has(img.UnsplashID) {
			kept = append(kept, img)
		}
	}
	s.images = kept
	s.selecting = false
	s.selected = domain.MembershipSet{}
	s.mu.Unlock()

	s.logger.Info("bulk remove completed",
		"removed", len(ids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return len(ids), nil
}

// Rename переименовывает коллекцию
func (s *CollectionSession) Rename(ctx context.Context, name string) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrEmptyName
	}

	collection, err := s.backend.RenameCollection(ctx, s.collectionID, name)
	if err != nil {
		s.logger.Error("failed to rename collection", "name", name, "error", err)
		return "", err
	}
	if collection != nil && collection.Name != "" {
		name = collection.Name
	}

	s.mu.Lock()
	s.name = name
	s.mu.Unlock()

	s.logger.Info("collection renamed", "name", name)
	return name, nil
}

// Delete удаляет коллекцию целиком, после чего сессия закрыта
func (s *CollectionSession) Delete(ctx context.Context) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.backend.DeleteCollection(ctx, s.collectionID); err != nil {
		s.logger.Error("failed to delete collection", "error", err)
		return err
	}

	s.mu.Lock()
	s.closed = true
	s.images = nil
	s.selecting = false
	s.selected = domain.MembershipSet{}
	s.mu.Unlock()

	s.logger.Info("collection deleted")
	return nil
}

func (s *CollectionSession) View() CollectionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *CollectionSession) viewLocked() CollectionView {
	images := make([]domain.CollectionImage, len(s.images))
	copy(images, s.images)
	return CollectionView{
		ID:        s.collectionID,
		Name:      s.name,
		Images:    images,
		Selecting: s.selecting,
		Selected:  s.selected.IDs(),
	}
}

func (s *CollectionSession) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	return nil
}

// FailedIDs достаёт список неудавшихся фото из ошибки группового удаления
func FailedIDs(err error) []string {
	var bulkErr *BulkRemoveError
	if errors.As(err, &bulkErr) {
		return bulkErr.Failed
	}
	return nil
}
