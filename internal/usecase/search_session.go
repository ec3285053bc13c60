package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/google/uuid"
)

// SearchBackend то, что нужно экрану поиска от бэкенда
type SearchBackend interface {
	ports.PhotoSearcher
	ports.CollectionImages
}

// SearchOptions параметры открытия экрана поиска.
// С CollectionID экран работает в режиме "добавить фото в коллекцию".
type SearchOptions struct {
	CollectionID   string `json:"collection_id,omitempty"`
	CollectionName string `json:"collection_name,omitempty"`
	InitialQuery   string `json:"query,omitempty"`
}

type TapAction string

const (
	TapAdded        TapAction = "added"
	TapAlreadyAdded TapAction = "already_added"
	TapOpenDetail   TapAction = "open_detail"
)

// TapResult что произошло после нажатия на фото
type TapResult struct {
	Action  TapAction `json:"action"`
	PhotoID string    `json:"photo_id"`
}

// PhotoView фото в выдаче с отметкой о наличии в коллекции
type PhotoView struct {
	domain.Photo
	Added bool `json:"added"`
}

// SearchSnapshot состояние экрана поиска для отрисовки
type SearchSnapshot struct {
	ID             uuid.UUID          `json:"id"`
	State          domain.ScreenState `json:"state"`
	CollectionID   string             `json:"collection_id,omitempty"`
	CollectionName string             `json:"collection_name,omitempty"`
	Query          string             `json:"query"`
	Page           int                `json:"page"`
	Results        []PhotoView        `json:"results"`
	Exhausted      bool               `json:"exhausted"`
	LastError      string             `json:"last_error,omitempty"`
	ErrorKind      domain.Kind        `json:"error_kind,omitempty"`
}

// SearchSession одна активация экрана поиска: синхронизация состава коллекции,
// однократный начальный поиск, постраничная догрузка и добавление фото.
type SearchSession struct {
	id         uuid.UUID
	opts       SearchOptions
	agg        *ResultAggregator
	membership *MembershipCache
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// закрывается, когда Start закончил синхронизацию состава коллекции
	synced     chan struct{}
	syncedOnce sync.Once

	mu          sync.Mutex
	state       domain.ScreenState
	started     bool
	lastErr     error
	lastActive  time.Time
	subscribers map[int]chan SearchSnapshot
	nextSubID   int
}

// NewSearchSession создаёт сессию экрана поиска. Сетевых вызовов не делает,
// синхронизация начинается в Start.
func NewSearchSession(backend SearchBackend, opts SearchOptions, logger *slog.Logger) *SearchSession {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()
	opts.CollectionID = strings.TrimSpace(opts.CollectionID)
	log := logger.With("session_id", id.String())

	s := &SearchSession{
		id:          id,
		opts:        opts,
		agg:         NewResultAggregator(backend, log),
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		state:       domain.StateIdle,
		synced:      make(chan struct{}),
		lastActive:  time.Now(),
		subscribers: map[int]chan SearchSnapshot{},
	}
	if opts.CollectionID != "" {
		s.membership = NewMembershipCache(backend, opts.CollectionID, log)
	}
	return s
}

func (s *SearchSession) ID() uuid.UUID { return s.id }

// Scoped true, если экран открыт для добавления фото в коллекцию
func (s *SearchSession) Scoped() bool { return s.membership != nil }

// Start синхронизирует состав коллекции (если экран привязан к ней), а затем
// выполняет начальный поиск, если он задан. Повторный вызов ничего не делает.
// Search и Tap ждут окончания синхронизации.
func (s *SearchSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == domain.StateClosed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()
	defer s.markSynced()

	ctx, release := s.bind(ctx)
	defer release()

	if s.membership != nil {
		if err := s.transition(domain.StateSyncing); err != nil {
			return err
		}
		if _, err := s.membership.Load(ctx); err != nil {
			if s.closed() {
				return domain.ErrSessionClosed
			}
			// без состава коллекции работаем с пустым множеством
			s.logger.Warn("collection sync failed, continuing with empty membership",
				"collection_id", s.opts.CollectionID,
				"error", err,
			)
		}
	}

	query := strings.TrimSpace(s.opts.InitialQuery)
	if query == "" {
		return s.transition(domain.StateReady)
	}
	if err := s.transition(domain.StateSearchingInitial); err != nil {
		return err
	}
	s.markSynced()
	return s.executeSearch(ctx, query, s.keepFunc())
}

// Search новый поиск по запросу пользователя
func (s *SearchSession) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ErrEmptyQuery
	}
	if s.closed() {
		return domain.ErrSessionClosed
	}

	ctx, release := s.bind(ctx)
	defer release()

	if err := s.awaitSync(ctx); err != nil {
		return err
	}
	if err := s.transition(domain.StateSearchingInitial); err != nil {
		return err
	}
	return s.executeSearch(ctx, query, s.keepFunc())
}

func (s *SearchSession) executeSearch(ctx context.Context, query string, keep KeepFunc) error {
	_, err := s.agg.NewSearch(ctx, query, keep)
	if s.closed() {
		return domain.ErrSessionClosed
	}
	if errors.Is(err, domain.ErrSuperseded) {
		// состоянием уже управляет более новый поиск
		return nil
	}

	s.finish(domain.StateReady, err)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return err
	}
	return nil
}

// LoadMore догружает следующую страницу. Возвращает false, если догрузка
// сейчас невозможна: идёт другой запрос, нет поиска или результаты закончились.
func (s *SearchSession) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state == domain.StateClosed {
		s.mu.Unlock()
		return false, domain.ErrSessionClosed
	}
	if s.state != domain.StateReady {
		s.mu.Unlock()
		return false, nil
	}
	s.setStateLocked(domain.StateLoadingMore)
	s.mu.Unlock()
	s.notify()

	ctx, release := s.bind(ctx)
	defer release()

	loaded, err := s.agg.LoadMore(ctx, s.keepFunc())
	if s.closed() {
		return false, domain.ErrSessionClosed
	}
	if errors.Is(err, domain.ErrSuperseded) {
		return false, nil
	}

	s.mu.Lock()
	if s.state == domain.StateLoadingMore {
		s.setStateLocked(domain.StateReady)
	}
	if err != nil {
		s.lastErr = err
	} else if loaded {
		s.lastErr = nil
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Error("load more failed", "error", err)
		return false, err
	}
	return loaded, nil
}

// Tap обрабатывает нажатие на фото. В режиме коллекции добавляет фото
// (повторное добавление ничего не делает), иначе просит открыть детали.
func (s *SearchSession) Tap(ctx context.Context, photoID string) (TapResult, error) {
	if s.closed() {
		return TapResult{}, domain.ErrSessionClosed
	}
	result := TapResult{PhotoID: photoID}
	if s.membership == nil {
		result.Action = TapOpenDetail
		return result, nil
	}

	ctx, release := s.bind(ctx)
	defer release()

	if err := s.awaitSync(ctx); err != nil {
		return result, err
	}
	photo, ok := s.findResult(photoID)
	if !ok {
		return result, fmt.Errorf("фото %s нет в выдаче: %w", photoID, domain.ErrNotFound)
	}

	added, err := s.membership.Add(ctx, photo)
	if s.closed() {
		return result, domain.ErrSessionClosed
	}
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.notify()
		s.logger.Error("failed to add photo to collection", "unsplash_id", photoID, "error", err)
		return result, err
	}

	if added {
		result.Action = TapAdded
	} else {
		result.Action = TapAlreadyAdded
	}
	s.touch()
	s.notify()
	return result, nil
}

// ClearQuery сбрасывает запрос и выдачу (крестик на чипе запроса)
func (s *SearchSession) ClearQuery() error {
	if s.closed() {
		return domain.ErrSessionClosed
	}
	s.agg.Reset()
	s.finish(domain.StateReady, nil)
	return nil
}

// Snapshot текущее состояние экрана
func (s *SearchSession) Snapshot() SearchSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SearchSession) snapshotLocked() SearchSnapshot {
	view := s.agg.View()

	var members domain.MembershipSet
	if s.membership != nil {
		members = s.membership.Snapshot()
	}

	results := make([]PhotoView, 0, len(view.Results))
	for _, p := range view.Results {
		results = append(results, PhotoView{Photo: p, Added: members.Has(p.ID)})
	}

	snap := SearchSnapshot{
		ID:             s.id,
		State:          s.state,
		CollectionID:   s.opts.CollectionID,
		CollectionName: s.opts.CollectionName,
		Query:          view.Query,
		Page:           view.Page,
		Results:        results,
		Exhausted:      view.Exhausted,
	}
	if s.lastErr != nil {
		snap.LastError = domain.UserMessage(s.lastErr)
		snap.ErrorKind = domain.ErrorKind(s.lastErr)
	}
	return snap
}

// Subscribe подписка на изменения состояния. Медленный подписчик получает
// только последнее состояние. Канал закрывается при Close сессии.
func (s *SearchSession) Subscribe() (<-chan SearchSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan SearchSnapshot, 4)
	if s.state == domain.StateClosed {
		ch <- s.snapshotLocked()
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// Close завершает сессию: незавершённые запросы отменяются,
// их результаты не применяются.
func (s *SearchSession) Close() {
	s.mu.Lock()
	if s.state == domain.StateClosed {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(domain.StateClosed)
	s.cancel()
	s.agg.Reset()

	snap := s.snapshotLocked()
	for id, ch := range s.subscribers {
		push(ch, snap)
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	s.logger.Info("search session closed")
}

// LastActive время последнего обращения к сессии
func (s *SearchSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *SearchSession) keepFunc() KeepFunc {
	if s.membership == nil {
		return nil
	}
	members := s.membership.Snapshot()
	return func(p domain.Photo) bool {
		return !members.Has(p.ID)
	}
}

func (s *SearchSession) findResult(photoID string) (domain.Photo, bool) {
	for _, p := range s.agg.View().Results {
		if p.ID == photoID {
			return p, true
		}
	}
	return domain.Photo{}, false
}

// bind привязывает ctx вызывающего к времени жизни сессии
func (s *SearchSession) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *SearchSession) markSynced() {
	s.syncedOnce.Do(func() { close(s.synced) })
}

// awaitSync ждёт окончания синхронизации в Start. До вызова Start
// поиск и добавление запрещены.
func (s *SearchSession) awaitSync(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return domain.ErrSessionNotStarted
	}

	select {
	case <-s.synced:
	case <-ctx.Done():
		if s.closed() {
			return domain.ErrSessionClosed
		}
		return ctx.Err()
	}
	if s.closed() {
		return domain.ErrSessionClosed
	}
	return nil
}

func (s *SearchSession) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.StateClosed
}

func (s *SearchSession) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *SearchSession) transition(to domain.ScreenState) error {
	s.mu.Lock()
	if s.state == domain.StateClosed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if !s.state.CanTransition(to) {
		from := s.state
		s.mu.Unlock()
		return fmt.Errorf("недопустимый переход состояния %s -> %s", from, to)
	}
	s.setStateLocked(to)
	s.mu.Unlock()
	s.notify()
	return nil
}

// finish переводит сессию в состояние to и запоминает результат операции
func (s *SearchSession) finish(to domain.ScreenState, err error) {
	s.mu.Lock()
	if s.state == domain.StateClosed {
		s.mu.Unlock()
		return
	}
	if s.state.CanTransition(to) {
		s.setStateLocked(to)
	}
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *SearchSession) setStateLocked(to domain.ScreenState) {
	if s.state != to {
		s.logger.Debug("state changed", "from", s.state.String(), "to", to.String())
	}
	s.state = to
	s.lastActive = time.Now()
}

func (s *SearchSession) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		push(ch, snap)
	}
}

// push отправляет снимок, вытесняя самый старый, если буфер заполнен
func push(ch chan SearchSnapshot, snap SearchSnapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
