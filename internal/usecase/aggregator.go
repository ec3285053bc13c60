package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/core/ports"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

// KeepFunc решает, попадёт ли фото в выдачу
type KeepFunc func(domain.Photo) bool

// ResultAggregator склеивает страницы поиска в один список
type ResultAggregator struct {
	searcher ports.PhotoSearcher
	logger   *slog.Logger

	mu          sync.Mutex
	query       string
	page        int
	results     []domain.Photo
	exhausted   bool
	searching   bool
	loadingMore bool
	generation  uint64
}

// AggregatorView снимок состояния агрегатора
type AggregatorView struct {
	Query       string
	Page        int
	Results     []domain.Photo
	Exhausted   bool
	Searching   bool
	LoadingMore bool
}

func NewResultAggregator(searcher ports.PhotoSearcher, logger *slog.Logger) *ResultAggregator {
	return &ResultAggregator{searcher: searcher, logger: logger, page: 1}
}

// NewSearch начинает новый поиск: сбрасывает страницу на 1 и очищает выдачу
// до отправки запроса, затем заменяет выдачу отфильтрованной первой страницей.
func (a *ResultAggregator) NewSearch(ctx context.Context, query string, keep KeepFunc) ([]domain.Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	a.mu.Lock()
	a.generation++
	gen := a.generation
	a.query = query
	a.page = 1
	a.results = nil
	a.exhausted = false
	a.searching = true
	a.loadingMore = false
	a.mu.Unlock()

	start := time.Now()
	page, err := a.searcher.Search(ctx, query, 1)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		return nil, domain.ErrSuperseded
	}
	a.searching = false
	if err != nil {
		// без первой страницы догружать нечего, ждём повторного поиска
		a.exhausted = true
		return nil, err
	}

	filtered := filterPhotos(page.Photos, keep)
	a.results = filtered
	a.exhausted = !page.HasMore()

	a.logger.Info("search completed",
		"query", query,
		"received", len(page.Photos),
		"kept", len(filtered),
		"exhausted", a.exhausted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return clonePhotos(filtered), nil
}

// LoadMore запрашивает следующую страницу и дописывает её в выдачу.
// Возвращает false без ошибки, если загрузка уже идёт, поиска ещё не было
// или результаты закончились.
func (a *ResultAggregator) LoadMore(ctx context.Context, keep KeepFunc) (bool, error) {
	a.mu.Lock()
	if a.query == "" || a.searching || a.loadingMore || a.exhausted {
		a.mu.Unlock()
		return false, nil
	}
	a.loadingMore = true
	gen := a.generation
	query := a.query
	next := a.page + 1
	a.mu.Unlock()

	start := time.Now()
	page, err := a.searcher.Search(ctx, query, next)

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		return false, domain.ErrSuperseded
	}
	a.loadingMore = false
	if err != nil {
		return false, err
	}

	filtered := filterPhotos(page.Photos, keep)
	a.results = append(a.results, filtered...)
	a.page = next
	a.exhausted = !page.HasMore()

	a.logger.Info("next page loaded",
		"query", query,
		"page", next,
		"received", len(page.Photos),
		"kept", len(filtered),
		"exhausted", a.exhausted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return true, nil
}

// Reset очищает запрос и выдачу; ответы незавершённых запросов будут отброшены
func (a *ResultAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.generation++
	a.query = ""
	a.page = 1
	a.results = nil
	a.exhausted = false
	a.searching = false
	a.loadingMore = false
}

func (a *ResultAggregator) View() AggregatorView {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AggregatorView{
		Query:       a.query,
		Page:        a.page,
		Results:     clonePhotos(a.results),
		Exhausted:   a.exhausted,
		Searching:   a.searching,
		LoadingMore: a.loadingMore,
	}
}

func filterPhotos(photos []domain.Photo, keep KeepFunc) []domain.Photo {
	out := make([]domain.Photo, 0, len(photos))
	for _, p := range photos {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func clonePhotos(photos []domain.Photo) []domain.Photo {
	if photos == nil {
		return nil
	}
	out := make([]domain.Photo, len(photos))
	copy(out, photos)
	return out
}
