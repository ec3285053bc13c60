package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultAggregator_NewSearch(t *testing.T) {
	t.Run("resets page and results before the request", func(t *testing.T) {
		backend := newFakeBackend()
		backend.pages[1] = fullPage(makePhotos("a", 30), 3)
		backend.pages[2] = fullPage(makePhotos("b", 30), 3)
		agg := NewResultAggregator(backend, testLogger)

		_, err := agg.NewSearch(context.Background(), "cats", nil)
		require.NoError(t, err)
		loaded, err := agg.LoadMore(context.Background(), nil)
		require.NoError(t, err)
		require.True(t, loaded)
		require.Equal(t, 2, agg.View().Page)
		require.Len(t, agg.View().Results, 60)

		var seen AggregatorView
		backend.searchFn = func(_ context.Context, query string, page int) (domain.SearchResultPage, error) {
			seen = agg.View()
			return fullPage(makePhotos("d", 5), 1), nil
		}

		results, err := agg.NewSearch(context.Background(), "dogs", nil)
		require.NoError(t, err)

		assert.Empty(t, seen.Results)
		assert.Equal(t, 1, seen.Page)
		assert.Equal(t, "dogs", seen.Query)
		assert.True(t, seen.Searching)
		assert.Len(t, results, 5)
		assert.Equal(t, "search:dogs:1", backend.Calls()[len(backend.Calls())-1])
	})

	t.Run("filters with keep", func(t *testing.T) {
		backend := newFakeBackend()
		backend.pages[1] = fullPage(makePhotos("p", 30), 2)
		agg := NewResultAggregator(backend, testLogger)

		results, err := agg.NewSearch(context.Background(), "sea", func(p domain.Photo) bool {
			return p.ID != "p-3"
		})
		require.NoError(t, err)
		assert.Len(t, results, 29)
		for _, p := range results {
			assert.NotEqual(t, "p-3", p.ID)
		}
	})

	t.Run("empty query makes no request", func(t *testing.T) {
		backend := newFakeBackend()
		agg := NewResultAggregator(backend, testLogger)

		_, err := agg.NewSearch(context.Background(), "   ", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
		assert.Empty(t, backend.Calls())
	})

	t.Run("failed search leaves empty results and stops paging", func(t *testing.T) {
		backend := newFakeBackend()
		backend.searchFn = func(context.Context, string, int) (domain.SearchResultPage, error) {
			return domain.SearchResultPage{}, &domain.APIError{StatusCode: 503}
		}
		agg := NewResultAggregator(backend, testLogger)

		_, err := agg.NewSearch(context.Background(), "sky", nil)
		require.ErrorIs(t, err, domain.ErrServiceUnavailable)

		view := agg.View()
		assert.Empty(t, view.Results)
		assert.True(t, view.Exhausted)
		assert.False(t, view.Searching)

		loaded, err := agg.LoadMore(context.Background(), nil)
		assert.NoError(t, err)
		assert.False(t, loaded)
		assert.Equal(t, 1, backend.count("search:sky:1"))
	})
}

func TestResultAggregator_LoadMore(t *testing.T) {
	t.Run("empty first page means no further loads", func(t *testing.T) {
		backend := newFakeBackend()
		agg := NewResultAggregator(backend, testLogger)

		results, err := agg.NewSearch(context.Background(), "nothing", nil)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.True(t, agg.View().Exhausted)

		loaded, err := agg.LoadMore(context.Background(), nil)
		assert.NoError(t, err)
		assert.False(t, loaded)
		assert.Equal(t, []string{"search:nothing:1"}, backend.Calls())
	})

	t.Run("no-op without a query", func(t *testing.T) {
		backend := newFakeBackend()
		agg := NewResultAggregator(backend, testLogger)

		loaded, err := agg.LoadMore(context.Background(), nil)
		assert.NoError(t, err)
		assert.False(t, loaded)
		assert.Empty(t, backend.Calls())
	})

	t.Run("no-op while another load is in flight", func(t *testing.T) {
		backend := newFakeBackend()
		backend.pages[1] = fullPage(makePhotos("a", 30), 5)
		agg := NewResultAggregator(backend, testLogger)
		_, err := agg.NewSearch(context.Background(), "city", nil)
		require.NoError(t, err)

		started := make(chan struct{})
		release := make(chan struct{})
		backend.searchFn = func(_ context.Context, _ string, page int) (domain.SearchResultPage, error) {
			close(started)
			<-release
			return fullPage(makePhotos("b", 30), 5), nil
		}

		done := make(chan error, 1)
		go func() {
			_, err := agg.LoadMore(context.Background(), nil)
			done <- err
		}()
		<-started

		loaded, err := agg.LoadMore(context.Background(), nil)
		assert.NoError(t, err)
		assert.False(t, loaded)

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, 1, backend.count("search:city:2"))
		assert.Equal(t, 2, agg.View().Page)
		assert.Len(t, agg.View().Results, 60)
	})

	t.Run("short page ends paging", func(t *testing.T) {
		backend := newFakeBackend()
		backend.pages[1] = fullPage(makePhotos("a", 30), 0)
		backend.pages[2] = fullPage(makePhotos("b", 12), 0)
		agg := NewResultAggregator(backend, testLogger)

		_, err := agg.NewSearch(context.Background(), "forest", nil)
		require.NoError(t, err)
		loaded, err := agg.LoadMore(context.Background(), nil)
		require.NoError(t, err)
		require.True(t, loaded)
		assert.True(t, agg.View().Exhausted)

		loaded, err = agg.LoadMore(context.Background(), nil)
		assert.NoError(t, err)
		assert.False(t, loaded)
		assert.Zero(t, backend.count("search:forest:3"))
	})

	t.Run("failure keeps results and page", func(t *testing.T) {
		backend := newFakeBackend()
		backend.pages[1] = fullPage(makePhotos("a", 30), 4)
		agg := NewResultAggregator(backend, testLogger)
		_, err := agg.NewSearch(context.Background(), "rain", nil)
		require.NoError(t, err)

		backend.searchFn = func(context.Context, string, int) (domain.SearchResultPage, error) {
			return domain.SearchResultPage{}, &domain.APIError{StatusCode: 403}
		}
		loaded, err := agg.LoadMore(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.False(t, loaded)

		view := agg.View()
		assert.Equal(t, 1, view.Page)
		assert.Len(t, view.Results, 30)
		assert.False(t, view.Exhausted)
		assert.False(t, view.LoadingMore)
	})

	t.Run("response of a superseded query is dropped", func(t *testing.T) {
		backend := newFakeBackend()
		backend.pages[1] = fullPage(makePhotos("a", 30), 4)
		agg := NewResultAggregator(backend, testLogger)
		_, err := agg.NewSearch(context.Background(), "old", nil)
		require.NoError(t, err)

		started := make(chan struct{})
		release := make(chan struct{})
		backend.searchFn = func(_ context.Context, query string, _ int) (domain.SearchResultPage, error) {
			if query == "old" {
				close(started)
				<-release
				return fullPage(makePhotos("stale", 30), 4), nil
			}
			return fullPage(makePhotos("fresh", 3), 1), nil
		}

		done := make(chan error, 1)
		go func() {
			_, err := agg.LoadMore(context.Background(), nil)
			done <- err
		}()
		<-started

		_, err = agg.NewSearch(context.Background(), "new", nil)
		require.NoError(t, err)
		close(release)

		assert.True(t, errors.Is(<-done, domain.ErrSuperseded))
		view := agg.View()
		assert.Equal(t, "new", view.Query)
		assert.Len(t, view.Results, 3)
		for _, p := range view.Results {
			assert.NotContains(t, p.ID, "stale")
		}
	})
}

func TestResultAggregator_Reset(t *testing.T) {
	backend := newFakeBackend()
	backend.pages[1] = fullPage(makePhotos("a", 30), 2)
	agg := NewResultAggregator(backend, testLogger)
	_, err := agg.NewSearch(context.Background(), "x", nil)
	require.NoError(t, err)

	agg.Reset()

	view := agg.View()
	assert.Empty(t, view.Query)
	assert.Empty(t, view.Results)
	assert.Equal(t, 1, view.Page)
}
