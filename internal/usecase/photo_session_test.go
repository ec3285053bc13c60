package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []payloads.DownloadPayload
	err       error
	block     chan struct{}
	started   chan struct{}
}

func (p *fakePublisher) PublishDownloadRequest(_ context.Context, payload payloads.DownloadPayload) error {
	if p.started != nil {
		close(p.started)
	}
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, payload)
	return nil
}

func photoBackend() *fakeBackend {
	backend := newFakeBackend()
	photo := makePhotos("p", 1)[0]
	photo.HTMLURL = "https://unsplash.com/photos/p-0"
	backend.photo = &photo
	backend.collections = []domain.Collection{{ID: "c1", Name: "Trips"}, {ID: "c2", Name: "Food"}}
	backend.containing = []domain.Collection{{ID: "c2", Name: "Food"}}
	return backend
}

func TestPhotoSession_Load(t *testing.T) {
	backend := photoBackend()
	session := NewPhotoSession(backend, nil, "p-0", testLogger)

	view, err := session.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "p-0", view.Photo.ID)
	require.Len(t, view.Collections, 2)
	assert.False(t, view.Collections[0].Selected)
	assert.True(t, view.Collections[1].Selected)
	assert.Equal(t, "Check out this photo by Author p-0 on Unsplash https://unsplash.com/photos/p-0", view.ShareText)
	assert.Equal(t, 1, backend.count("get_photo:p-0"))
	assert.Equal(t, 1, backend.count("list_collections"))
	assert.Equal(t, 1, backend.count("collections_for_photo:p-0"))
}

func TestPhotoSession_LoadFailure(t *testing.T) {
	backend := photoBackend()
	backend.photoErr = &domain.APIError{StatusCode: 404}
	session := NewPhotoSession(backend, nil, "p-0", testLogger)

	_, err := session.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPhotoSession_ToggleCollection(t *testing.T) {
	backend := photoBackend()
	session := NewPhotoSession(backend, nil, "p-0", testLogger)
	_, err := session.Load(context.Background())
	require.NoError(t, err)

	member, err := session.ToggleCollection(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, member)
	require.Len(t, backend.added, 1)
	assert.Equal(t, backend.photo.URLs.Regular, backend.added[0].ImageURL)

	member, err = session.ToggleCollection(context.Background(), "c2")
	require.NoError(t, err)
	assert.False(t, member)
	assert.Equal(t, []string{"p-0"}, backend.removed)

	backend.addErr = errors.New("boom")
	member, err = session.ToggleCollection(context.Background(), "c2")
	assert.Error(t, err)
	assert.False(t, member)
	for _, c := range session.View().Collections {
		if c.ID == "c2" {
			assert.False(t, c.Selected)
		}
	}
}

func TestPhotoSession_CreateCollectionAndAdd(t *testing.T) {
	backend := photoBackend()
	session := NewPhotoSession(backend, nil, "p-0", testLogger)
	_, err := session.Load(context.Background())
	require.NoError(t, err)

	_, err = session.CreateCollectionAndAdd(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	collection, err := session.CreateCollectionAndAdd(context.Background(), " Night sky ")
	require.NoError(t, err)
	assert.Equal(t, "Night sky", collection.Name)
	assert.Equal(t, 1, backend.count("add:"+collection.ID+":p-0"))

	view := session.View()
	require.Len(t, view.Collections, 3)
	assert.True(t, view.Collections[2].Selected)
}

func TestPhotoSession_RequestDownload(t *testing.T) {
	t.Run("publishes full size job", func(t *testing.T) {
		backend := photoBackend()
		publisher := &fakePublisher{}
		session := NewPhotoSession(backend, publisher, "p-0", testLogger)
		_, err := session.Load(context.Background())
		require.NoError(t, err)

		jobID, err := session.RequestDownload(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, jobID)

		require.Len(t, publisher.published, 1)
		job := publisher.published[0]
		assert.Equal(t, jobID, job.JobID)
		assert.Equal(t, backend.photo.URLs.Full, job.ImageURL)
		assert.Equal(t, backend.photo.DownloadLocation, job.DownloadLocation)
	})

	t.Run("one download at a time", func(t *testing.T) {
		backend := photoBackend()
		publisher := &fakePublisher{block: make(chan struct{}), started: make(chan struct{})}
		session := NewPhotoSession(backend, publisher, "p-0", testLogger)
		_, err := session.Load(context.Background())
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := session.RequestDownload(context.Background())
			done <- err
		}()
		<-publisher.started
		assert.True(t, session.View().Downloading)

		_, err = session.RequestDownload(context.Background())
		assert.ErrorIs(t, err, domain.ErrDownloadInProgress)

		close(publisher.block)
		require.NoError(t, <-done)
		assert.False(t, session.View().Downloading)
	})

	t.Run("disabled without publisher", func(t *testing.T) {
		session := NewPhotoSession(photoBackend(), nil, "p-0", testLogger)
		_, err := session.RequestDownload(context.Background())
		assert.ErrorIs(t, err, domain.ErrDownloadsDisabled)
	})
}
