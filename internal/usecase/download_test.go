package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloadStorage struct {
	mu        sync.Mutex
	downloads map[string]domain.Download
	saveErr   error
}

func newFakeDownloadStorage() *fakeDownloadStorage {
	return &fakeDownloadStorage{downloads: map[string]domain.Download{}}
}

func (s *fakeDownloadStorage) SaveDownload(_ context.Context, d *domain.Download) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.downloads[d.UnsplashID] = *d
	return nil
}

func (s *fakeDownloadStorage) GetDownloadByUnsplashID(_ context.Context, id string) (*domain.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.downloads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (s *fakeDownloadStorage) MarkTracked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.downloads[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Tracked = true
	s.downloads[id] = d
	return nil
}

func (s *fakeDownloadStorage) ListDownloads(_ context.Context, page, perPage int) ([]domain.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Download, 0, len(s.downloads))
	for _, d := range s.downloads {
		out = append(out, d)
	}
	return out, nil
}

type fakeFileStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeFileStorage) UploadFile(_ context.Context, key string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
		f.types = map[string]string{}
	}
	f.objects[key] = data
	f.types[key] = contentType
	return "http://minio.local/downloads/" + key, nil
}

func (f *fakeFileStorage) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func imageServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadUseCase_ProcessDownload(t *testing.T) {
	t.Run("stores object, records and tracks", func(t *testing.T) {
		hits := 0
		srv := imageServer(t, &hits)
		storage := newFakeDownloadStorage()
		files := &fakeFileStorage{}
		backend := newFakeBackend()
		uc := NewDownloadUseCase(storage, files, backend, srv.Client(), testLogger)

		payload := payloads.DownloadPayload{
			JobID:            uuid.New(),
			UnsplashID:       "abc",
			ImageURL:         srv.URL + "/full/abc",
			DownloadLocation: "https://api.unsplash.com/photos/abc/download",
		}
		download, err := uc.ProcessDownload(context.Background(), payload)
		require.NoError(t, err)

		assert.Equal(t, "downloads/abc.jpg", download.ObjectKey)
		assert.Equal(t, payload.JobID, download.JobID)
		assert.True(t, download.Tracked)
		assert.Equal(t, []byte("image-bytes"), files.objects["downloads/abc.jpg"])
		assert.Equal(t, "image/png", files.types["downloads/abc.jpg"])
		require.Len(t, backend.tracked, 1)
		assert.Equal(t, payload.DownloadLocation, backend.tracked[0].DownloadLocation)

		saved, err := storage.GetDownloadByUnsplashID(context.Background(), "abc")
		require.NoError(t, err)
		assert.True(t, saved.Tracked)
	})

	t.Run("already downloaded is skipped", func(t *testing.T) {
		hits := 0
		srv := imageServer(t, &hits)
		storage := newFakeDownloadStorage()
		storage.downloads["abc"] = domain.Download{UnsplashID: "abc", ObjectKey: "downloads/abc.jpg", Tracked: true}
		backend := newFakeBackend()
		uc := NewDownloadUseCase(storage, &fakeFileStorage{}, backend, srv.Client(), testLogger)

		download, err := uc.ProcessDownload(context.Background(), payloads.DownloadPayload{UnsplashID: "abc", ImageURL: srv.URL + "/x"})
		require.NoError(t, err)
		assert.Equal(t, "downloads/abc.jpg", download.ObjectKey)
		assert.Zero(t, hits)
		assert.Empty(t, backend.Calls())
	})

	t.Run("track failure is not fatal", func(t *testing.T) {
		hits := 0
		srv := imageServer(t, &hits)
		storage := newFakeDownloadStorage()
		backend := newFakeBackend()
		backend.trackErr = errors.New("backend down")
		uc := NewDownloadUseCase(storage, &fakeFileStorage{}, backend, srv.Client(), testLogger)

		download, err := uc.ProcessDownload(context.Background(), payloads.DownloadPayload{
			UnsplashID:       "abc",
			ImageURL:         srv.URL + "/full/abc",
			DownloadLocation: "loc",
		})
		require.NoError(t, err)
		assert.False(t, download.Tracked)
		assert.NotEqual(t, uuid.Nil, download.JobID)
	})

	t.Run("bad status fails the job", func(t *testing.T) {
		hits := 0
		srv := imageServer(t, &hits)
		storage := newFakeDownloadStorage()
		uc := NewDownloadUseCase(storage, &fakeFileStorage{}, newFakeBackend(), srv.Client(), testLogger)

		_, err := uc.ProcessDownload(context.Background(), payloads.DownloadPayload{UnsplashID: "abc", ImageURL: srv.URL + "/missing"})
		assert.Error(t, err)
		assert.Empty(t, storage.downloads)
	})

	t.Run("ledger failure removes uploaded object", func(t *testing.T) {
		hits := 0
		srv := imageServer(t, &hits)
		storage := newFakeDownloadStorage()
		storage.saveErr = errors.New("db down")
		files := &fakeFileStorage{}
		uc := NewDownloadUseCase(storage, files, newFakeBackend(), srv.Client(), testLogger)

		_, err := uc.ProcessDownload(context.Background(), payloads.DownloadPayload{UnsplashID: "abc", ImageURL: srv.URL + "/full/abc"})
		assert.Error(t, err)
		assert.Empty(t, files.objects)
	})

	t.Run("incomplete payload", func(t *testing.T) {
		uc := NewDownloadUseCase(newFakeDownloadStorage(), &fakeFileStorage{}, nil, nil, testLogger)
		_, err := uc.ProcessDownload(context.Background(), payloads.DownloadPayload{UnsplashID: "abc"})
		assert.ErrorIs(t, err, payloads.ErrInvalidPayload)
	})
}
