// internal/adapter/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/config"
	"github.com/GoArmGo/PhotoCollections/internal/domain"
)

const (
	// заголовок, отключающий промежуточную страницу ngrok
	skipWarningHeader = "ngrok-skip-browser-warning"
	maxErrorBody      = 512
)

// Client клиент бэкенда коллекций. Бэкенд сам ходит в Unsplash,
// поэтому ключ доступа клиенту не нужен.
type Client struct {
	httpClient *http.Client
	baseURL    string
	perPage    int
	logger     *slog.Logger
}

// NewClient создает новый экземпляр Client.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	perPage := cfg.SearchPerPage
	if perPage <= 0 {
		perPage = domain.DefaultPerPage
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		perPage:    perPage,
		logger:     logger,
	}
}

// do выполняет запрос к бэкенду и декодирует JSON ответ в out (если out != nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации тела запроса %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(skipWarningHeader, "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &domain.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
		c.logger.Warn("backend returned error status",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("ошибка декодирования JSON ответа %s %s: %w", method, path, err)
		}
	}

	c.logger.Debug("backend request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Search ищет фото. Пустой после trim запрос отклоняется без обращения к сети.
func (c *Client) Search(ctx context.Context, query string, page int) (domain.SearchResultPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchResultPage{}, domain.ErrEmptyQuery
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("page", strconv.Itoa(page))
	params.Add("per_page", strconv.Itoa(c.perPage))

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/api/unsplash/search", params, nil, &resp); err != nil {
		return domain.SearchResultPage{}, fmt.Errorf("поиск %q, страница %d: %w", query, page, err)
	}

	photos := make([]domain.Photo, 0, len(resp.Results))
	for i := range resp.Results {
		photos = append(photos, mapPhoto(&resp.Results[i]))
	}

	return domain.SearchResultPage{
		Query:      query,
		Page:       page,
		PerPage:    c.perPage,
		Photos:     photos,
		Total:      resp.Total,
		TotalPages: resp.TotalPages,
	}, nil
}

// GetPhoto получает детали фото по Unsplash ID
func (c *Client) GetPhoto(ctx context.Context, id string) (*domain.Photo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty photo id", domain.ErrNotFound)
	}

	var resp photoResponse
	if err := c.do(ctx, http.MethodGet, "/api/unsplash/photos/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("получение фото %s: %w", id, err)
	}
	photo := mapPhoto(&resp)
	return &photo, nil
}

// TrackDownload сообщает бэкенду о скачивании (требование Unsplash API)
func (c *Client) TrackDownload(ctx context.Context, ref domain.ImageRef) error {
	if err := c.do(ctx, http.MethodPost, "/api/unsplash/track-download", nil, ref, nil); err != nil {
		return fmt.Errorf("трекинг скачивания %s: %w", ref.UnsplashID, err)
	}
	return nil
}

// ListCollections все коллекции пользователя
func (c *Client) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var resp []collectionResponse
	if err := c.do(ctx, http.MethodGet, "/api/collections", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("получение списка коллекций: %w", err)
	}
	return mapCollections(resp), nil
}

// ListCollectionsForPhoto коллекции, в которых уже лежит фото
func (c *Client) ListCollectionsForPhoto(ctx context.Context, unsplashID string) ([]domain.Collection, error) {
	var resp []collectionResponse
	path := "/api/collections/photo/" + url.PathEscape(unsplashID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("получение коллекций для фото %s: %w", unsplashID, err)
	}
	return mapCollections(resp), nil
}

// CreateCollection создаёт коллекцию с именем name
func (c *Client) CreateCollection(ctx context.Context, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	var resp collectionResponse
	if err := c.do(ctx, http.MethodPost, "/api/collections", nil, createCollectionRequest{Name: name}, &resp); err != nil {
		return nil, fmt.Errorf("создание коллекции %q: %w", name, err)
	}
	collection := mapCollection(&resp)
	if collection.Name == "" {
		collection.Name = name
	}
	return &collection, nil
}

// RenameCollection переименовывает коллекцию. Имя передаётся query-параметром.
func (c *Client) RenameCollection(ctx context.Context, collectionID, name string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	params := url.Values{}
	params.Add("name", name)

	var resp collectionResponse
	path := "/api/collections/" + url.PathEscape(collectionID)
	if err := c.do(ctx, http.MethodPut, path, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("переименование коллекции %s: %w", collectionID, err)
	}
	collection := mapCollection(&resp)
	if collection.ID == "" {
		collection.ID = collectionID
	}
	if collection.Name == "" {
		collection.Name = name
	}
	return &collection, nil
}

// DeleteCollection удаляет коллекцию вместе с сохранёнными в ней фото
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	path := "/api/collections/" + url.PathEscape(collectionID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("удаление коллекции %s: %w", collectionID, err)
	}
	return nil
}

// ListCollectionImages состав коллекции. Бэкенд отвечает либо массивом изображений,
// либо объектом коллекции с полем images; оба варианта приводятся к domain.Collection.
func (c *Client) ListCollectionImages(ctx context.Context, collectionID string) (*domain.Collection, error) {
	var raw json.RawMessage
	path := "/api/collections/" + url.PathEscape(collectionID) + "/images"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("получение фото коллекции %s: %w", collectionID, err)
	}

	collection, err := decodeCollectionImages(raw)
	if err != nil {
		return nil, fmt.Errorf("разбор фото коллекции %s: %w", collectionID, err)
	}
	if collection.ID == "" {
		collection.ID = collectionID
	}
	return collection, nil
}

// AddImageToCollection добавляет фото в коллекцию
func (c *Client) AddImageToCollection(ctx context.Context, collectionID string, ref domain.ImageRef) error {
	path := "/api/collections/" + url.PathEscape(collectionID) + "/images"
	if err := c.do(ctx, http.MethodPost, path, nil, ref, nil); err != nil {
		return fmt.Errorf("добавление фото %s в коллекцию %s: %w", ref.UnsplashID, collectionID, err)
	}
	return nil
}

// RemoveImageFromCollection убирает фото из коллекции
func (c *Client) RemoveImageFromCollection(ctx context.Context, collectionID, unsplashID string) error {
	path := "/api/collections/" + url.PathEscape(collectionID) + "/images/" + url.PathEscape(unsplashID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("удаление фото %s из коллекции %s: %w", unsplashID, collectionID, err)
	}
	return nil
}

func decodeCollectionImages(raw json.RawMessage) (*domain.Collection, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &domain.Collection{}, nil
	}

	if trimmed[0] == '[' {
		var images []collectionImageResponse
		if err := json.Unmarshal(trimmed, &images); err != nil {
			return nil, err
		}
		return &domain.Collection{Images: mapImages(images)}, nil
	}

	var resp collectionResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, err
	}
	collection := mapCollection(&resp)
	return &collection, nil
}

// mapPhoto преобразует photoResponse в domain.Photo.
func mapPhoto(p *photoResponse) domain.Photo {
	// Используем AltDescription, если Description пуст
	description := ""
	if p.Description != nil {
		description = *p.Description
	}
	if description == "" && p.AltDescription != nil {
		description = *p.AltDescription
	}

	return domain.Photo{
		ID:          p.ID,
		Description: description,
		Width:       p.Width,
		Height:      p.Height,
		Likes:       p.Likes,
		URLs: domain.PhotoURLs{
			Raw:     p.URLs.Raw,
			Full:    p.URLs.Full,
			Regular: p.URLs.Regular,
			Small:   p.URLs.Small,
			Thumb:   p.URLs.Thumb,
		},
		AuthorName:            p.User.Name,
		AuthorUsername:        p.User.Username,
		AuthorProfileImageURL: p.User.ProfileImage.Medium,
		HTMLURL:               p.Links.HTML,
		DownloadLocation:      p.Links.DownloadLocation,
		CreatedAt:             p.CreatedAt.Time,
	}
}

func mapImages(images []collectionImageResponse) []domain.CollectionImage {
	out := make([]domain.CollectionImage, 0, len(images))
	for _, img := range images {
		out = append(out, domain.CollectionImage{
			ID:               string(img.ID),
			UnsplashID:       img.UnsplashID,
			ImageURL:         img.ImageURL,
			DownloadLocation: img.DownloadLocation,
			AddedAt:          img.CreatedAt.Time,
		})
	}
	return out
}

func mapCollection(c *collectionResponse) domain.Collection {
	collection := domain.Collection{
		ID:        string(c.ID),
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Time,
	}
	if len(c.Images) > 0 {
		collection.Images = mapImages(c.Images)
	}
	return collection
}

func mapCollections(resp []collectionResponse) []domain.Collection {
	out := make([]domain.Collection, 0, len(resp))
	for i := range resp {
		out = append(out, mapCollection(&resp[i]))
	}
	return out
}
