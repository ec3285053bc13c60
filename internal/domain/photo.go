package domain

import (
	"time"
)

// DefaultPerPage размер страницы поиска, который ожидает бэкенд
const DefaultPerPage = 30

// PhotoURLs набор ссылок на разные размеры изображения
type PhotoURLs struct {
	Raw     string `json:"raw,omitempty"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small,omitempty"`
	Thumb   string `json:"thumb,omitempty"`
}

// Photo представляет фотографию, полученную от бэкенда (прокси над Unsplash).
// ID совпадает с идентификатором фото в Unsplash
type Photo struct {
	ID                    string    `json:"id"`
	Description           string    `json:"description"`
	Width                 int       `json:"width"`
	Height                int       `json:"height"`
	Likes                 int       `json:"likes"`
	URLs                  PhotoURLs `json:"urls"`
	AuthorName            string    `json:"author_name"`
	AuthorUsername        string    `json:"author_username,omitempty"`
	AuthorProfileImageURL string    `json:"author_profile_image_url,omitempty"`
	HTMLURL               string    `json:"html_url,omitempty"`
	DownloadLocation      string    `json:"download_location"`
	CreatedAt             time.Time `json:"created_at"`
}

// ImageRef описывает фото в том виде, в котором его принимает бэкенд
// при добавлении в коллекцию и при трекинге скачивания
type ImageRef struct {
	UnsplashID       string `json:"unsplash_id"`
	ImageURL         string `json:"image_url"`
	DownloadLocation string `json:"download_location"`
}

// CollectionRef ссылка для добавления в коллекцию (используется regular размер)
func (p Photo) CollectionRef() ImageRef {
	return ImageRef{
		UnsplashID:       p.ID,
		ImageURL:         p.URLs.Regular,
		DownloadLocation: p.DownloadLocation,
	}
}

// DownloadRef ссылка для скачивания в полном размере
func (p Photo) DownloadRef() ImageRef {
	return ImageRef{
		UnsplashID:       p.ID,
		ImageURL:         p.URLs.Full,
		DownloadLocation: p.DownloadLocation,
	}
}

// SearchResultPage одна страница результатов поиска
type SearchResultPage struct {
	Query      string  `json:"query"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	Photos     []Photo `json:"results"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
}

// HasMore сообщает, стоит ли запрашивать следующую страницу.
// Пустая или неполная страница считается последней.
func (p SearchResultPage) HasMore() bool {
	if len(p.Photos) == 0 {
		return false
	}
	if p.PerPage > 0 && len(p.Photos) < p.PerPage {
		return false
	}
	if p.TotalPages > 0 && p.Page >= p.TotalPages {
		return false
	}
	return true
}
