package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// flexibleID идентификатор бэкенда: приходит то числом, то строкой
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", data)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("invalid numeric id %q: %w", n, err)
	}
	*id = flexibleID(n.String())
	return nil
}

// flexibleTime время, которое может прийти пустой строкой
type flexibleTime struct {
	time.Time
}

func (t *flexibleTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null и прочие не-строки считаем отсутствием значения
		return nil
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported time format %q", s)
}

// Отдельная структура для URL-ов
type photoURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

type photoLinks struct {
	HTML             string `json:"html"`
	Download         string `json:"download"`
	DownloadLocation string `json:"download_location"`
}

type profileImage struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type photoUser struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Name         string       `json:"name"`
	ProfileImage profileImage `json:"profile_image"`
}

// photoResponse фото в формате Unsplash, как его отдаёт бэкенд
type photoResponse struct {
	ID             string       `json:"id"`
	Description    *string      `json:"description"`
	AltDescription *string      `json:"alt_description"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
	Likes          int          `json:"likes"`
	URLs           photoURLs    `json:"urls"`
	Links          photoLinks   `json:"links"`
	User           photoUser    `json:"user"`
	CreatedAt      flexibleTime `json:"created_at"`
}

type searchResponse struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []photoResponse `json:"results"`
}

type collectionImageResponse struct {
	ID               flexibleID   `json:"id"`
	UnsplashID       string       `json:"unsplash_id"`
	ImageURL         string       `json:"image_url"`
	DownloadLocation string       `json:"download_location"`
	CreatedAt        flexibleTime `json:"created_at"`
}

type collectionResponse struct {
	ID        flexibleID                `json:"id"`
	Name      string                    `json:"name"`
	Images    []collectionImageResponse `json:"images"`
	CreatedAt flexibleTime              `json:"created_at"`
}

type createCollectionRequest struct {
	Name string `json:"name"`
}
