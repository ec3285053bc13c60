package domain

import (
	"sort"
	"time"
)

// Collection именованная пользовательская подборка фотографий,
// хранится на бэкенде
type Collection struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Images    []CollectionImage `json:"images,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}

// CollectionImage запись о фото внутри коллекции
type CollectionImage struct {
	ID               string    `json:"id"`
	UnsplashID       string    `json:"unsplash_id"`
	ImageURL         string    `json:"image_url"`
	DownloadLocation string    `json:"download_location,omitempty"`
	AddedAt          time.Time `json:"added_at,omitempty"`
}

// MembershipSet множество идентификаторов фото, уже лежащих в коллекции
type MembershipSet map[string]struct{}

// NewMembershipSet строит множество из списка изображений коллекции
func NewMembershipSet(images []CollectionImage) MembershipSet {
	set := make(MembershipSet, len(images))
	for _, img := range images {
		if img.UnsplashID == "" {
			continue
		}
		set[img.UnsplashID] = struct{}{}
	}
	return set
}

func (s MembershipSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s MembershipSet) Add(id string) {
	s[id] = struct{}{}
}

func (s MembershipSet) Remove(id string) {
	delete(s, id)
}

// Clone возвращает независимую копию
func (s MembershipSet) Clone() MembershipSet {
	out := make(MembershipSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs возвращает отсортированный список идентификаторов
func (s MembershipSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
