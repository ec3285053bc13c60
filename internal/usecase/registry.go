package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/domain"
	"github.com/google/uuid"
)

// SessionRegistry хранит открытые экраны поиска шлюза.
// Сессии без обращений дольше ttl закрываются фоновой очисткой.
type SessionRegistry struct {
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*SearchSession
}

func NewSessionRegistry(ttl time.Duration, logger *slog.Logger) *SessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRegistry{
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[uuid.UUID]*SearchSession),
	}
}

func (r *SessionRegistry) Add(s *SearchSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get возвращает сессию или domain.ErrSessionNotFound
func (r *SessionRegistry) Get(id uuid.UUID) (*SearchSession, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Remove закрывает сессию и убирает её из реестра
func (r *SessionRegistry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (r *SessionRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep закрывает сессии, простаивающие дольше ttl на момент now
func (r *SessionRegistry) Sweep(now time.Time) int {
	var expired []*SearchSession

	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.LastActive()) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired sessions closed", "count", len(expired))
	}
	return len(expired)
}

// Run периодически вызывает Sweep, пока не отменён ctx
func (r *SessionRegistry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// CloseAll закрывает все сессии, вызывается при остановке шлюза
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*SearchSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
