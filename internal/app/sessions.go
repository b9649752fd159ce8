package app

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"restomap/internal/domain"
)

// Sessions keeps live pages in memory; an idle page expires after ttl.
type Sessions struct {
	c   *gocache.Cache
	ttl time.Duration
}

const DefaultSessionTTL = 30 * time.Minute

// NewSessions falls back to DefaultSessionTTL when ttl is not positive, so
// sessions always expire.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{c: gocache.New(ttl, 2*ttl), ttl: ttl}
}

func (r *Sessions) TTL() time.Duration { return r.ttl }

// Create boots a page and registers it under a fresh id.
func (r *Sessions) Create(o BootOptions) (*Session, error) {
	s, err := Boot(uuid.NewString(), o)
	if err != nil {
		return nil, err
	}
	r.c.SetDefault(s.ID(), s)
	return s, nil
}

// Get returns the session and extends its lifetime.
func (r *Sessions) Get(id string) (*Session, error) {
	v, ok := r.c.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	s := v.(*Session)
	r.c.SetDefault(id, s)
	return s, nil
}

func (r *Sessions) Len() int { return r.c.ItemCount() }
