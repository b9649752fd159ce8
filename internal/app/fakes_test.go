package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"restomap/internal/domain"
	"restomap/internal/view"
)

func ptr[T any](v T) *T { return &v }

// ---- fakes ----

type fakeRepo struct {
	mu    sync.Mutex
	saved []domain.Search
	gets  int
	err   error
}

func (f *fakeRepo) SaveSearch(ctx context.Context, s domain.Search) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeRepo) GetSearch(ctx context.Context, id string) (domain.Search, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	for _, s := range f.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Search{}, domain.ErrNotFound
}

func (f *fakeRepo) ListSearches(ctx context.Context, limit int) ([]domain.Search, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.saved) {
		limit = len(f.saved)
	}
	return append([]domain.Search(nil), f.saved[:limit]...), nil
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*domain.Search); ok {
		*d = v.(domain.Search)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// fakeMaps returns fixed step ends and per-location nearby results.
type fakeMaps struct {
	route   domain.Route
	nearby  map[domain.LatLng][]map[string]any
	failAt  *domain.LatLng
	dirErr  error
	mu      sync.Mutex
	lookups int
}

func (f *fakeMaps) Directions(ctx context.Context, origin, destination string) (domain.Route, error) {
	return f.route, f.dirErr
}

func (f *fakeMaps) NearbyRestaurants(ctx context.Context, at domain.LatLng, radiusM int) ([]map[string]any, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()
	if f.failAt != nil && *f.failAt == at {
		return nil, errors.New("upstream exploded")
	}
	return f.nearby[at], nil
}

type fakeLocator struct {
	pos domain.LatLng
	err error
}

func (f *fakeLocator) Locate(ctx context.Context, ip string, opts domain.PositionOptions) (domain.LatLng, error) {
	return f.pos, f.err
}

// fakeCanvas records what the map draws.
type fakeCanvas struct {
	initErr   error
	rejectIDs map[string]bool
	inits     int
	markers   []view.Marker
	user      *view.Marker
	popup     string
	message   string
	fits      int
	views     int
}

func (c *fakeCanvas) Init(center domain.LatLng, zoom int) error {
	c.inits++
	return c.initErr
}

func (c *fakeCanvas) ClearMarkers() { c.markers = nil; c.popup = "" }

func (c *fakeCanvas) AddMarker(m view.Marker) error {
	if c.rejectIDs[m.PlaceID] {
		return fmt.Errorf("marker %s rejected", m.PlaceID)
	}
	c.markers = append(c.markers, m)
	return nil
}

func (c *fakeCanvas) UpdateMarker(m view.Marker) {
	for i := range c.markers {
		if c.markers[i].PlaceID == m.PlaceID {
			c.markers[i] = m
		}
	}
}

func (c *fakeCanvas) OpenPopup(id string)                    { c.popup = id }
func (c *fakeCanvas) ClosePopup()                            { c.popup = "" }
func (c *fakeCanvas) SetUserMarker(m *view.Marker)           { c.user = m }
func (c *fakeCanvas) FitBounds(view.Bounds, int) error       { c.fits++; return nil }
func (c *fakeCanvas) SetView(center domain.LatLng, zoom int) { c.views++ }
func (c *fakeCanvas) ShowMessage(text string)                { c.message = text }
