package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restomap/internal/app"
	"restomap/internal/domain"
)

var (
	stepA = domain.LatLng{Lat: 48.85, Lng: 2.35}
	stepB = domain.LatLng{Lat: 47.0, Lng: 3.5}
	stepC = domain.LatLng{Lat: 45.76, Lng: 4.84}
)

func routeMaps() *fakeMaps {
	return &fakeMaps{
		route: domain.Route{StepEnds: []domain.LatLng{stepA, stepB, stepC}},
		nearby: map[domain.LatLng][]map[string]any{
			stepA: {
				{"place_id": "p1", "name": "First", "rating": 4.1, "types": []any{"restaurant"},
					"geometry": map[string]any{"location": map[string]any{"lat": 48.8, "lng": 2.3}}},
				{"place_id": "shared", "name": "Shared"},
			},
			stepC: {
				{"place_id": "shared", "name": "Shared again"},
				{"place_id": "p3", "name": "Third"},
				{"name": "no id"},
			},
		},
	}
}

func TestSearch_FansOutAndKeepsRouteOrder(t *testing.T) {
	maps := routeMaps()
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewSearchService(maps, repo, cache, 2000, 2, time.Minute)

	s, err := svc.Search(context.Background(), "  Paris ", "Lyon")
	require.NoError(t, err)
	assert.Equal(t, "Paris", s.Origin)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 3, maps.lookups)

	var places []domain.Place
	require.NoError(t, json.Unmarshal(s.Payload, &places))
	got := make([]string, 0, len(places))
	for _, p := range places {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"p1", "shared", "p3"}, got)
	assert.Equal(t, "Shared", places[1].Name, "first occurrence wins")
	require.NotNil(t, places[0].Lat)
	assert.Equal(t, 48.8, *places[0].Lat)

	require.Len(t, repo.saved, 1)
	assert.Contains(t, cache.store, "search:"+s.ID)
}

func TestSearch_Errors(t *testing.T) {
	_, err := app.NewSearchService(routeMaps(), &fakeRepo{}, nil, 0, 0, 0).Search(context.Background(), "Paris", " ")
	assert.True(t, errors.Is(err, app.ErrInvalidQuery))

	_, err = app.NewSearchService(nil, &fakeRepo{}, nil, 0, 0, 0).Search(context.Background(), "Paris", "Lyon")
	assert.True(t, errors.Is(err, app.ErrSearchDisabled))

	maps := routeMaps()
	maps.failAt = &stepB
	repo := &fakeRepo{}
	_, err = app.NewSearchService(maps, repo, nil, 0, 1, 0).Search(context.Background(), "Paris", "Lyon")
	assert.ErrorContains(t, err, "upstream exploded")
	assert.Empty(t, repo.saved)

	maps = routeMaps()
	maps.dirErr = errors.New("no route")
	_, err = app.NewSearchService(maps, repo, nil, 0, 1, 0).Search(context.Background(), "Paris", "Lyon")
	assert.ErrorContains(t, err, "no route")
}

func TestGetSearch_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{saved: []domain.Search{{ID: "s1", Origin: "Paris", Destination: "Lyon", Payload: []byte(`[]`)}}}
	cache := &fakeCache{}
	svc := app.NewSearchService(routeMaps(), repo, cache, 0, 0, 10*time.Minute)

	s, err := svc.GetSearch(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", s.Origin)
	assert.Equal(t, 1, repo.gets)

	s, err = svc.GetSearch(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Lyon", s.Destination)
	assert.Equal(t, 1, repo.gets, "second read served from cache")

	_, err = svc.GetSearch(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRecentSearches_Limit(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 30; i++ {
		repo.saved = append(repo.saved, domain.Search{ID: string(rune('a' + i))})
	}
	svc := app.NewSearchService(nil, repo, nil, 0, 0, 0)

	got, err := svc.RecentSearches(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	got, err = svc.RecentSearches(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
