package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"restomap/internal/domain"
)

var (
	ErrInvalidQuery   = errors.New("origin and destination are required")
	ErrSearchDisabled = errors.New("route search is not configured")
)

type SearchService struct {
	maps    domain.MapsClient
	repo    domain.SearchRepository
	cache   domain.Cache
	radiusM int
	workers int
	ttl     time.Duration
	now     func() time.Time
}

func NewSearchService(m domain.MapsClient, r domain.SearchRepository, c domain.Cache, radiusM, workers int, ttl time.Duration) *SearchService {
	if radiusM <= 0 {
		radiusM = 2000
	}
	if workers <= 0 {
		workers = 4
	}
	return &SearchService{maps: m, repo: r, cache: c, radiusM: radiusM, workers: workers, ttl: ttl, now: time.Now}
}

// Search finds restaurants near every step end of the driving route from
// origin to destination and stores them as a new search.
func (s *SearchService) Search(ctx context.Context, origin, destination string) (domain.Search, error) {
	if s.maps == nil {
		return domain.Search{}, ErrSearchDisabled
	}
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return domain.Search{}, ErrInvalidQuery
	}

	route, err := s.maps.Directions(ctx, origin, destination)
	if err != nil {
		return domain.Search{}, fmt.Errorf("directions %q -> %q: %w", origin, destination, err)
	}

	// one slot per step keeps results in route order
	found := make([][]map[string]any, len(route.StepEnds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, at := range route.StepEnds {
		g.Go(func() error {
			rs, err := s.maps.NearbyRestaurants(gctx, at, s.radiusM)
			if err != nil {
				return fmt.Errorf("nearby search at %.5f,%.5f: %w", at.Lat, at.Lng, err)
			}
			found[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Search{}, err
	}

	var raw []map[string]any
	for _, rs := range found {
		raw = append(raw, rs...)
	}
	places := mapPlaces(raw)
	payload, err := json.Marshal(places)
	if err != nil {
		return domain.Search{}, err
	}

	out := domain.Search{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: destination,
		Payload:     payload,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.SaveSearch(ctx, out); err != nil {
		return domain.Search{}, fmt.Errorf("save search: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, searchKey(out.ID), out, int(s.ttl.Seconds())); err != nil {
			log.Warn().Err(err).Str("search", out.ID).Msg("cache set failed")
		}
	}

	log.Info().
		Str("search", out.ID).
		Int("steps", len(route.StepEnds)).
		Int("raw", len(raw)).
		Int("places", len(places)).
		Msg("route search stored")
	return out, nil
}

func searchKey(id string) string { return "search:" + id }
