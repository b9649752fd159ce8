package app

import (
	"context"

	"restomap/internal/domain"
)

// GetSearch reads a stored search through the cache.
func (s *SearchService) GetSearch(ctx context.Context, id string) (domain.Search, error) {
	key := searchKey(id)
	var out domain.Search
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	out, err := s.repo.GetSearch(ctx, id)
	if err != nil {
		return domain.Search{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, out, int(s.ttl.Seconds()))
	}
	return out, nil
}

func (s *SearchService) RecentSearches(ctx context.Context, limit int) ([]domain.Search, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListSearches(ctx, limit)
}
