package app

import (
	"cmp"
	"math"
	"slices"

	"restomap/internal/domain"
)

// missingRating sorts below any valid rating.
const missingRating = -1.0

// ComputeVisible filters places by criteria and orders them by mode. The
// input is never modified; all sorts are stable with respect to input order.
func ComputeVisible(places []*domain.Place, c domain.FilterCriteria, mode domain.SortMode, loc domain.UserLocation) []*domain.Place {
	out := make([]*domain.Place, 0, len(places))
	for _, p := range places {
		if Matches(p, c) {
			out = append(out, p)
		}
	}

	switch {
	case mode == domain.SortDistance && loc.Known():
		slices.SortStableFunc(out, func(a, b *domain.Place) int {
			return cmp.Compare(distanceKey(a), distanceKey(b))
		})
	case mode == domain.SortRating:
		slices.SortStableFunc(out, func(a, b *domain.Place) int {
			return cmp.Compare(ratingKey(b), ratingKey(a))
		})
	}
	return out
}

// Matches applies the rating and type predicates. A place without a rating
// always passes the rating predicate.
func Matches(p *domain.Place, c domain.FilterCriteria) bool {
	if p.Rating != nil && *p.Rating < c.MinRating {
		return false
	}
	if len(c.Types) == 0 {
		return true
	}
	for _, t := range c.Types {
		if p.HasType(t) {
			return true
		}
	}
	return false
}

func distanceKey(p *domain.Place) float64 {
	if p.Distance == nil {
		return math.Inf(1)
	}
	return *p.Distance
}

func ratingKey(p *domain.Place) float64 {
	if p.Rating == nil {
		return missingRating
	}
	return *p.Rating
}
