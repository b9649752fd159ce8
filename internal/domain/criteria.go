package domain

import (
	"fmt"
	"time"
)

type FilterCriteria struct {
	MinRating float64  `json:"min_rating"` // 0 = no minimum
	Types     []string `json:"types"`      // empty = no type filtering, otherwise match-any
}

type SortMode string

const (
	SortDefault  SortMode = "default"
	SortRating   SortMode = "rating"
	SortDistance SortMode = "distance"
)

func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortDefault:
		return SortDefault, nil
	case SortRating:
		return SortRating, nil
	case SortDistance:
		return SortDistance, nil
	}
	return SortDefault, fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

type LocationStatus string

const (
	LocationUnset LocationStatus = "unset"
	LocationKnown LocationStatus = "known"
	LocationError LocationStatus = "error"
)

// UserLocation is the last positioning outcome. Position is set only when
// Status is LocationKnown.
type UserLocation struct {
	Position *LatLng        `json:"position,omitempty"`
	Status   LocationStatus `json:"status"`
}

func (u UserLocation) Known() bool { return u.Status == LocationKnown && u.Position != nil }

// PositionOptions mirror the one-shot lookup configuration of a browser
// positioning API.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

func DefaultPositionOptions() PositionOptions {
	return PositionOptions{HighAccuracy: false, Timeout: 10 * time.Second, MaximumAge: 60 * time.Second}
}

// LocationResult is the outcome of one positioning request.
type LocationResult struct {
	Position *LatLng
	Reason   string
}

func LocationSuccess(p LatLng) LocationResult { return LocationResult{Position: &p} }

func LocationFailure(reason string) LocationResult { return LocationResult{Reason: reason} }

func (r LocationResult) OK() bool { return r.Position != nil }
