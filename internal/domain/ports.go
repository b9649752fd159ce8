package domain

import "context"

type SearchRepository interface {
	SaveSearch(ctx context.Context, s Search) error
	GetSearch(ctx context.Context, id string) (Search, error)
	ListSearches(ctx context.Context, limit int) ([]Search, error)
}

// MapsClient is the subset of the Google Maps web services the route search uses.
type MapsClient interface {
	Directions(ctx context.Context, origin, destination string) (Route, error)
	NearbyRestaurants(ctx context.Context, at LatLng, radiusM int) ([]map[string]any, error)
}

// Locator resolves a position for a remote client, the server-side
// counterpart of a browser positioning API.
type Locator interface {
	Locate(ctx context.Context, clientIP string, opts PositionOptions) (LatLng, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Route is a driving route reduced to the end point of every step, in order.
type Route struct {
	StepEnds []LatLng
}
