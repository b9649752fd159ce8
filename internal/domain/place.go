package domain

import (
	"encoding/json"
	"math"
	"time"
)

// LatLng is a coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one restaurant in the directory. Distance is derived from the
// user's location: nil when unknown, +Inf when the place has no coordinates.
type Place struct {
	ID           string   `json:"place_id"`
	Name         string   `json:"name"`
	Vicinity     string   `json:"vicinity"`
	MapsURL      string   `json:"maps_url"`
	Rating       *float64 `json:"rating"`
	RatingsTotal *int     `json:"user_ratings_total"`
	Types        []string `json:"types"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`

	Distance *float64 `json:"-"`
}

// Position returns the place coordinates, or false when either is missing.
func (p *Place) Position() (LatLng, bool) {
	if p.Lat == nil || p.Lng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *p.Lat, Lng: *p.Lng}, true
}

// HasType reports whether any of the place types equals t.
func (p *Place) HasType(t string) bool {
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}

// KnownDistance returns the distance in km when it is set and finite.
func (p *Place) KnownDistance() (float64, bool) {
	if p.Distance == nil || math.IsInf(*p.Distance, 1) {
		return 0, false
	}
	return *p.Distance, true
}

// Search is a stored route search and the places found along it.
type Search struct {
	ID          string          `json:"id"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}
