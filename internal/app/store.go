package app

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"restomap/internal/domain"
	"restomap/internal/geo"
)

// Store is the in-memory place collection of one page. It is filled once
// from the embedded payload; afterwards only the derived distance changes.
type Store struct {
	places []*domain.Place
	byID   map[string]*domain.Place
}

// ParsePayload decodes the embedded JSON array. Duplicate place ids keep
// their first occurrence.
func ParsePayload(payload []byte) (*Store, error) {
	var raw []domain.Place
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	s := &Store{
		places: make([]*domain.Place, 0, len(raw)),
		byID:   make(map[string]*domain.Place, len(raw)),
	}
	for i := range raw {
		p := raw[i]
		p.Distance = nil
		if _, dup := s.byID[p.ID]; dup {
			log.Warn().Str("place_id", p.ID).Msg("duplicate place in payload, keeping first")
			continue
		}
		s.places = append(s.places, &p)
		s.byID[p.ID] = &p
	}
	return s, nil
}

// Places returns the records in source order.
func (s *Store) Places() []*domain.Place { return s.places }

func (s *Store) Len() int { return len(s.places) }

func (s *Store) Get(id string) (*domain.Place, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Types returns every distinct type tag in first-seen order.
func (s *Store) Types() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.places {
		for _, t := range p.Types {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// AnnotateDistances sets every record's distance from origin. Records
// without coordinates get +Inf.
func (s *Store) AnnotateDistances(origin domain.LatLng) {
	for _, p := range s.places {
		d := math.Inf(1)
		if pos, ok := p.Position(); ok {
			d = geo.Haversine(origin, pos)
		}
		p.Distance = &d
	}
}

// ClearDistances resets every record's distance to unknown.
func (s *Store) ClearDistances() {
	for _, p := range s.places {
		p.Distance = nil
	}
}
