package app

import (
	"slices"

	"github.com/rs/zerolog/log"

	"restomap/internal/domain"
)

// Controls is the state of every filter control on the page.
type Controls struct {
	MinRating           float64             `json:"min_rating"`
	Types               []string            `json:"types"`
	AvailableTypes      []string            `json:"available_types"`
	Sort                domain.SortMode     `json:"sort"`
	DistanceSortEnabled bool                `json:"distance_sort_enabled"`
	Location            LocationControl     `json:"location"`
	UserLocation        domain.UserLocation `json:"user_location"`
}

// State is the application state of one page. Only its methods mutate the
// store's distance field and the user location; the view layer reads
// Visible and nothing else.
type State struct {
	store    *Store
	criteria domain.FilterCriteria
	sort     domain.SortMode
	location domain.UserLocation
	geo      *Geolocation
	distOK   bool
	notice   string
}

func NewState(store *Store, positioning bool) *State {
	if !positioning {
		log.Warn().Msg("positioning not supported, distance sort disabled")
	}
	return &State{
		store:    store,
		sort:     domain.SortDefault,
		location: domain.UserLocation{Status: domain.LocationUnset},
		geo:      NewGeolocation(positioning),
	}
}

func (s *State) Store() *Store { return s.store }

func (s *State) Location() domain.UserLocation { return s.location }

func (s *State) Sort() domain.SortMode { return s.sort }

func (s *State) Criteria() domain.FilterCriteria { return s.criteria }

// Visible recomputes the ordered visible subset.
func (s *State) Visible() []*domain.Place {
	return ComputeVisible(s.store.Places(), s.criteria, s.sort, s.location)
}

func (s *State) SetCriteria(c domain.FilterCriteria) {
	if c.MinRating < 0 {
		c.MinRating = 0
	}
	c.Types = slices.Clone(c.Types)
	s.criteria = c
}

// SetSort selects the sort mode. Distance is only selectable once a user
// location is known.
func (s *State) SetSort(mode domain.SortMode) error {
	if mode == domain.SortDistance && !s.distOK {
		return domain.ErrDistanceSortUnavailable
	}
	s.sort = mode
	return nil
}

func (s *State) BeginLocation() error { return s.geo.Begin() }

// ApplyLocation consumes the outcome of the in-flight positioning request.
func (s *State) ApplyLocation(res domain.LocationResult) error {
	if err := s.geo.finish(res); err != nil {
		return err
	}
	if res.OK() {
		pos := *res.Position
		s.location = domain.UserLocation{Position: &pos, Status: domain.LocationKnown}
		s.store.AnnotateDistances(pos)
		s.distOK = true
		log.Info().Float64("lat", pos.Lat).Float64("lng", pos.Lng).Msg("user location known")
		return nil
	}

	log.Warn().Str("reason", res.Reason).Msg("user location failed")
	s.location = domain.UserLocation{Status: domain.LocationError}
	s.store.ClearDistances()
	if s.sort == domain.SortDistance {
		s.sort = domain.SortDefault
	}
	s.distOK = false
	s.notice = LocationFailedNotice
	return nil
}

// Reset restores the default filters and forgets the user location. An
// in-flight request is not cancelled; its outcome still applies.
func (s *State) Reset() {
	s.criteria = domain.FilterCriteria{}
	s.sort = domain.SortDefault
	s.location = domain.UserLocation{Status: domain.LocationUnset}
	s.store.ClearDistances()
	s.distOK = false
	s.geo.resetLabel()
}

// TakeNotice returns the pending user notification once.
func (s *State) TakeNotice() string {
	n := s.notice
	s.notice = ""
	return n
}

func (s *State) Controls() Controls {
	types := s.criteria.Types
	if types == nil {
		types = []string{}
	}
	return Controls{
		MinRating:           s.criteria.MinRating,
		Types:               slices.Clone(types),
		AvailableTypes:      s.store.Types(),
		Sort:                s.sort,
		DistanceSortEnabled: s.distOK,
		Location:            s.geo.Control(),
		UserLocation:        s.location,
	}
}
