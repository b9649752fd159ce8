package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"restomap/internal/domain"
	"restomap/internal/view"
)

// View is everything the thin client needs to draw the page.
type View struct {
	SessionID string          `json:"session_id,omitempty"`
	List      view.ListState  `json:"list"`
	Map       view.MapState   `json:"map"`
	Controls  Controls        `json:"controls"`
	Panel     view.PanelState `json:"panel"`
	Notice    string          `json:"notice,omitempty"`
	Visible   int             `json:"visible"`
}

type BootOptions struct {
	Layout  view.Layout
	Payload []byte // nil when the page carries no payload
	Canvas  view.Canvas
	// Positioning reports a client-side positioning capability.
	Positioning bool
	Locator     domain.Locator
	Position    domain.PositionOptions
}

// Session is one results page. Its mutex makes every event run to
// completion before the next one starts.
type Session struct {
	mu sync.Mutex

	id      string
	state   *State
	list    *view.List
	m       *view.Map
	coord   *view.Coordinator
	panel   *view.Panel
	canvas  view.Canvas
	locator domain.Locator
	opts    domain.PositionOptions
	visible int
}

// Boot sets a page up. Missing required elements and a malformed payload
// are fatal; a missing map container only disables the map.
func Boot(id string, o BootOptions) (*Session, error) {
	if missing := o.Layout.MissingRequired(); len(missing) > 0 || o.Payload == nil {
		if o.Payload == nil {
			missing = append(missing, "restos-data")
		}
		log.Error().Strs("missing", missing).Msg("required page elements missing")
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingElement, strings.Join(missing, ", "))
	}
	store, err := ParsePayload(o.Payload)
	if err != nil {
		log.Error().Err(err).Msg("place payload rejected")
		return nil, err
	}

	canvas := o.Canvas
	if !o.Layout.Map {
		log.Warn().Msg("map container not found, list-only mode")
		canvas = nil
	}
	opts := o.Position
	if opts.Timeout == 0 {
		opts = domain.DefaultPositionOptions()
	}

	list := view.NewList()
	m := view.NewMap(canvas, store.Places())
	s := &Session{
		id:      id,
		state:   NewState(store, o.Layout.LocationButton && (o.Positioning || o.Locator != nil)),
		list:    list,
		m:       m,
		coord:   view.NewCoordinator(list, m),
		panel:   view.NewPanel(o.Layout),
		canvas:  canvas,
		locator: o.Locator,
		opts:    opts,
	}
	s.refresh()
	return s, nil
}

// FailedView is what a page shows when Boot fails.
func FailedView(err error) View {
	l := view.NewList()
	l.Fail(view.LoadErrorMessage)
	return View{List: l.State(), Map: view.MapState{Markers: []view.Marker{}}}
}

func (s *Session) ID() string { return s.id }

// Canvas is the page's map canvas, nil when the page has no map container.
func (s *Session) Canvas() view.Canvas { return s.canvas }

// refresh rebuilds both projections from scratch.
func (s *Session) refresh() {
	visible := s.state.Visible()
	s.visible = len(visible)
	s.list.Render(visible)
	s.m.Render(visible)
	s.m.SetUser(s.state.Location().Position)
}

func (s *Session) view() View {
	return View{
		SessionID: s.id,
		List:      s.list.State(),
		Map:       s.m.State(),
		Controls:  s.state.Controls(),
		Panel:     s.panel.State(),
		Notice:    s.state.TakeNotice(),
		Visible:   s.visible,
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// SetFilters applies new criteria and sort mode and re-renders.
func (s *Session) SetFilters(c domain.FilterCriteria, mode domain.SortMode) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.SetSort(mode); err != nil {
		return s.view(), err
	}
	s.state.SetCriteria(c)
	s.refresh()
	return s.view(), nil
}

func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
	s.refresh()
	return s.view()
}

// RequestLocation claims the request slot for a lookup the client resolves
// itself through ResolveLocation.
func (s *Session) RequestLocation() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.state.BeginLocation()
	return s.view(), err
}

func (s *Session) ResolveLocation(res domain.LocationResult) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.ApplyLocation(res); err != nil {
		return s.view(), err
	}
	s.refresh()
	return s.view(), nil
}

// LocateByIP runs a server-side lookup for clientIP. The lookup happens
// outside the session lock; the pending slot keeps it unique.
func (s *Session) LocateByIP(ctx context.Context, clientIP string) (View, error) {
	if s.locator == nil {
		return s.View(), domain.ErrLocationUnsupported
	}
	if _, err := s.RequestLocation(); err != nil {
		return s.View(), err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	pos, err := s.locator.Locate(ctx, clientIP, s.opts)

	res := domain.LocationSuccess(pos)
	if err != nil {
		res = domain.LocationFailure(err.Error())
	}
	return s.ResolveLocation(res)
}

func (s *Session) Dispatch(ev view.Event) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.coord.Handle(ev)
	return s.view(), err
}

var ErrUnknownPanelAction = errors.New("unknown panel action")

func (s *Session) Panel(action string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch action {
	case "open":
		s.panel.Open()
	case "close":
		s.panel.Close()
	case "escape":
		s.panel.KeyDown("Escape")
	case "backdrop":
		s.panel.BackdropClick()
	default:
		return s.view(), fmt.Errorf("%w: %q", ErrUnknownPanelAction, action)
	}
	return s.view(), nil
}
