package view

import (
	"github.com/rs/zerolog/log"

	"restomap/internal/domain"
	"restomap/internal/geo"
)

const (
	EmptyMapMessage   = "No restaurants to show on the map."
	MapFailedMessage  = "Unable to load the map."
	InitialZoom       = 11
	FocusZoom         = 15
	FitPaddingPx      = 50
	HighlightZOffset  = 1000
	UserMarkerZOffset = 900
)

type Icon string

const (
	IconDefault     Icon = "default"
	IconHighlighted Icon = "highlighted"
	IconUser        Icon = "user"
)

type Marker struct {
	PlaceID      string        `json:"place_id"`
	Position     domain.LatLng `json:"position"`
	Icon         Icon          `json:"icon"`
	ZIndexOffset int           `json:"z_index_offset"`
	Popup        string        `json:"popup"`
}

type Bounds struct {
	SouthWest domain.LatLng `json:"south_west"`
	NorthEast domain.LatLng `json:"north_east"`
}

func (b *Bounds) extend(p domain.LatLng) {
	b.SouthWest.Lat = min(b.SouthWest.Lat, p.Lat)
	b.SouthWest.Lng = min(b.SouthWest.Lng, p.Lng)
	b.NorthEast.Lat = max(b.NorthEast.Lat, p.Lat)
	b.NorthEast.Lng = max(b.NorthEast.Lng, p.Lng)
}

// Canvas is the map library: it draws what the Map renderer decides.
type Canvas interface {
	Init(center domain.LatLng, zoom int) error
	ClearMarkers()
	AddMarker(m Marker) error
	UpdateMarker(m Marker)
	OpenPopup(placeID string)
	ClosePopup()
	SetUserMarker(m *Marker)
	FitBounds(b Bounds, paddingPx int) error
	SetView(center domain.LatLng, zoom int)
	ShowMessage(text string)
}

// MapState is the serializable map overlay.
type MapState struct {
	Available bool          `json:"available"`
	Message   string        `json:"message,omitempty"`
	Center    domain.LatLng `json:"center"`
	Zoom      int           `json:"zoom"`
	Markers   []Marker      `json:"markers"`
	User      *Marker       `json:"user,omitempty"`
	Bounds    *Bounds       `json:"bounds,omitempty"`
	Padding   int           `json:"padding"`
	OpenPopup string        `json:"open_popup,omitempty"`
}

// Map is the marker projection of the visible places. When the canvas is
// missing or failed to initialize every method is a no-op.
type Map struct {
	canvas  Canvas
	markers map[string]*Marker
	order   []string
	user    *Marker
	bounds  *Bounds
	center  domain.LatLng
	zoom    int
	message string
	popup   string
}

// NewMap initializes the canvas centered on the first place with valid
// coordinates, or on {0,0} when there is none. A nil canvas means the page
// has no map container.
func NewMap(canvas Canvas, places []*domain.Place) *Map {
	m := &Map{markers: map[string]*Marker{}}
	if canvas == nil {
		return m
	}
	if len(places) == 0 {
		canvas.ShowMessage(EmptyMapMessage)
		m.message = EmptyMapMessage
		return m
	}
	center := domain.LatLng{}
	for _, p := range places {
		if pos, ok := p.Position(); ok && geo.Valid(pos) {
			center = pos
			break
		}
	}
	if err := canvas.Init(center, InitialZoom); err != nil {
		log.Error().Err(err).Msg("map init failed, continuing without map")
		canvas.ShowMessage(MapFailedMessage)
		m.message = MapFailedMessage
		return m
	}
	m.canvas = canvas
	m.center = center
	m.zoom = InitialZoom
	return m
}

func (m *Map) Available() bool { return m.canvas != nil }

// Render removes every marker and adds one per place with coordinates. A
// marker the canvas rejects is skipped.
func (m *Map) Render(places []*domain.Place) {
	if m.canvas == nil {
		return
	}
	m.canvas.ClearMarkers()
	m.markers = make(map[string]*Marker, len(places))
	m.order = m.order[:0]
	m.bounds = nil
	m.popup = ""

	for _, p := range places {
		pos, ok := p.Position()
		if !ok {
			continue
		}
		mk := Marker{
			PlaceID:  p.ID,
			Position: pos,
			Icon:     IconDefault,
			Popup:    p.Name + "\n" + p.Vicinity,
		}
		if err := m.canvas.AddMarker(mk); err != nil {
			log.Warn().Err(err).Str("place_id", p.ID).Str("name", p.Name).Msg("marker skipped")
			continue
		}
		m.markers[p.ID] = &mk
		m.order = append(m.order, p.ID)
		if m.bounds == nil {
			m.bounds = &Bounds{SouthWest: pos, NorthEast: pos}
		} else {
			m.bounds.extend(pos)
		}
	}

	if m.bounds == nil {
		m.message = EmptyMapMessage
		m.canvas.ShowMessage(EmptyMapMessage)
		return
	}
	m.message = ""
	m.canvas.ShowMessage("")
	if err := m.canvas.FitBounds(*m.bounds, FitPaddingPx); err != nil {
		log.Warn().Err(err).Msg("fit bounds failed")
	}
}

func (m *Map) Has(id string) bool {
	_, ok := m.markers[id]
	return ok
}

func (m *Map) setIcon(mk *Marker, icon Icon, z int) {
	if mk.Icon == icon && mk.ZIndexOffset == z {
		return
	}
	mk.Icon, mk.ZIndexOffset = icon, z
	m.canvas.UpdateMarker(*mk)
}

func (m *Map) Highlight(id string) {
	if mk, ok := m.markers[id]; ok {
		m.setIcon(mk, IconHighlighted, HighlightZOffset)
	}
}

func (m *Map) Unhighlight(id string) {
	if mk, ok := m.markers[id]; ok {
		m.setIcon(mk, IconDefault, 0)
	}
}

// ClearExcept resets every marker but id to the default icon.
func (m *Map) ClearExcept(id string) {
	for _, mid := range m.order {
		if mid != id {
			m.Unhighlight(mid)
		}
	}
}

func (m *Map) ClearHighlights() { m.ClearExcept("") }

// Focus centers the map on the marker for id.
func (m *Map) Focus(id string, zoom int) {
	mk, ok := m.markers[id]
	if !ok {
		return
	}
	m.center, m.zoom = mk.Position, zoom
	m.canvas.SetView(mk.Position, zoom)
}

func (m *Map) OpenPopup(id string) {
	if _, ok := m.markers[id]; !ok {
		return
	}
	m.popup = id
	m.canvas.OpenPopup(id)
}

func (m *Map) ClosePopup() {
	if m.canvas == nil || m.popup == "" {
		return
	}
	m.popup = ""
	m.canvas.ClosePopup()
}

// SetUser upserts the user marker; nil removes it.
func (m *Map) SetUser(p *domain.LatLng) {
	if m.canvas == nil {
		return
	}
	if p == nil {
		if m.user != nil {
			m.user = nil
			m.canvas.SetUserMarker(nil)
		}
		return
	}
	m.user = &Marker{PlaceID: "", Position: *p, Icon: IconUser, ZIndexOffset: UserMarkerZOffset, Popup: "Your location"}
	m.canvas.SetUserMarker(m.user)
}

// Highlighted returns the ids of highlighted markers in render order.
func (m *Map) Highlighted() []string {
	var out []string
	for _, id := range m.order {
		if m.markers[id].Icon == IconHighlighted {
			out = append(out, id)
		}
	}
	return out
}

func (m *Map) State() MapState {
	st := MapState{
		Available: m.canvas != nil,
		Message:   m.message,
		Center:    m.center,
		Zoom:      m.zoom,
		Markers:   make([]Marker, 0, len(m.order)),
		Padding:   FitPaddingPx,
		OpenPopup: m.popup,
	}
	for _, id := range m.order {
		st.Markers = append(st.Markers, *m.markers[id])
	}
	if m.user != nil {
		u := *m.user
		st.User = &u
	}
	if m.bounds != nil {
		b := *m.bounds
		st.Bounds = &b
	}
	return st
}
