package view_test

import (
	"errors"

	"restomap/internal/domain"
	"restomap/internal/view"
)

func ptr[T any](v T) *T { return &v }

type call struct {
	op string
	id string
}

// recCanvas records every call the map makes.
type recCanvas struct {
	initErr error
	reject  map[string]bool
	calls   []call
	icons   map[string]view.Icon
	user    *view.Marker
	message string
}

func newRecCanvas() *recCanvas { return &recCanvas{icons: map[string]view.Icon{}} }

func (c *recCanvas) Init(domain.LatLng, int) error {
	c.calls = append(c.calls, call{op: "init"})
	return c.initErr
}

func (c *recCanvas) ClearMarkers() {
	c.calls = append(c.calls, call{op: "clear"})
	c.icons = map[string]view.Icon{}
}

func (c *recCanvas) AddMarker(m view.Marker) error {
	if c.reject[m.PlaceID] {
		return errors.New("bad coordinates")
	}
	c.calls = append(c.calls, call{op: "add", id: m.PlaceID})
	c.icons[m.PlaceID] = m.Icon
	return nil
}

func (c *recCanvas) UpdateMarker(m view.Marker) {
	c.calls = append(c.calls, call{op: "update", id: m.PlaceID})
	c.icons[m.PlaceID] = m.Icon
}

func (c *recCanvas) OpenPopup(id string) { c.calls = append(c.calls, call{op: "popup", id: id}) }
func (c *recCanvas) ClosePopup()         { c.calls = append(c.calls, call{op: "close_popup"}) }
func (c *recCanvas) SetUserMarker(m *view.Marker) {
	c.user = m
}
func (c *recCanvas) FitBounds(view.Bounds, int) error {
	c.calls = append(c.calls, call{op: "fit"})
	return nil
}
func (c *recCanvas) SetView(domain.LatLng, int) { c.calls = append(c.calls, call{op: "view"}) }
func (c *recCanvas) ShowMessage(text string)    { c.message = text }

func (c *recCanvas) count(op string) int {
	n := 0
	for _, cl := range c.calls {
		if cl.op == op {
			n++
		}
	}
	return n
}

func places() []*domain.Place {
	return []*domain.Place{
		{ID: "a", Name: "A", Vicinity: "1 rue A", MapsURL: "https://maps/a", Rating: ptr(4.5), RatingsTotal: ptr(12),
			Types: []string{"cafe", "bar"}, Lat: ptr(45.0), Lng: ptr(4.0)},
		{ID: "b", Name: "B", Vicinity: "2 rue B", Types: []string{"bar"}},
		{ID: "c", Name: "C", Vicinity: "3 rue C", Rating: ptr(3.0), RatingsTotal: ptr(0), Lat: ptr(46.0), Lng: ptr(5.0)},
	}
}
