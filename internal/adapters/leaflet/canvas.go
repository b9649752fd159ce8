// Package leaflet implements the map canvas as a Leaflet scene: the page
// script replays the scene on a real Leaflet map.
package leaflet

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"restomap/internal/domain"
	"restomap/internal/geo"
	"restomap/internal/view"
)

const (
	TileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	TileAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	assetBase       = "https://unpkg.com/leaflet@1.9.4/dist/images/"
)

var ErrInvalidCoordinates = errors.New("leaflet: invalid marker coordinates")

type IconSpec struct {
	IconURL     string `json:"icon_url,omitempty"`
	ShadowURL   string `json:"shadow_url,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
	IconSize    [2]int `json:"icon_size"`
	IconAnchor  [2]int `json:"icon_anchor"`
	PopupAnchor [2]int `json:"popup_anchor"`
	ShadowSize  [2]int `json:"shadow_size"`
}

// Icons are the marker icons the scene references by name.
var Icons = map[view.Icon]IconSpec{
	view.IconDefault: {
		IconURL: assetBase + "marker-icon.png", ShadowURL: assetBase + "marker-shadow.png",
		IconSize: [2]int{25, 41}, IconAnchor: [2]int{12, 41}, PopupAnchor: [2]int{1, -34}, ShadowSize: [2]int{41, 41},
	},
	view.IconHighlighted: {
		IconURL: assetBase + "marker-icon-2x.png", ShadowURL: assetBase + "marker-shadow.png",
		IconSize: [2]int{35, 57}, IconAnchor: [2]int{17, 57}, PopupAnchor: [2]int{1, -48}, ShadowSize: [2]int{57, 57},
	},
	view.IconUser: {
		ClassName: "user-location-icon",
		IconSize:  [2]int{12, 12}, IconAnchor: [2]int{6, 6},
	},
}

type Layer struct {
	ID           string        `json:"id"`
	LatLng       domain.LatLng `json:"latlng"`
	Icon         view.Icon     `json:"icon"`
	ZIndexOffset int           `json:"z_index_offset"`
	PopupHTML    string        `json:"popup_html"`
}

type Viewport struct {
	Center domain.LatLng `json:"center"`
	Zoom   int           `json:"zoom"`
}

type Fit struct {
	Bounds  [2]domain.LatLng `json:"bounds"`
	Padding [2]int           `json:"padding"`
}

// Scene is the full drawing state of one map.
type Scene struct {
	Ready       bool                   `json:"ready"`
	Tiles       string                 `json:"tiles"`
	Attribution string                 `json:"attribution"`
	Icons       map[view.Icon]IconSpec `json:"icons"`
	View        Viewport               `json:"view"`
	Fit         *Fit                   `json:"fit,omitempty"`
	Markers     []Layer                `json:"markers"`
	User        *Layer                 `json:"user,omitempty"`
	Popup       string                 `json:"popup,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

// Canvas records Leaflet calls into a Scene. It is safe for concurrent
// readers of Scene while a session mutates it.
type Canvas struct {
	mu      sync.RWMutex
	initErr error
	scene   Scene
	index   map[string]int
}

// New returns a canvas. A non-nil initErr makes Init fail, the way a map
// library that could not load behaves.
func New(initErr error) *Canvas {
	return &Canvas{initErr: initErr, index: map[string]int{}, scene: Scene{Markers: []Layer{}}}
}

func (c *Canvas) Init(center domain.LatLng, zoom int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initErr != nil {
		return c.initErr
	}
	if !geo.Valid(center) {
		return fmt.Errorf("%w: center %v", ErrInvalidCoordinates, center)
	}
	c.scene.Ready = true
	c.scene.Tiles = TileURL
	c.scene.Attribution = TileAttribution
	c.scene.Icons = Icons
	c.scene.View = Viewport{Center: center, Zoom: zoom}
	return nil
}

func (c *Canvas) ClearMarkers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.Markers = c.scene.Markers[:0]
	c.scene.Popup = ""
	c.scene.Fit = nil
	c.index = map[string]int{}
}

func (c *Canvas) AddMarker(m view.Marker) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !geo.Valid(m.Position) {
		return fmt.Errorf("%w: %s at %v", ErrInvalidCoordinates, m.PlaceID, m.Position)
	}
	if _, dup := c.index[m.PlaceID]; dup {
		return fmt.Errorf("leaflet: marker %s already on the map", m.PlaceID)
	}
	c.index[m.PlaceID] = len(c.scene.Markers)
	c.scene.Markers = append(c.scene.Markers, toLayer(m))
	return nil
}

func (c *Canvas) UpdateMarker(m view.Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[m.PlaceID]; ok {
		c.scene.Markers[i].Icon = m.Icon
		c.scene.Markers[i].ZIndexOffset = m.ZIndexOffset
	}
}

func (c *Canvas) OpenPopup(placeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[placeID]; ok {
		c.scene.Popup = placeID
	}
}

func (c *Canvas) ClosePopup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.Popup = ""
}

func (c *Canvas) SetUserMarker(m *view.Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == nil {
		c.scene.User = nil
		return
	}
	l := toLayer(*m)
	l.ID = "user"
	c.scene.User = &l
}

func (c *Canvas) FitBounds(b view.Bounds, paddingPx int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !geo.Valid(b.SouthWest) || !geo.Valid(b.NorthEast) {
		return fmt.Errorf("%w: bounds %v", ErrInvalidCoordinates, b)
	}
	c.scene.Fit = &Fit{
		Bounds:  [2]domain.LatLng{b.SouthWest, b.NorthEast},
		Padding: [2]int{paddingPx, paddingPx},
	}
	return nil
}

func (c *Canvas) SetView(center domain.LatLng, zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.View = Viewport{Center: center, Zoom: zoom}
	c.scene.Fit = nil
}

func (c *Canvas) ShowMessage(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.Message = text
}

// Scene returns a copy of the current drawing state.
func (c *Canvas) Scene() Scene {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.scene
	s.Markers = append([]Layer(nil), c.scene.Markers...)
	if c.scene.User != nil {
		u := *c.scene.User
		s.User = &u
	}
	if c.scene.Fit != nil {
		f := *c.scene.Fit
		s.Fit = &f
	}
	return s
}

// popupHTML renders "name\nvicinity" as a bold title over the address.
func popupHTML(text string) string {
	name, rest, _ := strings.Cut(text, "\n")
	out := "<b>" + html.EscapeString(name) + "</b>"
	if rest != "" {
		out += "<br>" + html.EscapeString(rest)
	}
	return out
}

func toLayer(m view.Marker) Layer {
	return Layer{
		ID:           m.PlaceID,
		LatLng:       m.Position,
		Icon:         m.Icon,
		ZIndexOffset: m.ZIndexOffset,
		PopupHTML:    popupHTML(m.Popup),
	}
}
