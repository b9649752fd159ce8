package app

import "restomap/internal/domain"

const (
	LabelLocate         = "Sort by distance"
	LabelLocating       = "Locating..."
	LabelLocated        = "Distance enabled"
	LabelLocationFailed = "Location error"

	LocationFailedNotice = "Unable to get your location. Make sure location access is allowed."
)

type LocationControl struct {
	Enabled bool   `json:"enabled"`
	Pending bool   `json:"pending"`
	Label   string `json:"label"`
}

// Geolocation guards the single in-flight positioning request and the
// state of the control that triggers it.
type Geolocation struct {
	supported bool
	pending   bool
	label     string
}

func NewGeolocation(supported bool) *Geolocation {
	return &Geolocation{supported: supported, label: LabelLocate}
}

func (g *Geolocation) Supported() bool { return g.supported }

func (g *Geolocation) Pending() bool { return g.pending }

// Begin claims the request slot and disables the control.
func (g *Geolocation) Begin() error {
	if !g.supported {
		return domain.ErrLocationUnsupported
	}
	if g.pending {
		return domain.ErrLocationPending
	}
	g.pending = true
	g.label = LabelLocating
	return nil
}

// finish releases the slot; the control is enabled again either way.
func (g *Geolocation) finish(res domain.LocationResult) error {
	if !g.pending {
		return domain.ErrNoPendingLocation
	}
	g.pending = false
	if res.OK() {
		g.label = LabelLocated
	} else {
		g.label = LabelLocationFailed
	}
	return nil
}

func (g *Geolocation) resetLabel() {
	if !g.pending {
		g.label = LabelLocate
	}
}

func (g *Geolocation) Control() LocationControl {
	return LocationControl{
		Enabled: g.supported && !g.pending,
		Pending: g.pending,
		Label:   g.label,
	}
}
