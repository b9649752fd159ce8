package view

import (
	"errors"
	"fmt"

	"restomap/internal/domain"
)

type EventType string

const (
	ListEnter   EventType = "list_enter"
	ListLeave   EventType = "list_leave"
	ListClick   EventType = "list_click"
	MarkerEnter EventType = "marker_enter"
	MarkerLeave EventType = "marker_leave"
	MarkerClick EventType = "marker_click"
	MapClick    EventType = "map_click"
)

var ErrUnknownEvent = errors.New("unknown event type")

type Event struct {
	Type    EventType `json:"type"`
	PlaceID string    `json:"place_id,omitempty"`
}

// Coordinator mirrors emphasis between a list node and its marker. At most
// one place is highlighted: highlighting a place first clears every other.
type Coordinator struct {
	list *List
	m    *Map
}

func NewCoordinator(l *List, m *Map) *Coordinator { return &Coordinator{list: l, m: m} }

func (c *Coordinator) Handle(ev Event) error {
	c.list.clearScroll()

	if ev.Type == MapClick {
		c.list.ClearHighlights()
		c.m.ClearHighlights()
		c.m.ClosePopup()
		return nil
	}

	id := ev.PlaceID
	if !c.list.Has(id) && !c.m.Has(id) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPlace, id)
	}

	switch ev.Type {
	case ListEnter:
		c.focus(id)
		c.m.Highlight(id)
	case ListLeave:
		c.m.Unhighlight(id)
		c.list.Unhighlight(id)
	case ListClick:
		c.focus(id)
		c.list.Highlight(id, false)
		if c.m.Has(id) {
			c.m.Focus(id, FocusZoom)
			c.m.Highlight(id)
			c.m.OpenPopup(id)
		}
	case MarkerEnter:
		c.focus(id)
		c.list.Highlight(id, false)
	case MarkerLeave:
		c.list.Unhighlight(id)
	case MarkerClick:
		c.focus(id)
		c.list.Highlight(id, true)
		c.m.Highlight(id)
		c.m.OpenPopup(id)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

// focus drops the emphasis of every place except id in both channels.
func (c *Coordinator) focus(id string) {
	c.list.ClearExcept(id)
	c.m.ClearExcept(id)
}
