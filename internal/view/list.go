// Package view projects the visible places into list nodes and map markers
// and keeps the two projections cross-highlighted.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"restomap/internal/domain"
)

const (
	NoMatchMessage   = "No restaurants match your filters."
	LoadErrorMessage = "Error loading restaurant data."
)

type RatingBlock struct {
	Value string `json:"value"`
	Count string `json:"count,omitempty"`
}

type ListNode struct {
	PlaceID     string       `json:"place_id"`
	Title       string       `json:"title"`
	Address     string       `json:"address"`
	Link        string       `json:"link"`
	Rating      *RatingBlock `json:"rating,omitempty"`
	Tags        string       `json:"tags,omitempty"`
	Distance    string       `json:"distance,omitempty"`
	Highlighted bool         `json:"highlighted"`
}

// ListState is the serializable list panel.
type ListState struct {
	Nodes    []ListNode `json:"nodes"`
	Message  string     `json:"message,omitempty"`
	ScrollTo string     `json:"scroll_to,omitempty"`
}

// List is the list panel projection. Render replaces every node.
type List struct {
	nodes    []ListNode
	index    map[string]int
	message  string
	scrollTo string
}

func NewList() *List { return &List{index: map[string]int{}} }

// Fail replaces the list with a static message and no nodes.
func (l *List) Fail(message string) {
	l.nodes = nil
	l.index = map[string]int{}
	l.message = message
	l.scrollTo = ""
}

func (l *List) Render(places []*domain.Place) {
	l.nodes = make([]ListNode, 0, len(places))
	l.index = make(map[string]int, len(places))
	l.message = ""
	l.scrollTo = ""
	if len(places) == 0 {
		l.message = NoMatchMessage
		return
	}
	for _, p := range places {
		l.index[p.ID] = len(l.nodes)
		l.nodes = append(l.nodes, newListNode(p))
	}
}

func newListNode(p *domain.Place) ListNode {
	n := ListNode{
		PlaceID: p.ID,
		Title:   p.Name,
		Address: p.Vicinity,
		Link:    p.MapsURL,
	}
	if p.Rating != nil {
		n.Rating = &RatingBlock{Value: strconv.FormatFloat(*p.Rating, 'f', -1, 64)}
		if p.RatingsTotal != nil && *p.RatingsTotal > 0 {
			n.Rating.Count = fmt.Sprintf("(%d reviews)", *p.RatingsTotal)
		}
	}
	if len(p.Types) > 0 {
		n.Tags = strings.Join(p.Types, ", ")
	}
	if d, ok := p.KnownDistance(); ok {
		n.Distance = FormatDistance(d)
	}
	return n
}

// FormatDistance renders km with one decimal place.
func FormatDistance(km float64) string {
	return strconv.FormatFloat(km, 'f', 1, 64) + " km"
}

func (l *List) Has(id string) bool {
	_, ok := l.index[id]
	return ok
}

func (l *List) Highlight(id string, scroll bool) {
	i, ok := l.index[id]
	if !ok {
		return
	}
	l.nodes[i].Highlighted = true
	if scroll {
		l.scrollTo = id
	}
}

func (l *List) Unhighlight(id string) {
	if i, ok := l.index[id]; ok {
		l.nodes[i].Highlighted = false
	}
}

// ClearExcept unhighlights every node but id.
func (l *List) ClearExcept(id string) {
	for i := range l.nodes {
		if l.nodes[i].PlaceID != id {
			l.nodes[i].Highlighted = false
		}
	}
}

func (l *List) ClearHighlights() { l.ClearExcept("") }

func (l *List) clearScroll() { l.scrollTo = "" }

// Highlighted returns the ids of highlighted nodes in list order.
func (l *List) Highlighted() []string {
	var out []string
	for _, n := range l.nodes {
		if n.Highlighted {
			out = append(out, n.PlaceID)
		}
	}
	return out
}

func (l *List) State() ListState {
	nodes := make([]ListNode, len(l.nodes))
	copy(nodes, l.nodes)
	return ListState{Nodes: nodes, Message: l.message, ScrollTo: l.scrollTo}
}
