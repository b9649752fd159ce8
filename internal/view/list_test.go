package view_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restomap/internal/domain"
	"restomap/internal/view"
)

func TestList_Render(t *testing.T) {
	ps := places()
	ps[0].Distance = ptr(12.345)
	ps[1].Distance = ptr(math.Inf(1))

	l := view.NewList()
	l.Render(ps)
	st := l.State()

	require.Len(t, st.Nodes, 3)
	a := st.Nodes[0]
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, "1 rue A", a.Address)
	assert.Equal(t, "https://maps/a", a.Link)
	assert.Equal(t, &view.RatingBlock{Value: "4.5", Count: "(12 reviews)"}, a.Rating)
	assert.Equal(t, "cafe, bar", a.Tags)
	assert.Equal(t, "12.3 km", a.Distance)

	b := st.Nodes[1]
	assert.Nil(t, b.Rating)
	assert.Empty(t, b.Distance, "unreachable distance is not shown")

	c := st.Nodes[2]
	assert.Equal(t, &view.RatingBlock{Value: "3"}, c.Rating, "zero reviews shows no count")
	assert.Empty(t, c.Tags)
	assert.Empty(t, st.Message)
}

func TestList_EmptyAndFail(t *testing.T) {
	l := view.NewList()
	l.Render(nil)
	assert.Equal(t, view.NoMatchMessage, l.State().Message)
	assert.Empty(t, l.State().Nodes)

	l.Render(places())
	l.Fail(view.LoadErrorMessage)
	assert.Equal(t, view.LoadErrorMessage, l.State().Message)
	assert.Empty(t, l.State().Nodes)
	assert.False(t, l.Has("a"))
}

func TestList_Highlight(t *testing.T) {
	l := view.NewList()
	l.Render(places())

	l.Highlight("b", true)
	assert.Equal(t, []string{"b"}, l.Highlighted())
	assert.Equal(t, "b", l.State().ScrollTo)

	l.Highlight("zzz", true)
	assert.Equal(t, []string{"b"}, l.Highlighted())

	l.Highlight("a", false)
	l.ClearExcept("a")
	assert.Equal(t, []string{"a"}, l.Highlighted())

	l.Render(places())
	assert.Empty(t, l.Highlighted(), "rebuild drops emphasis")
	assert.Empty(t, l.State().ScrollTo)
}

func TestList_StateIsACopy(t *testing.T) {
	l := view.NewList()
	l.Render([]*domain.Place{{ID: "x"}})
	st := l.State()
	st.Nodes[0].Highlighted = true
	assert.Empty(t, l.Highlighted())
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0.0 km", view.FormatDistance(0))
	assert.Equal(t, "1.3 km", view.FormatDistance(1.25001))
	assert.Equal(t, "391.5 km", view.FormatDistance(391.49))
}
