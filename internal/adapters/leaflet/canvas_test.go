package leaflet_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restomap/internal/adapters/leaflet"
	"restomap/internal/domain"
	"restomap/internal/view"
)

func ptr[T any](v T) *T { return &v }

func place(id string, lat, lng float64) *domain.Place {
	return &domain.Place{ID: id, Name: id + " <bistro>", Vicinity: "1 rue & co", Lat: ptr(lat), Lng: ptr(lng)}
}

func TestCanvas_RenderThroughMap(t *testing.T) {
	c := leaflet.New(nil)
	places := []*domain.Place{place("a", 45.0, 4.0), place("b", 46.0, 5.0)}

	m := view.NewMap(c, places)
	m.Render(places)

	sc := c.Scene()
	require.True(t, sc.Ready)
	assert.Equal(t, leaflet.TileURL, sc.Tiles)
	assert.Equal(t, view.InitialZoom, sc.View.Zoom)
	assert.Equal(t, domain.LatLng{Lat: 45, Lng: 4}, sc.View.Center)
	require.Len(t, sc.Markers, 2)
	assert.Equal(t, "<b>a &lt;bistro&gt;</b><br>1 rue &amp; co", sc.Markers[0].PopupHTML)
	require.NotNil(t, sc.Fit)
	assert.Equal(t, domain.LatLng{Lat: 45, Lng: 4}, sc.Fit.Bounds[0])
	assert.Equal(t, domain.LatLng{Lat: 46, Lng: 5}, sc.Fit.Bounds[1])
	assert.Equal(t, [2]int{view.FitPaddingPx, view.FitPaddingPx}, sc.Fit.Padding)
}

func TestCanvas_HighlightAndPopup(t *testing.T) {
	c := leaflet.New(nil)
	places := []*domain.Place{place("a", 45.0, 4.0), place("b", 46.0, 5.0)}
	m := view.NewMap(c, places)
	m.Render(places)

	m.Highlight("b")
	m.OpenPopup("b")
	sc := c.Scene()
	assert.Equal(t, view.IconHighlighted, sc.Markers[1].Icon)
	assert.Equal(t, view.HighlightZOffset, sc.Markers[1].ZIndexOffset)
	assert.Equal(t, "b", sc.Popup)

	m.ClosePopup()
	m.Unhighlight("b")
	sc = c.Scene()
	assert.Empty(t, sc.Popup)
	assert.Equal(t, view.IconDefault, sc.Markers[1].Icon)
}

func TestCanvas_RejectsInvalidMarker(t *testing.T) {
	c := leaflet.New(nil)
	require.NoError(t, c.Init(domain.LatLng{Lat: 1, Lng: 1}, 11))

	err := c.AddMarker(view.Marker{PlaceID: "x", Position: domain.LatLng{Lat: 120, Lng: 0}})
	assert.True(t, errors.Is(err, leaflet.ErrInvalidCoordinates))
	assert.Empty(t, c.Scene().Markers)
}

func TestCanvas_InitFailure(t *testing.T) {
	boom := errors.New("tiles unreachable")
	c := leaflet.New(boom)
	places := []*domain.Place{place("a", 45.0, 4.0)}

	m := view.NewMap(c, places)
	m.Render(places)

	sc := c.Scene()
	assert.False(t, sc.Ready)
	assert.Equal(t, view.MapFailedMessage, sc.Message)
	assert.Empty(t, sc.Markers)
	assert.False(t, m.Available())
}

func TestCanvas_UserMarker(t *testing.T) {
	c := leaflet.New(nil)
	places := []*domain.Place{place("a", 45.0, 4.0)}
	m := view.NewMap(c, places)

	m.SetUser(&domain.LatLng{Lat: 45.1, Lng: 4.1})
	sc := c.Scene()
	require.NotNil(t, sc.User)
	assert.Equal(t, view.IconUser, sc.User.Icon)
	assert.Equal(t, "user", sc.User.ID)

	m.SetUser(nil)
	assert.Nil(t, c.Scene().User)
}

func TestCanvas_SceneIsACopy(t *testing.T) {
	c := leaflet.New(nil)
	places := []*domain.Place{place("a", 45.0, 4.0)}
	m := view.NewMap(c, places)
	m.Render(places)

	sc := c.Scene()
	sc.Markers[0].Icon = view.IconHighlighted
	assert.Equal(t, view.IconDefault, c.Scene().Markers[0].Icon)
}

func TestCanvas_OutOfRangeFirstPlaceKeepsMap(t *testing.T) {
	c := leaflet.New(nil)
	places := []*domain.Place{place("x", 200, 4.0), place("a", 45.0, 4.0), place("b", 46.0, 5.0)}

	m := view.NewMap(c, places)
	m.Render(places)

	sc := c.Scene()
	require.True(t, sc.Ready)
	assert.True(t, m.Available())
	assert.Equal(t, domain.LatLng{Lat: 45, Lng: 4}, sc.View.Center)
	assert.Empty(t, sc.Message)
	require.Len(t, sc.Markers, 2)
	assert.Equal(t, "a", sc.Markers[0].ID)
	assert.Equal(t, "b", sc.Markers[1].ID)
}

func TestCanvas_NoValidPlaceCentersOnOrigin(t *testing.T) {
	c := leaflet.New(nil)
	places := []*domain.Place{place("x", 200, 4.0)}

	m := view.NewMap(c, places)
	m.Render(places)

	sc := c.Scene()
	require.True(t, sc.Ready)
	assert.Equal(t, domain.LatLng{}, sc.View.Center)
	assert.Empty(t, sc.Markers)
	assert.Equal(t, view.EmptyMapMessage, sc.Message)
}
