package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"restomap/internal/adapters/google"
	"restomap/internal/adapters/leaflet"
	"restomap/internal/adapters/observability"
	"restomap/internal/app"
	"restomap/internal/domain"
	"restomap/internal/geo"
	"restomap/internal/view"
)

// Searches is the route search service as the handlers use it.
type Searches interface {
	Search(ctx context.Context, origin, destination string) (domain.Search, error)
	GetSearch(ctx context.Context, id string) (domain.Search, error)
	RecentSearches(ctx context.Context, limit int) ([]domain.Search, error)
}

type Handlers struct {
	Searches   Searches
	Sessions   *app.Sessions
	Locator    domain.Locator
	MapEnabled bool
	Position   domain.PositionOptions
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

var errBadBody = errors.New("malformed request body")

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/searches/{id}", h.resultsPage)

	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/searches", h.createSearch)
		r.Get("/searches", h.listSearches)
		r.Get("/searches/{id}", h.getSearch)
		r.Post("/searches/{id}/sessions", h.createSession)

		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Put("/filters", h.setFilters)
			r.Post("/reset", h.reset)
			r.Post("/location/request", h.requestLocation)
			r.Post("/location", h.resolveLocation)
			r.Post("/location/ip", h.locateByIP)
			r.Post("/events", h.dispatch)
			r.Post("/panel", h.panel)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	status, title := http.StatusInternalServerError, "Internal Server Error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, title = http.StatusNotFound, "Not Found"
	case errors.Is(err, google.ErrZeroResults):
		status, title = http.StatusNotFound, "No Route"
	case errors.Is(err, errBadBody), errors.Is(err, app.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidSort), errors.Is(err, app.ErrUnknownPanelAction),
		errors.Is(err, view.ErrUnknownEvent), errors.Is(err, google.ErrInvalidInput):
		status, title = http.StatusBadRequest, "Bad Request"
	case errors.Is(err, domain.ErrMissingElement), errors.Is(err, domain.ErrMalformedPayload),
		errors.Is(err, domain.ErrUnknownPlace):
		status, title = http.StatusUnprocessableEntity, "Unprocessable Entity"
	case errors.Is(err, domain.ErrDistanceSortUnavailable), errors.Is(err, domain.ErrLocationPending),
		errors.Is(err, domain.ErrLocationUnsupported), errors.Is(err, domain.ErrNoPendingLocation):
		status, title = http.StatusConflict, "Conflict"
	case errors.Is(err, app.ErrSearchDisabled):
		status, title = http.StatusServiceUnavailable, "Service Unavailable"
	case errors.Is(err, google.ErrDenied), errors.Is(err, google.ErrOverQuota):
		status, title = http.StatusBadGateway, "Bad Gateway"
	case errors.Is(err, context.DeadlineExceeded):
		status, title = http.StatusGatewayTimeout, "Gateway Timeout"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeProblem(w, status, title, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// decodeJSON reads at most 1 MiB of JSON into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- searches ----

type searchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type searchSummary struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"created_at"`
}

func summarize(s domain.Search) searchSummary {
	var places []json.RawMessage
	if err := json.Unmarshal(s.Payload, &places); err != nil {
		log.Warn().Err(err).Str("search", s.ID).Msg("stored payload is not a JSON array")
	}
	return searchSummary{ID: s.ID, Origin: s.Origin, Destination: s.Destination, Count: len(places), CreatedAt: s.CreatedAt}
}

func (h *Handlers) createSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s, err := h.Searches.Search(r.Context(), req.Origin, req.Destination)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/searches/"+s.ID)
	writeJSON(w, http.StatusCreated, summarize(s))
}

func (h *Handlers) listSearches(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = l
	}
	list, err := h.Searches.RecentSearches(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]searchSummary, 0, len(list))
	for _, s := range list {
		out = append(out, summarize(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getSearch(w http.ResponseWriter, r *http.Request) {
	s, err := h.Searches.GetSearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(s)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getSearch body")
	}
}

// ---- sessions ----

type sessionRequest struct {
	Layout      *view.Layout `json:"layout"`
	Positioning *bool        `json:"positioning"`
}

type viewResponse struct {
	app.View
	Scene *leaflet.Scene `json:"scene,omitempty"`
	Error string         `json:"error,omitempty"`
}

func respond(s *app.Session, v app.View) viewResponse {
	out := viewResponse{View: v}
	if c, ok := s.Canvas().(*leaflet.Canvas); ok && c != nil {
		sc := c.Scene()
		out.Scene = &sc
	}
	return out
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	search, err := h.Searches.GetSearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	layout := view.FullLayout()
	if req.Layout != nil {
		layout = *req.Layout
	}
	positioning := true
	if req.Positioning != nil {
		positioning = *req.Positioning
	}
	opts := app.BootOptions{
		Layout:      layout,
		Payload:     search.Payload,
		Positioning: positioning,
		Locator:     h.Locator,
		Position:    h.Position,
	}
	if h.MapEnabled {
		opts.Canvas = leaflet.New(nil)
	} else {
		opts.Layout.Map = false
	}

	s, err := h.Sessions.Create(opts)
	if err != nil {
		observability.ObserveSession("boot_failed", 0)
		writeJSON(w, http.StatusUnprocessableEntity, viewResponse{View: app.FailedView(err), Error: err.Error()})
		return
	}
	v := s.View()
	observability.ObserveSession("create", v.Visible)
	w.Header().Set("Location", "/v1/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, respond(s, v))
}

// session loads the {sid} session or writes a 404.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

// finish writes the view after a session operation, or the error.
func finish(w http.ResponseWriter, s *app.Session, event string, v app.View, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	observability.ObserveSession(event, v.Visible)
	writeJSON(w, http.StatusOK, respond(s, v))
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, respond(s, s.View()))
}

type filtersRequest struct {
	MinRating float64  `json:"min_rating"`
	Types     []string `json:"types"`
	Sort      string   `json:"sort"`
}

func (h *Handlers) setFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req filtersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	mode, err := domain.ParseSortMode(req.Sort)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.SetFilters(domain.FilterCriteria{MinRating: req.MinRating, Types: req.Types}, mode)
	finish(w, s, "filters", v, err)
}

func (h *Handlers) reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	finish(w, s, "reset", s.Reset(), nil)
}

func (h *Handlers) requestLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	v, err := s.RequestLocation()
	finish(w, s, "location_request", v, err)
}

type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

func (req locationRequest) result() domain.LocationResult {
	if req.Error != "" {
		return domain.LocationFailure(req.Error)
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.LocationFailure("position unavailable")
	}
	p := domain.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	if !geo.Valid(p) {
		return domain.LocationFailure("invalid position")
	}
	return domain.LocationSuccess(p)
}

func (h *Handlers) resolveLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res := req.result()
	v, err := s.ResolveLocation(res)
	if err == nil {
		observability.ObserveLocation("browser", outcome(res.OK()))
	}
	finish(w, s, "location", v, err)
}

func (h *Handlers) locateByIP(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	// the locator records its own outcome metrics
	v, err := s.LocateByIP(r.Context(), clientIP(r))
	finish(w, s, "location", v, err)
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (h *Handlers) dispatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var ev view.Event
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, err)
		return
	}
	v, err := s.Dispatch(ev)
	finish(w, s, string(ev.Type), v, err)
}

type panelRequest struct {
	Action string `json:"action"`
}

func (h *Handlers) panel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req panelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	v, err := s.Panel(req.Action)
	finish(w, s, "panel", v, err)
}
