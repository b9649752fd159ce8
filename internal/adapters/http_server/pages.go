package httpserver

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"restomap/internal/app"
	"restomap/internal/domain"
	"restomap/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indexPage struct {
	Origin      string
	Destination string
	Error       string
	Recent      []domain.Search
}

type resultsPage struct {
	Search  domain.Search
	Failed  bool
	Types   []string
	List    view.ListState
	Payload template.JS
}

func (s *Server) MountPages(h *Handlers) {
	s.mux.Get("/", h.indexPage)
	s.mux.Post("/", h.submitSearch)
}

func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render page failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("write page failed")
	}
}

func (h *Handlers) indexPage(w http.ResponseWriter, r *http.Request) {
	recent, err := h.Searches.RecentSearches(r.Context(), 10)
	if err != nil {
		log.Warn().Err(err).Msg("recent searches unavailable")
	}
	render(w, http.StatusOK, "index.html", indexPage{Recent: recent})
}

// submitSearch handles the search form and redirects to the results page.
func (h *Handlers) submitSearch(w http.ResponseWriter, r *http.Request) {
	origin, dest := r.FormValue("depart"), r.FormValue("arrivee")
	s, err := h.Searches.Search(r.Context(), origin, dest)
	if err != nil {
		log.Warn().Err(err).Str("origin", origin).Str("destination", dest).Msg("form search failed")
		render(w, http.StatusBadRequest, "index.html", indexPage{Origin: origin, Destination: dest, Error: err.Error()})
		return
	}
	http.Redirect(w, r, "/searches/"+url.PathEscape(s.ID), http.StatusSeeOther)
}

// resultsPage serves the page with the payload embedded and the list and
// type filters rendered up front.
func (h *Handlers) resultsPage(w http.ResponseWriter, r *http.Request) {
	s, err := h.Searches.GetSearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	store, err := app.ParsePayload(s.Payload)
	if err != nil {
		log.Error().Err(err).Str("search", s.ID).Msg("stored payload unreadable")
		render(w, http.StatusUnprocessableEntity, "results.html", resultsPage{
			Search:  s,
			Failed:  true,
			List:    app.FailedView(err).List,
			Payload: template.JS("null"),
		})
		return
	}
	list := view.NewList()
	list.Render(store.Places())

	// HTMLEscape keeps "</script>" in a name from closing the data block.
	var payload bytes.Buffer
	json.HTMLEscape(&payload, s.Payload)

	render(w, http.StatusOK, "results.html", resultsPage{
		Search:  s,
		Types:   store.Types(),
		List:    list.State(),
		Payload: template.JS(payload.String()),
	})
}
