package app

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"restomap/internal/domain"
)

/********** alias registries (single source of truth) **********/

var placeAliases = map[string][]string{
	"id":       {"place_id", "id", "reference"},
	"name":     {"name", "displayName.text"},
	"vicinity": {"vicinity", "formatted_address", "formattedAddress", "address"},
	"rating":   {"rating"},
	"count":    {"user_ratings_total", "userRatingCount"},
	"lat":      {"geometry.location.lat", "location.latitude", "lat"},
	"lng":      {"geometry.location.lng", "location.longitude", "lng"},
	"types":    {"types"},
}

const mapsSearchURL = "https://www.google.com/maps/search/?api=1"

// mapPlaces converts raw nearby-search results in order, dropping entries
// without an id and repeated ids.
func mapPlaces(raw []map[string]any) []domain.Place {
	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.Place, 0, len(raw))
	for _, m := range raw {
		p, ok := mapPlace(m)
		if !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func mapPlace(m map[string]any) (domain.Place, bool) {
	id := firstNonEmptyAlias(m, placeAliases, "id")
	if id == nil {
		log.Debug().Msg("nearby result without place id skipped")
		return domain.Place{}, false
	}
	p := domain.Place{
		ID:           *id,
		Name:         deref(firstNonEmptyAlias(m, placeAliases, "name")),
		Vicinity:     deref(firstNonEmptyAlias(m, placeAliases, "vicinity")),
		Rating:       getFloatFlexible(m, placeAliases["rating"]...),
		RatingsTotal: firstIntFlexible(m, placeAliases["count"]...),
		Types:        firstSliceStrings(m, placeAliases["types"]...),
	}
	lat := getFloatFlexible(m, placeAliases["lat"]...)
	lng := getFloatFlexible(m, placeAliases["lng"]...)
	if lat != nil && lng != nil {
		p.Lat, p.Lng = lat, lng
	}
	p.MapsURL = mapsURL(p.Name, p.ID)
	return p, true
}

func mapsURL(name, placeID string) string {
	q := url.Values{}
	q.Set("query", name)
	q.Set("query_place_id", placeID)
	return mapsSearchURL + "&" + q.Encode()
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstIntFlexible: int from several paths (float64/int/string).
func firstIntFlexible(m map[string]any, paths ...string) *int {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int(v)
			return &x
		case int:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.Atoi(s); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any of strings; empty entries are dropped.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := lookupAny(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				if s, ok := it.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
