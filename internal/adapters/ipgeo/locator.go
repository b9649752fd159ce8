// Package ipgeo resolves a client position from its IP address.
package ipgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"restomap/internal/adapters/observability"
	"restomap/internal/domain"
	"restomap/internal/geo"
)

// DefaultURL is a lookup URL template; %s is replaced by the client IP.
const DefaultURL = "https://ipapi.co/%s/json/"

var (
	ErrPrivateAddress = errors.New("ipgeo: address is not routable")
	ErrNoPosition     = errors.New("ipgeo: response has no position")
)

// Error is a failed lookup with the upstream status, if any.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ipgeo error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ipgeo error: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Locator performs one lookup per request. Positions younger than the
// request's MaximumAge are served from memory.
type Locator struct {
	httpClient *http.Client
	url        string
	positions  *gocache.Cache
}

type Option func(*Locator)

func WithURL(url string) Option { return func(l *Locator) { l.url = url } }

func WithHTTPClient(c *http.Client) Option { return func(l *Locator) { l.httpClient = c } }

func New(opts ...Option) *Locator {
	l := &Locator{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        DefaultURL,
		positions:  gocache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type cachedPosition struct {
	pos domain.LatLng
	at  time.Time
}

type response struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

func (l *Locator) Locate(ctx context.Context, clientIP string, opts domain.PositionOptions) (domain.LatLng, error) {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		observability.ObserveLocation("ip", "rejected")
		return domain.LatLng{}, &Error{Err: fmt.Errorf("%w: %q", ErrPrivateAddress, clientIP)}
	}
	key := ip.String()

	if v, ok := l.positions.Get(key); ok && opts.MaximumAge > 0 {
		cp := v.(cachedPosition)
		if time.Since(cp.at) <= opts.MaximumAge {
			observability.ObserveCache("positions", "hit")
			return cp.pos, nil
		}
	}
	observability.ObserveCache("positions", "miss")

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := l.fetch(ctx, key)
	if err != nil {
		observability.ObserveLocation("ip", "error")
		log.Warn().Err(err).Str("ip", key).Msg("ip lookup failed")
		return domain.LatLng{}, err
	}
	observability.ObserveLocation("ip", "ok")
	l.positions.SetDefault(key, cachedPosition{pos: pos, at: time.Now()})
	return pos, nil
}

func (l *Locator) fetch(ctx context.Context, ip string) (domain.LatLng, error) {
	url := l.url
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(url, ip)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.LatLng{}, &Error{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "restomap/1.0")

	start := time.Now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		observability.ObserveExternal("ipgeo", "lookup", 0, time.Since(start))
		return domain.LatLng{}, &Error{Err: fmt.Errorf("failed to fetch location: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveExternal("ipgeo", "lookup", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return domain.LatLng{}, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.LatLng{}, &Error{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if body.Error {
		return domain.LatLng{}, &Error{Err: fmt.Errorf("%w: %s", ErrNoPosition, body.Reason)}
	}

	var pos domain.LatLng
	switch {
	case body.Latitude != nil && body.Longitude != nil:
		pos = domain.LatLng{Lat: *body.Latitude, Lng: *body.Longitude}
	case body.Lat != nil && body.Lon != nil:
		pos = domain.LatLng{Lat: *body.Lat, Lng: *body.Lon}
	default:
		return domain.LatLng{}, &Error{Err: ErrNoPosition}
	}
	if !geo.Valid(pos) {
		return domain.LatLng{}, &Error{Err: fmt.Errorf("%w: %v", ErrNoPosition, pos)}
	}
	return pos, nil
}
