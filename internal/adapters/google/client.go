// internal/adapters/google/client.go
package google

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"restomap/internal/adapters/observability"
	"restomap/internal/domain"
)

const DefaultBase = "https://maps.googleapis.com/maps/api"

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if base == "" {
		base = DefaultBase
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Steps []struct {
				EndLocation latLng `json:"end_location"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Directions returns the end point of every step of the first route.
func (c *Client) Directions(ctx context.Context, origin, destination string) (domain.Route, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)

	var out directionsResponse
	if err := c.get(ctx, "directions", q, &out); err != nil {
		return domain.Route{}, err
	}
	if err := statusErr(out.Status, out.ErrorMessage); err != nil {
		return domain.Route{}, err
	}
	if len(out.Routes) == 0 {
		return domain.Route{}, ErrZeroResults
	}

	var r domain.Route
	for _, leg := range out.Routes[0].Legs {
		for _, st := range leg.Steps {
			r.StepEnds = append(r.StepEnds, domain.LatLng{Lat: st.EndLocation.Lat, Lng: st.EndLocation.Lng})
		}
	}
	return r, nil
}

type nearbyResponse struct {
	Status       string           `json:"status"`
	ErrorMessage string           `json:"error_message"`
	Results      []map[string]any `json:"results"`
}

// NearbyRestaurants returns raw Places results of type restaurant within
// radiusM of at. ZERO_RESULTS is an empty answer, not an error.
func (c *Client) NearbyRestaurants(ctx context.Context, at domain.LatLng, radiusM int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("location", strconv.FormatFloat(at.Lat, 'f', -1, 64)+","+strconv.FormatFloat(at.Lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusM))
	q.Set("type", "restaurant")

	var out nearbyResponse
	if err := c.get(ctx, "place/nearbysearch", q, &out); err != nil {
		return nil, err
	}
	if out.Status == "ZERO_RESULTS" {
		return nil, nil
	}
	if err := statusErr(out.Status, out.ErrorMessage); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ---- Internals ----

var (
	ErrZeroResults  = errors.New("google: zero results")
	ErrDenied       = errors.New("google: request denied")
	ErrOverQuota    = errors.New("google: over query limit")
	ErrInvalidInput = errors.New("google: invalid request")
)

// statusErr maps the body-level status of Maps web services.
func statusErr(status, msg string) error {
	var err error
	switch status {
	case "OK", "":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		err = ErrZeroResults
	case "REQUEST_DENIED":
		err = ErrDenied
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		err = ErrOverQuota
	case "INVALID_REQUEST", "MAX_WAYPOINTS_EXCEEDED", "MAX_ROUTE_LENGTH_EXCEEDED":
		err = ErrInvalidInput
	default:
		return fmt.Errorf("google: status %s: %s", status, msg)
	}
	if msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	q.Set("key", c.key)
	u := c.base + "/" + endpoint + "/json?" + q.Encode()

	start := time.Now()
	status := 0
	defer func() { observability.ObserveExternal("google", endpoint, status, time.Since(start)) }()

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "restomap/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		status = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusForbidden, http.StatusUnauthorized:
			resp.Body.Close()
			return ErrDenied

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
