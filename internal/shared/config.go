package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	GoogleBase    string
	GoogleKey     string
	GoogleRPS     int
	IPGeoURL      string
	SearchRadiusM int
	CacheTTL      time.Duration
	SessionTTL    time.Duration
	MapEnabled    bool
	Workers       int
	Routes        []Route
}

// Route is one origin/destination pair to prefetch.
type Route struct {
	Origin      string
	Destination string
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/restomap?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		GoogleBase:    env("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
		GoogleKey:     env("GOOGLE_API_KEY", ""),
		GoogleRPS:     atoi("GOOGLE_RPS", 10),
		IPGeoURL:      env("IPGEO_URL", "https://ipapi.co/%s/json/"),
		SearchRadiusM: atoi("SEARCH_RADIUS_M", 2000),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SessionTTL:    time.Duration(atoi("SESSION_TTL_SECONDS", 1800)) * time.Second,
		MapEnabled:    envBool("MAP_ENABLED", true),
		Workers:       atoi("PREFETCH_WORKERS", 4),
		Routes:        ParseRoutes(os.Getenv("PREFETCH_ROUTES")),
	}
	if c.SessionTTL <= 0 {
		log.Warn().Dur("session_ttl", c.SessionTTL).Msg("SESSION_TTL_SECONDS must be positive, using default")
		c.SessionTTL = 30 * time.Minute
	}
	if c.Workers < 1 {
		log.Warn().Int("workers", c.Workers).Msg("PREFETCH_WORKERS must be at least 1")
		c.Workers = 1
	}
	if c.GoogleKey == "" {
		log.Warn().Msg("GOOGLE_API_KEY is empty, new searches are disabled")
	}
	return c
}

// ParseRoutes reads "Origin>Destination;Origin>Destination". Malformed
// entries are skipped.
func ParseRoutes(s string) []Route {
	var out []Route
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		o, d, ok := strings.Cut(part, ">")
		o, d = strings.TrimSpace(o), strings.TrimSpace(d)
		if !ok || o == "" || d == "" {
			log.Warn().Str("route", part).Msg("malformed prefetch route skipped")
			continue
		}
		out = append(out, Route{Origin: o, Destination: d})
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
