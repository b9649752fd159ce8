package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"restomap/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate applies the embedded schema files in name order. Every file is
// idempotent, so running it on each start is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, n := range names {
		b, err := migrations.ReadFile(n)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(b), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s: %w", n, err)
			}
		}
		log.Debug().Str("file", n).Msg("migration applied")
	}
	return nil
}

func (r *Repo) SaveSearch(ctx context.Context, s domain.Search) error {
	_, err := r.db.ExecContext(ctx, insertSearchSQL,
		s.ID,
		s.Origin,
		s.Destination,
		string(s.Payload),
		s.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetSearch(ctx context.Context, id string) (domain.Search, error) {
	s, err := scanSearch(r.db.QueryRowContext(ctx, getSearchSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Search{}, domain.ErrNotFound
	}
	return s, err
}

// LatestForRoute returns the newest stored search for the exact route.
func (r *Repo) LatestForRoute(ctx context.Context, origin, destination string) (domain.Search, error) {
	s, err := scanSearch(r.db.QueryRowContext(ctx, latestForRouteSQL, origin, destination))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Search{}, domain.ErrNotFound
	}
	return s, err
}

func (r *Repo) ListSearches(ctx context.Context, limit int) ([]domain.Search, error) {
	rows, err := r.db.QueryContext(ctx, listSearchesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Search, 0, limit)
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanSearch(row scanner) (domain.Search, error) {
	var s domain.Search
	var payload []byte
	if err := row.Scan(&s.ID, &s.Origin, &s.Destination, &payload, &s.CreatedAt); err != nil {
		return domain.Search{}, err
	}
	s.Payload = payload
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}
