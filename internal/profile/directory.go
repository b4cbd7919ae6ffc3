package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("profile not found")

type pgDirectory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) Directory {
	return &pgDirectory{pool: pool}
}

func (d *pgDirectory) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(bio, ''), COALESCE(avatar_url, ''),
			COALESCE(skills, '{}'), COALESCE(categories, '{}'), COALESCE(city, ''),
			organization_id, COALESCE(is_active, TRUE), created_at
		FROM users WHERE id = $1`, userID).
		Scan(&p.ID, &p.Name, &p.Bio, &p.AvatarURL, &p.Skills, &p.Categories,
			&p.City, &p.OrganizationID, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
