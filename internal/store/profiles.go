package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/careerpilot/jobscout/internal/jobs"
)

const profileColumns = `user_id, COALESCE(full_name, ''), COALESCE(email, ''),
       COALESCE(desired_role, ''), COALESCE(skills, '{}'),
       COALESCE(preferred_locations, '{}'), COALESCE(experience_level, '')`

// ListProfiles returns every profile with a desired role set.
func (db *DB) ListProfiles(ctx context.Context) ([]*jobs.Profile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE desired_role IS NOT NULL AND desired_role <> ''`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*jobs.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}

// GetProfile returns one profile by user id, or nil when it does not exist.
func (db *DB) GetProfile(ctx context.Context, userID string) (*jobs.Profile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying profile %s: %w", userID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}

	return scanProfile(rows)
}

func scanProfile(rows pgx.Rows) (*jobs.Profile, error) {
	var p jobs.Profile
	if err := rows.Scan(
		&p.UserID, &p.FullName, &p.Email,
		&p.DesiredRole, &p.Skills,
		&p.PreferredLocations, &p.ExperienceLevel,
	); err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return &p, nil
}
