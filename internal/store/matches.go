package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// InsertMatches bulk-inserts match records for one profile.
func (db *DB) InsertMatches(ctx context.Context, matches []*jobs.Match) error {
	if len(matches) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range matches {
		batch.Queue(
			`INSERT INTO user_job_matches
			   (user_id, job_id, match_score, status, date_posted)
			 VALUES ($1, $2, $3, $4, $5)`,
			m.UserID, m.JobID, m.Score, m.Status, m.DatePosted,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range matches {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting matches: %w", err)
		}
	}

	return nil
}
