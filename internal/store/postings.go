package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// InsertPostings bulk-inserts postings with insert-or-ignore semantics on
// the job_url unique constraint, and returns only the rows that were
// actually inserted, with their assigned ids. The unique constraint is the
// cross-run duplicate backstop; same-run duplicates were already collapsed
// by the pipeline.
func (db *DB) InsertPostings(ctx context.Context, postings []*jobs.Posting) ([]*jobs.Posting, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, p := range postings {
		batch.Queue(
			`INSERT INTO scraped_jobs
			   (title, company, location, description, salary_range, job_url,
			    platform, requirements, benefits, scraped_at)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10)
			 ON CONFLICT (job_url) DO NOTHING
			 RETURNING id`,
			p.Title, p.Company, p.Location, p.Description, p.SalaryRange,
			p.JobURL, p.Platform, p.Requirements, p.Benefits, p.ScrapedAt,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted []*jobs.Posting
	for _, p := range postings {
		err := results.QueryRow().Scan(&p.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict with an earlier run's posting.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("inserting posting %s: %w", p.JobURL, err)
		}
		inserted = append(inserted, p)
	}

	return inserted, nil
}
