package pipeline

import "github.com/careerpilot/jobscout/internal/jobs"

// Dedupe collapses postings by job URL, first occurrence wins, preserving
// order, and caps the result at limit. Applied once per run after all tasks
// have merged. A limit <= 0 means no cap.
func Dedupe(postings []*jobs.Posting, limit int) []*jobs.Posting {
	seen := make(map[string]bool, len(postings))
	out := make([]*jobs.Posting, 0, len(postings))

	for _, posting := range postings {
		if seen[posting.JobURL] {
			continue
		}
		seen[posting.JobURL] = true
		out = append(out, posting)

		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}
