// Package filtering applies the candidate filters to raw listing-source
// results before they are considered for persistence: recency, locality,
// role presence and, when the profile asks for it, experience level.
package filtering

import (
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/jsearch"
)

// Filter represents a single filtering step applied to raw postings.
// The rules are conjunctive; a posting must survive every enabled step.
type Filter interface {
	Name() string
	Enabled() bool
	Apply(task jobs.SearchTask, in []*jsearch.RawPosting) ([]*jsearch.RawPosting, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// ForProfile builds the standard filter chain for one profile's tasks.
func ForProfile(profile *jobs.Profile) []Filter {
	return []Filter{
		NewRecency(),
		NewLocality(),
		NewRolePresence(),
		NewExperience(profile.ExperienceLevel),
	}
}

// Run executes the supplied filters sequentially and returns the surviving
// postings.
func Run(logger *zap.Logger, task jobs.SearchTask, postings []*jsearch.RawPosting, steps []Filter) []*jsearch.RawPosting {
	for _, step := range steps {
		if !step.Enabled() {
			continue
		}

		next, info := step.Apply(task, postings)

		if logger != nil && info.Dropped > 0 {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.String("task", task.String()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		postings = next
	}

	return postings
}

// keep is the shared predicate loop all steps are built on.
func keep(in []*jsearch.RawPosting, pred func(*jsearch.RawPosting) bool) ([]*jsearch.RawPosting, Step) {
	out := make([]*jsearch.RawPosting, 0, len(in))
	for _, p := range in {
		if pred(p) {
			out = append(out, p)
		}
	}

	return out, Step{
		Initial: len(in),
		Dropped: len(in) - len(out),
		Left:    len(out),
	}
}
