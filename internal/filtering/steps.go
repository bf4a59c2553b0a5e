package filtering

import (
	"strings"
	"time"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/jsearch"
)

type recencyFilter struct {
	now func() time.Time
}

// NewRecency creates a filter that keeps only postings published on the
// run's calendar day. Postings without a source timestamp count as posted at
// scrape time and therefore pass.
func NewRecency() Filter {
	return &recencyFilter{now: time.Now}
}

// NewRecencyAt pins the filter's notion of "today". Used by tests.
func NewRecencyAt(now func() time.Time) Filter {
	return &recencyFilter{now: now}
}

func (f *recencyFilter) Name() string { return "recency" }

func (f *recencyFilter) Enabled() bool { return true }

func (f *recencyFilter) Apply(_ jobs.SearchTask, in []*jsearch.RawPosting) ([]*jsearch.RawPosting, Step) {
	today := f.now().UTC()
	return keep(in, func(p *jsearch.RawPosting) bool {
		return sameDay(p.PostedAt(today).UTC(), today)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type localityFilter struct{}

// NewLocality creates a filter that keeps postings whose city/region text
// contains the task locality, case-insensitively.
func NewLocality() Filter {
	return &localityFilter{}
}

func (f *localityFilter) Name() string { return "locality" }

func (f *localityFilter) Enabled() bool { return true }

func (f *localityFilter) Apply(task jobs.SearchTask, in []*jsearch.RawPosting) ([]*jsearch.RawPosting, Step) {
	locality := strings.ToLower(task.Locality)
	return keep(in, func(p *jsearch.RawPosting) bool {
		return strings.Contains(strings.ToLower(p.LocationText()), locality)
	})
}

type rolePresenceFilter struct{}

// NewRolePresence creates a filter that keeps postings whose title mentions
// the task's role term: either the full phrase or any single word of it.
// Word-level matching catches phrasing drift like "Senior PM" for
// "product manager".
func NewRolePresence() Filter {
	return &rolePresenceFilter{}
}

func (f *rolePresenceFilter) Name() string { return "role_presence" }

func (f *rolePresenceFilter) Enabled() bool { return true }

func (f *rolePresenceFilter) Apply(task jobs.SearchTask, in []*jsearch.RawPosting) ([]*jsearch.RawPosting, Step) {
	role := strings.ToLower(task.RoleTerm)
	words := strings.Fields(role)

	return keep(in, func(p *jsearch.RawPosting) bool {
		title := strings.ToLower(p.Title)
		if strings.Contains(title, role) {
			return true
		}
		for _, word := range words {
			if strings.Contains(title, word) {
				return true
			}
		}
		return false
	})
}

type experienceFilter struct {
	level string
}

// NewExperience creates a filter that requires the posting description to
// mention the profile's experience level. Disabled when the profile does not
// set one; an absent constraint is permissive.
func NewExperience(level string) Filter {
	return &experienceFilter{level: strings.TrimSpace(level)}
}

func (f *experienceFilter) Name() string { return "experience" }

func (f *experienceFilter) Enabled() bool { return f.level != "" }

func (f *experienceFilter) Apply(_ jobs.SearchTask, in []*jsearch.RawPosting) ([]*jsearch.RawPosting, Step) {
	level := strings.ToLower(f.level)
	return keep(in, func(p *jsearch.RawPosting) bool {
		return strings.Contains(strings.ToLower(p.BestDescription()), level)
	})
}
