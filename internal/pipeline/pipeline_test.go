package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/jsearch"
	"github.com/careerpilot/jobscout/internal/matching"
)

type fakeStore struct {
	mu sync.Mutex

	profiles          []*jobs.Profile
	insertPostingsErr error
	insertMatchesErr  map[string]error

	postings []*jobs.Posting
	matches  []*jobs.Match
	nextID   int
}

func (s *fakeStore) ListProfiles(context.Context) ([]*jobs.Profile, error) {
	return s.profiles, nil
}

func (s *fakeStore) GetProfile(_ context.Context, userID string) (*jobs.Profile, error) {
	for _, p := range s.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertPostings(_ context.Context, postings []*jobs.Posting) ([]*jobs.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertPostingsErr != nil {
		return nil, s.insertPostingsErr
	}

	existing := make(map[string]bool, len(s.postings))
	for _, p := range s.postings {
		existing[p.JobURL] = true
	}

	var inserted []*jobs.Posting
	for _, p := range postings {
		if existing[p.JobURL] {
			continue
		}
		s.nextID++
		p.ID = fmt.Sprintf("job-%d", s.nextID)
		s.postings = append(s.postings, p)
		inserted = append(inserted, p)
	}
	return inserted, nil
}

func (s *fakeStore) InsertMatches(_ context.Context, matches []*jobs.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(matches) > 0 {
		if err := s.insertMatchesErr[matches[0].UserID]; err != nil {
			return err
		}
	}
	s.matches = append(s.matches, matches...)
	return nil
}

func (s *fakeStore) matchesFor(userID string) []*jobs.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*jobs.Match
	for _, m := range s.matches {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fakeLister struct {
	mu      sync.Mutex
	results map[string][]*jsearch.RawPosting
	calls   int
}

func taskKey(query, locality string) string {
	return query + "|" + locality
}

func (l *fakeLister) Fetch(_ context.Context, query, locality string, _ int) ([]*jsearch.RawPosting, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.results[taskKey(query, locality)], nil
}

type fakeSeenCache struct {
	mu     sync.Mutex
	known  map[string]bool
	marked []string
}

func (c *fakeSeenCache) Seen(_ context.Context, urls []string) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		out[u] = c.known[u]
	}
	return out, nil
}

func (c *fakeSeenCache) Mark(_ context.Context, urls []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marked = append(c.marked, urls...)
	return nil
}

func newTestPipeline(store *fakeStore, lister *fakeLister, seen SeenCache) *Pipeline {
	return New(store, lister, seen, zap.NewNop(), Options{Concurrency: 1})
}

func pmProfile() *jobs.Profile {
	return &jobs.Profile{
		UserID:             "user-pm",
		Email:              "pm@example.com",
		DesiredRole:        "Product Manager",
		Skills:             []string{"Analytics"},
		PreferredLocations: []string{"Bangalore"},
	}
}

func rawPosting(title, city, url string) *jsearch.RawPosting {
	return &jsearch.RawPosting{
		Title:     title,
		Employer:  "Acme",
		City:      city,
		State:     "Karnataka",
		ApplyLink: url,
	}
}

func TestRunEndToEndExample(t *testing.T) {
	pm := rawPosting("Senior Product Manager", "Bangalore", "https://example.com/jobs/pm")
	pm.Description = "Own the roadmap"
	analyst := rawPosting("Business Analyst", "Bangalore", "https://example.com/jobs/ba")
	analyst.Description = "Analytics heavy role"

	store := &fakeStore{profiles: []*jobs.Profile{pmProfile()}}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"):  {pm},
		taskKey("business analyst", "Bangalore"): {analyst},
	}}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.JobsScraped)
	assert.Equal(t, 1, report.ProfilesProcessed)
	assert.Equal(t, 2, report.MatchesCreated)

	matches := store.matchesFor("user-pm")
	require.Len(t, matches, 2)

	byJob := map[string]*jobs.Match{}
	for _, m := range matches {
		byJob[m.JobID] = m
		assert.Equal(t, jobs.MatchStatusPending, m.Status)
		assert.GreaterOrEqual(t, m.Score, matching.MinScore)
		assert.LessOrEqual(t, m.Score, matching.MaxScore)
	}

	var pmScore, baScore float64
	for _, p := range store.postings {
		switch p.Title {
		case "Senior Product Manager":
			pmScore = byJob[p.ID].Score
		case "Business Analyst":
			baScore = byJob[p.ID].Score
		}
	}
	assert.Greater(t, pmScore, baScore, "the role-title posting must outrank the skill/location one")

	require.Len(t, report.Outcomes, 1)
	assert.False(t, report.Outcomes[0].Fallback)
}

func TestRunCreatesFallbackMatch(t *testing.T) {
	pm := rawPosting("Senior Product Manager", "Bangalore", "https://example.com/jobs/pm")

	qa := &jobs.Profile{
		UserID:             "user-qa",
		DesiredRole:        "QA Tester",
		Skills:             []string{"Selenium"},
		PreferredLocations: []string{"Bangalore"},
	}

	store := &fakeStore{profiles: []*jobs.Profile{pmProfile(), qa}}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"): {pm},
	}}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.JobsScraped)

	qaMatches := store.matchesFor("user-qa")
	require.Len(t, qaMatches, 1, "expected exactly one fallback match")
	assert.Equal(t, matching.FallbackScore, qaMatches[0].Score)

	for _, outcome := range report.Outcomes {
		if outcome.UserID == "user-qa" {
			assert.True(t, outcome.Fallback)
		}
	}
}

func TestRunPostingPersistenceFailureIsFatal(t *testing.T) {
	pm := rawPosting("Senior Product Manager", "Bangalore", "https://example.com/jobs/pm")

	store := &fakeStore{
		profiles:          []*jobs.Profile{pmProfile()},
		insertPostingsErr: errors.New("connection refused"),
	}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"): {pm},
	}}

	_, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting postings")
}

func TestRunMatchFailureIsIsolatedPerProfile(t *testing.T) {
	pm := rawPosting("Senior Product Manager", "Bangalore", "https://example.com/jobs/pm")

	broken := pmProfile()
	healthy := pmProfile()
	healthy.UserID = "user-pm-2"

	store := &fakeStore{
		profiles:         []*jobs.Profile{broken, healthy},
		insertMatchesErr: map[string]error{broken.UserID: errors.New("constraint violation")},
	}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"): {pm},
	}}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{})
	require.NoError(t, err, "a single profile's match failure must not fail the run")

	assert.Empty(t, store.matchesFor(broken.UserID))
	assert.Len(t, store.matchesFor(healthy.UserID), 1)
	assert.Equal(t, 1, report.MatchesCreated)

	var brokenOutcome *ProfileOutcome
	for i := range report.Outcomes {
		if report.Outcomes[i].UserID == broken.UserID {
			brokenOutcome = &report.Outcomes[i]
		}
	}
	require.NotNil(t, brokenOutcome)
	assert.Error(t, brokenOutcome.Err)
}

func TestRunSkipsProfileWithoutLocations(t *testing.T) {
	profile := pmProfile()
	profile.PreferredLocations = nil

	store := &fakeStore{profiles: []*jobs.Profile{profile}}
	lister := &fakeLister{}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 0, lister.calls, "no locations means no tasks")
	assert.Equal(t, 0, report.JobsScraped)
	assert.Equal(t, 1, report.ProfilesProcessed)
	assert.Equal(t, 0, report.MatchesCreated)
}

func TestRunNoProfilesIsAnError(t *testing.T) {
	store := &fakeStore{}
	_, err := newTestPipeline(store, &fakeLister{}, nil).Run(context.Background(), Request{})
	require.ErrorIs(t, err, ErrNoProfiles)
}

func TestRunSingleProfileRequest(t *testing.T) {
	pm := rawPosting("Senior Product Manager", "Bangalore", "https://example.com/jobs/pm")

	other := pmProfile()
	other.UserID = "user-other"

	store := &fakeStore{profiles: []*jobs.Profile{pmProfile(), other}}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"): {pm},
	}}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{ProfileID: "user-pm"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ProfilesProcessed)
	assert.NotEmpty(t, store.matchesFor("user-pm"))
	assert.Empty(t, store.matchesFor("user-other"))
}

func TestRunSeenCacheShortCircuitsRepeats(t *testing.T) {
	pm := rawPosting("Senior Product Manager", "Bangalore", "https://example.com/jobs/pm")
	fresh := rawPosting("Product Manager", "Bangalore", "https://example.com/jobs/fresh")

	store := &fakeStore{profiles: []*jobs.Profile{pmProfile()}}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"): {pm, fresh},
	}}
	seen := &fakeSeenCache{known: map[string]bool{"https://example.com/jobs/pm": true}}

	report, err := newTestPipeline(store, lister, seen).Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.JobsScraped)
	require.Len(t, store.postings, 1)
	assert.Equal(t, "https://example.com/jobs/fresh", store.postings[0].JobURL)
	assert.Equal(t, []string{"https://example.com/jobs/fresh"}, seen.marked)
}

func TestRunRecentOnlyStopsSchedulingAtLimit(t *testing.T) {
	results := map[string][]*jsearch.RawPosting{}
	profile := pmProfile()
	profile.PreferredLocations = []string{"Bangalore", "Hyderabad", "Mumbai", "Delhi", "Chennai"}
	for i, city := range profile.PreferredLocations {
		results[taskKey("Product Manager", city)] = []*jsearch.RawPosting{
			rawPosting("Product Manager", city, fmt.Sprintf("https://example.com/jobs/%d", i)),
		}
	}

	// Localities beyond the profile's list never match, so only the five
	// "Product Manager" tasks can return anything.
	store := &fakeStore{profiles: []*jobs.Profile{profile}}
	lister := &fakeLister{results: results}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{RecentOnly: true, Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.JobsScraped)
	assert.Less(t, lister.calls, 5, "remaining tasks must be skipped once the limit is gathered")
}

func TestRunLimitCapsPersistedPostings(t *testing.T) {
	var batch []*jsearch.RawPosting
	for i := 0; i < 10; i++ {
		batch = append(batch, rawPosting("Product Manager", "Bangalore", fmt.Sprintf("https://example.com/jobs/%d", i)))
	}

	store := &fakeStore{profiles: []*jobs.Profile{pmProfile()}}
	lister := &fakeLister{results: map[string][]*jsearch.RawPosting{
		taskKey("Product Manager", "Bangalore"): batch,
	}}

	report, err := newTestPipeline(store, lister, nil).Run(context.Background(), Request{Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, report.JobsScraped)
}
