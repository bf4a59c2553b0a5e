// Package pipeline drives a full scrape-and-match run: resolve target
// profiles, fan search tasks out to the listing source, filter and
// deduplicate candidates, persist postings, and create scored matches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/careerpilot/jobscout/internal/filtering"
	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/jsearch"
	"github.com/careerpilot/jobscout/internal/matching"
	"github.com/careerpilot/jobscout/internal/roles"
	"github.com/careerpilot/jobscout/internal/utils"
)

// ErrNoProfiles is returned when a run has nobody to work for.
var ErrNoProfiles = errors.New("no profiles with a desired role")

// Lister fetches raw candidate postings for one (query, locality) task. The
// implementation owns retry, backoff and rate limiting; an error here means
// the task is exhausted, never that the run should stop.
type Lister interface {
	Fetch(ctx context.Context, query, locality string, max int) ([]*jsearch.RawPosting, error)
}

// Store is the persistence surface the pipeline writes to. Profiles are
// read-only; postings and matches are insert-only.
type Store interface {
	ListProfiles(ctx context.Context) ([]*jobs.Profile, error)
	GetProfile(ctx context.Context, userID string) (*jobs.Profile, error)
	InsertPostings(ctx context.Context, postings []*jobs.Posting) ([]*jobs.Posting, error)
	InsertMatches(ctx context.Context, matches []*jobs.Match) error
}

// SeenCache remembers job URLs across runs so repeat postings are skipped
// before they ever reach the store. Optional; a nil cache disables it and
// the store's unique constraint remains the backstop.
type SeenCache interface {
	Seen(ctx context.Context, urls []string) (map[string]bool, error)
	Mark(ctx context.Context, urls []string) error
}

// Request is the invocation contract for one run.
type Request struct {
	// ProfileID narrows the run to a single profile. Empty means every
	// profile with a desired role.
	ProfileID string
	// RecentOnly narrows per-task result counts and stops scheduling new
	// tasks once Limit candidates are gathered.
	RecentOnly bool
	// Limit caps the postings persisted by this run. Zero means the
	// configured default.
	Limit int
}

// Options tunes a pipeline. Zero values fall back to production defaults.
type Options struct {
	// Concurrency caps in-flight listing-source tasks. The client's shared
	// limiter keeps the outbound request rate bounded regardless.
	Concurrency int
	// DefaultLimit is the overall posting cap when the request sets none.
	DefaultLimit int
	// PerTaskResults and RecentPerTaskResults bound one task's fetch.
	PerTaskResults       int
	RecentPerTaskResults int
	// FallbackRegion stands in when the source omits a posting's region.
	FallbackRegion string
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 2
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 50
	}
	if o.PerTaskResults <= 0 {
		o.PerTaskResults = 10
	}
	if o.RecentPerTaskResults <= 0 {
		o.RecentPerTaskResults = 5
	}
	if o.FallbackRegion == "" {
		o.FallbackRegion = "India"
	}
	return o
}

// Report is the inspectable outcome of one run.
type Report struct {
	RunID string
	jobs.RunResult
	Outcomes []ProfileOutcome
}

// ProfileOutcome records what one profile got out of a run.
type ProfileOutcome struct {
	UserID   string
	Matches  int
	Fallback bool
	Err      error
}

type Pipeline struct {
	store  Store
	lister Lister
	seen   SeenCache
	logger *zap.Logger
	opts   Options

	now     func() time.Time
	filters func(*jobs.Profile) []filtering.Filter
}

func New(store Store, lister Lister, seen SeenCache, logger *zap.Logger, opts Options) *Pipeline {
	return &Pipeline{
		store:   store,
		lister:  lister,
		seen:    seen,
		logger:  logger,
		opts:    opts.withDefaults(),
		now:     time.Now,
		filters: filtering.ForProfile,
	}
}

// Run executes one full pipeline run. Fetch-side failures are absorbed per
// task; only profile resolution and posting persistence can fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	limit := req.Limit
	if limit <= 0 {
		limit = p.opts.DefaultLimit
	}

	profiles, err := p.resolveProfiles(ctx, req.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("resolving profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}

	log.Info("starting run",
		zap.Int("profiles", len(profiles)),
		zap.Bool("recent_only", req.RecentOnly),
		zap.Int("limit", limit),
	)

	collected := p.fetchAndFilter(ctx, log, profiles, req, limit)

	unique := Dedupe(collected, limit)
	log.Info("merged candidates",
		zap.Int("collected", len(collected)),
		zap.Int("unique", len(unique)),
	)

	unique = p.dropSeen(ctx, log, unique)

	inserted, err := p.store.InsertPostings(ctx, unique)
	if err != nil {
		// Matching needs stable posting ids, so this is fatal for the run.
		return nil, fmt.Errorf("persisting postings: %w", err)
	}
	p.markSeen(ctx, log, inserted)

	outcomes, matchesCreated := p.scoreAndPersist(ctx, log, profiles, inserted)

	report := &Report{
		RunID: runID,
		RunResult: jobs.RunResult{
			JobsScraped:       len(inserted),
			ProfilesProcessed: len(profiles),
			MatchesCreated:    matchesCreated,
		},
		Outcomes: outcomes,
	}

	log.Info("run complete",
		zap.Int("jobs_scraped", report.JobsScraped),
		zap.Int("profiles_processed", report.ProfilesProcessed),
		zap.Int("matches_created", report.MatchesCreated),
	)

	return report, nil
}

func (p *Pipeline) resolveProfiles(ctx context.Context, profileID string) ([]*jobs.Profile, error) {
	if profileID != "" {
		profile, err := p.store.GetProfile(ctx, profileID)
		if err != nil {
			return nil, err
		}
		if profile == nil || !profile.HasRole() {
			return nil, nil
		}
		return []*jobs.Profile{profile}, nil
	}

	all, err := p.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	withRole := make([]*jobs.Profile, 0, len(all))
	for _, profile := range all {
		if profile.HasRole() {
			withRole = append(withRole, profile)
		}
	}
	return withRole, nil
}

// fetchAndFilter runs every task under bounded concurrency and returns the
// merged, filtered, store-shaped candidates. Task failures are logged and
// absorbed.
func (p *Pipeline) fetchAndFilter(ctx context.Context, log *zap.Logger, profiles []*jobs.Profile, req Request, limit int) []*jobs.Posting {
	tasks := p.buildTasks(log, profiles)

	perTask := p.opts.PerTaskResults
	if req.RecentOnly {
		perTask = p.opts.RecentPerTaskResults
	}

	var (
		mu        sync.Mutex
		collected []*jobs.Posting
	)

	gathered := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(collected)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for _, tr := range tasks {
		if gctx.Err() != nil {
			break
		}
		if req.RecentOnly && gathered() >= limit {
			log.Debug("limit gathered, skipping remaining tasks",
				zap.Int("limit", limit),
			)
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			batch, err := p.lister.Fetch(gctx, tr.task.RoleTerm, tr.task.Locality, perTask)
			if err != nil {
				log.Warn("task exhausted, continuing",
					zap.String("task", tr.task.String()),
					zap.Error(err),
				)
				return nil
			}

			kept := filtering.Run(log, tr.task, batch, p.filters(tr.profile))
			if len(kept) == 0 {
				return nil
			}

			scrapedAt := p.now().UTC()
			postings := make([]*jobs.Posting, 0, len(kept))
			for _, raw := range kept {
				postings = append(postings, p.toPosting(raw, tr.task, scrapedAt))
			}

			mu.Lock()
			collected = append(collected, postings...)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only reaps them.
	_ = g.Wait()

	return collected
}

func (p *Pipeline) dropSeen(ctx context.Context, log *zap.Logger, postings []*jobs.Posting) []*jobs.Posting {
	if p.seen == nil || len(postings) == 0 {
		return postings
	}

	urls := make([]string, 0, len(postings))
	for _, posting := range postings {
		urls = append(urls, posting.JobURL)
	}

	seen, err := p.seen.Seen(ctx, urls)
	if err != nil {
		log.Warn("seen cache unavailable, relying on store conflict handling", zap.Error(err))
		return postings
	}

	fresh := make([]*jobs.Posting, 0, len(postings))
	for _, posting := range postings {
		if !seen[posting.JobURL] {
			fresh = append(fresh, posting)
		}
	}

	if dropped := len(postings) - len(fresh); dropped > 0 {
		log.Info("skipping postings seen in previous runs", zap.Int("count", dropped))
	}

	return fresh
}

func (p *Pipeline) markSeen(ctx context.Context, log *zap.Logger, inserted []*jobs.Posting) {
	if p.seen == nil || len(inserted) == 0 {
		return
	}

	urls := make([]string, 0, len(inserted))
	for _, posting := range inserted {
		urls = append(urls, posting.JobURL)
	}

	if err := p.seen.Mark(ctx, urls); err != nil {
		log.Warn("marking seen urls failed", zap.Error(err))
	}
}

// scoreAndPersist creates match records per profile. A profile with scrape
// activity but no real match gets exactly one fallback match so it never
// sees an empty result. Per-profile persistence failures are isolated.
func (p *Pipeline) scoreAndPersist(ctx context.Context, log *zap.Logger, profiles []*jobs.Profile, inserted []*jobs.Posting) ([]ProfileOutcome, int) {
	outcomes := make([]ProfileOutcome, 0, len(profiles))
	total := 0

	for _, profile := range profiles {
		var matches []*jobs.Match
		for _, posting := range inserted {
			if !matching.IsMatch(posting, profile) {
				continue
			}
			score := matching.Score(posting, profile)
			log.Debug("posting matched profile",
				zap.String("user_id", profile.UserID),
				zap.String("title", posting.Title),
				zap.String("description", utils.TruncateForLog(posting.Description, 120)),
				zap.Float64("score", score),
			)
			matches = append(matches, &jobs.Match{
				UserID:     profile.UserID,
				JobID:      posting.ID,
				Score:      score,
				Status:     jobs.MatchStatusPending,
				DatePosted: posting.ScrapedAt,
			})
		}

		fallback := false
		if len(matches) == 0 && len(inserted) > 0 {
			fallback = true
			first := inserted[0]
			matches = append(matches, &jobs.Match{
				UserID:     profile.UserID,
				JobID:      first.ID,
				Score:      matching.FallbackScore,
				Status:     jobs.MatchStatusPending,
				DatePosted: first.ScrapedAt,
			})
		}

		if len(matches) == 0 {
			outcomes = append(outcomes, ProfileOutcome{UserID: profile.UserID})
			continue
		}

		if err := p.store.InsertMatches(ctx, matches); err != nil {
			log.Warn("persisting matches failed for profile, continuing",
				zap.String("user_id", profile.UserID),
				zap.Error(err),
			)
			outcomes = append(outcomes, ProfileOutcome{UserID: profile.UserID, Err: err})
			continue
		}

		total += len(matches)
		outcomes = append(outcomes, ProfileOutcome{
			UserID:   profile.UserID,
			Matches:  len(matches),
			Fallback: fallback,
		})

		log.Info("created matches for profile",
			zap.String("user_id", profile.UserID),
			zap.Int("count", len(matches)),
			zap.Bool("fallback", fallback),
		)
	}

	return outcomes, total
}

type taskRun struct {
	profile *jobs.Profile
	task    jobs.SearchTask
}

// buildTasks expands every profile into its (role term × locality) task
// list. Profiles without preferred locations yield nothing; that is a skip,
// not an error.
func (p *Pipeline) buildTasks(log *zap.Logger, profiles []*jobs.Profile) []taskRun {
	var tasks []taskRun
	for _, profile := range profiles {
		if len(profile.PreferredLocations) == 0 {
			log.Info("profile has no preferred locations, skipping",
				zap.String("user_id", profile.UserID),
			)
			continue
		}

		for _, role := range roles.Expand(profile.DesiredRole) {
			for _, locality := range profile.PreferredLocations {
				tasks = append(tasks, taskRun{
					profile: profile,
					task:    jobs.SearchTask{RoleTerm: role, Locality: locality},
				})
			}
		}
	}
	return tasks
}

func (p *Pipeline) toPosting(raw *jsearch.RawPosting, task jobs.SearchTask, scrapedAt time.Time) *jobs.Posting {
	title := raw.Title
	if title == "" {
		title = "Unknown Title"
	}
	company := raw.Employer
	if company == "" {
		company = "Unknown Company"
	}

	return &jobs.Posting{
		Title:        title,
		Company:      company,
		Location:     raw.DisplayLocation(task.Locality, p.opts.FallbackRegion),
		Description:  raw.BestDescription(),
		SalaryRange:  raw.SalaryRange(),
		JobURL:       raw.URL(),
		Platform:     raw.Platform,
		Requirements: raw.Highlights.Qualifications,
		Benefits:     raw.Highlights.Benefits,
		ScrapedAt:    scrapedAt,
	}
}
