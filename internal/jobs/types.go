// Package jobs defines the domain types shared across the scraping and
// matching pipeline.
package jobs

import (
	"fmt"
	"strings"
	"time"
)

// MatchStatusPending is the initial status of every created match. Status
// transitions (applied, dismissed) happen outside this pipeline.
const MatchStatusPending = "pending"

// Profile is a user profile as stored in the profiles table. The pipeline
// reads profiles and never mutates them.
type Profile struct {
	UserID             string
	FullName           string
	Email              string
	DesiredRole        string
	Skills             []string
	PreferredLocations []string
	ExperienceLevel    string
}

// HasRole reports whether the profile carries a desired role and therefore
// participates in scraping at all.
func (p *Profile) HasRole() bool {
	return strings.TrimSpace(p.DesiredRole) != ""
}

// SearchTask is one (role term, locality) unit of work sent to the listing
// source. Tasks are ephemeral and never persisted.
type SearchTask struct {
	RoleTerm string
	Locality string
}

func (t SearchTask) String() string {
	return fmt.Sprintf("%s @ %s", t.RoleTerm, t.Locality)
}

// Posting is a deduplicated job posting as persisted in the scraped_jobs
// table. Immutable once written.
type Posting struct {
	ID           string
	Title        string
	Company      string
	Location     string
	Description  string
	SalaryRange  string
	JobURL       string
	Platform     string
	Requirements []string
	Benefits     []string
	ScrapedAt    time.Time
}

// Match links a user to a persisted posting with a relevance score.
type Match struct {
	UserID     string
	JobID      string
	Score      float64
	Status     string
	DatePosted time.Time
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	JobsScraped       int
	ProfilesProcessed int
	MatchesCreated    int
}
