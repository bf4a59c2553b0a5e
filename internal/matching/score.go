package matching

import (
	"strings"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// Score weights. The title tiers are mutually exclusive; everything else is
// additive on top.
const (
	weightTitleExact    = 0.5
	weightTitleContains = 0.4
	weightRoleMatch     = 0.35

	weightDescMention     = 0.15
	weightSkillsCap       = 0.25
	weightLocation        = 0.1
	weightTrustedPlatform = 0.15
	weightSalaryDisclosed = 0.05

	// MinScore keeps every scored posting visible with at least low
	// confidence; MaxScore is a defensive cap, the natural sum stays near it.
	MinScore = 0.2
	MaxScore = 1.0

	// FallbackScore is assigned to the guaranteed match created when a
	// profile yields no real matches in a run that persisted postings.
	FallbackScore = 0.3
)

// trustedPlatforms get a flat bonus: postings sourced from them apply-link
// out to real employer flows far more often.
var trustedPlatforms = map[string]bool{
	"linkedin": true,
	"naukri":   true,
}

// Score computes the relevance of a posting for a profile. Always within
// [MinScore, MaxScore].
func Score(posting *jobs.Posting, profile *jobs.Profile) float64 {
	score := 0.0

	title := strings.ToLower(posting.Title)
	role := strings.ToLower(profile.DesiredRole)
	description := strings.ToLower(posting.Description)

	// Synonym hits deliberately stay out of the third tier: they gate the
	// match predicate, but a synonym title should not outrank a posting
	// that names the role itself.
	switch {
	case title == role:
		score += weightTitleExact
	case strings.Contains(title, role):
		score += weightTitleContains
	case wordOverlap(title+" "+description, role):
		score += weightRoleMatch
	}

	if strings.Contains(description, role) {
		score += weightDescMention
	}

	if len(profile.Skills) > 0 {
		text := title + " " + description
		matched := 0
		for _, skill := range profile.Skills {
			if strings.Contains(text, strings.ToLower(skill)) {
				matched++
			}
		}
		part := float64(matched) / float64(len(profile.Skills)) * weightSkillsCap
		if part > weightSkillsCap {
			part = weightSkillsCap
		}
		score += part
	}

	if len(profile.PreferredLocations) > 0 && locationMatch(posting, profile) {
		score += weightLocation
	}

	if trustedPlatforms[strings.ToLower(posting.Platform)] {
		score += weightTrustedPlatform
	}

	if posting.SalaryRange != "" {
		score += weightSalaryDisclosed
	}

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
