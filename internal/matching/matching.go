// Package matching decides whether a persisted posting is relevant to a
// profile and how relevant it is. The predicate gates match creation; the
// score ranks what survived it.
package matching

import (
	"strings"

	"github.com/careerpilot/jobscout/internal/jobs"
	"github.com/careerpilot/jobscout/internal/roles"
)

// RoleMatch reports whether the posting text satisfies the desired role:
// the role phrase itself, any of its synonyms, or at least half of the
// role's words.
func RoleMatch(title, description, desiredRole string) bool {
	text := strings.ToLower(title + " " + description)
	role := strings.ToLower(desiredRole)

	if strings.Contains(text, role) {
		return true
	}

	for _, synonym := range roles.Synonyms(role) {
		if strings.Contains(text, strings.ToLower(synonym)) {
			return true
		}
	}

	return wordOverlap(text, role)
}

// wordOverlap reports whether at least half of the role's words appear in
// the text. Close enough to count as the role without the exact phrase.
func wordOverlap(text, role string) bool {
	words := strings.Fields(role)
	if len(words) == 0 {
		return false
	}

	matched := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			matched++
		}
	}

	return matched >= (len(words)+1)/2
}

// IsMatch is the match predicate: role match, or skill match combined with
// location match. A constraint the profile does not set is permissive, not
// restrictive.
func IsMatch(posting *jobs.Posting, profile *jobs.Profile) bool {
	if RoleMatch(posting.Title, posting.Description, profile.DesiredRole) {
		return true
	}

	return skillMatch(posting, profile) && locationMatch(posting, profile)
}

func skillMatch(posting *jobs.Posting, profile *jobs.Profile) bool {
	if len(profile.Skills) == 0 {
		return true
	}

	text := strings.ToLower(posting.Title + " " + posting.Description)
	for _, skill := range profile.Skills {
		if strings.Contains(text, strings.ToLower(skill)) {
			return true
		}
	}
	return false
}

func locationMatch(posting *jobs.Posting, profile *jobs.Profile) bool {
	if len(profile.PreferredLocations) == 0 {
		return true
	}

	location := strings.ToLower(posting.Location)
	for _, preferred := range profile.PreferredLocations {
		if strings.Contains(location, strings.ToLower(preferred)) {
			return true
		}
	}
	return false
}
