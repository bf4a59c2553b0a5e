// Package roles holds the canonical role synonym table used to widen a
// desired role into the set of search terms worth querying the listing
// source for.
package roles

import "strings"

// synonyms maps a lowercased canonical role to its accepted alternates.
// Initialized once, never written at runtime.
var synonyms = map[string][]string{
	"product manager":    {"product owner", "pm", "product lead", "business analyst"},
	"software engineer":  {"developer", "programmer", "software developer", "engineer"},
	"frontend developer": {"ui developer", "react developer", "angular developer"},
	"backend developer":  {"api developer", "node developer", "server-side engineer"},
	"data scientist":     {"data analyst", "ml engineer", "ai engineer"},
	"devops engineer":    {"sre", "cloud engineer", "platform engineer"},
	"ui/ux designer":     {"designer", "product designer"},
	"business analyst":   {"functional analyst", "systems analyst"},
}

// Expand returns the role followed by its synonyms. Unknown roles expand to
// themselves only. The input role keeps its original casing; it is only
// lowercased for the table lookup.
func Expand(role string) []string {
	out := []string{role}
	out = append(out, synonyms[strings.ToLower(strings.TrimSpace(role))]...)
	return out
}

// Synonyms returns the alternates for a role without the role itself, or nil
// when the role has no entry.
func Synonyms(role string) []string {
	return synonyms[strings.ToLower(strings.TrimSpace(role))]
}
