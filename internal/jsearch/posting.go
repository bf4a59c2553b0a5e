package jsearch

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// RawPosting is a single listing-source result. Field names follow the
// JSearch wire format; Platform is assigned by the client after fetch.
type RawPosting struct {
	Title       string  `json:"job_title"`
	Employer    string  `json:"employer_name"`
	City        string  `json:"job_city"`
	State       string  `json:"job_state"`
	Description string  `json:"job_description"`
	Salary      string  `json:"job_salary"`
	MinSalary   float64 `json:"job_min_salary"`
	MaxSalary   float64 `json:"job_max_salary"`
	ApplyLink   string  `json:"job_apply_link"`
	GoogleLink  string  `json:"job_google_link"`
	PostedAtUTC string  `json:"job_posted_at_datetime_utc"`
	Highlights  struct {
		Qualifications []string `json:"Qualifications"`
		Benefits       []string `json:"Benefits"`
	} `json:"job_highlights"`

	Platform string `json:"-"`
}

// PostedAt parses the source timestamp. When it is absent or unparsable the
// scrape time stands in, which makes a fresh scrape count as posted now.
func (p *RawPosting) PostedAt(scrapedAt time.Time) time.Time {
	if p.PostedAtUTC == "" {
		return scrapedAt
	}
	t, err := time.Parse(time.RFC3339, p.PostedAtUTC)
	if err != nil {
		return scrapedAt
	}
	return t
}

// URL returns the best available apply link for deduplication and storage.
func (p *RawPosting) URL() string {
	if p.ApplyLink != "" {
		return p.ApplyLink
	}
	if p.GoogleLink != "" {
		return p.GoogleLink
	}
	return "#"
}

// LocationText is the combined city/region text the locality filter runs
// against.
func (p *RawPosting) LocationText() string {
	return strings.TrimSpace(p.City + " " + p.State)
}

// DisplayLocation renders "City, State" with the task locality and country
// standing in for missing fields.
func (p *RawPosting) DisplayLocation(fallbackCity, fallbackRegion string) string {
	city := p.City
	if city == "" {
		city = fallbackCity
	}
	region := p.State
	if region == "" {
		region = fallbackRegion
	}
	return city + ", " + region
}

// BestDescription falls back to joined qualifications when the source sends
// no description body.
func (p *RawPosting) BestDescription() string {
	if p.Description != "" {
		return p.Description
	}
	if len(p.Highlights.Qualifications) > 0 {
		return strings.Join(p.Highlights.Qualifications, ". ")
	}
	return "No description available"
}

// SalaryRange returns the disclosed salary text, formatting numeric bounds
// when the source gives no preformatted string. Empty when nothing is
// disclosed.
func (p *RawPosting) SalaryRange() string {
	if p.Salary != "" {
		return p.Salary
	}
	if p.MinSalary > 0 {
		return fmt.Sprintf("₹%.0f - ₹%.0f", p.MinSalary, p.MaxSalary)
	}
	return ""
}

// decodePostings converts loosely typed result items into RawPosting values.
func decodePostings(items []any) ([]*RawPosting, error) {
	var postings []*RawPosting

	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &postings,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decoding listing results: %w", err)
	}

	return postings, nil
}
