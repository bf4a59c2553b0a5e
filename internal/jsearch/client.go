// Package jsearch wraps the JSearch job-listing API (RapidAPI). It owns the
// retry, backoff and rate-limit discipline for a single search task so the
// pipeline above it never has to care about transport failures.
package jsearch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL     = "https://jsearch.p.rapidapi.com"
	apiHost    = "jsearch.p.rapidapi.com"
	SearchPath = "/search"

	httpTimeout = 15 * time.Second

	// PlatformLinkedIn and PlatformNaukri label which query variant produced
	// a posting.
	PlatformLinkedIn = "linkedin"
	PlatformNaukri   = "naukri"
)

// siteSuffixes narrows a query variant to a specific job board. Platforms
// without an entry are queried as-is.
var siteSuffixes = map[string]string{
	PlatformNaukri: "site:naukri.com",
}

type Client struct {
	apiKey string
	logger *zap.Logger

	HTTPClient *http.Client
	APIURL     string
	Host       string
	Country    string
	DatePosted string
	Platforms  []string
	Retry      *RetryPolicy
	Limiter    *rate.Limiter
}

// New constructs a client with production defaults: both query variants,
// jobs posted today only, one outbound request per second.
func New(apiKey string, logger *zap.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: httpTimeout,
		},
		APIURL:     apiURL,
		Host:       apiHost,
		Country:    "IN",
		DatePosted: "today",
		Platforms:  []string{PlatformLinkedIn, PlatformNaukri},
		Retry:      DefaultRetryPolicy(),
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Fetch retrieves candidate postings for a (query, locality) task, up to max
// results split across the configured platform variants.
//
// A forbidden response abandons the whole task immediately: the key is
// blocked, so further variants would only burn quota. Exhausted retries
// surface as an error the caller is expected to absorb.
func (c *Client) Fetch(ctx context.Context, query, locality string, max int) ([]*RawPosting, error) {
	if c.apiKey == "" {
		c.logger.Warn("listing source api key not set, skipping fetch",
			zap.String("query", query),
			zap.String("locality", locality),
		)
		return nil, nil
	}

	perVariant := max
	if len(c.Platforms) > 1 {
		perVariant = (max + len(c.Platforms) - 1) / len(c.Platforms)
	}

	var out []*RawPosting
	for _, platform := range c.Platforms {
		variantQuery := query
		if suffix := siteSuffixes[platform]; suffix != "" {
			variantQuery = query + " " + suffix
		}

		batch, err := c.fetchVariant(ctx, variantQuery, locality, perVariant)
		if err != nil {
			if IsForbidden(err) {
				c.logger.Warn("listing source forbids this query, abandoning task",
					zap.String("query", query),
					zap.String("locality", locality),
				)
				return out, nil
			}
			return out, err
		}

		for _, p := range batch {
			p.Platform = platform
		}
		out = append(out, batch...)
	}

	return out, nil
}

func (c *Client) fetchVariant(ctx context.Context, query, locality string, max int) ([]*RawPosting, error) {
	params := &SearchParams{
		Query:           query,
		Locality:        locality,
		Country:         c.Country,
		EmploymentTypes: "FULLTIME",
		DatePosted:      c.DatePosted,
	}

	var items []any
	err := c.Retry.Do(ctx, func() error {
		var err error
		items, err = c.getItems(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	postings, err := decodePostings(items)
	if err != nil {
		return nil, err
	}

	if len(postings) > max {
		postings = postings[:max]
	}

	c.logger.Debug("fetched postings from listing source",
		zap.String("query", query),
		zap.String("locality", locality),
		zap.Int("count", len(postings)),
	)

	return postings, nil
}
