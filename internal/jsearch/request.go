package jsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"go.uber.org/zap"
)

const contentType = "application/json"

// SearchParams describes one search request to the listing source.
type SearchParams struct {
	// qparam is a custom tag for reflect. Please see buildParams below.
	Query           string `qparam:"query"`
	Locality        string `qparam:"locality"`
	Country         string `qparam:"country"`
	EmploymentTypes string `qparam:"employment_types"`
	DatePosted      string `qparam:"date_posted"`
	Page            int    `qparam:"page"`
}

// searchResponse mirrors the top-level JSearch JSON response. Items stay
// loosely typed here; decodePostings turns them into RawPosting values.
type searchResponse struct {
	Status string `json:"status"`
	Data   []any  `json:"data"`
}

// StatusError is returned for any non-2xx response from the listing source.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("listing source returned status %d", e.Code)
}

// IsForbidden reports whether err is a 403 from the listing source. Forbidden
// requests are never retried.
func IsForbidden(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusForbidden
}

// IsRateLimited reports whether err is a 429 from the listing source.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

// getItems makes a single GET request to the listing source and returns the
// raw result items. The shared limiter gates the request so the effective
// outbound rate never exceeds the configured ceiling, whatever the caller's
// concurrency.
func (c *Client) getItems(ctx context.Context, params *SearchParams) ([]any, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+SearchPath, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.URL.RawQuery = buildParams(params).Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	return response.Data, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.Host)
	req.Header.Set("Accept", contentType)

	return req
}

// buildParams turns a SearchParams into query values via the qparam struct
// tag. Zero values are omitted.
func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		key := field.Tag.Get("qparam")
		if key == "" {
			continue
		}

		value := reflect.ValueOf(params).Elem().FieldByIndex(field.Index)
		switch field.Type.Kind() {
		case reflect.Int:
			if v := value.Int(); v != 0 {
				q.Set(key, strconv.FormatInt(v, 10))
			}
		default:
			if v := value.String(); v != "" {
				q.Set(key, v)
			}
		}
	}

	return q
}
