package animecon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Relative paths of the four program resources under the API endpoint.
const (
	pathActivities    = "activities.json"
	pathActivityTypes = "activity-types.json"
	pathFloors        = "floors.json"
	pathTimeslots     = "timeslots.json"
)

// responseCacheTTL bounds upstream load during repeated polling: a
// response is reused for this long before the same request hits the
// network again.
const responseCacheTTL = 3 * time.Minute

// ErrNotAuthenticated is returned when no bearer token could be obtained.
// The data request is never issued in that case.
var ErrNotAuthenticated = errors.New("animecon: not authenticated, no access token available")

// Config carries the settings required to construct a Client.
type Config struct {
	// APIEndpoint is the base URL the four resource paths are resolved
	// against, without a trailing slash.
	APIEndpoint string
	// Auth holds the credentials for the password-grant token exchange.
	Auth Credentials
}

// Client issues authenticated, schema-validated requests against the
// AnimeCon program API.  Responses are cached in-process for a short
// window; the cache is keyed by the full request URL so distinct filters
// never share an entry.
type Client struct {
	endpoint string
	auth     *AuthClient
	httpc    *http.Client

	mu       sync.Mutex
	cache    map[string]cachedResponse
	cacheTTL time.Duration
}

type cachedResponse struct {
	body    []byte
	expires time.Time
}

// ClientOption customises a Client at construction time.
type ClientOption func(*Client)

// WithHTTPClient injects the HTTP transport used for data requests.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

// WithResponseCacheTTL overrides the response cache window.  A zero or
// negative value disables response caching.
func WithResponseCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.cacheTTL = ttl }
}

// NewClient builds a Client from the given settings.  An empty API
// endpoint or incomplete credentials fail construction; nothing is
// fetched until the first Get call.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.APIEndpoint == "" {
		return nil, errors.New("animecon: missing API endpoint in settings")
	}
	auth, err := NewAuthClient(cfg.Auth)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint: strings.TrimRight(cfg.APIEndpoint, "/"),
		auth:     auth,
		httpc:    http.DefaultClient,
		cache:    make(map[string]cachedResponse),
		cacheTTL: responseCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Token requests share the data transport so tests can stub both
	// with one injected client.
	c.auth.httpc = c.httpc
	return c, nil
}

// Auth exposes the underlying authentication client so callers can force
// a token refresh after a settings change.
func (c *Client) Auth() *AuthClient { return c.auth }

// ActivityFilters narrows the activities.json result set.  Only the
// fields below are understood by the upstream endpoint; nil fields are
// omitted from the query string.
type ActivityFilters struct {
	Visible    *bool  // only (in)visible activities
	Year       *int   // festival year
	Title      *string // partial title match
	FestivalID *int64 // owning festival
}

func (f *ActivityFilters) query() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.Visible != nil {
		q.Set("visible", strconv.FormatBool(*f.Visible))
	}
	if f.Year != nil {
		q.Set("year", strconv.Itoa(*f.Year))
	}
	if f.Title != nil {
		q.Set("title", *f.Title)
	}
	if f.FestivalID != nil {
		q.Set("festivalId", strconv.FormatInt(*f.FestivalID, 10))
	}
	return q
}

// TimeslotFilters narrows the timeslots.json result set by date range or
// by foreign key.  Date bounds are encoded in RFC 3339.
type TimeslotFilters struct {
	StartsAfter  *time.Time
	StartsBefore *time.Time
	EndsAfter    *time.Time
	EndsBefore   *time.Time
	ActivityID   *int64
	LocationID   *int64
}

func (f *TimeslotFilters) query() url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	if f.StartsAfter != nil {
		q.Set("dateStartsAt[after]", f.StartsAfter.Format(time.RFC3339))
	}
	if f.StartsBefore != nil {
		q.Set("dateStartsAt[before]", f.StartsBefore.Format(time.RFC3339))
	}
	if f.EndsAfter != nil {
		q.Set("dateEndsAt[after]", f.EndsAfter.Format(time.RFC3339))
	}
	if f.EndsBefore != nil {
		q.Set("dateEndsAt[before]", f.EndsBefore.Format(time.RFC3339))
	}
	if f.ActivityID != nil {
		q.Set("activityId", strconv.FormatInt(*f.ActivityID, 10))
	}
	if f.LocationID != nil {
		q.Set("locationId", strconv.FormatInt(*f.LocationID, 10))
	}
	return q
}

// GetActivities fetches the activity collection, optionally filtered.
func (c *Client) GetActivities(ctx context.Context, filters *ActivityFilters) ([]Activity, error) {
	body, err := c.get(ctx, pathActivities, filters.query())
	if err != nil {
		return nil, err
	}
	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("animecon: decode %s: %w", pathActivities, err)
	}
	for i := range activities {
		if err := validate.Struct(activities[i]); err != nil {
			return nil, fmt.Errorf("animecon: invalid activity in %s response: %w", pathActivities, err)
		}
	}
	return activities, nil
}

// GetActivityTypes fetches the activity type collection.
func (c *Client) GetActivityTypes(ctx context.Context) ([]ActivityType, error) {
	body, err := c.get(ctx, pathActivityTypes, nil)
	if err != nil {
		return nil, err
	}
	var types []ActivityType
	if err := json.Unmarshal(body, &types); err != nil {
		return nil, fmt.Errorf("animecon: decode %s: %w", pathActivityTypes, err)
	}
	for i := range types {
		if err := validate.Struct(types[i]); err != nil {
			return nil, fmt.Errorf("animecon: invalid activity type in %s response: %w", pathActivityTypes, err)
		}
	}
	return types, nil
}

// GetFloors fetches the floor collection.
func (c *Client) GetFloors(ctx context.Context) ([]Floor, error) {
	body, err := c.get(ctx, pathFloors, nil)
	if err != nil {
		return nil, err
	}
	var floors []Floor
	if err := json.Unmarshal(body, &floors); err != nil {
		return nil, fmt.Errorf("animecon: decode %s: %w", pathFloors, err)
	}
	for i := range floors {
		if err := validate.Struct(floors[i]); err != nil {
			return nil, fmt.Errorf("animecon: invalid floor in %s response: %w", pathFloors, err)
		}
	}
	return floors, nil
}

// GetTimeslots fetches the timeslot collection, optionally filtered.
func (c *Client) GetTimeslots(ctx context.Context, filters *TimeslotFilters) ([]Timeslot, error) {
	body, err := c.get(ctx, pathTimeslots, filters.query())
	if err != nil {
		return nil, err
	}
	var timeslots []Timeslot
	if err := json.Unmarshal(body, &timeslots); err != nil {
		return nil, fmt.Errorf("animecon: decode %s: %w", pathTimeslots, err)
	}
	for i := range timeslots {
		if err := validate.Struct(timeslots[i]); err != nil {
			return nil, fmt.Errorf("animecon: invalid timeslot in %s response: %w", pathTimeslots, err)
		}
	}
	return timeslots, nil
}

// get performs one authenticated GET and returns the raw response body,
// serving it from the response cache when a fresh entry exists.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.endpoint + "/" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		if entry, ok := c.cache[target]; ok && time.Now().Before(entry.expires) {
			body := entry.body
			c.mu.Unlock()
			return body, nil
		}
		c.mu.Unlock()
	}

	tok, err := c.auth.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("animecon: authenticate before %s: %w", path, err)
	}
	if tok == nil {
		return nil, ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("animecon: build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("animecon: %s request failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("animecon: %s request failed: %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("animecon: read %s response: %w", path, err)
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		c.cache[target] = cachedResponse{body: body, expires: time.Now().Add(c.cacheTTL)}
		c.mu.Unlock()
	}
	return body, nil
}
