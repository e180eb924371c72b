// Package githubapi talks to the GitHub GraphQL endpoint.
package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/thep200/devfolio-sync/cfg"
	"github.com/thep200/devfolio-sync/pkg/log"
	"golang.org/x/oauth2"
)

var (
	// ErrUnauthorized means the token was rejected; no later batch can succeed.
	ErrUnauthorized = errors.New("github rejected the access token")
	// ErrRateLimited means the API asked us to stop until the reset time.
	ErrRateLimited = errors.New("github rate limit reached")
)

// StatusError is a non-2xx answer that is neither auth nor rate limit.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot received response: %s", e.Status)
}

type Caller struct {
	Logger log.Logger
	Config *cfg.Config
	client *http.Client
}

// NewCaller returns a caller whose requests carry the configured token as a
// Bearer credential.
func NewCaller(logger log.Logger, config *cfg.Config) (*Caller, error) {
	if config.GithubApi.AccessToken == "" {
		return nil, cfg.ErrMissingToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.GithubApi.AccessToken})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = time.Duration(config.GithubApi.TimeoutSec) * time.Second

	return NewCallerWithClient(logger, config, client), nil
}

// NewCallerWithClient uses client as is; authentication is the client's job.
func NewCallerWithClient(logger log.Logger, config *cfg.Config, client *http.Client) *Caller {
	return &Caller{
		Logger: logger,
		Config: config,
		client: client,
	}
}

// HandleRateLimit inspects the rate limit headers of a response.
func (c *Caller) HandleRateLimit(ctx context.Context, resp *http.Response) (bool, error) {
	rateRemaining := resp.Header.Get("X-RateLimit-Remaining")
	limited := resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && rateRemaining == "0")
	if !limited {
		return false, nil
	}

	resetTimeInt, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		waitTime := time.Duration(c.Config.GithubApi.RateLimitResetMin) * time.Minute
		c.Logger.Warn(ctx, "Rate limit hit! Reset time unknown, expect to wait about %v", waitTime)
		return true, fmt.Errorf("%w, wait %v", ErrRateLimited, waitTime)
	}

	resetTime := time.Unix(resetTimeInt, 0)
	c.Logger.Warn(ctx, "Rate limit hit! Wait %v until %v before the next run",
		time.Until(resetTime).Round(time.Second), resetTime.Format(time.RFC3339))
	return true, fmt.Errorf("%w, reset at %v", ErrRateLimited, resetTime.Format(time.RFC3339))
}

// FetchUsers sends q and maps every answered alias back to its login.
// Aliases that come back null are left out of the result.
func (c *Caller) FetchUsers(ctx context.Context, q Query) (*BatchResult, error) {
	body, err := json.Marshal(graphqlRequest{Query: q.Text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.GithubApi.ApiUrl, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot send request: %w", err)
	}
	defer resp.Body.Close()

	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining != "" {
		c.Logger.Debug(ctx, "Rate limit remaining: %s", remaining)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if isRateLimited, rateLimitErr := c.HandleRateLimit(ctx, resp); isRateLimited {
		return nil, rateLimitErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	raw := &RawResponse{}
	if err := json.NewDecoder(resp.Body).Decode(raw); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	result := &BatchResult{
		Users:     make(map[string]*User, len(q.Aliases)),
		Errors:    raw.Errors,
		Remaining: remaining,
	}
	for _, alias := range q.Order {
		user := raw.Data[alias]
		if user == nil {
			continue
		}
		result.Users[q.Aliases[alias]] = user
	}
	for alias := range raw.Data {
		if _, ok := q.Aliases[alias]; !ok {
			c.Logger.Warn(ctx, "Ignoring unexpected field %q in response", alias)
		}
	}

	return result, nil
}
