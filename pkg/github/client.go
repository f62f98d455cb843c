package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ghscraper/pkg/config"
	errs "ghscraper/pkg/errors"
	"ghscraper/pkg/logger"
	"ghscraper/pkg/ratelimit"
	"ghscraper/pkg/retry"

	"golang.org/x/oauth2"
)

// Client is a small GitHub REST API client. Every request waits on the
// rate limiter and goes through the retry policy.
type Client struct {
	httpClient    *http.Client
	headers       map[string]string
	baseURL       string
	limiter       ratelimit.Limiter
	retryCfg      *retry.Config
	acceptedDelay time.Duration
	resetPadding  time.Duration
	now           func() time.Time
	logger        logger.Logger

	mu        sync.Mutex
	rateLimit RateLimitStatus
}

// NewClient creates a GitHub client from the configuration. When a token is
// configured requests are authenticated through an oauth2 static token source.
func NewClient(cfg *config.Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.Requests, cfg.RateLimit.Period)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	if cfg.GitHub.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.GitHub.Token,
			TokenType:   "token",
		})
		httpClient = oauth2.NewClient(context.Background(), src)
	}
	httpClient.Timeout = cfg.GitHub.Timeout

	baseURL := cfg.GitHub.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.GitHub.UserAgent
	if userAgent == "" {
		userAgent = "ghscraper"
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"Accept":               "application/vnd.github.v3+json",
			"User-Agent":           userAgent,
			"X-GitHub-Api-Version": "2022-11-28",
		},
		baseURL: baseURL,
		limiter: limiter,
		retryCfg: &retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:  cfg.Retry.InitialDelay,
				Multiplier: cfg.Retry.Multiplier,
			},
			RetryIf: retry.DefaultRetryIf,
			Logger:  log,
		},
		acceptedDelay: cfg.Retry.AcceptedDelay,
		resetPadding:  time.Second,
		now:           time.Now,
		logger:        log,
	}, nil
}

// RateLimit returns the most recent rate limit state seen in a response
func (c *Client) RateLimit() RateLimitStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimit
}

// SearchUsers fetches one page of users matching query
func (c *Client) SearchUsers(ctx context.Context, query string, page, perPage int) (*SearchUsersResponse, error) {
	resp, err := getJSON[SearchUsersResponse](ctx, c, SearchUsersURL(c.baseURL, query, page, perPage))
	if err != nil {
		return nil, fmt.Errorf("search users page %d: %w", page, err)
	}
	return &resp, nil
}

// GetUser fetches a user's profile
func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	user, err := getJSON[User](ctx, c, UserURL(c.baseURL, login))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", login, err)
	}
	return &user, nil
}

// GetAuthenticatedUser fetches the profile of the token's owner
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*User, error) {
	user, err := getJSON[User](ctx, c, AuthenticatedUserURL(c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("get authenticated user: %w", err)
	}
	return &user, nil
}

// ListUserRepos fetches one page of a user's repositories
func (c *Client) ListUserRepos(ctx context.Context, login string, page, perPage int) ([]Repository, error) {
	repos, err := getJSON[[]Repository](ctx, c, UserReposURL(c.baseURL, login, page, perPage))
	if err != nil {
		return nil, fmt.Errorf("list repos of %s page %d: %w", login, page, err)
	}
	return repos, nil
}

// getJSON fetches url into a new T, retrying per the client's policy. A
// request takes one limiter slot however many attempts it needs.
func getJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return retry.DoWithResult[T](ctx, func() (T, error) {
		var v T
		err := c.getJSONOnce(ctx, url, &v)
		return v, err
	}, c.retryCfg)
}

func (c *Client) getJSONOnce(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	c.recordRateLimit(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}
	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, time.Since(start))

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return nil
}

// checkResponseStatus maps an HTTP status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil

	case code == http.StatusAccepted:
		c.logger.WarnWithFields("request accepted but not ready, retrying", map[string]interface{}{
			"url":   resp.Request.URL.String(),
			"delay": c.acceptedDelay,
		})
		return &errs.Error{
			Type:       errs.ErrorTypeAccepted,
			Message:    "request accepted, result not ready",
			Code:       code,
			RetryAfter: c.acceptedDelay,
		}

	case code == http.StatusForbidden && isRateLimitBody(body), code == http.StatusTooManyRequests:
		wait := c.rateLimitWait(resp.Header)
		reset := c.RateLimit().Reset
		logger.LogRateLimit(c.logger, resp.Request.URL.Path, wait, reset)
		return &errs.Error{
			Type:       errs.ErrorTypeRateLimit,
			Message:    "rate limit exceeded",
			Code:       code,
			RetryAfter: wait,
		}

	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: apiMessage(body, "access denied"),
			Code:    code,
		}

	case code == http.StatusNotFound:
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    code,
		}

	case code >= 500:
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    code,
		}

	case code >= 300:
		return &errs.Error{
			Type:    errs.TypeForStatus(code),
			Message: apiMessage(body, fmt.Sprintf("unexpected status code: %d", code)),
			Code:    code,
		}
	}
	return nil
}

func isRateLimitBody(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), "rate limit exceeded")
}

// apiMessage extracts the "message" field GitHub puts in error bodies
func apiMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}

// recordRateLimit stores the X-RateLimit-* headers of a response
func (c *Client) recordRateLimit(h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil {
		c.rateLimit.Limit = v
	}
	if v, err := strconv.Atoi(h.Get("X-RateLimit-Remaining")); err == nil {
		c.rateLimit.Remaining = v
	}
	if v, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		c.rateLimit.Reset = time.Unix(v, 0)
	}
}

// rateLimitWait is how long to sleep after being throttled: until the
// reported reset (or Retry-After), plus a little padding
func (c *Client) rateLimitWait(h http.Header) time.Duration {
	var wait time.Duration
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil {
		wait = time.Duration(secs) * time.Second
	} else if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		wait = time.Unix(reset, 0).Sub(c.now())
	}
	if wait < 0 {
		wait = 0
	}
	return wait + c.resetPadding
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *errs.Error
	return errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeNotFound
}
