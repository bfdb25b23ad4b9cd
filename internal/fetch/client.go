package fetch

import (
	"context"
	"strconv"
	"sync"
	"time"

	"league-auditor/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// transport is the slice of fasthttp.Client the retry loop needs; tests
// substitute a stub.
type transport interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

type Config struct {
	Timeout    time.Duration // per attempt
	MaxRetries int           // attempts = 1 + MaxRetries
	RetryDelay time.Duration // fixed, applied only between attempts
	RateLimit  rate.Limit    // 0 disables client-side pacing
	RateBurst  int
}

type RateLimitInfo struct {
	Bucket    string `json:"bucket"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Client issues GET requests with bounded retries and typed outcome
// classification. 404 and 403 come back as an explicit absent result
// (nil body, nil error); everything else either succeeds or returns *Error.
type Client struct {
	transport transport
	limiter   *rate.Limiter
	cfg       Config
	logger    zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

func New(cfg Config, logger zerolog.Logger) *Client {
	return newWithTransport(&fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         cfg.Timeout,
		WriteTimeout:        cfg.Timeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}, cfg, logger)
}

func newWithTransport(t transport, cfg Config, logger zerolog.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return &Client{
		transport: t,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
	}
}

func (c *Client) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

// retry loop states
type state int

const (
	stateAttempting state = iota
	stateWaiting
	stateSucceeded
	stateFailed
)

// Get fetches url with the given headers. A (nil, nil) return means the
// resource is absent upstream (404, or 403 which is soft-logged); callers
// must treat that differently from a failure.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var (
		body    []byte
		lastErr *Error
		attempt int
	)

	st := stateAttempting
	for {
		switch st {
		case stateAttempting:
			attempt++
			var retryable bool
			body, lastErr, retryable = c.attempt(ctx, url, headers)
			switch {
			case lastErr == nil:
				st = stateSucceeded
			case retryable && attempt <= c.cfg.MaxRetries:
				c.logger.Debug().
					Str("url", url).
					Int("attempt", attempt).
					Int("status", lastErr.Status).
					Msg("retrying fetch")
				st = stateWaiting
			default:
				st = stateFailed
			}

		case stateWaiting:
			select {
			case <-ctx.Done():
				lastErr = &Error{Kind: KindUnavailable, Err: ctx.Err()}
				st = stateFailed
			case <-time.After(c.cfg.RetryDelay):
				st = stateAttempting
			}

		case stateSucceeded:
			return body, nil

		case stateFailed:
			lastErr.Attempts = attempt
			return nil, lastErr
		}
	}
}

// attempt performs one request and classifies the outcome. The bool reports
// whether the failure is retryable.
func (c *Client) attempt(ctx context.Context, url string, headers map[string]string) ([]byte, *Error, bool) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindUnavailable, Err: err}, false
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.transport.DoDeadline(req, resp, deadline); err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: err}, true
	}

	c.updateRateLimit(resp)

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusOK:
		// copy before release; non-nil even when empty so callers can
		// still tell success apart from absent
		body := make([]byte, len(resp.Body()))
		copy(body, resp.Body())
		return body, nil, false

	case status == fasthttp.StatusNotFound:
		c.logger.Debug().Str("url", url).Msg("resource absent upstream")
		return nil, nil, false

	case status == fasthttp.StatusForbidden:
		// expired or invalid credentials; retrying cannot change that
		c.logger.Warn().Str("url", url).Msg("remote rejected credentials, treating resource as absent")
		return nil, nil, false

	case status == fasthttp.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, Status: status}, true

	case status >= 500:
		return nil, &Error{Kind: KindUnavailable, Status: status}, true

	default:
		return nil, &Error{
			Kind:   KindBadRequest,
			Status: status,
			Body:   truncate(string(resp.Body()), constants.ErrorBodyLimit),
		}, false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if bucket := string(resp.Header.Peek("X-Ratelimit-Bucket")); bucket != "" {
		c.rateLimit.Bucket = bucket
	}
	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}
