package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/riftwatch/riftwatch/errors"
)

// Client is the external API surface the jobs consume. Jobs receive a Client
// at construction time and never build their own connections.
type Client interface {
	// SummonerByPUUID fetches a summoner. Returns errors.ErrNotFound on 404.
	SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error)

	// MatchIDsByPUUID returns up to count recent match IDs for a player.
	MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error)

	// MatchByID fetches one match.
	MatchByID(ctx context.Context, matchID string) (*Match, error)
}

// maxRetriesPerRequest bounds the in-client retry policy for 429/5xx responses.
const maxRetriesPerRequest = 2

// ClientConfig configures the HTTP client
type ClientConfig struct {
	BaseURL               string
	APIKey                string
	RequestsPerSecond     int
	RequestsPerTwoMinutes int
	Timeout               time.Duration
}

// HTTPClient implements Client against the real Riot API with dual rate
// limiting: a token bucket for the per-second limit and a sliding window for
// the two-minute quota. Both gates are passed before any request is sent.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	perSecond  *rate.Limiter
	window     *WindowLimiter
	logger     *zap.SugaredLogger
}

// NewHTTPClient creates a rate-limited Riot API client
func NewHTTPClient(cfg ClientConfig, logger *zap.SugaredLogger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		perSecond:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		window:     NewWindowLimiter(cfg.RequestsPerTwoMinutes, 2*time.Minute),
		logger:     logger.Named("riot"),
	}
}

// SummonerByPUUID implements Client
func (c *HTTPClient) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	var summoner Summoner
	path := fmt.Sprintf("/lol/summoner/v4/summoners/by-puuid/%s", puuid)
	if err := c.get(ctx, path, &summoner); err != nil {
		return nil, err
	}
	return &summoner, nil
}

// MatchIDsByPUUID implements Client
func (c *HTTPClient) MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error) {
	var ids []string
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?count=%d", puuid, count)
	if err := c.get(ctx, path, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MatchByID implements Client
func (c *HTTPClient) MatchByID(ctx context.Context, matchID string) (*Match, error) {
	var match Match
	path := fmt.Sprintf("/lol/match/v5/matches/%s", matchID)
	if err := c.get(ctx, path, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// get performs one rate-limited GET with bounded retry on 429 and 5xx.
func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		if err := c.perSecond.Wait(ctx); err != nil {
			return errors.Wrap(err, "waiting on per-second limit")
		}
		if err := c.window.Wait(ctx); err != nil {
			return errors.Wrap(err, "waiting on window limit")
		}

		retryAfter, err := c.doOnce(ctx, path, out)
		if err == nil {
			return nil
		}
		if !errors.IsRetryable(err) || attempt >= maxRetriesPerRequest {
			return err
		}

		c.logger.Warnw("Retrying Riot API request",
			"path", path,
			"attempt", attempt+1,
			"retry_after", retryAfter,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}

// doOnce performs a single request. On retryable failures it returns the
// backoff duration to honor before the next attempt.
func (c *HTTPClient) doOnce(ctx context.Context, path string, out interface{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Second, errors.Wrapf(errors.ErrServiceUnavailable, "riot api: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, errors.Wrap(err, "failed to decode riot response")
		}
		return 0, nil

	case resp.StatusCode == http.StatusNotFound:
		return 0, errors.NewNotFoundError("riot api: %s", path)

	case resp.StatusCode == http.StatusTooManyRequests:
		return parseRetryAfter(resp), errors.Wrapf(errors.ErrRateLimited, "riot api: 429 on %s", path)

	case resp.StatusCode >= 500:
		return time.Second, errors.Wrapf(errors.ErrServiceUnavailable, "riot api: %d on %s", resp.StatusCode, path)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, errors.Newf("riot api: unexpected status %d on %s: %s", resp.StatusCode, path, body)
	}
}

// parseRetryAfter reads the Retry-After header, defaulting to one second.
func parseRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Second
}
