package tumblr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ctxio "github.com/jbenet/go-context/io"
	"tumbledee/pkg/errors"
	"tumbledee/pkg/jsontree"
	"tumbledee/pkg/logger"
	"tumbledee/pkg/ratelimit"
)

// Options configures a Client. Zero values fall back to the package defaults.
type Options struct {
	BaseURL       string
	DefaultDomain string
	Timeout       time.Duration
	Limiter       ratelimit.Limiter
	HTTPClient    *http.Client
}

// Client talks to the Tumblr v2 API and fetches images from its CDN
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	domain     string
	apiKey     string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client authenticating with apiKey
func NewClient(apiKey string, opts Options, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.DefaultDomain == "" {
		opts.DefaultDomain = DefaultDomain
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent": "tumbledee/1.0",
			"Accept":     "*/*",
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		domain:  opts.DefaultDomain,
		apiKey:  apiKey,
		limiter: opts.Limiter,
		logger:  log,
	}
}

// Blog returns the normalized blog identifier for name
func (c *Client) Blog(name string) string {
	return NormalizeBlogName(name, c.domain)
}

// FetchPage requests one page of a blog's posts or likes and returns the parsed response.
// A non-200 answer yields a remote error carrying the status code and reason phrase.
func (c *Client) FetchPage(ctx context.Context, t Target, p PageRequest) (*jsontree.Value, error) {
	blog := c.Blog(t.Blog)
	pageURL := PageURL(c.baseURL, blog, t.Endpoint(), c.apiKey, p)
	safeURL := redact(pageURL)

	log := c.logger.WithFields(map[string]interface{}{
		"blog":   blog,
		"offset": p.Offset,
		"limit":  p.Limit,
	})
	log.Debug("fetching page")

	resp, err := c.get(ctx, pageURL, safeURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason := reasonPhrase(resp)
		log.WarnWithFields("API request rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"reason": reason,
		})
		return nil, errors.NewRemoteError(safeURL, resp.StatusCode, reason)
	}

	body, err := c.readBody(ctx, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewAborted(ctx.Err())
		}
		return nil, errors.NewNetworkError(safeURL, fmt.Errorf("failed to read response body: %w", err))
	}

	tree, err := jsontree.Parse(body)
	if err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, errors.NewParseError("API returned malformed JSON", err)
	}

	return tree, nil
}

// Download fetches rawURL with a single GET and returns the body on status 200.
// Every other outcome is a download error.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL, rawURL)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeAborted) {
			return nil, err
		}
		return nil, errors.NewDownloadError(rawURL, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewDownloadError(rawURL, resp.StatusCode, reasonPhrase(resp), nil)
	}

	data, err := c.readBody(ctx, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewAborted(ctx.Err())
		}
		return nil, errors.NewDownloadError(rawURL, resp.StatusCode, "failed to read body", err)
	}
	return data, nil
}

// get waits for the limiter and performs a GET with the configured headers.
// logURL is what appears in logs and errors.
func (c *Client) get(ctx context.Context, rawURL, logURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewAborted(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewNetworkError(logURL, fmt.Errorf("failed to create request: %w", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewAborted(ctx.Err())
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      logURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.NewNetworkError(logURL, err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      logURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return resp, nil
}

func (c *Client) readBody(ctx context.Context, body io.Reader) ([]byte, error) {
	return io.ReadAll(ctxio.NewReader(ctx, body))
}

// reasonPhrase extracts "Not Found" from a status line like "404 Not Found"
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// redact hides the api_key query parameter
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
