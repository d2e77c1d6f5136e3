package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/bradykim7/bookscraper/internal/monitoring"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 10 * 1024 * 1024
)

// Fetcher retrieves listing pages over HTTP. It performs exactly one request
// per call; there is no retry and no caching.
type Fetcher struct {
	Client       *http.Client
	Logger       *zap.Logger
	Headers      map[string]string
	MaxBodyBytes int64 // 0 uses the default limit

	metrics *monitoring.Metrics
}

// NewFetcher creates a fetcher with default settings. A nil client gets one
// with the default timeout.
func NewFetcher(client *http.Client, log *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		Client:       client,
		Logger:       log.Named("fetcher"),
		Headers:      getDefaultHeaders(),
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// SetMetrics attaches metrics that are updated on every fetch.
func (f *Fetcher) SetMetrics(m *monitoring.Metrics) {
	f.metrics = m
}

// Fetch retrieves and parses the page at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (page *Page, err error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for key, value := range f.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	defer func() {
		f.metrics.ObserveFetch(time.Since(start), err)
	}()

	resp, err := f.Client.Do(req)
	if err != nil {
		f.Logger.Warn("HTTP request failed", zap.Error(err), zap.String("url", rawURL))
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.Logger.Warn("Non-2xx HTTP status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", rawURL))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, &ParseError{URL: rawURL, Err: fmt.Errorf("%w: %s", ErrNotHTML, contentType)}
	}

	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	// One byte past the limit tells a full body from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		f.Logger.Warn("Failed to read response body", zap.Error(err), zap.String("url", rawURL))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > limit {
		f.Logger.Warn("Response body exceeds limit",
			zap.String("url", rawURL),
			zap.Int64("max_body_bytes", limit))
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit),
		}
	}

	decoded, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, &ParseError{URL: rawURL, Err: fmt.Errorf("failed to decode body: %w", err)}
	}

	// resp.Request is the last request made, so its URL reflects redirects.
	finalURL := resp.Request.URL.String()
	page, err = NewPage(finalURL, decoded)
	if err != nil {
		return nil, err
	}
	page.StatusCode = resp.StatusCode

	f.Logger.Debug("Successfully fetched URL",
		zap.String("url", rawURL),
		zap.String("final_url", finalURL),
		zap.Int("content_length", len(body)))

	return page, nil
}

// parseTarget accepts only absolute http and https URLs.
func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https: %q", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// isHTML reports whether a Content-Type header names an HTML document.
// A missing header is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// getDefaultHeaders returns common headers for HTTP requests
func getDefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
