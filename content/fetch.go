package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/xgi/houdoku-sub000/model"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"

// Fetcher is the shared HTTP layer for all plugins: one resty client
// with retry on throttling, plus a per-host minimum request interval so
// chapter-list walks don't hammer a site.
type Fetcher struct {
	client      *resty.Client
	minInterval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewFetcher builds a fetcher with the given per-host pacing interval.
// Zero disables pacing.
func NewFetcher(minInterval time.Duration) *Fetcher {
	client := resty.New()
	client.SetRetryCount(3).
		SetRetryWaitTime(3 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
					if t, err := http.ParseTime(retryAfter); err == nil {
						return time.Until(t), nil
					}
				}
				return 3 * time.Second, nil
			}
			return 0, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})
	return &Fetcher{
		client:      client,
		minInterval: minInterval,
		last:        make(map[string]time.Time),
	}
}

// SetBaseTransport swaps the underlying transport; tests point the
// client at an httptest server this way.
func (f *Fetcher) SetBaseTransport(transport http.RoundTripper) {
	f.client.SetTransport(transport)
}

// Get performs a paced GET and maps blocked-content statuses onto the
// error taxonomy.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) (*resty.Response, error) {
	if err := f.pace(ctx, rawURL); err != nil {
		return nil, err
	}
	req := f.client.R().SetContext(ctx).SetHeader("User-Agent", userAgent)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	resp, err := req.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", rawURL, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return resp, nil
	case http.StatusForbidden, http.StatusUnavailableForLegalReasons:
		return nil, &UnavailableError{Message: fmt.Sprintf("%s refused the request (%s)", hostOf(rawURL), resp.Status())}
	default:
		return nil, fmt.Errorf("failed to get %s: %s", rawURL, resp.Status())
	}
}

// Document fetches a URL and parses it as HTML.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := f.Get(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html from %s: %w", rawURL, err)
	}
	return doc, nil
}

// Image fetches raw image bytes, sending the referer sites commonly
// require for hotlink checks.
func (f *Fetcher) Image(ctx context.Context, rawURL, referer string) (*model.Image, error) {
	headers := map[string]string{}
	if referer != "" {
		headers["Referer"] = referer
	}
	resp, err := f.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	ext := strings.TrimPrefix(path.Ext(stripQuery(rawURL)), ".")
	return &model.Image{Data: resp.Body(), Ext: ext, URL: rawURL}, nil
}

// GetJSON performs a paced GET and decodes the JSON body into out.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	resp, err := f.Get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}
	return nil
}

// PostJSON posts a JSON body and decodes the JSON response into out.
// Used by GraphQL-backed trackers.
func (f *Fetcher) PostJSON(ctx context.Context, rawURL string, headers map[string]string, body, out any) error {
	if err := f.pace(ctx, rawURL); err != nil {
		return err
	}
	req := f.client.R().SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	resp, err := req.Post(rawURL)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", rawURL, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return &NotAuthenticatedError{Tracker: hostOf(rawURL)}
	default:
		return fmt.Errorf("failed to post to %s: %s", rawURL, resp.Status())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}
	return nil
}

func (f *Fetcher) pace(ctx context.Context, rawURL string) error {
	if f.minInterval <= 0 {
		return nil
	}
	host := hostOf(rawURL)

	f.mu.Lock()
	now := time.Now()
	next := f.last[host].Add(f.minInterval)
	if next.Before(now) {
		next = now
	}
	f.last[host] = next
	wait := next.Sub(now)
	f.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
