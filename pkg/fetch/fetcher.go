package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"book-crawler/pkg/utils"
)

// Page is one successfully fetched HTML page. URL is the final URL after any
// redirects and serves as the base for resolving relative links found in Body.
type Page struct {
	URL        *url.URL
	StatusCode int
	Body       []byte
}

// Fetcher performs single HTTP GETs and classifies every outcome into the
// three-way Success / NotFound / Error contract the crawl engine consumes.
// No retries happen here; retry policy belongs to the engine.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	log          *logrus.Logger
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, userAgent string, maxBodyBytes int64, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:       client,
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// Get performs one GET request and classifies the result:
//   - transport failure (dial, DNS, timeout, reset)   -> utils.ErrTransient
//   - redirect-away (final path differs from request) -> utils.ErrNotFound
//   - non-2xx status                                  -> utils.ErrHTTP
//
// The site signals both "book does not exist" and "past the last catalog
// page" by redirecting to the home page instead of returning a 404, so a
// followed redirect that lands on a different path is never a success.
//
// On success the response body is open and the caller must close it. On any
// error the body has been drained and closed.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	reqLog := f.log.WithField("url", rawURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("%w: '%s': %w", utils.ErrRequestCreation, rawURL, reqErr)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		if resp != nil {
			drainAndClose(resp)
		}
		// Caller-driven cancellation is not a network failure; pass it
		// through so the engine stops instead of retrying forever.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reqLog.Debugf("Transport error: %v", doErr)
		return nil, fmt.Errorf("%w: %w", utils.ErrTransient, doErr)
	}

	finalURL := resp.Request.URL
	if !samePath(req.URL, finalURL) {
		reqLog.WithField("final_url", finalURL.String()).Debug("Redirected away")
		drainAndClose(resp)
		return nil, fmt.Errorf("%w: '%s' redirected away to '%s'", utils.ErrNotFound, rawURL, finalURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp)
		return nil, fmt.Errorf("%w: status %d %s for '%s'", utils.ErrHTTP, resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}

	reqLog.WithField("status_code", resp.StatusCode).Debug("Successfully fetched")
	return resp, nil
}

// Fetch performs Get and reads the whole body, enforcing the configured size
// limit. Used for HTML pages; downloads stream via Get directly.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp)

	limited := io.LimitReader(resp.Body, f.maxBodyBytes+1) // +1 to detect exceeding the limit
	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// A connection dropped mid-body is as transient as one that never opened
		return nil, fmt.Errorf("%w: %w: reading body from '%s': %w", utils.ErrTransient, utils.ErrResponseBodyRead, rawURL, readErr)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("%w: page '%s' exceeds max size (%d bytes)", utils.ErrResponseBodyRead, rawURL, f.maxBodyBytes)
	}

	return &Page{
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// samePath reports whether the request and final URLs share a path, ignoring
// a trailing slash. Query strings are ignored: the site's redirect-away
// convention always changes the path.
func samePath(requested, final *url.URL) bool {
	return normalizePath(requested.Path) == normalizePath(final.Path) &&
		strings.EqualFold(requested.Hostname(), final.Hostname())
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
