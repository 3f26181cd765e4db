package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsGate fetches, parses and caches robots.txt data per host and answers
// allow/deny questions for the crawler. Failures are fail-open: a host whose
// robots.txt cannot be fetched or parsed imposes no restrictions.
type RobotsGate struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData // hostname -> parsed data (nil = unrestricted)

	log *logrus.Logger
}

// NewRobotsGate creates a RobotsGate
func NewRobotsGate(client *http.Client, userAgent string, log *logrus.Logger) *RobotsGate {
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
		log:       log,
	}
}

// Allowed reports whether the configured agent may fetch targetURL.
func (rg *RobotsGate) Allowed(ctx context.Context, targetURL *url.URL) bool {
	data := rg.robotsData(ctx, targetURL)
	if data == nil {
		return true
	}
	return data.TestAgent(targetURL.RequestURI(), rg.userAgent)
}

func (rg *RobotsGate) robotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()

	rg.mu.Lock()
	data, cached := rg.cache[host]
	rg.mu.Unlock()
	if cached {
		return data
	}

	data = rg.fetchRobots(ctx, targetURL)

	rg.mu.Lock()
	rg.cache[host] = data
	rg.mu.Unlock()
	return data
}

// fetchRobots retrieves and parses robots.txt for the target's host.
// Returns nil (unrestricted) on any error or non-2xx response.
func (rg *RobotsGate) fetchRobots(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	robotsLog := rg.log.WithField("robots_url", robotsURL.String())

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if reqErr != nil {
		robotsLog.Warnf("Cannot build robots.txt request: %v", reqErr)
		return nil
	}
	req.Header.Set("User-Agent", rg.userAgent)

	resp, doErr := rg.client.Do(req)
	if doErr != nil {
		robotsLog.Debugf("robots.txt fetch failed, assuming unrestricted: %v", doErr)
		return nil
	}
	defer drainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		robotsLog.Debugf("robots.txt returned status %d, assuming unrestricted", resp.StatusCode)
		return nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		robotsLog.Warnf("robots.txt read failed, assuming unrestricted: %v", readErr)
		return nil
	}

	data, parseErr := robotstxt.FromBytes(body)
	if parseErr != nil {
		robotsLog.Warnf("robots.txt parse failed, assuming unrestricted: %v", parseErr)
		return nil
	}
	robotsLog.Debug("robots.txt fetched and cached")
	return data
}
