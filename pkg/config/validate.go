package config

import (
	"fmt"
	"net/url"
	"time"

	"book-crawler/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// CategoryURL is the one field with no usable default
	if c.CategoryURL == "" {
		return warnings, fmt.Errorf("%w: category_url is required", utils.ErrConfigValidation)
	}
	parsed, parseErr := url.ParseRequestURI(c.CategoryURL)
	if parseErr != nil {
		return warnings, fmt.Errorf("%w: category_url '%s': %v", utils.ErrConfigValidation, c.CategoryURL, parseErr)
	}
	if parsed.Host == "" {
		return warnings, fmt.Errorf("%w: category_url '%s' must include a host", utils.ErrConfigValidation, c.CategoryURL)
	}

	// StartPage
	if c.StartPage <= 0 {
		if c.StartPage < 0 {
			warnings = append(warnings, "start_page cannot be negative, defaulting to 1")
		}
		c.StartPage = 1
	}

	// EndPage (0 = discover)
	if c.EndPage < 0 {
		warnings = append(warnings, "end_page cannot be negative, setting to 0 (discover)")
		c.EndPage = 0
	}
	if c.EndPage > 0 && c.EndPage < c.StartPage {
		return warnings, fmt.Errorf("%w: end_page (%d) is before start_page (%d)", utils.ErrConfigValidation, c.EndPage, c.StartPage)
	}

	// Output locations
	if c.DestDir == "" {
		warnings = append(warnings, "dest_dir is empty, defaulting to '.'")
		c.DestDir = "."
	}
	if c.BooksSubdir == "" {
		c.BooksSubdir = "books"
	}
	if c.CoversSubdir == "" {
		c.CoversSubdir = "images"
	}
	if c.ManifestPath == "" {
		warnings = append(warnings, "manifest_path is empty, defaulting to 'books.json'")
		c.ManifestPath = "books.json"
	}

	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = "book-crawler/1.0"
	}

	// ConnectRetryDelay: the fixed interval used once an outage is assumed
	if c.ConnectRetryDelay <= 0 {
		c.ConnectRetryDelay = 10 * time.Second
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes <= 0 {
		c.MaxPageSizeBytes = 10 << 20 // 10 MiB
	}

	// HTTP client defaults
	if c.HTTPClientSettings.Timeout <= 0 {
		c.HTTPClientSettings.Timeout = 45 * time.Second
	}
	if c.HTTPClientSettings.MaxIdleConns <= 0 {
		c.HTTPClientSettings.MaxIdleConns = 100
	}
	if c.HTTPClientSettings.MaxIdleConnsPerHost <= 0 {
		c.HTTPClientSettings.MaxIdleConnsPerHost = 2
	}
	if c.HTTPClientSettings.IdleConnTimeout <= 0 {
		c.HTTPClientSettings.IdleConnTimeout = 90 * time.Second
	}
	if c.HTTPClientSettings.TLSHandshakeTimeout <= 0 {
		c.HTTPClientSettings.TLSHandshakeTimeout = 10 * time.Second
	}
	if c.HTTPClientSettings.ExpectContinueTimeout <= 0 {
		c.HTTPClientSettings.ExpectContinueTimeout = 1 * time.Second
	}
	if c.HTTPClientSettings.DialerTimeout <= 0 {
		c.HTTPClientSettings.DialerTimeout = 15 * time.Second
	}
	if c.HTTPClientSettings.DialerKeepAlive <= 0 {
		c.HTTPClientSettings.DialerKeepAlive = 30 * time.Second
	}

	return warnings, nil
}
