package utils

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrTransient        = errors.New("transient network error")     // Wraps dial/DNS/timeout errors; retried forever with backoff
	ErrNotFound         = errors.New("resource not found")          // Redirect-away: the site's "does not exist / end of catalog" signal
	ErrHTTP             = errors.New("unexpected HTTP status")      // Non-2xx not explained by redirect-away; permanent for the request
	ErrMalformedPage    = errors.New("unrecognized page structure") // Fetched content does not match the expected markup
	ErrFilesystem       = errors.New("filesystem error")            // Wraps os errors
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	ErrRequestCreation  = errors.New("failed to create HTTP request")
	ErrResponseBodyRead = errors.New("failed to read response body")
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	// Check against sentinel errors first
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound_RedirectAway"
	case errors.Is(err, ErrHTTP):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		if strings.Contains(errMsg, "status 5") {
			return "HTTP_5xx"
		}
		return "HTTP_Other"
	case errors.Is(err, ErrMalformedPage):
		return "Content_Malformed"
	case errors.Is(err, ErrTransient):
		lower := strings.ToLower(err.Error())
		if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
			return "Network_Timeout"
		}
		if strings.Contains(lower, "connection refused") {
			return "Network_ConnectionRefused"
		}
		if strings.Contains(lower, "no such host") {
			return "Network_DNSLookup"
		}
		if strings.Contains(lower, "reset by peer") {
			return "Network_ConnectionReset"
		}
		return "Network_Other"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}

	return "Unknown"
}
