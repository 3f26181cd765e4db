package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-crawler/pkg/utils"
)

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{CategoryURL: "https://tululu.org/l55/"}
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	// Check defaults applied
	assert.Equal(t, 1, cfg.StartPage)
	assert.Equal(t, 0, cfg.EndPage)
	assert.Equal(t, ".", cfg.DestDir)
	assert.Equal(t, "books", cfg.BooksSubdir)
	assert.Equal(t, "images", cfg.CoversSubdir)
	assert.Equal(t, "books.json", cfg.ManifestPath)
	assert.Equal(t, "book-crawler/1.0", cfg.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.ConnectRetryDelay)
	assert.Equal(t, int64(10<<20), cfg.MaxPageSizeBytes)

	// Check HTTP client defaults
	assert.Equal(t, 45*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 2, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, cfg.HTTPClientSettings.IdleConnTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.DialerTimeout)

	// Check warnings generated
	assert.True(t, containsWarning(warnings, "dest_dir is empty"))
	assert.True(t, containsWarning(warnings, "manifest_path is empty"))
}

func TestAppConfig_Validate_MissingCategoryURL(t *testing.T) {
	cfg := AppConfig{}
	_, err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConfigValidation)
}

func TestAppConfig_Validate_BadCategoryURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "tululu.org/l55/"},
		{"garbage", "://nope"},
		{"no host", "https:///l55/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{CategoryURL: tt.url}
			_, err := cfg.Validate()
			assert.ErrorIs(t, err, utils.ErrConfigValidation)
		})
	}
}

func TestAppConfig_Validate_PageRange(t *testing.T) {
	cfg := AppConfig{CategoryURL: "https://tululu.org/l55/", StartPage: 5, EndPage: 2}
	_, err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConfigValidation)

	cfg = AppConfig{CategoryURL: "https://tululu.org/l55/", StartPage: -1, EndPage: -2}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.StartPage)
	assert.Equal(t, 0, cfg.EndPage)
	assert.True(t, containsWarning(warnings, "start_page cannot be negative"))
	assert.True(t, containsWarning(warnings, "end_page cannot be negative"))
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		CategoryURL:       "https://tululu.org/l55/",
		StartPage:         3,
		EndPage:           7,
		DestDir:           "/data",
		ManifestPath:      "/data/books.json",
		ConnectRetryDelay: 2 * time.Second,
	}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 3, cfg.StartPage)
	assert.Equal(t, 7, cfg.EndPage)
	assert.Equal(t, 2*time.Second, cfg.ConnectRetryDelay)
}
