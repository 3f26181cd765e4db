package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"book-crawler/pkg/fetch"
	"book-crawler/pkg/utils"
)

const textExtension = ".txt"

// Downloader fetches book texts and cover images and persists them under the
// configured directories. Failure modes mirror the fetcher's taxonomy: a
// text link that redirects away means the book has no downloadable text.
type Downloader struct {
	fetcher   *fetch.Fetcher
	booksDir  string
	coversDir string
	log       *logrus.Logger
}

// NewDownloader creates a Downloader
func NewDownloader(fetcher *fetch.Fetcher, booksDir, coversDir string, log *logrus.Logger) *Downloader {
	return &Downloader{
		fetcher:   fetcher,
		booksDir:  booksDir,
		coversDir: coversDir,
		log:       log,
	}
}

// EnsureDirs creates the books and covers directories. MkdirAll is idempotent
// so calling this on every run is safe.
func (d *Downloader) EnsureDirs() error {
	for _, dir := range []string{d.booksDir, d.coversDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating directory '%s': %w", utils.ErrFilesystem, dir, err)
		}
	}
	return nil
}

// DownloadText fetches the book text at absURL and saves it as
// "<sanitized title>.txt" under the books directory. Returns the saved path.
func (d *Downloader) DownloadText(ctx context.Context, absURL, title string) (string, error) {
	filename := utils.SanitizeFilename(title) + textExtension
	return d.download(ctx, absURL, filepath.Join(d.booksDir, filename))
}

// DownloadCover fetches the cover image at absURL and saves it under the
// covers directory, named after the percent-decoded basename of the URL path
// (preserving the source extension).
func (d *Downloader) DownloadCover(ctx context.Context, absURL string) (string, error) {
	filename, err := CoverFilename(absURL)
	if err != nil {
		return "", err
	}
	return d.download(ctx, absURL, filepath.Join(d.coversDir, filename))
}

// CoverFilename derives the local filename for a cover URL: the last path
// segment, percent-decoded, sanitized.
func CoverFilename(absURL string) (string, error) {
	parsed, parseErr := url.Parse(absURL)
	if parseErr != nil {
		return "", fmt.Errorf("%w: cover URL '%s': %w", utils.ErrRequestCreation, absURL, parseErr)
	}
	base := path.Base(parsed.Path)
	if decoded, decodeErr := url.PathUnescape(base); decodeErr == nil {
		base = decoded
	}
	return utils.SanitizeFilename(base), nil
}

// download streams the response body to destPath via a temporary file and a
// rename, so an interrupted write never leaves a partial file at destPath.
func (d *Downloader) download(ctx context.Context, absURL, destPath string) (string, error) {
	resp, err := d.fetcher.Get(ctx, absURL)
	if err != nil {
		return "", err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return "", fmt.Errorf("%w: ensuring directory '%s': %w", utils.ErrFilesystem, dir, mkErr)
	}

	tmp, tmpErr := os.CreateTemp(dir, filepath.Base(destPath)+".tmp*")
	if tmpErr != nil {
		return "", fmt.Errorf("%w: creating temp file in '%s': %w", utils.ErrFilesystem, dir, tmpErr)
	}
	tmpPath := tmp.Name()

	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if copyErr == nil {
			copyErr = closeErr
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// A write cut short by the peer is transient like any dropped connection
		return "", fmt.Errorf("%w: writing '%s' (%d bytes written): %w", utils.ErrTransient, destPath, written, copyErr)
	}

	if renameErr := os.Rename(tmpPath, destPath); renameErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: renaming '%s' into place: %w", utils.ErrFilesystem, tmpPath, renameErr)
	}

	d.log.WithFields(logrus.Fields{"url": absURL, "path": destPath, "bytes": written}).Debug("Download saved")
	return destPath, nil
}
