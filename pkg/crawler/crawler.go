// Package crawler contains the crawl engine: the pagination loop over the
// catalog's listing pages, the per-book fetch/parse/download pipeline, and
// the retry policy that separates transient network outages from permanent
// per-resource failures.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"book-crawler/pkg/config"
	"book-crawler/pkg/download"
	"book-crawler/pkg/fetch"
	"book-crawler/pkg/manifest"
	"book-crawler/pkg/models"
	"book-crawler/pkg/parse"
	"book-crawler/pkg/utils"
)

// Crawler walks a paginated book catalog sequentially: one listing page at a
// time, one book at a time. Successful books accumulate in the manifest; the
// caller decides when to write it out.
type Crawler struct {
	cfg        *config.AppConfig
	fetcher    *fetch.Fetcher
	robots     *fetch.RobotsGate // nil when robots.txt checking is disabled
	downloader *download.Downloader
	manifest   *manifest.Manifest
	metrics    *Metrics
	log        *logrus.Logger

	retryCount   int
	errorsByType map[string]int
}

// New assembles a Crawler from its collaborators. robots and metrics may be
// nil; a nil RobotsGate disables robots.txt checks and the Metrics methods
// are nil-safe.
func New(cfg *config.AppConfig, fetcher *fetch.Fetcher, robots *fetch.RobotsGate, downloader *download.Downloader, m *manifest.Manifest, metrics *Metrics, log *logrus.Logger) *Crawler {
	return &Crawler{
		cfg:          cfg,
		fetcher:      fetcher,
		robots:       robots,
		downloader:   downloader,
		manifest:     m,
		metrics:      metrics,
		log:          log,
		errorsByType: make(map[string]int),
	}
}

// Run executes the crawl. It returns a summary of the run alongside any
// fatal error; on cancellation the summary covers the work completed so far,
// so the caller can still write the manifest.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlResult, error) {
	result := &models.CrawlResult{
		StartTime:    time.Now(),
		ErrorsByType: c.errorsByType,
	}
	finish := func(err error) (*models.CrawlResult, error) {
		result.EndTime = time.Now()
		result.RetryCount = c.retryCount
		return result, err
	}

	base, parseErr := url.Parse(c.cfg.CategoryURL)
	if parseErr != nil {
		return finish(fmt.Errorf("%w: parsing category URL '%s': %w", utils.ErrConfigValidation, c.cfg.CategoryURL, parseErr))
	}

	// The destination root must exist up front; refusing to create it guards
	// against typos silently filling a fresh directory tree.
	info, statErr := os.Stat(c.cfg.DestDir)
	if statErr != nil || !info.IsDir() {
		return finish(fmt.Errorf("%w: destination directory '%s' does not exist", utils.ErrFilesystem, c.cfg.DestDir))
	}
	if err := c.downloader.EnsureDirs(); err != nil {
		return finish(err)
	}

	endPage := c.cfg.EndPage
	c.log.WithFields(logrus.Fields{
		"category":   base.String(),
		"start_page": c.cfg.StartPage,
		"end_page":   endPage,
	}).Info("Starting crawl")

pages:
	for page := c.cfg.StartPage; endPage == 0 || page <= endPage; page++ {
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		pageLog := c.log.WithField("page", page)
		pageURL := base.JoinPath(fmt.Sprintf("%d", page)).String()

		var listing *parse.ListingPage
		err := retry(ctx, c.cfg.ConnectRetryDelay, pageLog, c.onRetry, func() error {
			fetched, fetchErr := c.fetchAllowed(ctx, pageURL)
			if fetchErr != nil {
				return fetchErr
			}
			parsed, listErr := parse.ParseListing(fetched.Body, fetched.URL)
			if listErr != nil {
				return listErr
			}
			listing = parsed
			return nil
		})
		switch {
		case err == nil:
			// fall through to process the listing
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return finish(err)
		case errors.Is(err, utils.ErrNotFound):
			pageLog.Info("Listing page redirected away, end of catalog reached")
			break pages
		default:
			// A bad listing page costs only itself; the crawl moves on
			c.recordError(err)
			pageLog.Warnf("Skipping listing page: %v", err)
			continue
		}

		result.PagesCrawled++
		result.LastPage = page
		c.metrics.IncPages()

		// Without an explicit end page the first listing's pagination control
		// sets the bound; a catalog short enough to have no control is a
		// single page.
		if endPage == 0 {
			if listing.TotalPages > 0 {
				endPage = listing.TotalPages
			} else {
				endPage = page
			}
			pageLog.WithField("end_page", endPage).Info("Discovered catalog size")
		}
		pageLog.WithField("books", len(listing.BookURLs)).Debug("Parsed listing page")

		for _, bookURL := range listing.BookURLs {
			if ctx.Err() != nil {
				return finish(ctx.Err())
			}
			bookLog := pageLog.WithField("book_url", bookURL)

			var book *models.Book
			itemErr := retry(ctx, c.cfg.ConnectRetryDelay, bookLog, c.onRetry, func() error {
				processed, procErr := c.processBook(ctx, bookURL)
				if procErr != nil {
					return procErr
				}
				book = processed
				return nil
			})
			switch {
			case itemErr == nil:
				c.manifest.Append(*book)
				result.BooksSaved++
				c.metrics.IncBooks()
				bookLog.WithField("title", book.Title).Info("Book saved")
			case errors.Is(itemErr, context.Canceled), errors.Is(itemErr, context.DeadlineExceeded):
				return finish(itemErr)
			case errors.Is(itemErr, utils.ErrMalformedPage):
				c.recordError(itemErr)
				result.BooksSkipped++
				bookLog.Warnf("Unexpected page format, skipping book: %v", itemErr)
			case errors.Is(itemErr, utils.ErrNotFound), errors.Is(itemErr, utils.ErrHTTP):
				c.recordError(itemErr)
				result.BooksSkipped++
				bookLog.Infof("Book unavailable, skipping: %v", itemErr)
			default:
				c.recordError(itemErr)
				result.BooksSkipped++
				bookLog.Warnf("Skipping book: %v", itemErr)
			}
		}
	}

	c.log.WithFields(logrus.Fields{
		"pages_crawled": result.PagesCrawled,
		"books_saved":   result.BooksSaved,
		"books_skipped": result.BooksSkipped,
		"retries":       c.retryCount,
	}).Info("Crawl finished")
	return finish(nil)
}

// processBook runs the full pipeline for one book: fetch the detail page,
// parse it, then download the text and cover unless skipped. Any error
// abandons the attempt; the retry wrapper reruns the whole pipeline on
// transient failures so a half-done item is simply redone from the top.
func (c *Crawler) processBook(ctx context.Context, bookURL string) (*models.Book, error) {
	page, fetchErr := c.fetchAllowed(ctx, bookURL)
	if fetchErr != nil {
		return nil, fetchErr
	}

	book, parseErr := parse.ParseDetail(page.Body)
	if parseErr != nil {
		return nil, parseErr
	}

	textURL, textErr := page.URL.Parse(book.BookPath)
	if textErr != nil {
		return nil, fmt.Errorf("%w: resolving text link '%s': %w", utils.ErrMalformedPage, book.BookPath, textErr)
	}
	coverURL, coverErr := page.URL.Parse(book.ImageSrc)
	if coverErr != nil {
		return nil, fmt.Errorf("%w: resolving cover link '%s': %w", utils.ErrMalformedPage, book.ImageSrc, coverErr)
	}

	if c.cfg.SkipText {
		book.BookPath = ""
	} else {
		savedText, dlErr := c.downloader.DownloadText(ctx, textURL.String(), book.Title)
		if dlErr != nil {
			return nil, dlErr
		}
		book.BookPath = savedText
	}

	if c.cfg.SkipCovers {
		book.ImageSrc = ""
	} else {
		savedCover, dlErr := c.downloader.DownloadCover(ctx, coverURL.String())
		if dlErr != nil {
			return nil, dlErr
		}
		book.ImageSrc = savedCover
	}

	return book, nil
}

// fetchAllowed applies the robots gate (when enabled) and fetches one page,
// recording the request duration.
func (c *Crawler) fetchAllowed(ctx context.Context, rawURL string) (*fetch.Page, error) {
	if c.robots != nil {
		target, parseErr := url.Parse(rawURL)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: '%s': %w", utils.ErrRequestCreation, rawURL, parseErr)
		}
		if !c.robots.Allowed(ctx, target) {
			return nil, fmt.Errorf("%w: '%s'", utils.ErrRobotsDisallowed, rawURL)
		}
	}

	start := time.Now()
	page, err := c.fetcher.Fetch(ctx, rawURL)
	c.metrics.ObserveDuration(time.Since(start))
	return page, err
}

func (c *Crawler) onRetry() {
	c.retryCount++
	c.metrics.IncRetries()
}

func (c *Crawler) recordError(err error) {
	category := utils.CategorizeError(err)
	c.errorsByType[category]++
	c.metrics.IncError(category)
}
