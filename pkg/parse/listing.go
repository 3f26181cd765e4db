package parse

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"book-crawler/pkg/utils"
)

// Selectors for the catalog's listing pages. The site wraps every book card
// in a div.bookimage whose anchor points at the detail page, and renders the
// pagination control as a row of a.npage links.
const (
	listingContainerSelector = "#content"
	bookLinkSelector         = "div.bookimage a[href]"
	pageNumberSelector       = "a.npage"
)

// ListingPage is one parsed catalog page: the detail-page URLs it links to,
// in document order, and the total page count when the pagination control is
// present (0 otherwise).
type ListingPage struct {
	BookURLs   []string
	TotalPages int
}

// ParseListing extracts book detail links and the pagination bound from a
// listing page body. Links are resolved absolute against base. A page with
// no book links is valid (past the end of a short category); only a page
// without the listing container at all is malformed.
func ParseListing(body []byte, base *url.URL) (*ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing listing HTML: %w", utils.ErrMalformedPage, err)
	}

	container := doc.Find(listingContainerSelector)
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: listing container '%s' not found", utils.ErrMalformedPage, listingContainerSelector)
	}

	listing := &ListingPage{}
	container.Find(bookLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		resolved, resolveErr := base.Parse(href)
		if resolveErr != nil {
			return // A single broken href does not invalidate the page
		}
		listing.BookURLs = append(listing.BookURLs, resolved.String())
	})

	// The pagination control lists clickable page numbers; the largest one is
	// the total page count. Single-page catalogs render no control at all.
	container.Find(pageNumberSelector).Each(func(_ int, sel *goquery.Selection) {
		n, convErr := strconv.Atoi(strings.TrimSpace(sel.Text()))
		if convErr != nil {
			return
		}
		if n > listing.TotalPages {
			listing.TotalPages = n
		}
	})

	return listing, nil
}
