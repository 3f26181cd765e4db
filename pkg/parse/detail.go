package parse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"book-crawler/pkg/models"
	"book-crawler/pkg/utils"
)

// Selectors and conventions for the catalog's book detail pages.
const (
	titleSelector   = "h1"
	textLinkPrefix  = "/txt."
	defaultTextPath = "/txt.php" // Used when the page carries no text link at all
	coverSelector   = "div.bookimage img"
	commentSelector = "div.texts span.black"
	genreSelector   = "span.d_book a"

	titleAuthorDelimiter = "::"
)

// ParseDetail extracts the structured fields from a book detail page body.
// The returned Book carries the raw (possibly relative) text and cover hrefs
// in BookPath/ImageSrc; the caller resolves them against the page URL and
// replaces them with local paths after downloading.
//
// Title and author (split on "::") and the cover image are required; their
// absence is a malformed page. Comments and genres are best-effort.
func ParseDetail(body []byte) (*models.Book, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing detail HTML: %w", utils.ErrMalformedPage, err)
	}

	heading := doc.Find(titleSelector).First()
	if heading.Length() == 0 {
		return nil, fmt.Errorf("%w: no '%s' heading", utils.ErrMalformedPage, titleSelector)
	}
	title, author, splitErr := splitTitleAuthor(heading.Text())
	if splitErr != nil {
		return nil, splitErr
	}

	book := &models.Book{
		Title:    title,
		Author:   author,
		BookPath: defaultTextPath,
	}

	// The text link is optional: some books have no downloadable text, and
	// the default path lets the download step discover that via redirect-away.
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, textLinkPrefix) {
			book.BookPath = href
			return false
		}
		return true
	})

	coverSrc, coverExists := doc.Find(coverSelector).First().Attr("src")
	if !coverExists || strings.TrimSpace(coverSrc) == "" {
		return nil, fmt.Errorf("%w: cover image '%s' not found", utils.ErrMalformedPage, coverSelector)
	}
	book.ImageSrc = strings.TrimSpace(coverSrc)

	doc.Find(commentSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			book.Comments = append(book.Comments, text)
		}
	})

	doc.Find(genreSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			book.Genres = append(book.Genres, text)
		}
	})

	return book, nil
}

// splitTitleAuthor splits the "<title> :: <author>" heading text. Both halves
// are required non-empty after trimming.
func splitTitleAuthor(heading string) (title, author string, err error) {
	before, after, found := strings.Cut(heading, titleAuthorDelimiter)
	if !found {
		return "", "", fmt.Errorf("%w: heading %q missing '%s' delimiter", utils.ErrMalformedPage, strings.TrimSpace(heading), titleAuthorDelimiter)
	}
	title = strings.TrimSpace(before)
	author = strings.TrimSpace(after)
	if title == "" || author == "" {
		return "", "", fmt.Errorf("%w: heading %q has empty title or author", utils.ErrMalformedPage, strings.TrimSpace(heading))
	}
	return title, author, nil
}
