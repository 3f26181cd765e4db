package parse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-crawler/pkg/utils"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseListing_ExtractsLinksInDocumentOrder(t *testing.T) {
	body := []byte(`<html><body><div id="content">
		<table class="d_book"><div class="bookimage"><a href="/b239/"><img src="/shots/239.jpg"></a></div></table>
		<table class="d_book"><div class="bookimage"><a href="/b550/"><img src="/shots/550.jpg"></a></div></table>
		<table class="d_book"><div class="bookimage"><a href="/b768/"><img src="/shots/768.jpg"></a></div></table>
	</div></body></html>`)

	listing, err := ParseListing(body, mustParseURL(t, "https://tululu.org/l55/1"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://tululu.org/b239/",
		"https://tululu.org/b550/",
		"https://tululu.org/b768/",
	}, listing.BookURLs)
	assert.Equal(t, 0, listing.TotalPages)
}

func TestParseListing_ExtractsTotalPages(t *testing.T) {
	body := []byte(`<html><body><div id="content">
		<div class="bookimage"><a href="/b1/"></a></div>
		<p class="center">
			<span class="npage_select">1</span>
			<a class="npage" href="/l55/2">2</a>
			<a class="npage" href="/l55/3">3</a>
			<a class="npage" href="/l55/702">702</a>
		</p>
	</div></body></html>`)

	listing, err := ParseListing(body, mustParseURL(t, "https://tululu.org/l55/1"))
	require.NoError(t, err)
	assert.Equal(t, 702, listing.TotalPages)
}

func TestParseListing_EmptyPageIsValid(t *testing.T) {
	body := []byte(`<html><body><div id="content"><h2>Nothing here</h2></div></body></html>`)

	listing, err := ParseListing(body, mustParseURL(t, "https://tululu.org/l55/9"))
	require.NoError(t, err)
	assert.Empty(t, listing.BookURLs)
}

func TestParseListing_MissingContainerIsMalformed(t *testing.T) {
	body := []byte(`<html><body><p>Totally different site</p></body></html>`)

	_, err := ParseListing(body, mustParseURL(t, "https://tululu.org/l55/1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrMalformedPage)
}

func TestParseListing_SkipsUnresolvableHrefs(t *testing.T) {
	body := []byte(`<html><body><div id="content">
		<div class="bookimage"><a href=":%%%bad"><img></a></div>
		<div class="bookimage"><a href="/b7/"><img></a></div>
	</div></body></html>`)

	listing, err := ParseListing(body, mustParseURL(t, "https://tululu.org/l55/1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://tululu.org/b7/"}, listing.BookURLs)
}
