package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-crawler/pkg/utils"
)

const detailPage = `<html><body>
<h1>Dune :: Frank Herbert</h1>
<div class="bookimage"><img src="/shots/239.jpg"></div>
<a href="/txt.php?id=239">скачать txt</a>
<span class="d_book"><a href="/l55/">Science fiction</a><a href="/l21/">Space opera</a></span>
<div class="texts"><span class="black">A masterpiece.</span></div>
<div class="texts"><span class="black">Read it twice.</span></div>
</body></html>`

func TestParseDetail_FullPage(t *testing.T) {
	book, err := ParseDetail([]byte(detailPage))
	require.NoError(t, err)

	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, "/txt.php?id=239", book.BookPath)
	assert.Equal(t, "/shots/239.jpg", book.ImageSrc)
	assert.Equal(t, []string{"A masterpiece.", "Read it twice."}, book.Comments)
	assert.Equal(t, []string{"Science fiction", "Space opera"}, book.Genres)
}

func TestParseDetail_MissingDelimiterIsMalformed(t *testing.T) {
	body := []byte(`<html><body>
		<h1>Dune - Frank Herbert</h1>
		<div class="bookimage"><img src="/shots/239.jpg"></div>
	</body></html>`)

	_, err := ParseDetail(body)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrMalformedPage)
}

func TestParseDetail_EmptyAuthorIsMalformed(t *testing.T) {
	body := []byte(`<html><body>
		<h1>Dune ::   </h1>
		<div class="bookimage"><img src="/shots/239.jpg"></div>
	</body></html>`)

	_, err := ParseDetail(body)
	assert.ErrorIs(t, err, utils.ErrMalformedPage)
}

func TestParseDetail_MissingTextLinkUsesDefault(t *testing.T) {
	body := []byte(`<html><body>
		<h1>Dune :: Frank Herbert</h1>
		<div class="bookimage"><img src="/shots/239.jpg"></div>
		<a href="/a239/">read online</a>
	</body></html>`)

	book, err := ParseDetail(body)
	require.NoError(t, err)
	assert.Equal(t, defaultTextPath, book.BookPath)
}

func TestParseDetail_MissingCoverIsMalformed(t *testing.T) {
	body := []byte(`<html><body>
		<h1>Dune :: Frank Herbert</h1>
		<a href="/txt.php?id=239">txt</a>
	</body></html>`)

	_, err := ParseDetail(body)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrMalformedPage)
}

func TestParseDetail_NoCommentsOrGenresIsValid(t *testing.T) {
	body := []byte(`<html><body>
		<h1>Dune :: Frank Herbert</h1>
		<div class="bookimage"><img src="/shots/239.jpg"></div>
	</body></html>`)

	book, err := ParseDetail(body)
	require.NoError(t, err)
	assert.Empty(t, book.Comments)
	assert.Empty(t, book.Genres)
}

func TestSplitTitleAuthor_TrimsWhitespace(t *testing.T) {
	title, author, err := splitTitleAuthor("   Dune  ::  Frank Herbert  ")
	require.NoError(t, err)
	assert.Equal(t, "Dune", title)
	assert.Equal(t, "Frank Herbert", author)
}
