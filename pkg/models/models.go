package models

import "time"

// Book is one crawled catalog item as it appears in the manifest.
// BookPath and ImageSrc hold local filesystem paths after a successful
// download; they stay empty when the corresponding download was skipped or
// the asset was unavailable.
type Book struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	BookPath string   `json:"book_path"`
	ImageSrc string   `json:"image_src"`
	Comments []string `json:"comments"`
	Genres   []string `json:"genres"`
}

// CrawlResult summarizes one finished crawl run.
type CrawlResult struct {
	StartTime    time.Time
	EndTime      time.Time
	PagesCrawled int            // Listing pages fetched and parsed successfully
	LastPage     int            // Highest page number that yielded books
	BooksSaved   int            // Records appended to the manifest
	BooksSkipped int            // Items abandoned permanently (unavailable or malformed)
	RetryCount   int            // Backoff retries across all operations
	ErrorsByType map[string]int // Category label -> occurrence count
}
