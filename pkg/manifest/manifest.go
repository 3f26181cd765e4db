// Package manifest accumulates crawled book records in memory and writes
// them out as a single JSON document at the end of a run. Holding the whole
// manifest in memory keeps a partially failed run from ever producing a
// half-written file: the output either appears complete via rename or not
// at all.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"book-crawler/pkg/models"
	"book-crawler/pkg/utils"
)

// Manifest is the ordered collection of successfully crawled books.
// Appends are serialized so the accumulator stays correct if the engine ever
// grows concurrent item processing.
type Manifest struct {
	mu    sync.Mutex
	books []models.Book
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{}
}

// Append adds one completed book record.
func (m *Manifest) Append(book models.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books = append(m.books, book)
}

// Len reports the number of accumulated records.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.books)
}

// Books returns a copy of the accumulated records in append order.
func (m *Manifest) Books() []models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Book, len(m.books))
	copy(out, m.books)
	return out
}

// WriteFile serializes the manifest as an indented JSON array. The document
// is written to a temporary file in the target directory and renamed into
// place.
func (m *Manifest) WriteFile(path string) error {
	books := m.Books()
	if books == nil {
		books = []models.Book{} // An empty run still writes a valid document
	}

	data, marshalErr := json.MarshalIndent(books, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("marshaling manifest: %w", marshalErr)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, tmpErr := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if tmpErr != nil {
		return fmt.Errorf("%w: creating temp manifest in '%s': %w", utils.ErrFilesystem, dir, tmpErr)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr == nil {
			writeErr = closeErr
		}
		return fmt.Errorf("%w: writing manifest '%s': %w", utils.ErrFilesystem, path, writeErr)
	}

	if renameErr := os.Rename(tmpPath, path); renameErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: renaming manifest into place: %w", utils.ErrFilesystem, renameErr)
	}
	return nil
}

// Load reads a manifest file back into records. Used for verification and by
// tooling that consumes a previous run's output.
func Load(path string) ([]models.Book, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading manifest '%s': %w", utils.ErrFilesystem, path, readErr)
	}
	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parsing manifest '%s': %w", path, err)
	}
	return books, nil
}
