// Package search provides full-text search over the shared book catalog
// using Bleve. Books are indexed when first added to any club and the index
// is reconciled with the database by a background job.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buddyread/buddyread-server/internal/domain"
)

const docIDPrefix = "book-"

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ID        string `json:"id"`
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
}

// NewBookDocument converts a catalog book to its index document.
func NewBookDocument(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:        DocID(b.ID),
		BookID:    b.ID,
		Title:     b.Title,
		Author:    b.Author,
		CreatedAt: b.CreatedAt.UnixMilli(),
	}
}

// DocID is the index document ID of a book.
func DocID(bookID int64) string {
	return docIDPrefix + strconv.FormatInt(bookID, 10)
}

// ParseDocID extracts the book ID from a document ID.
func ParseDocID(docID string) (int64, error) {
	raw, ok := strings.CutPrefix(docID, docIDPrefix)
	if !ok {
		return 0, fmt.Errorf("not a book document: %q", docID)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ToMap converts the document for Bleve, keeping field names in sync with
// the mapping.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":         d.ID,
		"book_id":    float64(d.BookID),
		"title":      d.Title,
		"author":     d.Author,
		"created_at": float64(d.CreatedAt),
	}
}
