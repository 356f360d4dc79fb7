// Package bookshelf supplies immutable Book records to the engine. The
// engine only ever reads from it.
package bookshelf

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pagestake/wager-engine/internal/model"
)

// ErrBookNotFound is returned when a book id is unknown.
var ErrBookNotFound = errors.New("bookshelf: book not found")

// Shelf is the read-only book supplier interface.
type Shelf interface {
	// GetBook returns an immutable snapshot of one book.
	GetBook(ctx context.Context, id string) (model.Book, error)

	// ListBooks returns all books on the shelf.
	ListBooks(ctx context.Context) ([]model.Book, error)

	// AddBook places a book on the shelf. Adding an id twice fails.
	AddBook(ctx context.Context, book model.Book) error
}

// MemoryShelf implements Shelf with an in-memory map.
type MemoryShelf struct {
	mu    sync.RWMutex
	books map[string]model.Book
	order []string
}

// NewMemoryShelf creates an empty shelf.
func NewMemoryShelf() *MemoryShelf {
	return &MemoryShelf{books: make(map[string]model.Book)}
}

func (s *MemoryShelf) GetBook(_ context.Context, id string) (model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return model.Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}
	return b, nil
}

func (s *MemoryShelf) ListBooks(_ context.Context) ([]model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]model.Book, 0, len(s.order))
	for _, id := range s.order {
		books = append(books, s.books[id])
	}
	return books, nil
}

func (s *MemoryShelf) AddBook(_ context.Context, book model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; ok {
		return fmt.Errorf("bookshelf: book %s already exists", book.ID)
	}
	s.books[book.ID] = book
	s.order = append(s.order, book.ID)
	return nil
}
