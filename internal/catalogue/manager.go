// Package catalogue implements the catalogue rules on top of a Store:
// author deduplication, permissive genre resolution, validated book writes,
// cascading deletes and idempotent collection membership.
package catalogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/entities"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrStorage      = errors.New("storage error")
)

// maxAuthorAttempts bounds the lookup/insert loop in GetOrCreateAuthor. A
// second pass always finds the row that beat us, the rest is slack for
// pathological interleavings with orphan cleanup.
const maxAuthorAttempts = 3

// Store is the persistence contract the manager needs.
type Store interface {
	FindAuthorByName(ctx context.Context, name string) (*entities.Author, error)
	CreateAuthor(ctx context.Context, name string) (*entities.Author, error)
	DeleteOrphanAuthors(ctx context.Context) (int64, error)

	FindGenreByName(ctx context.Context, name string) (*entities.Genre, error)
	ListGenres(ctx context.Context) ([]entities.Genre, error)

	CreateBook(ctx context.Context, book *entities.Book) error
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	UpdateBook(ctx context.Context, id uint, updates map[string]any) error
	DeleteBook(ctx context.Context, id uint) error
	ListBooks(ctx context.Context) ([]entities.Book, error)

	AddMembership(ctx context.Context, userID, titleID uint) error
	RemoveMembership(ctx context.Context, userID, titleID uint) error
	ListMemberships(ctx context.Context, userID uint) ([]uint, error)
	ListBooksForUser(ctx context.Context, userID uint) ([]entities.Book, error)
}

// BookUpdate carries the fields to change. A nil field keeps its stored value.
type BookUpdate struct {
	Title  *string
	Author *string
	Genre  *string
	Pages  *int
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil && u.Pages == nil
}

// BookDetails is a book together with its resolved author and genre names.
type BookDetails struct {
	Book       entities.Book `json:"book"`
	AuthorName string        `json:"author"`
	GenreName  string        `json:"genre,omitempty"`
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// ParsePages converts untrusted input into a page count.
func ParsePages(raw string) (int, error) {
	pages, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: pages must be a whole number", ErrInvalidInput)
	}
	if pages < 0 {
		return 0, fmt.Errorf("%w: pages must not be negative", ErrInvalidInput)
	}
	return pages, nil
}

// GetOrCreateAuthor returns the ID of the author with this exact name,
// creating the row on first use. Concurrent callers with the same unseen
// name converge on one row through the unique index.
func (m *Manager) GetOrCreateAuthor(ctx context.Context, name string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: author is required", ErrInvalidInput)
	}

	for attempt := 0; attempt < maxAuthorAttempts; attempt++ {
		author, err := m.store.FindAuthorByName(ctx, name)
		if err == nil {
			return author.ID, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return 0, storageError(err)
		}

		author, err = m.store.CreateAuthor(ctx, name)
		if err == nil {
			return author.ID, nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return 0, storageError(err)
		}
	}
	return 0, fmt.Errorf("%w: author %q kept conflicting", ErrStorage, name)
}

// LookupGenreID resolves a genre name. Genres are never created here.
func (m *Manager) LookupGenreID(ctx context.Context, name string) (uint, error) {
	genre, err := m.store.FindGenreByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return 0, storageError(err)
	}
	return genre.ID, nil
}

// resolveGenre keeps the legacy behavior: an unknown genre leaves the book
// without one instead of failing the write.
func (m *Manager) resolveGenre(ctx context.Context, name string) (*uint, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	id, err := m.LookupGenreID(ctx, name)
	if errors.Is(err, ErrNotFound) {
		log.Printf("Catalogue: unknown genre %q, storing book without genre", name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateBook validates the input, resolves author and genre, and inserts the book.
func (m *Manager) CreateBook(ctx context.Context, title, authorName, genreName string, pages int) (*entities.Book, error) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case strings.TrimSpace(authorName) == "":
		return nil, fmt.Errorf("%w: author is required", ErrInvalidInput)
	case pages < 0:
		return nil, fmt.Errorf("%w: pages must not be negative", ErrInvalidInput)
	}

	genreID, err := m.resolveGenre(ctx, genreName)
	if err != nil {
		return nil, err
	}

	// The author can vanish between resolution and insert if orphan cleanup
	// runs in between; resolve again once in that case.
	for attempt := 0; ; attempt++ {
		authorID, err := m.GetOrCreateAuthor(ctx, authorName)
		if err != nil {
			return nil, err
		}
		book := &entities.Book{
			Title:    title,
			AuthorID: authorID,
			GenreID:  genreID,
			Pages:    pages,
		}
		err = m.store.CreateBook(ctx, book)
		if err == nil {
			return book, nil
		}
		if attempt > 0 || !database.IsForeignKeyViolation(err) {
			return nil, storageError(err)
		}
	}
}

// UpdateBook applies the non-empty fields of update and returns the stored book.
func (m *Manager) UpdateBook(ctx context.Context, id uint, update BookUpdate) (*entities.Book, error) {
	current, err := m.store.GetBook(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	if update.IsEmpty() {
		return current, nil
	}

	updates := make(map[string]any)
	if update.Pages != nil {
		if *update.Pages < 0 {
			return nil, fmt.Errorf("%w: pages must not be negative", ErrInvalidInput)
		}
		updates["pages"] = *update.Pages
	}
	if v, ok := nonEmpty(update.Title); ok {
		updates["title"] = v
	}
	if v, ok := nonEmpty(update.Genre); ok {
		genreID, err := m.resolveGenre(ctx, v)
		if err != nil {
			return nil, err
		}
		updates["genre_id"] = genreID
	}

	authorName, changeAuthor := nonEmpty(update.Author)
	for attempt := 0; ; attempt++ {
		if changeAuthor {
			authorID, err := m.GetOrCreateAuthor(ctx, authorName)
			if err != nil {
				return nil, err
			}
			updates["author_id"] = authorID
		}
		err := m.store.UpdateBook(ctx, id, updates)
		if err == nil {
			break
		}
		// Same window as CreateBook: the fresh author may be cleaned up
		// before the book points at it.
		if attempt > 0 || !changeAuthor || !database.IsForeignKeyViolation(err) {
			return nil, storageError(err)
		}
	}

	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	return book, nil
}

// DeleteBook removes the book and every membership referencing it atomically.
func (m *Manager) DeleteBook(ctx context.Context, id uint) error {
	return storageError(m.store.DeleteBook(ctx, id))
}

// GetBookDetails returns a book with its author and genre names.
func (m *Manager) GetBookDetails(ctx context.Context, id uint) (*BookDetails, error) {
	book, err := m.store.GetBook(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	details := &BookDetails{Book: *book, AuthorName: book.Author.Name}
	if book.Genre != nil {
		details.GenreName = book.Genre.Name
	}
	return details, nil
}

// ListCatalogue returns every book ordered by ID.
func (m *Manager) ListCatalogue(ctx context.Context) ([]entities.Book, error) {
	books, err := m.store.ListBooks(ctx)
	return books, storageError(err)
}

func (m *Manager) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	genres, err := m.store.ListGenres(ctx)
	return genres, storageError(err)
}

// AddToCollection adds a book to the user's list. Adding twice is a no-op.
func (m *Manager) AddToCollection(ctx context.Context, userID, titleID uint) error {
	if userID == 0 {
		return fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	return storageError(m.store.AddMembership(ctx, userID, titleID))
}

// RemoveFromCollection removes a book from the user's list. Absence is not an error.
func (m *Manager) RemoveFromCollection(ctx context.Context, userID, titleID uint) error {
	return storageError(m.store.RemoveMembership(ctx, userID, titleID))
}

// ListCollection returns the IDs of the books in the user's list.
func (m *Manager) ListCollection(ctx context.Context, userID uint) ([]uint, error) {
	ids, err := m.store.ListMemberships(ctx, userID)
	return ids, storageError(err)
}

// ListCollectionBooks returns the books in the user's list.
func (m *Manager) ListCollectionBooks(ctx context.Context, userID uint) ([]entities.Book, error) {
	books, err := m.store.ListBooksForUser(ctx, userID)
	return books, storageError(err)
}

// DeleteOrphanAuthors removes authors left without books.
func (m *Manager) DeleteOrphanAuthors(ctx context.Context) (int64, error) {
	deleted, err := m.store.DeleteOrphanAuthors(ctx)
	return deleted, storageError(err)
}

func nonEmpty(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.TrimSpace(*v)
	return s, s != ""
}

// storageError maps store errors onto the catalogue taxonomy.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}
