package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookies/internal/catalogue"
	"github.com/mrlokans/bookies/internal/entities"
)

// Each controller depends on the narrow slice of catalogue.Manager it
// uses; *catalogue.Manager satisfies all of them.

// CatalogueStore is what the catalogue pages need.
type CatalogueStore interface {
	ListCatalogue(ctx context.Context) ([]entities.Book, error)
	GetBookDetails(ctx context.Context, id uint) (*catalogue.BookDetails, error)
	CreateBook(ctx context.Context, title, authorName, genreName string, pages int) (*entities.Book, error)
	UpdateBook(ctx context.Context, id uint, update catalogue.BookUpdate) (*entities.Book, error)
	DeleteBook(ctx context.Context, id uint) error
	ListGenres(ctx context.Context) ([]entities.Genre, error)
}

// CollectionStore is what the personal collection endpoints need.
type CollectionStore interface {
	AddToCollection(ctx context.Context, userID, titleID uint) error
	RemoveFromCollection(ctx context.Context, userID, titleID uint) error
	ListCollection(ctx context.Context, userID uint) ([]uint, error)
	ListCollectionBooks(ctx context.Context, userID uint) ([]entities.Book, error)
}

// OrphanAuthorsCleaner runs the author cleanup inline.
type OrphanAuthorsCleaner interface {
	DeleteOrphanAuthors(ctx context.Context) (int64, error)
}

// TaskQueue enqueues background work and reports on it.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (string, error)
}

var (
	_ CatalogueStore       = (*catalogue.Manager)(nil)
	_ CollectionStore      = (*catalogue.Manager)(nil)
	_ OrphanAuthorsCleaner = (*catalogue.Manager)(nil)
)
