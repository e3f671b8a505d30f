// Package books provides database operations for the shared catalogue:
// books, authors, genres and the user collection relation.
//
// This package implements the Store interface defined in internal/catalogue/manager.go.
//
// # Interface Implementation
//
//	var _ catalogue.Store = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	author, err := repo.FindAuthorByName(ctx, "Ursula K. Le Guin")
package books

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/entities"
)

// Repository handles all catalogue database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Authors ---

// FindAuthorByName looks an author up by exact name.
func (r *Repository) FindAuthorByName(ctx context.Context, name string) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.WithContext(ctx).Where("author_name = ?", name).First(&author).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &author, nil
}

// CreateAuthor inserts an author. The unique index on the name turns a
// concurrent duplicate insert into database.ErrDuplicate.
func (r *Repository) CreateAuthor(ctx context.Context, name string) (*entities.Author, error) {
	author := &entities.Author{Name: name}
	if err := r.db.WithContext(ctx).Create(author).Error; err != nil {
		return nil, database.Translate(err)
	}
	return author, nil
}

// DeleteOrphanAuthors removes authors no book references.
func (r *Repository) DeleteOrphanAuthors(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM author
		WHERE id NOT IN (SELECT author_id FROM book)
	`)
	return result.RowsAffected, result.Error
}

// --- Genres ---

// FindGenreByName looks a genre up by exact name.
func (r *Repository) FindGenreByName(ctx context.Context, name string) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.WithContext(ctx).Where("genre_name = ?", name).First(&genre).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &genre, nil
}

// ListGenres returns every genre ordered by name.
func (r *Repository) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.WithContext(ctx).Order("genre_name ASC").Find(&genres).Error
	return genres, err
}

// --- Books ---

// CreateBook inserts a book row. Author and genre must already be resolved to IDs.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	return database.Translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(book).Error)
}

// GetBook retrieves a book with its author and genre.
func (r *Repository) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Author").Preload("Genre").First(&book, id).Error
	if err != nil {
		return nil, database.Translate(err)
	}
	return &book, nil
}

// UpdateBook applies column updates to a book. Keys are column names.
func (r *Repository) UpdateBook(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		_, err := r.GetBook(ctx, id)
		return err
	}
	result := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return database.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteBook removes the book and every collection membership pointing at it
// in one transaction.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("title_id = ?", id).Delete(&entities.CollectionMembership{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

// ListBooks returns the whole catalogue ordered by ID.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Preload("Author").Preload("Genre").Order("id ASC").Find(&books).Error
	return books, err
}

// --- Collections ---

// AddMembership records that a user added a book. Re-adding is a no-op.
// Returns database.ErrNotFound if the book does not exist.
func (r *Repository) AddMembership(ctx context.Context, userID, titleID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", titleID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return database.ErrNotFound
		}
		membership := &entities.CollectionMembership{UserID: userID, TitleID: titleID}
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(membership).Error
	})
}

// RemoveMembership deletes a membership if present.
func (r *Repository) RemoveMembership(ctx context.Context, userID, titleID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND title_id = ?", userID, titleID).
		Delete(&entities.CollectionMembership{}).Error
}

// ListMemberships returns the book IDs in a user's collection.
func (r *Repository) ListMemberships(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&entities.CollectionMembership{}).
		Where("user_id = ?", userID).
		Order("title_id ASC").
		Pluck("title_id", &ids).Error
	return ids, err
}

// ListBooksForUser returns the books in a user's collection.
func (r *Repository) ListBooksForUser(ctx context.Context, userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Preload("Author").Preload("Genre").
		Joins("JOIN user_title_rel ON user_title_rel.title_id = book.id").
		Where("user_title_rel.user_id = ?", userID).
		Order("book.id ASC").
		Find(&books).Error
	return books, err
}
