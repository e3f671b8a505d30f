package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookies/internal/catalogue"
)

// BooksController serves the shared catalogue.
type BooksController struct {
	store CatalogueStore
}

func NewBooksController(store CatalogueStore) *BooksController {
	return &BooksController{store: store}
}

// ListBooks handles GET /bookies.
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.store.ListCatalogue(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook handles GET /books/:id.
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	details, err := bc.store.GetBookDetails(c.Request.Context(), id)
	if err != nil {
		respondCatalogueError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, details)
}

// CreateBook handles POST /bookies/new.
func (bc *BooksController) CreateBook(c *gin.Context) {
	pages, err := catalogue.ParsePages(c.PostForm("pages"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	book, err := bc.store.CreateBook(ctx, c.PostForm("title"), c.PostForm("author"), c.PostForm("genre"), pages)
	if err != nil {
		respondCatalogueError(c, err, "create book")
		return
	}

	details, err := bc.store.GetBookDetails(ctx, book.ID)
	if err != nil {
		respondCatalogueError(c, err, "load created book")
		return
	}
	c.JSON(http.StatusCreated, details)
}

// UpdateBook handles POST /books/:id/edit. Fields left out or blank keep
// their current value.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	update := catalogue.BookUpdate{
		Title:  optionalForm(c, "title"),
		Author: optionalForm(c, "author"),
		Genre:  optionalForm(c, "genre"),
	}
	if raw := optionalForm(c, "pages"); raw != nil && strings.TrimSpace(*raw) != "" {
		pages, err := catalogue.ParsePages(*raw)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		update.Pages = &pages
	}

	ctx := c.Request.Context()
	book, err := bc.store.UpdateBook(ctx, id, update)
	if err != nil {
		respondCatalogueError(c, err, "update book")
		return
	}

	details, err := bc.store.GetBookDetails(ctx, book.ID)
	if err != nil {
		respondCatalogueError(c, err, "load updated book")
		return
	}
	c.JSON(http.StatusOK, details)
}

// DeleteBook handles POST /books/:id/delete.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(c.Request.Context(), id); err != nil {
		respondCatalogueError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted", gin.H{"id": id})
}

// ListGenres handles GET /genres.
func (bc *BooksController) ListGenres(c *gin.Context) {
	genres, err := bc.store.ListGenres(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list genres")
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}
