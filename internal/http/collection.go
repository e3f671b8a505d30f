package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookies/internal/auth"
)

// CollectionController manages the logged-in user's personal list.
type CollectionController struct {
	store CollectionStore
}

func NewCollectionController(store CollectionStore) *CollectionController {
	return &CollectionController{store: store}
}

// AddBook handles POST /books/:id/add.
func (cc *CollectionController) AddBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.store.AddToCollection(c.Request.Context(), auth.GetUserID(c), id); err != nil {
		respondCatalogueError(c, err, "add to collection")
		return
	}
	respondSuccess(c, "book added", gin.H{"id": id})
}

// RemoveBook handles DELETE /books/:id/remove (and POST for plain forms).
func (cc *CollectionController) RemoveBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.store.RemoveFromCollection(c.Request.Context(), auth.GetUserID(c), id); err != nil {
		respondCatalogueError(c, err, "remove from collection")
		return
	}
	respondSuccess(c, "book removed", gin.H{"id": id})
}

// MyBooks handles GET /myBooks.
func (cc *CollectionController) MyBooks(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.GetUserID(c)

	ids, err := cc.store.ListCollection(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "list collection")
		return
	}
	books, err := cc.store.ListCollectionBooks(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "list collection books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title_ids": ids,
		"books":     books,
		"count":     len(ids),
	})
}
