package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListFunc produces the items of one collection endpoint for the current request.
type ListFunc[T any] func(c *gin.Context) ([]T, error)

// ListController serves a collection under a named envelope field,
// e.g. {"success": true, "jobs": [...]}.
type ListController[T any] struct {
	Component string
	Field     string
	List      ListFunc[T]
}

// GetAll handles GET requests to list the collection.
func (lc *ListController[T]) GetAll(c *gin.Context) {
	items, err := lc.List(c)
	if err != nil {
		RespondError(c, lc.Component, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, lc.Field: items})
}
