package middleware

import (
	"net/http"
	"slices"

	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// RequireAuth resolves the bearer token (or legacy cookie) to a user and
// stores it under controller.UserKey. Unknown or expired tokens get a 401.
func RequireAuth(data *dataset.Dataset) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := data.Authenticate(controller.RequestToken(c))
		if err != nil {
			controller.RespondError(c, "auth-middleware", err)
			return
		}
		c.Set(controller.UserKey, user)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controller.CurrentUser(c)
		if !ok {
			controller.Fail(c, http.StatusUnauthorized, "User not authenticated.")
			return
		}
		if !slices.Contains(roles, user.Role) {
			controller.Fail(c, http.StatusForbidden, "Access denied.")
			return
		}
		c.Next()
	}
}
