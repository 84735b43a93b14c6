package controller

import (
	"net/http"
	"strings"

	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"
)

// UserKey is where the auth middleware stores the authenticated model.User.
const UserKey = "user"

// CurrentUser returns the user set by the auth middleware.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}

// Fail writes the backend's error envelope: {"success": false, "message": ...}.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// RespondError maps an errdefs-classified error to a status code and envelope.
func RespondError(c *gin.Context, component string, err error) {
	switch {
	case errdefs.IsNotFound(err):
		Fail(c, http.StatusNotFound, messageOf(err))
	case errdefs.IsUnauthorized(err):
		Fail(c, http.StatusUnauthorized, messageOf(err))
	case errdefs.IsPermissionDenied(err):
		Fail(c, http.StatusForbidden, messageOf(err))
	case errdefs.IsConflict(err):
		Fail(c, http.StatusConflict, messageOf(err))
	case errdefs.IsInvalidArgument(err):
		Fail(c, http.StatusBadRequest, messageOf(err))
	default:
		logger.WithComponent(component).Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		Fail(c, http.StatusInternalServerError, "Internal server error.")
	}
}

// messageOf strips the errdefs class suffix: "job not found: not found" -> "Job not found."
func messageOf(err error) string {
	msg := err.Error()
	for _, class := range []error{errdefs.ErrNotFound, errdefs.ErrUnauthenticated, errdefs.ErrPermissionDenied, errdefs.ErrConflict, errdefs.ErrInvalidArgument} {
		if trimmed := strings.TrimSuffix(msg, ": "+class.Error()); trimmed != msg {
			msg = trimmed
			break
		}
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
