package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *dataset.Dataset) {
	t.Helper()
	data, err := dataset.New(dataset.DefaultSeed(), time.Minute)
	require.NoError(t, err)

	r := gin.New()
	g := r.Group("", RequireAuth(data))
	g.GET("/me", func(c *gin.Context) {
		u, _ := controller.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	g.GET("/admin", RequireRole(model.RoleAdmin, model.RoleRecruiter), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, data
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Message
}

func TestRequireAuth_MissingToken(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not authenticated.", decodeMessage(t, w))
}

func TestRequireAuth_BearerAndCookie(t *testing.T) {
	r, data := newAuthRouter(t)
	tok, user, err := data.Login("student@example.com", "password", model.RoleStudent)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	r, data := newAuthRouter(t)
	tok, _, err := data.Login("student@example.com", "password", model.RoleStudent)
	require.NoError(t, err)
	data.Logout(tok)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token.", decodeMessage(t, w))
}

func TestRequireRole(t *testing.T) {
	r, data := newAuthRouter(t)

	tests := []struct {
		email string
		role  model.Role
		want  int
	}{
		{"student@example.com", model.RoleStudent, http.StatusForbidden},
		{"recruiter@example.com", model.RoleRecruiter, http.StatusNoContent},
		{"admin@example.com", model.RoleAdmin, http.StatusNoContent},
		{"freelancer@example.com", model.RoleFreelancer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			tok, _, err := data.Login(tt.email, "password", tt.role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
