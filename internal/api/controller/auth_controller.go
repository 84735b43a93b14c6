package controller

import (
	"net/http"
	"strings"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type loginRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=student recruiter admin freelancer"`
}

// AuthController handles login, token refresh and logout.
type AuthController struct {
	data      *dataset.Dataset
	validator *validator.Validate
}

func NewAuthController(data *dataset.Dataset) *AuthController {
	return &AuthController{data: data, validator: validator.New()}
}

// Login handles POST /auth/login.
func (ac *AuthController) Login(c *gin.Context) {
	logger.WithComponent("auth-controller").Debugf("POST /auth/login handler called")
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "Invalid payload.")
		return
	}
	if err := ac.validator.Struct(req); err != nil {
		Fail(c, http.StatusBadRequest, "Email, password and role are required.")
		return
	}

	tok, user, err := ac.data.Login(req.Email, req.Password, req.Role)
	if err != nil {
		RespondError(c, "auth-controller", err)
		return
	}
	c.SetCookie("token", tok, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Welcome back " + user.FullName,
		"accessToken": tok,
		"user":        user,
	})
}

// Refresh handles POST /auth/refresh-token. It accepts an expired but otherwise valid token.
func (ac *AuthController) Refresh(c *gin.Context) {
	logger.WithComponent("auth-controller").Debugf("POST /auth/refresh-token handler called")
	fresh, err := ac.data.Refresh(RequestToken(c))
	if err != nil {
		RespondError(c, "auth-controller", err)
		return
	}
	c.SetCookie("token", fresh, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "accessToken": fresh})
}

// Logout handles POST /auth/logout. It always succeeds.
func (ac *AuthController) Logout(c *gin.Context) {
	logger.WithComponent("auth-controller").Debugf("POST /auth/logout handler called")
	if tok := RequestToken(c); tok != "" {
		ac.data.Logout(tok)
	}
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully."})
}

// RequestToken reads the bearer token, falling back to the legacy "token" cookie.
func RequestToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if tok, err := c.Cookie("token"); err == nil {
		return tok
	}
	return ""
}
