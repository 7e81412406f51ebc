package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bookery/backend/internal/auth"
	apierrors "github.com/bookery/backend/internal/errors"
	"github.com/bookery/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Register creates a new user account
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	authResp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			util.RespondWithAPIError(c, apierrors.AlreadyExists("email"))
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondWithAPIError(c, apierrors.AlreadyExists("username"))
		default:
			util.RespondInternalError(c, "failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, authResp)
}

// Login authenticates a user with email and password
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	authResp, err := h.authService.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid credentials")
		case errors.Is(err, auth.ErrAccountDisabled):
			util.RespondForbidden(c, "account is disabled")
		default:
			util.RespondInternalError(c, "failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, authResp)
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, user)
}

// AuthMiddleware validates the Bearer token and stores the user in context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		user, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
