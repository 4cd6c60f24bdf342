package handler

import (
	"errors"
	"net/http"

	"github.com/Baaaki/role-admin/internal/middleware"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/service"
	"github.com/Baaaki/role-admin/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService  *service.AuthService
	userService  *service.UserService
	secureCookie bool
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		secureCookie: isProduction,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a VIEWER account. It does not log the user in.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userResponse(user),
	})
}

// Login checks credentials and sets the session cookie. A failure carries a
// reason code: not_found, banned or bad_credential.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	logger.Log.Info("User login attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	p, token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if reason := service.FailureReason(err); reason != "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":  err.Error(),
				"reason": reason,
			})
			return
		}
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.authService.SessionTTL().Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"user_id":  p.UserID,
			"username": p.Username,
			"roles":    p.Roles,
		},
	})
}

// Logout ends the session and clears the cookie. Always succeeds.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		logger.Log.Warn("Failed to delete session", zap.Error(err))
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the caller's identity. Roles are the ones cached in the session,
// which may lag behind storage until the next login.
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.Principal(c)

	user, err := h.userService.GetProfile(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       p.UserID,
		"username":      p.Username,
		"session_roles": p.Roles,
		"status":        user.Status,
		"vip":           user.IsVIP(),
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.SessionCookieName,
		token,
		maxAge,
		"/",
		"",
		h.secureCookie, // HTTPS-only in production
		true,           // httpOnly
	)
}

// userResponse is the JSON shape of a user with role names flattened.
func userResponse(u *models.User) gin.H {
	return gin.H{
		"user_id":       u.ID,
		"username":      u.Username,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"status":        u.Status,
		"metadata":      u.Metadata,
		"vip":           u.IsVIP(),
		"roles":         u.RoleNames(),
		"created_at":    u.CreatedAt,
		"last_modified": u.LastModified,
	}
}
