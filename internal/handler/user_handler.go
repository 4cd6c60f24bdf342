package handler

import (
	"net/http"

	"github.com/Baaaki/role-admin/internal/middleware"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type CreateUserRequest struct {
	Username  string                 `json:"username" binding:"required"`
	Password  string                 `json:"password" binding:"required"`
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata"`
	Roles     []string               `json:"roles"`
}

// UpdateUserRequest replaces the user's fields and role set. Roles is the
// complete new set; an empty list removes every role.
type UpdateUserRequest struct {
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Status    string                 `json:"status" binding:"required"`
	Metadata  map[string]interface{} `json:"metadata"`
	Roles     []string               `json:"roles"`
}

type ProfileRequest struct {
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// List returns all users to ADMIN and EDITOR, only the caller otherwise.
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns one user with current and available roles.
// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.userService.GetUser(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            userResponse(detail.User),
		"current_roles":   detail.CurrentRoles,
		"available_roles": detail.AvailableRoles,
	})
}

// Create adds a user on behalf of an administrator.
// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), middleware.Principal(c), service.CreateUserInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    req.Status,
		Metadata:  req.Metadata,
		Roles:     req.Roles,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userResponse(user)})
}

// Update replaces a user's fields and roles in one transaction.
// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), middleware.Principal(c), id, service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    req.Status,
		Metadata:  req.Metadata,
		Roles:     req.Roles,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// Ban sets the user's status to BANNED.
// POST /api/users/:id/ban
func (h *UserHandler) Ban(c *gin.Context) {
	h.setStatus(c, models.StatusBanned)
}

// Unban sets the user's status to ACTIVE.
// POST /api/users/:id/unban
func (h *UserHandler) Unban(c *gin.Context) {
	h.setStatus(c, models.StatusActive)
}

func (h *UserHandler) setStatus(c *gin.Context, status models.UserStatus) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.SetStatus(c.Request.Context(), middleware.Principal(c), id, status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": id,
		"status":  status,
	})
}

// SetVIP sets the vip flag.
// POST /api/users/:id/vip
func (h *UserHandler) SetVIP(c *gin.Context) {
	h.setVIP(c, true)
}

// ClearVIP removes the vip flag.
// DELETE /api/users/:id/vip
func (h *UserHandler) ClearVIP(c *gin.Context) {
	h.setVIP(c, false)
}

func (h *UserHandler) setVIP(c *gin.Context, vip bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.SetVIP(c.Request.Context(), middleware.Principal(c), id, vip); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": id,
		"vip":     vip,
	})
}

// GetProfile returns the caller's own record.
// GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// UpdateProfile edits the caller's names and metadata. A submitted vip key is ignored.
// PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.Principal(c), service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Metadata:  req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}
