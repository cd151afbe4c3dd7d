package handler

import (
	"errors"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/brightform/userhub/internal/domain"
	"github.com/brightform/userhub/internal/http/middleware"
	"github.com/brightform/userhub/internal/service"
)

// UserHandler exposes the provisioning and listing endpoints.
type UserHandler struct {
	Provisioning *service.ProvisioningService
	Directory    *service.DirectoryService
}

// NewUserHandler wires dependencies.
func NewUserHandler(provisioning *service.ProvisioningService, directory *service.DirectoryService) *UserHandler {
	return &UserHandler{Provisioning: provisioning, Directory: directory}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	CreatedAt    *time.Time     `json:"createdAt,omitempty"`
	CreatedTeams []teamResponse `json:"createdTeams,omitempty"`
}

type teamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Register handles POST /users. The role field is accepted for shape
// compatibility; the orchestrator applies the configured default instead.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}
	if !validName(req.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": "name must be 2-50 letters"})
		return
	}

	requestedRole := domain.RoleUser
	if req.Role != "" {
		role, ok := domain.ParseRole(req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": "role must be ADMIN or USER"})
			return
		}
		requestedRole = role
	}

	registration, err := h.Provisioning.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     requestedRole,
	})
	if err != nil {
		respondAPIError(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"data": userResponse{
			ID:    registration.User.ID,
			Name:  registration.User.Name,
			Email: registration.User.Email,
			Role:  string(registration.User.Role),
		},
	}
	if registration.Pending {
		body["message"] = "Registration successful. Please check your email to confirm your account."
	}
	c.JSON(http.StatusCreated, body)
}

// List handles GET /users behind the session middleware.
func (h *UserHandler) List(c *gin.Context) {
	caller, _ := middleware.GetCaller(c)

	users, err := h.Directory.ListAll(c.Request.Context(), caller)
	if err != nil {
		respondAPIError(c, err)
		return
	}

	data := make([]userResponse, 0, len(users))
	for _, user := range users {
		data = append(data, toUserResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func toUserResponse(user domain.User) userResponse {
	resp := userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
	if !user.CreatedAt.IsZero() {
		createdAt := user.CreatedAt
		resp.CreatedAt = &createdAt
	}
	for _, team := range user.CreatedTeams {
		resp.CreatedTeams = append(resp.CreatedTeams, teamResponse{ID: team.ID, Name: team.Name})
	}
	return resp
}

// validName enforces the 2-50 letters-only name rule.
func validName(name string) bool {
	count := utf8.RuneCountInString(name)
	if count < 2 || count > 50 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func respondAPIError(c *gin.Context, err error) {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		body := gin.H{"error": apiErr.Message}
		if apiErr.Details != "" {
			body["details"] = apiErr.Details
		}
		c.JSON(apiErr.Status, body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
}
