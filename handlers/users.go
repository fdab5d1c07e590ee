package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/httpx"
	"github.com/claimdesk/claimdesk/backend/go-services/internal/users"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/middleware"
)

// UsersHandler exposes profile administration and lookup.
type UsersHandler struct {
	svc *users.Service
}

func NewUsersHandler(svc *users.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// Register routes under /users. The role lookup is public so clients can
// route a freshly signed-in user before any other call.
func (h *UsersHandler) Register(rg gin.IRouter, authn gin.HandlerFunc) {
	u := rg.Group("/users")
	u.POST("", authn, middleware.RequireRole(h.svc, string(users.RoleAdmin)), h.Create)
	u.GET("/me", authn, h.Me)
	u.GET("/:uid/role", h.Role)
}

// Create provisions an identity-provider account and its profile.
func (h *UsersHandler) Create(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Message(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.svc.CreateUser(c.Request.Context(), p.UID, users.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      users.Role(req.Role),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"uid":       u.UID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"role":      u.Role,
	})
}

func (h *UsersHandler) Role(c *gin.Context) {
	role, err := h.svc.GetRole(c.Request.Context(), c.Param("uid"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (h *UsersHandler) Me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.svc.Get(c.Request.Context(), p.UID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": u.UID, "profile": u.Profile()})
}
