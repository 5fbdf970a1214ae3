package rest

import (
	"net/http"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// POST /api/v1/auth/login
func (s *Server) login(c *gin.Context) {
	if !s.authService.Enabled() {
		c.JSON(http.StatusNotFound, types.NewStatusError(types.AreaAuth, http.StatusNotFound, "Authentication is disabled", nil))
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaAuth, "Invalid request body", err)
		return
	}

	token, expires, err := s.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, types.NewStatusError(types.AreaAuth, http.StatusUnauthorized, "Invalid credentials", nil))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expires).Seconds()),
	})
}

// GET /api/v1/auth/me
func (s *Server) getCurrentUser(c *gin.Context) {
	perms, _ := c.Get("permissions")
	c.JSON(http.StatusOK, gin.H{
		"username":    auth.Username(c),
		"role":        c.GetString("role"),
		"permissions": perms,
	})
}
