package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaffeewerk/brewcore/internal/auth"
	"github.com/kaffeewerk/brewcore/internal/types"
)

// Login request/response types
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Auth handlers
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest, "Invalid request body", err.Error()))
		return
	}

	authService := c.MustGet("authService").(*auth.AuthService)
	accessToken, refreshToken, err := authService.LoginUser(
		c.Request.Context(),
		req.Username,
		req.Password,
		c.ClientIP(),
		c.GetHeader("User-Agent"),
	)

	if err != nil {
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("AUTH_401", "Invalid credentials", nil))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(authService.AccessTokenTTL().Seconds()),
	})
}

func (s *Server) refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest, "Invalid request body", err.Error()))
		return
	}

	authService := c.MustGet("authService").(*auth.AuthService)
	accessToken, newRefreshToken, err := authService.RefreshAccessToken(
		c.Request.Context(),
		req.RefreshToken,
	)

	if err != nil {
		c.JSON(http.StatusUnauthorized, types.NewErrorResponse("AUTH_401", "Invalid or expired refresh token", nil))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(authService.AccessTokenTTL().Seconds()),
	})
}

func (s *Server) logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeInvalidRequest, "Invalid request body", err.Error()))
		return
	}

	authService := c.MustGet("authService").(*auth.AuthService)
	if err := authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeInternal, "Failed to logout", err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (s *Server) getCurrentUser(c *gin.Context) {
	username, exists := c.Get("username")
	if !exists {
		// Machine tokens authenticate without a user identity.
		perms, _ := c.Get("permissions")
		c.JSON(http.StatusOK, gin.H{
			"user":        nil,
			"permissions": perms,
		})
		return
	}

	role, _ := c.Get("role")
	permissions, _ := c.Get("permissions")
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"username": username,
			"role":     role,
		},
		"permissions": permissions,
	})
}
