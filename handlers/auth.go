package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"kidsclub_backend/attendance"
	"kidsclub_backend/middleware"
	"kidsclub_backend/models"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	db           *sql.DB
	tokenService *middleware.TokenService
}

func NewAuthHandler(db *sql.DB, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{
		db:           db,
		tokenService: middleware.NewTokenService(db, jwtSecret),
	}
}

// currentUser rebuilds the caller identity from the request context set by
// the auth middleware.
func currentUser(c *gin.Context) attendance.AuthenticatedUser {
	return attendance.AuthenticatedUser{
		ID:       c.GetInt("userID"),
		Username: c.GetString("username"),
		Role:     c.GetString("userRole"),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.db.QueryRow(`SELECT id, username, role, password_hash FROM users WHERE username = ?`, req.Username).
		Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash)

	if err == sql.ErrNoRows || (err == nil && !middleware.VerifyPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	} else if err != nil {
		log.Printf("Error querying user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	tokens, err := h.tokenService.GenerateTokens(user.ID)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.tokenService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	tokens, err := h.tokenService.GenerateTokens(userID)
	if err != nil {
		log.Printf("Error generating tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	if err := h.tokenService.InvalidateRefreshToken(req.RefreshToken); err != nil {
		log.Printf("Error invalidating old refresh token: %v", err)
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout revokes the refresh token from the request body. The access token
// stays valid until it expires; only the refresh token lives server-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tokenService.InvalidateRefreshToken(req.RefreshToken); err != nil {
		log.Printf("Error invalidating refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GetUserInfo fetches the caller's profile, including assigned programs
func (h *AuthHandler) GetUserInfo(c *gin.Context) {
	user := currentUser(c)

	profile := models.UserProfile{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Programs: make([]string, 0),
	}

	rows, err := h.db.Query(`
		SELECT p.name
		FROM user_programs up
		JOIN programs p ON p.id = up.program_id
		WHERE up.user_id = ?
		ORDER BY p.name
	`, user.ID)
	if err != nil {
		log.Printf("Error getting user programs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			profile.Programs = append(profile.Programs, name)
		}
	}

	c.JSON(http.StatusOK, profile)
}
