package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

type UserProfile struct {
	ID       int      `json:"id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Programs []string `json:"programs"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"` // "-" means this field won't be included in JSON
}
