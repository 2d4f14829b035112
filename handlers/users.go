package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"kidsclub_backend/middleware"
	"kidsclub_backend/models"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	db *sql.DB
}

func NewUserHandler(db *sql.DB) *UserHandler {
	return &UserHandler{db: db}
}

func (h *UserHandler) requireAdmin(c *gin.Context) bool {
	if c.GetString("userRole") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can manage accounts"})
		return false
	}
	return true
}

// CreateUser adds an account. Leaders must be given at least one program;
// admins take none.
func (h *UserHandler) CreateUser(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role == "leader" && len(req.Programs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Leaders must have at least one program assigned"})
		return
	}

	var exists bool
	if err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", req.Username).Scan(&exists); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check username"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}

	programIDs := make([]int, 0, len(req.Programs))
	for _, name := range req.Programs {
		var programID int
		err := h.db.QueryRow("SELECT id FROM programs WHERE name = ? COLLATE NOCASE", name).Scan(&programID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found: " + name})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify program"})
			return
		}
		programIDs = append(programIDs, programID)
	}

	hashedPassword, err := middleware.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		req.Username, hashedPassword, req.Role,
	)
	if err != nil {
		log.Printf("Error creating user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	userID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if req.Role == "leader" {
		for _, programID := range programIDs {
			if _, err := tx.Exec(
				"INSERT INTO user_programs (user_id, program_id) VALUES (?, ?)",
				userID, programID,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign programs"})
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, models.UserResponse{
		ID:       int(userID),
		Username: req.Username,
		Role:     req.Role,
		Programs: req.Programs,
	})
}

// GetUsers lists all accounts with their assigned programs
func (h *UserHandler) GetUsers(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	rows, err := h.db.Query("SELECT id, username, role FROM users ORDER BY username")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	defer rows.Close()

	users := make([]models.UserResponse, 0)
	for rows.Next() {
		var user models.UserResponse
		if err := rows.Scan(&user.ID, &user.Username, &user.Role); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan user"})
			return
		}
		user.Programs = make([]string, 0)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	for i := range users {
		programRows, err := h.db.Query(`
            SELECT p.name
            FROM user_programs up
            JOIN programs p ON p.id = up.program_id
            WHERE up.user_id = ?
            ORDER BY p.name
        `, users[i].ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user programs"})
			return
		}
		for programRows.Next() {
			var name string
			if err := programRows.Scan(&name); err == nil {
				users[i].Programs = append(users[i].Programs, name)
			}
		}
		programRows.Close()
	}

	c.JSON(http.StatusOK, users)
}

// UpdateUserPrograms replaces a leader's assigned program set
func (h *UserHandler) UpdateUserPrograms(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var req models.UpdateUserProgramsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var role string
	err = h.db.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	if role != "leader" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only leader accounts have assigned programs"})
		return
	}

	programIDs := make([]int, 0, len(req.Programs))
	for _, name := range req.Programs {
		var programID int
		err := h.db.QueryRow("SELECT id FROM programs WHERE name = ? COLLATE NOCASE", name).Scan(&programID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Program not found: " + name})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify program"})
			return
		}
		programIDs = append(programIDs, programID)
	}

	tx, err := h.db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update programs"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM user_programs WHERE user_id = ?", userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update programs"})
		return
	}
	for _, programID := range programIDs {
		if _, err := tx.Exec(
			"INSERT INTO user_programs (user_id, program_id) VALUES (?, ?)",
			userID, programID,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update programs"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update programs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Programs updated successfully"})
}

// DeleteUser removes an account
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if userID == c.GetInt("userID") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	result, err := h.db.Exec("DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify deletion"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
