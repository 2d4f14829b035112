package handlers

import (
	"database/sql"
	"net/http"

	"kidsclub_backend/models"

	"github.com/gin-gonic/gin"
)

type ProgramHandler struct {
	db *sql.DB
}

func NewProgramHandler(db *sql.DB) *ProgramHandler {
	return &ProgramHandler{db: db}
}

// CreateProgram handles the creation of a new program. Admin only; program
// names are unique ignoring case.
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	if c.GetString("userRole") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can create programs"})
		return
	}

	var req models.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var exists bool
	err := h.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM programs WHERE name = ? COLLATE NOCASE)",
		req.Name,
	).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check existing programs"})
		return
	}

	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Program already exists"})
		return
	}

	result, err := h.db.Exec("INSERT INTO programs (name) VALUES (?)", req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create program"})
		return
	}

	programID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create program"})
		return
	}

	c.JSON(http.StatusCreated, models.ProgramResponse{
		ID:   int(programID),
		Name: req.Name,
	})
}

// GetPrograms handles retrieving all programs
func (h *ProgramHandler) GetPrograms(c *gin.Context) {
	rows, err := h.db.Query("SELECT id, name FROM programs ORDER BY name")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch programs"})
		return
	}
	defer rows.Close()

	programs := make([]models.ProgramResponse, 0)
	for rows.Next() {
		var program models.ProgramResponse
		if err := rows.Scan(&program.ID, &program.Name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan program"})
			return
		}
		programs = append(programs, program)
	}

	c.JSON(http.StatusOK, programs)
}
