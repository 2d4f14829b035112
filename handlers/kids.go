package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"kidsclub_backend/attendance"
	"kidsclub_backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type KidHandler struct {
	db       *sql.DB
	resolver *attendance.Resolver
}

func NewKidHandler(db *sql.DB) *KidHandler {
	return &KidHandler{db: db, resolver: attendance.NewResolver(db)}
}

// GetKids lists the kids visible to the caller. Admins see everyone,
// leaders only the kids in their assigned programs.
func (h *KidHandler) GetKids(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	kids := make([]models.KidResponse, 0)
	if len(scope.KidIDs) == 0 && c.GetString("userRole") != "admin" {
		c.JSON(http.StatusOK, kids)
		return
	}

	query := `
        SELECT id, name, age, gender, program, dob, school, location,
               guardian_name, guardian_contact, guardian_relationship, image_ref, created_at
        FROM kids
    `
	params := []interface{}{}
	if c.GetString("userRole") != "admin" {
		ids := scope.KidIDList()
		query += " WHERE id IN (" + sqlPlaceholders(len(ids)) + ")"
		for _, id := range ids {
			params = append(params, id)
		}
	}
	query += " ORDER BY program, name"

	rows, err := h.db.Query(query, params...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch kids"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var kid models.KidResponse
		if err := rows.Scan(
			&kid.ID, &kid.Name, &kid.Age, &kid.Gender, &kid.Program, &kid.DOB,
			&kid.School, &kid.Location, &kid.GuardianName, &kid.GuardianContact,
			&kid.GuardianRelationship, &kid.ImageRef, &kid.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan kid"})
			return
		}
		kids = append(kids, kid)
	}

	c.JSON(http.StatusOK, kids)
}

// CreateKid adds a new kid. Leaders may only add kids into their own
// programs.
func (h *KidHandler) CreateKid(c *gin.Context) {
	var req models.CreateKidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Store the registry's casing of the program name, whatever the caller
	// submitted; scope resolution compares kid rows against registry names
	err := h.db.QueryRow(
		"SELECT name FROM programs WHERE name = ? COLLATE NOCASE",
		req.Program,
	).Scan(&req.Program)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify program"})
		return
	}

	if c.GetString("userRole") != "admin" {
		scope, err := h.resolver.ScopeFor(currentUser(c))
		if err != nil {
			log.Printf("Error resolving scope: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
			return
		}
		if !scope.Programs[req.Program] {
			c.JSON(http.StatusForbidden, gin.H{"error": "Leaders can only add kids to their own programs"})
			return
		}
	}

	kidID := uuid.NewString()
	_, err = h.db.Exec(`
        INSERT INTO kids (id, name, age, gender, program, dob, school, location,
                          guardian_name, guardian_contact, guardian_relationship, image_ref)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, kidID, req.Name, req.Age, req.Gender, req.Program, req.DOB, req.School,
		req.Location, req.GuardianName, req.GuardianContact, req.GuardianRelationship, req.ImageRef)
	if err != nil {
		log.Printf("Error creating kid: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create kid"})
		return
	}

	c.JSON(http.StatusCreated, models.KidResponse{
		ID:                   kidID,
		Name:                 req.Name,
		Age:                  req.Age,
		Gender:               req.Gender,
		Program:              req.Program,
		DOB:                  req.DOB,
		School:               req.School,
		Location:             req.Location,
		GuardianName:         req.GuardianName,
		GuardianContact:      req.GuardianContact,
		GuardianRelationship: req.GuardianRelationship,
		ImageRef:             req.ImageRef,
	})
}

// GetKid fetches one kid by id, subject to the caller's scope
func (h *KidHandler) GetKid(c *gin.Context) {
	kidID := c.Param("id")

	var kid models.KidResponse
	err := h.db.QueryRow(`
        SELECT id, name, age, gender, program, dob, school, location,
               guardian_name, guardian_contact, guardian_relationship, image_ref, created_at
        FROM kids WHERE id = ?
    `, kidID).Scan(
		&kid.ID, &kid.Name, &kid.Age, &kid.Gender, &kid.Program, &kid.DOB,
		&kid.School, &kid.Location, &kid.GuardianName, &kid.GuardianContact,
		&kid.GuardianRelationship, &kid.ImageRef, &kid.CreatedAt,
	)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kid not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch kid"})
		return
	}

	if !h.inScope(c, kidID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Kid is outside your access scope"})
		return
	}

	c.JSON(http.StatusOK, kid)
}

// UpdateKid edits a kid. Program membership only changes here, never as a
// side effect of marking attendance.
func (h *KidHandler) UpdateKid(c *gin.Context) {
	kidID := c.Param("id")

	var req models.UpdateKidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var exists bool
	if err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM kids WHERE id = ?)", kidID).Scan(&exists); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify kid"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kid not found"})
		return
	}

	if !h.inScope(c, kidID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Kid is outside your access scope"})
		return
	}

	// Same canonicalization as CreateKid
	err := h.db.QueryRow(
		"SELECT name FROM programs WHERE name = ? COLLATE NOCASE",
		req.Program,
	).Scan(&req.Program)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Program not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify program"})
		return
	}

	if c.GetString("userRole") != "admin" {
		scope, err := h.resolver.ScopeFor(currentUser(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
			return
		}
		if !scope.Programs[req.Program] {
			c.JSON(http.StatusForbidden, gin.H{"error": "Leaders can only move kids within their own programs"})
			return
		}
	}

	_, err = h.db.Exec(`
        UPDATE kids
        SET name = ?, age = ?, gender = ?, program = ?, dob = ?, school = ?, location = ?,
            guardian_name = ?, guardian_contact = ?, guardian_relationship = ?, image_ref = ?
        WHERE id = ?
    `, req.Name, req.Age, req.Gender, req.Program, req.DOB, req.School, req.Location,
		req.GuardianName, req.GuardianContact, req.GuardianRelationship, req.ImageRef, kidID)
	if err != nil {
		log.Printf("Error updating kid: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update kid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Kid updated successfully"})
}

// DeleteKid removes a kid along with their attendance history
func (h *KidHandler) DeleteKid(c *gin.Context) {
	kidID := c.Param("id")

	var exists bool
	if err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM kids WHERE id = ?)", kidID).Scan(&exists); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify kid"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kid not found"})
		return
	}

	if !h.inScope(c, kidID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Kid is outside your access scope"})
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete kid"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM attendance WHERE kid_id = ?", kidID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete attendance records"})
		return
	}
	if _, err := tx.Exec("DELETE FROM kids WHERE id = ?", kidID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete kid"})
		return
	}
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete kid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Kid deleted successfully"})
}

func (h *KidHandler) inScope(c *gin.Context, kidID string) bool {
	if c.GetString("userRole") == "admin" {
		return true
	}
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		return false
	}
	return scope.KidIDs[kidID]
}
