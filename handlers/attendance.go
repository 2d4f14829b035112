package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"kidsclub_backend/attendance"
	"kidsclub_backend/models"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	db         *sql.DB
	store      *attendance.Store
	resolver   *attendance.Resolver
	reconciler *attendance.Reconciler
}

func NewAttendanceHandler(db *sql.DB) *AttendanceHandler {
	store := attendance.NewStore(db)
	return &AttendanceHandler{
		db:         db,
		store:      store,
		resolver:   attendance.NewResolver(db),
		reconciler: attendance.NewReconciler(db, store),
	}
}

// GetDaySheet returns the attendance sheet for a date: every kid in the
// caller's scope, with their record for that date if one exists.
func (h *AttendanceHandler) GetDaySheet(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}

	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	sheet := make([]models.DaySheetRow, 0)
	if len(scope.KidIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"date": date, "kids": sheet})
		return
	}

	kidIDs := scope.KidIDList()
	records, err := h.store.Find(date, kidIDs)
	if err != nil {
		log.Printf("Error fetching records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch attendance records"})
		return
	}
	byKid := make(map[string]attendance.Record, len(records))
	for _, r := range records {
		byKid[r.KidID] = r
	}

	query := "SELECT id, name, program FROM kids WHERE id IN (" + sqlPlaceholders(len(kidIDs)) + ") ORDER BY program, name"
	params := make([]interface{}, 0, len(kidIDs))
	for _, id := range kidIDs {
		params = append(params, id)
	}
	rows, err := h.db.Query(query, params...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch kids"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var row models.DaySheetRow
		if err := rows.Scan(&row.KidID, &row.KidName, &row.Program); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan kid"})
			return
		}
		if record, ok := byKid[row.KidID]; ok {
			row.Marked = true
			row.Present = record.Present
			row.Note = record.Note
		}
		sheet = append(sheet, row)
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "kids": sheet})
}

// MarkAttendance replaces the caller's day sheet for a date. Kids left out
// of the entries get no record for that date, which is different from an
// explicit absent.
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	scope, err := h.resolver.ScopeFor(user)
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	marks := make(map[string]attendance.Mark, len(req.Entries))
	for _, entry := range req.Entries {
		marks[entry.KidID] = attendance.Mark{Present: entry.Present, Note: entry.Note}
	}

	records, err := h.reconciler.MarkDate(req.Date, scope, marks, user.Username)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrScopeViolation):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("Error marking attendance: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save attendance"})
		}
		return
	}

	saved := make([]models.AttendanceRecordResponse, 0, len(records))
	for _, r := range records {
		saved = append(saved, models.AttendanceRecordResponse{
			Date:      r.Date,
			KidID:     r.KidID,
			Present:   r.Present,
			Note:      r.Note,
			Program:   r.Program,
			MarkedBy:  r.MarkedBy,
			Timestamp: r.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{"date": req.Date, "records": saved})
}
