package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"kidsclub_backend/attendance"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	db       *sql.DB
	store    *attendance.Store
	resolver *attendance.Resolver
}

func NewReportHandler(db *sql.DB) *ReportHandler {
	return &ReportHandler{
		db:       db,
		store:    attendance.NewStore(db),
		resolver: attendance.NewResolver(db),
	}
}

// GetDashboard returns headline totals plus the most recent records within
// the caller's scope
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	recent := make([]gin.H, 0)
	if len(scope.KidIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"total_kids":      0,
			"attendance_days": 0,
			"total_records":   0,
			"recent":          recent,
		})
		return
	}

	kidIDs := scope.KidIDList()
	params := make([]interface{}, 0, len(kidIDs))
	for _, id := range kidIDs {
		params = append(params, id)
	}
	in := "(" + sqlPlaceholders(len(kidIDs)) + ")"

	var totalKids, attendanceDays, totalRecords int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM kids WHERE id IN "+in, params...).Scan(&totalKids); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count kids"})
		return
	}
	if err := h.db.QueryRow("SELECT COUNT(DISTINCT date) FROM attendance WHERE kid_id IN "+in, params...).Scan(&attendanceDays); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count attendance days"})
		return
	}
	if err := h.db.QueryRow("SELECT COUNT(*) FROM attendance WHERE kid_id IN "+in, params...).Scan(&totalRecords); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count records"})
		return
	}

	rows, err := h.db.Query(`
        SELECT a.timestamp, a.date, k.name, a.present, a.note
        FROM attendance a
        JOIN kids k ON k.id = a.kid_id
        WHERE a.kid_id IN `+in+`
        ORDER BY a.timestamp DESC
        LIMIT 15
    `, params...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent records"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var timestamp, date, name, note string
		var present int
		if err := rows.Scan(&timestamp, &date, &name, &present, &note); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan record"})
			return
		}
		recent = append(recent, gin.H{
			"timestamp": timestamp,
			"date":      date,
			"kid_name":  name,
			"present":   present == 1,
			"note":      note,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_kids":      totalKids,
		"attendance_days": attendanceDays,
		"total_records":   totalRecords,
		"recent":          recent,
	})
}

// GetDailySummary returns present/absent counts per date within scope
func (h *ReportHandler) GetDailySummary(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	summary := make([]gin.H, 0)
	if len(scope.KidIDs) == 0 {
		c.JSON(http.StatusOK, summary)
		return
	}

	kidIDs := scope.KidIDList()
	params := make([]interface{}, 0, len(kidIDs))
	for _, id := range kidIDs {
		params = append(params, id)
	}

	rows, err := h.db.Query(`
        SELECT date,
               SUM(present) AS present_count,
               SUM(1 - present) AS absent_count
        FROM attendance
        WHERE kid_id IN (`+sqlPlaceholders(len(kidIDs))+`)
        GROUP BY date
        ORDER BY date DESC
    `, params...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var date string
		var presentCount, absentCount int
		if err := rows.Scan(&date, &presentCount, &absentCount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan summary row"})
			return
		}
		summary = append(summary, gin.H{
			"date":    date,
			"present": presentCount,
			"absent":  absentCount,
		})
	}

	c.JSON(http.StatusOK, summary)
}

// GetHistory returns the raw record list within scope, optionally limited to
// a from/to date range
func (h *ReportHandler) GetHistory(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	for _, date := range []string{from, to} {
		if date == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be in YYYY-MM-DD format"})
			return
		}
	}

	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	history := make([]gin.H, 0)
	if len(scope.KidIDs) == 0 {
		c.JSON(http.StatusOK, history)
		return
	}

	records, err := h.store.FindRange(from, to, scope.KidIDList())
	if err != nil {
		log.Printf("Error fetching history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	names := make(map[string]string)
	nameRows, err := h.db.Query("SELECT id, name FROM kids")
	if err != nil {
		log.Printf("Error fetching kid names: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	for nameRows.Next() {
		var id, name string
		if err := nameRows.Scan(&id, &name); err != nil {
			log.Printf("Error scanning kid name: %v", err)
			continue
		}
		names[id] = name
	}
	nameRows.Close()

	for _, r := range records {
		history = append(history, gin.H{
			"date":      r.Date,
			"kid_id":    r.KidID,
			"kid_name":  names[r.KidID],
			"present":   r.Present,
			"note":      r.Note,
			"program":   r.Program,
			"marked_by": r.MarkedBy,
			"timestamp": r.Timestamp,
		})
	}

	c.JSON(http.StatusOK, history)
}

// GetKidStats returns per-kid attendance counts and percentage over the days
// recorded within scope
func (h *ReportHandler) GetKidStats(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		log.Printf("Error resolving scope: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	stats := make([]gin.H, 0)
	if len(scope.KidIDs) == 0 {
		c.JSON(http.StatusOK, stats)
		return
	}

	kidIDs := scope.KidIDList()
	params := make([]interface{}, 0, len(kidIDs))
	for _, id := range kidIDs {
		params = append(params, id)
	}
	in := "(" + sqlPlaceholders(len(kidIDs)) + ")"

	var totalDays int
	if err := h.db.QueryRow("SELECT COUNT(DISTINCT date) FROM attendance WHERE kid_id IN "+in, params...).Scan(&totalDays); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count attendance days"})
		return
	}

	rows, err := h.db.Query(`
        SELECT k.id, k.name, k.program,
               COUNT(CASE WHEN a.present = 1 THEN 1 END) AS present_days
        FROM kids k
        LEFT JOIN attendance a ON a.kid_id = k.id
        WHERE k.id IN `+in+`
        GROUP BY k.id, k.name, k.program
        ORDER BY k.program, k.name
    `, params...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build kid stats"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, program string
		var presentDays int
		if err := rows.Scan(&id, &name, &program, &presentDays); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan stats row"})
			return
		}
		entry := gin.H{
			"kid_id":       id,
			"kid_name":     name,
			"program":      program,
			"present_days": presentDays,
			"total_days":   totalDays,
		}
		if totalDays > 0 {
			entry["percentage"] = float64(presentDays) / float64(totalDays) * 100
		}
		stats = append(stats, entry)
	}

	c.JSON(http.StatusOK, stats)
}
