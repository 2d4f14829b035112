package handlers

import (
	"archive/zip"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"kidsclub_backend/attendance"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type TransferHandler struct {
	db       *sql.DB
	store    *attendance.Store
	resolver *attendance.Resolver
}

func NewTransferHandler(db *sql.DB) *TransferHandler {
	return &TransferHandler{
		db:       db,
		store:    attendance.NewStore(db),
		resolver: attendance.NewResolver(db),
	}
}

type importRow struct {
	name    string
	age     int
	gender  string
	program string
}

// ImportKids ingests an uploaded .xlsx or .csv roster. Required columns:
// Name, Age, Program; Gender is optional. Rows go through the same insert
// path as single-kid creation, never straight into the table.
func (h *TransferHandler) ImportKids(c *gin.Context) {
	if c.GetString("userRole") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can import kids"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file upload named 'file' is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	var rows [][]string
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".xlsx":
		workbook, err := excelize.OpenReader(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read Excel file"})
			return
		}
		defer workbook.Close()

		sheetName := workbook.GetSheetName(0)
		if sheetName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No worksheet found"})
			return
		}
		rows, err = workbook.GetRows(sheetName)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read worksheet"})
			return
		}
	case ".csv":
		reader := csv.NewReader(file)
		reader.FieldsPerRecord = -1
		rows, err = reader.ReadAll()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read CSV file"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be .xlsx or .csv"})
		return
	}

	if len(rows) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File has no data rows"})
		return
	}

	columns := make(map[string]int)
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"name", "age", "program"} {
		if _, ok := columns[required]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File must contain columns: Name, Age, Program"})
			return
		}
	}

	cell := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	imports := make([]importRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name := cell(row, "name")
		program := cell(row, "program")
		if name == "" && program == "" {
			continue // blank row
		}
		if name == "" || program == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Row %d: name and program are required", i+2)})
			return
		}

		age, err := strconv.Atoi(cell(row, "age"))
		if err != nil || age < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Row %d: age must be a positive number", i+2)})
			return
		}

		// Rows land with the registry's casing of the program name so scope
		// resolution matches them
		err = h.db.QueryRow(
			"SELECT name FROM programs WHERE name = ? COLLATE NOCASE", program,
		).Scan(&program)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Row %d: program not found: %s", i+2, program)})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify program"})
			return
		}

		imports = append(imports, importRow{
			name:    name,
			age:     age,
			gender:  cell(row, "gender"),
			program: program,
		})
	}

	tx, err := h.db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import kids"})
		return
	}
	defer tx.Rollback()

	for _, row := range imports {
		if _, err := tx.Exec(
			"INSERT INTO kids (id, name, age, gender, program) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), row.name, row.age, row.gender, row.program,
		); err != nil {
			log.Printf("Error importing kid: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import kids"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import kids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Kids imported successfully", "imported": len(imports)})
}

// ExportKidsCSV downloads the caller's visible kids as CSV
func (h *TransferHandler) ExportKidsCSV(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="kids.csv"`)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()
	writer.Write([]string{"id", "name", "age", "gender", "program"})

	if err := h.writeKidsCSV(writer, scope); err != nil {
		log.Printf("Error exporting kids: %v", err)
	}
}

// ExportAttendanceCSV downloads the caller's visible attendance records as CSV
func (h *TransferHandler) ExportAttendanceCSV(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()
	writer.Write([]string{"date", "kid_id", "present", "note", "program", "marked_by", "timestamp"})

	if err := h.writeAttendanceCSV(writer, scope); err != nil {
		log.Printf("Error exporting attendance: %v", err)
	}
}

// ExportBundle downloads kids.csv and attendance.csv zipped together
func (h *TransferHandler) ExportBundle(c *gin.Context) {
	scope, err := h.resolver.ScopeFor(currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve access scope"})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="attendance_export.zip"`)

	archive := zip.NewWriter(c.Writer)
	defer archive.Close()

	kidsFile, err := archive.Create("kids.csv")
	if err != nil {
		log.Printf("Error creating bundle: %v", err)
		return
	}
	kidsWriter := csv.NewWriter(kidsFile)
	kidsWriter.Write([]string{"id", "name", "age", "gender", "program"})
	if err := h.writeKidsCSV(kidsWriter, scope); err != nil {
		log.Printf("Error exporting kids: %v", err)
		return
	}
	kidsWriter.Flush()

	attendanceFile, err := archive.Create("attendance.csv")
	if err != nil {
		log.Printf("Error creating bundle: %v", err)
		return
	}
	attendanceWriter := csv.NewWriter(attendanceFile)
	attendanceWriter.Write([]string{"date", "kid_id", "present", "note", "program", "marked_by", "timestamp"})
	if err := h.writeAttendanceCSV(attendanceWriter, scope); err != nil {
		log.Printf("Error exporting attendance: %v", err)
		return
	}
	attendanceWriter.Flush()
}

func (h *TransferHandler) writeKidsCSV(writer *csv.Writer, scope attendance.Scope) error {
	if len(scope.KidIDs) == 0 {
		return nil
	}

	kidIDs := scope.KidIDList()
	params := make([]interface{}, 0, len(kidIDs))
	for _, id := range kidIDs {
		params = append(params, id)
	}

	rows, err := h.db.Query(
		"SELECT id, name, age, gender, program FROM kids WHERE id IN ("+sqlPlaceholders(len(kidIDs))+") ORDER BY program, name",
		params...,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, gender, program string
		var age int
		if err := rows.Scan(&id, &name, &age, &gender, &program); err != nil {
			return err
		}
		if err := writer.Write([]string{id, name, strconv.Itoa(age), gender, program}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (h *TransferHandler) writeAttendanceCSV(writer *csv.Writer, scope attendance.Scope) error {
	if len(scope.KidIDs) == 0 {
		return nil
	}

	records, err := h.store.FindRange("", "", scope.KidIDList())
	if err != nil {
		return err
	}

	for _, r := range records {
		present := "0"
		if r.Present {
			present = "1"
		}
		if err := writer.Write([]string{r.Date, r.KidID, present, r.Note, r.Program, r.MarkedBy, r.Timestamp}); err != nil {
			return err
		}
	}
	return nil
}
