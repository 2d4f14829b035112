package attendance

import (
	"database/sql"
	"fmt"
	"strings"
)

// Record is one attendance row: whether a kid was present on a date, who
// marked it and when. At most one record exists per (date, kid_id).
type Record struct {
	Date      string
	KidID     string
	Present   bool
	Note      string
	Program   string
	MarkedBy  string
	Timestamp string
}

// Store is the durable collection of attendance records.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Find returns all records for a date, ordered by kid id. A non-empty kidIDs
// restricts the result to those kids.
func (s *Store) Find(date string, kidIDs []string) ([]Record, error) {
	query := `
        SELECT date, kid_id, present, note, program, marked_by, timestamp
        FROM attendance
        WHERE date = ?
    `
	params := []interface{}{date}

	if len(kidIDs) > 0 {
		query += " AND kid_id IN (" + placeholders(len(kidIDs)) + ")"
		for _, id := range kidIDs {
			params = append(params, id)
		}
	}

	query += " ORDER BY kid_id"

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("error querying attendance: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var present int
		if err := rows.Scan(&r.Date, &r.KidID, &present, &r.Note, &r.Program, &r.MarkedBy, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning attendance record: %w", err)
		}
		r.Present = present == 1
		records = append(records, r)
	}

	return records, rows.Err()
}

// FindRange returns all records with from <= date <= to, ordered by date then
// kid id. Empty from/to leave that end of the range open.
func (s *Store) FindRange(from, to string, kidIDs []string) ([]Record, error) {
	query := `
        SELECT date, kid_id, present, note, program, marked_by, timestamp
        FROM attendance
        WHERE 1=1
    `
	params := []interface{}{}

	if from != "" {
		query += " AND date >= ?"
		params = append(params, from)
	}
	if to != "" {
		query += " AND date <= ?"
		params = append(params, to)
	}
	if len(kidIDs) > 0 {
		query += " AND kid_id IN (" + placeholders(len(kidIDs)) + ")"
		for _, id := range kidIDs {
			params = append(params, id)
		}
	}

	query += " ORDER BY date, kid_id"

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("error querying attendance: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var present int
		if err := rows.Scan(&r.Date, &r.KidID, &present, &r.Note, &r.Program, &r.MarkedBy, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning attendance record: %w", err)
		}
		r.Present = present == 1
		records = append(records, r)
	}

	return records, rows.Err()
}

// ReplaceForDateAndScope is the only mutation entry point. Inside one
// transaction it removes every record for the date whose kid id is in kidIDs,
// then inserts newRecords. Records for the same date belonging to kids
// outside kidIDs survive untouched, so two leaders marking different programs
// on the same day never clobber each other. The transaction makes the swap
// all-or-nothing: a failed commit leaves prior state intact.
func (s *Store) ReplaceForDateAndScope(date string, kidIDs []string, newRecords []Record) error {
	if len(kidIDs) == 0 && len(newRecords) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if len(kidIDs) > 0 {
		query := "DELETE FROM attendance WHERE date = ? AND kid_id IN (" + placeholders(len(kidIDs)) + ")"
		params := []interface{}{date}
		for _, id := range kidIDs {
			params = append(params, id)
		}
		if _, err := tx.Exec(query, params...); err != nil {
			return fmt.Errorf("error removing prior records: %w", err)
		}
	}

	for _, r := range newRecords {
		present := 0
		if r.Present {
			present = 1
		}
		_, err := tx.Exec(`
            INSERT INTO attendance (date, kid_id, present, note, program, marked_by, timestamp)
            VALUES (?, ?, ?, ?, ?, ?, ?)
        `, r.Date, r.KidID, present, r.Note, r.Program, r.MarkedBy, r.Timestamp)
		if err != nil {
			return fmt.Errorf("error inserting record for kid %s: %w", r.KidID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing attendance replace: %w", err)
	}

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
