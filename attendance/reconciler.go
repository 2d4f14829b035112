package attendance

import (
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Mark is the caller's verdict for one kid: present or absent, with an
// optional note. Kids in scope but missing from the mark set get no record
// for the date, which is distinct from an explicit absent.
type Mark struct {
	Present bool
	Note    string
}

// Reconciler replaces one date's attendance records within one scope. The
// replace is wholesale: calling it twice with the same input leaves the same
// final state.
type Reconciler struct {
	db    *sql.DB
	store *Store
}

func NewReconciler(db *sql.DB, store *Store) *Reconciler {
	return &Reconciler{db: db, store: store}
}

// MarkDate commits the day sheet for date within scope. Every kid id in
// marks must be inside scope.KidIDs; any id outside it aborts the whole
// operation with ErrScopeViolation and nothing is written. Each record gets
// the kid's current program, the caller's username and the marking instant.
func (r *Reconciler) MarkDate(date string, scope Scope, marks map[string]Mark, markedBy string) ([]Record, error) {
	for kidID := range marks {
		if !scope.KidIDs[kidID] {
			return nil, fmt.Errorf("%w: %s", ErrScopeViolation, kidID)
		}
	}

	programs, err := r.currentPrograms(marks)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	records := make([]Record, 0, len(marks))
	for kidID, mark := range marks {
		records = append(records, Record{
			Date:      date,
			KidID:     kidID,
			Present:   mark.Present,
			Note:      mark.Note,
			Program:   programs[kidID],
			MarkedBy:  markedBy,
			Timestamp: now,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].KidID < records[j].KidID })

	if err := r.store.ReplaceForDateAndScope(date, scope.KidIDList(), records); err != nil {
		return nil, err
	}

	return records, nil
}

// currentPrograms looks up each marked kid's program as of now, so a kid
// moved between programs since the last marking is recorded under the new
// one.
func (r *Reconciler) currentPrograms(marks map[string]Mark) (map[string]string, error) {
	programs := make(map[string]string, len(marks))
	if len(marks) == 0 {
		return programs, nil
	}

	params := make([]interface{}, 0, len(marks))
	for kidID := range marks {
		params = append(params, kidID)
	}

	rows, err := r.db.Query(
		"SELECT id, program FROM kids WHERE id IN ("+placeholders(len(params))+")",
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying kid programs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, program string
		if err := rows.Scan(&id, &program); err != nil {
			return nil, fmt.Errorf("error scanning kid program: %w", err)
		}
		programs[id] = program
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for kidID := range marks {
		if _, ok := programs[kidID]; !ok {
			return nil, fmt.Errorf("%w: kid %s", ErrNotFound, kidID)
		}
	}

	return programs, nil
}
