package attendance

import (
	"database/sql"
	"fmt"
	"sort"
)

// AuthenticatedUser is the caller identity every operation receives
// explicitly. There is no ambient session state.
type AuthenticatedUser struct {
	ID       int
	Username string
	Role     string // "admin" or "leader"
}

// Scope is the set of programs and kids a user may view or mark. It is
// resolved fresh for every operation and never cached.
type Scope struct {
	Programs map[string]bool
	KidIDs   map[string]bool
}

// KidIDList returns the scope's kid ids in sorted order.
func (s Scope) KidIDList() []string {
	ids := make([]string, 0, len(s.KidIDs))
	for id := range s.KidIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolver computes access scopes from the live programs and kids tables.
type Resolver struct {
	db *sql.DB
}

func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// ScopeFor resolves the given user's scope. Admins see every program and
// every kid. Leaders see their assigned programs and the kids in them; a
// leader with no assigned programs gets an empty scope, not an error.
func (r *Resolver) ScopeFor(user AuthenticatedUser) (Scope, error) {
	scope := Scope{
		Programs: make(map[string]bool),
		KidIDs:   make(map[string]bool),
	}

	if user.Role == "admin" {
		rows, err := r.db.Query("SELECT name FROM programs")
		if err != nil {
			return scope, fmt.Errorf("error querying programs: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return scope, fmt.Errorf("error scanning program: %w", err)
			}
			scope.Programs[name] = true
		}
		if err := rows.Err(); err != nil {
			return scope, err
		}

		kidRows, err := r.db.Query("SELECT id FROM kids")
		if err != nil {
			return scope, fmt.Errorf("error querying kids: %w", err)
		}
		defer kidRows.Close()
		for kidRows.Next() {
			var id string
			if err := kidRows.Scan(&id); err != nil {
				return scope, fmt.Errorf("error scanning kid: %w", err)
			}
			scope.KidIDs[id] = true
		}
		return scope, kidRows.Err()
	}

	// Leader: assigned programs only
	rows, err := r.db.Query(`
        SELECT p.name
        FROM user_programs up
        JOIN programs p ON p.id = up.program_id
        WHERE up.user_id = ?
    `, user.ID)
	if err != nil {
		return scope, fmt.Errorf("error querying assigned programs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return scope, fmt.Errorf("error scanning program: %w", err)
		}
		scope.Programs[name] = true
	}
	if err := rows.Err(); err != nil {
		return scope, err
	}

	if len(scope.Programs) == 0 {
		return scope, nil
	}

	params := make([]interface{}, 0, len(scope.Programs))
	for name := range scope.Programs {
		params = append(params, name)
	}

	kidRows, err := r.db.Query(
		"SELECT id FROM kids WHERE program IN ("+placeholders(len(params))+")",
		params...,
	)
	if err != nil {
		return scope, fmt.Errorf("error querying kids in scope: %w", err)
	}
	defer kidRows.Close()
	for kidRows.Next() {
		var id string
		if err := kidRows.Scan(&id); err != nil {
			return scope, fmt.Errorf("error scanning kid: %w", err)
		}
		scope.KidIDs[id] = true
	}

	return scope, kidRows.Err()
}
