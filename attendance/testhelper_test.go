package attendance

import (
	"database/sql"
	"testing"

	"kidsclub_backend/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// a second pooled connection would see a different empty in-memory db
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.InitSchema(conn))
	return conn
}

func addProgram(t *testing.T, conn *sql.DB, name string) int {
	t.Helper()
	res, err := conn.Exec("INSERT INTO programs (name) VALUES (?)", name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

func addKid(t *testing.T, conn *sql.DB, id, name, program string) {
	t.Helper()
	_, err := conn.Exec(
		"INSERT INTO kids (id, name, age, program) VALUES (?, ?, 7, ?)",
		id, name, program,
	)
	require.NoError(t, err)
}

func addLeader(t *testing.T, conn *sql.DB, username string, programIDs ...int) AuthenticatedUser {
	t.Helper()
	res, err := conn.Exec(
		"INSERT INTO users (username, password_hash, role) VALUES (?, 'x', 'leader')",
		username,
	)
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)

	for _, pid := range programIDs {
		_, err := conn.Exec(
			"INSERT INTO user_programs (user_id, program_id) VALUES (?, ?)",
			userID, pid,
		)
		require.NoError(t, err)
	}

	return AuthenticatedUser{ID: int(userID), Username: username, Role: "leader"}
}

func addAdmin(t *testing.T, conn *sql.DB, username string) AuthenticatedUser {
	t.Helper()
	res, err := conn.Exec(
		"INSERT INTO users (username, password_hash, role) VALUES (?, 'x', 'admin')",
		username,
	)
	require.NoError(t, err)
	userID, err := res.LastInsertId()
	require.NoError(t, err)
	return AuthenticatedUser{ID: int(userID), Username: username, Role: "admin"}
}
