package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Initialize opens the SQLite database file and returns the connection
func Initialize(path string) (*sql.DB, error) {
	// WAL mode, busy timeout and foreign keys via DSN pragmas
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = database.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	DB = database
	return database, nil
}

// GetDB returns the database instance
func GetDB() *sql.DB {
	return DB
}
