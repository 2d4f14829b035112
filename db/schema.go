package db

import (
	"database/sql"
	"fmt"
)

const Schema = `
-- Create users table
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'leader')),
    created_at TEXT NOT NULL DEFAULT (date('now'))
);

-- Create programs table
CREATE TABLE IF NOT EXISTS programs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE COLLATE NOCASE,
    created_at TEXT NOT NULL DEFAULT (date('now'))
);

-- Create user_programs table (a leader's assigned programs)
CREATE TABLE IF NOT EXISTS user_programs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    program_id INTEGER NOT NULL,
    created_at TEXT NOT NULL DEFAULT (date('now')),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (program_id) REFERENCES programs(id) ON DELETE CASCADE,
    UNIQUE(user_id, program_id)
);

-- Create kids table
CREATE TABLE IF NOT EXISTS kids (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    age INTEGER NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    program TEXT NOT NULL,
    dob TEXT NOT NULL DEFAULT '',
    school TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    guardian_name TEXT NOT NULL DEFAULT '',
    guardian_contact TEXT NOT NULL DEFAULT '',
    guardian_relationship TEXT NOT NULL DEFAULT '',
    image_ref TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (date('now'))
);

-- Create attendance table
-- One row per (date, kid_id); the day sheet replace relies on this.
CREATE TABLE IF NOT EXISTS attendance (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    kid_id TEXT NOT NULL,
    present INTEGER NOT NULL CHECK (present IN (0, 1)),
    note TEXT NOT NULL DEFAULT '',
    program TEXT NOT NULL,
    marked_by TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    UNIQUE(date, kid_id)
);

CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
CREATE INDEX IF NOT EXISTS idx_attendance_kid ON attendance(kid_id);
CREATE INDEX IF NOT EXISTS idx_kids_program ON kids(program);

-- Create refresh_tokens table
CREATE TABLE IF NOT EXISTS refresh_tokens (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    token TEXT NOT NULL UNIQUE,
    expires_at TEXT,
    created_at TEXT NOT NULL DEFAULT (date('now')),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

// InitSchema initializes the database schema
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	if err != nil {
		return fmt.Errorf("error initializing database schema: %w", err)
	}
	return nil
}
