package db

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SeedData populates the database with initial data
func SeedData(db *sql.DB, adminPassword string) error {
	// Start a transaction
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	// Seed starter programs
	programs := []string{"Football", "Art", "Music"}
	for _, program := range programs {
		_, err = tx.Exec("INSERT INTO programs (name) VALUES (?) ON CONFLICT DO NOTHING", program)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error seeding programs: %w", err)
		}
	}

	// Seed the default admin account
	var exists bool
	if err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = 'admin')").Scan(&exists); err != nil {
		tx.Rollback()
		return fmt.Errorf("error checking admin account: %w", err)
	}

	if !exists {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error hashing admin password: %w", err)
		}
		_, err = tx.Exec("INSERT INTO users (username, password_hash, role) VALUES ('admin', ?, 'admin')", string(hash))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error seeding admin account: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}
