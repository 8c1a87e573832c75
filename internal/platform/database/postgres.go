package database

import (
	"database/sql"
	"fmt"
	"time"

	"codele_backend/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

// Connect opens the Postgres pool and verifies connectivity. The handle is
// returned to the caller so the composition root owns its lifecycle.
func Connect() (*sql.DB, error) {
	db, err := sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("database.Connect open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("database.Connect ping: %w", err)
	}

	return db, nil
}
