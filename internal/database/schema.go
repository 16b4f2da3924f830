package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; the MySQL driver does not run
// multi-statement strings unless the DSN opts in.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS shows (
		id          VARCHAR(64)  NOT NULL PRIMARY KEY,
		show_date   CHAR(10)     NOT NULL,
		venue       VARCHAR(200) NOT NULL,
		city        VARCHAR(120) NOT NULL,
		state       VARCHAR(64)  NOT NULL,
		address     VARCHAR(255) NULL,
		show_time   VARCHAR(64)  NULL,
		doors       VARCHAR(64)  NULL,
		ticket_url  VARCHAR(512) NULL,
		is_upcoming TINYINT(1)   NOT NULL DEFAULT 1,
		INDEX idx_shows_upcoming (is_upcoming, show_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS contact_messages (
		id           VARCHAR(64)  NOT NULL PRIMARY KEY,
		name         VARCHAR(200) NOT NULL,
		email        VARCHAR(254) NOT NULL,
		organization VARCHAR(200) NULL,
		event_date   VARCHAR(200) NULL,
		location     VARCHAR(200) NULL,
		message      TEXT         NOT NULL,
		created_at   DATETIME(3)  NOT NULL,
		INDEX idx_contact_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables the repositories rely on when they do not
// exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
