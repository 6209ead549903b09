package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The two dialects differ only in column types; table and column names are
// shared so repositories run the same statements on both.  Usernames compare
// case-insensitively on both: utf8mb4's default collation on MySQL and
// NOCASE on sqlite, which folds the ASCII usernames accepted at registration.
var schemas = map[string][]string{
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			id            CHAR(26)     NOT NULL PRIMARY KEY,
			username      VARCHAR(64)  NOT NULL,
			email         VARCHAR(255) NOT NULL DEFAULT '',
			password_hash VARCHAR(100) NOT NULL,
			role          VARCHAR(16)  NOT NULL DEFAULT 'citizen',
			created_at    DATETIME(6)  NOT NULL,
			UNIQUE KEY uq_users_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS issues (
			id          CHAR(26)     NOT NULL PRIMARY KEY,
			title       VARCHAR(200) NOT NULL,
			description TEXT         NOT NULL,
			location    VARCHAR(255) NOT NULL,
			photo       VARCHAR(255) NULL,
			status      VARCHAR(16)  NOT NULL DEFAULT 'Pending',
			owner_id    CHAR(26)     NOT NULL,
			created_at  DATETIME(6)  NOT NULL,
			KEY idx_issues_owner_created (owner_id, created_at),
			KEY idx_issues_created (created_at),
			CONSTRAINT fk_issues_owner FOREIGN KEY (owner_id) REFERENCES users (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT     NOT NULL PRIMARY KEY,
			username      TEXT     NOT NULL UNIQUE COLLATE NOCASE,
			email         TEXT     NOT NULL DEFAULT '',
			password_hash TEXT     NOT NULL,
			role          TEXT     NOT NULL DEFAULT 'citizen',
			created_at    DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id          TEXT     NOT NULL PRIMARY KEY,
			title       TEXT     NOT NULL,
			description TEXT     NOT NULL,
			location    TEXT     NOT NULL,
			photo       TEXT     NULL,
			status      TEXT     NOT NULL DEFAULT 'Pending',
			owner_id    TEXT     NOT NULL REFERENCES users (id),
			created_at  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_owner_created ON issues (owner_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_created ON issues (created_at)`,
	},
}

// Migrate creates the users and issues tables when they do not exist yet.
// Running it again is a no-op.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("database: no schema for driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
