package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent.
	// clientFoundRows=true makes RowsAffected report matched rows, so a
	// no-op update (cancelling payment on an already-unpaid row) still
	// distinguishes "row exists" from "row missing".
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the attendees table when it does not exist yet. There
// is no migration system; the schema is small enough to apply idempotently
// on every startup. Indexes live inside CREATE TABLE because MySQL has no
// CREATE INDEX IF NOT EXISTS.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS attendees (
	id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	klass       VARCHAR(64)   NOT NULL DEFAULT '',
	student_no  VARCHAR(64)   NOT NULL DEFAULT '',
	name        VARCHAR(128)  NOT NULL DEFAULT '',
	seat_area   VARCHAR(64)   NOT NULL DEFAULT '',
	phone       VARCHAR(32)   NOT NULL DEFAULT '',
	amount_due  DECIMAL(10,2) NOT NULL DEFAULT 0,
	paid        TINYINT(1)    NOT NULL DEFAULT 0,
	paid_at     DATETIME      NULL,
	notes       VARCHAR(512)  NOT NULL DEFAULT '',
	serial      CHAR(4)       NULL,
	verified    TINYINT(1)    NOT NULL DEFAULT 0,
	verified_at DATETIME      NULL,
	created_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	KEY idx_attendees_student_no (student_no),
	KEY idx_attendees_paid (paid),
	KEY idx_attendees_serial (serial)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create attendees table: %w", err)
	}
	return nil
}
