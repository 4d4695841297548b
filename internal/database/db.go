package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var (
	once    sync.Once
	shared  *sql.DB
	openErr error
)

// Shared returns the process-wide catalog connection, opening it on the
// first call.  Later calls return the same handle (or the same error)
// whatever arguments they pass.
func Shared(user, pass, host, port, name string) (*sql.DB, error) {
	once.Do(func() {
		shared, openErr = Open(user, pass, host, port, name)
	})
	return shared, openErr
}

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps timestamps consistent.
	// DATE and TIME columns are read back as formatted strings.
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	// Pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS showtimes (
	id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	screening_date    DATE            NOT NULL,
	film_external_id  VARCHAR(32)     NOT NULL,
	start_time        TIME            NOT NULL,
	end_time          TIME            NOT NULL,
	language          VARCHAR(64)     NOT NULL,
	subtitle_language VARCHAR(64)     NULL,
	booking_reference VARCHAR(128)    NOT NULL,
	sold_out          TINYINT(1)      NOT NULL DEFAULT 0,
	title             VARCHAR(255)    NOT NULL,
	annotation        VARCHAR(255)    NULL,
	created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_showtimes_schedule (screening_date, start_time),
	KEY idx_showtimes_film (film_external_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the showtimes table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create showtimes table: %w", err)
	}
	return nil
}
