// Package db opens the database behind the tool-call journal.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Import the libSQL driver — registers "libsql" with database/sql.
	// Handles remote URLs (libsql://, https://, wss://).
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	// Import the pure-Go SQLite driver for local file: URLs.
	// libsql-client-go delegates file: URLs to this driver.
	_ "modernc.org/sqlite"
)

// ErrUnsupportedURL is returned for URLs without a known scheme.
var ErrUnsupportedURL = errors.New("unsupported database URL")

// driverName is the database/sql driver to use. Package-level so tests can
// force an open error; production always uses "libsql".
var driverName = "libsql"

// pingTimeout bounds the connectivity check in Connect.
var pingTimeout = 10 * time.Second

var schemes = []string{"file:", "libsql://", "https://", "http://", "wss://", "ws://"}

// IsLocal reports whether dbURL names a local SQLite file.
func IsLocal(dbURL string) bool {
	return strings.HasPrefix(dbURL, "file:")
}

// Connect opens a libSQL database connection and verifies it with a ping.
// Local files get a single connection; SQLite allows one writer and the
// journal is written from concurrent tool handlers.
//
// Supported URL schemes:
//
//	Local file:  "file:path/to/journal.db"
//	Remote Turso: "libsql://[db-name].turso.io?authToken=[token]"
func Connect(dbURL string) (*sql.DB, error) {
	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}
	if !supported(dbURL) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(dbURL))
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql: %w", err)
	}
	if IsLocal(dbURL) {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func supported(dbURL string) bool {
	for _, s := range schemes {
		if strings.HasPrefix(dbURL, s) {
			return true
		}
	}
	return false
}

// redact drops the query string, which carries auth tokens for remote URLs.
func redact(dbURL string) string {
	if i := strings.IndexByte(dbURL, '?'); i >= 0 {
		return dbURL[:i] + "?..."
	}
	return dbURL
}
