package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ParseDSN turns "sqlite:path", "sqlite://path" or a bare path into a file
// path. Any other scheme is rejected: only SQLite ships with this binary.
func ParseDSN(dsn string) (string, error) {
	switch scheme := dsnScheme(dsn); scheme {
	case "":
	case "sqlite":
		dsn = strings.TrimPrefix(dsn[len(scheme)+1:], "//")
	default:
		return "", fmt.Errorf("unsupported dsn %q: only sqlite is available", dsn)
	}
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if dsn == "" {
		return "", fmt.Errorf("empty sqlite path")
	}
	return dsn, nil
}

// dsnScheme returns the lower-cased URL scheme of dsn, or "" for a plain
// path. A single letter followed by a separator is a Windows drive.
func dsnScheme(dsn string) string {
	i := strings.IndexByte(dsn, ':')
	if i <= 0 {
		return ""
	}
	for j, c := range dsn[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return ""
		}
	}
	if i == 1 && len(dsn) > 2 && (dsn[2] == '\\' || dsn[2] == '/') {
		return ""
	}
	return strings.ToLower(dsn[:i])
}

// OpenDB opens (and creates if needed) a SQLite database at path with WAL
// journaling and a busy timeout.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
