// Package sqlite implements SQLite database adapter.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
)

// SQLiteAdapter implements the database.Adapter interface for SQLite.
type SQLiteAdapter struct {
	database.Conn
	config database.Config
}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter(config database.Config) (*SQLiteAdapter, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("sqlite: database URL is required")
	}
	return &SQLiteAdapter{
		config: config,
	}, nil
}

// Connect establishes a connection to the SQLite database.
func (a *SQLiteAdapter) Connect(ctx context.Context) error {
	db, err := database.Open(ctx, "sqlite3", a.config)
	if err != nil {
		return err
	}

	// A single connection serializes writes and keeps :memory: databases
	// alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(time.Duration(a.config.MaxIdleTime) * time.Second)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	a.DB = db
	return nil
}

// GetDialect returns the SQL dialect.
func (a *SQLiteAdapter) GetDialect() database.SQLDialect {
	return database.SQLite
}

// Placeholder implements database.Adapter.
func (a *SQLiteAdapter) Placeholder(int) string {
	return "?"
}

// QuoteIdentifier implements database.Adapter.
func (a *SQLiteAdapter) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var constraintColumn = regexp.MustCompile(`constraint failed: ([^\s,]+)`)

// ClassifyError implements database.Adapter.
func (a *SQLiteAdapter) ClassifyError(err error) database.Violation {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return database.Violation{}
	}

	var v database.Violation
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		v.Kind = database.ViolationUnique
	case sqlite3.ErrConstraintNotNull:
		v.Kind = database.ViolationNotNull
	default:
		return database.Violation{}
	}

	if m := constraintColumn.FindStringSubmatch(sqliteErr.Error()); m != nil {
		v.Column = database.LastSegment(m[1])
	}
	return v
}

// Ensure SQLiteAdapter implements Adapter interface.
var _ database.Adapter = (*SQLiteAdapter)(nil)
