// Package database defines the SQL adapters backing the sandbox transport.
package database

import (
	"context"
	"database/sql"
	"time"
)

// Adapter defines the database adapter interface.
type Adapter interface {
	// Connect establishes a database connection.
	Connect(ctx context.Context) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// Execute executes a SQL statement.
	Execute(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query executes a query that returns rows.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow executes a query that returns a single row.
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// Begin starts a transaction.
	Begin(ctx context.Context) (Transaction, error)

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetDialect returns the SQL dialect.
	GetDialect() SQLDialect

	// Placeholder returns the bind parameter for the n-th argument,
	// starting at 1.
	Placeholder(n int) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// ClassifyError reports which constraint a driver error violated.
	ClassifyError(err error) Violation
}

// Transaction defines the transaction interface.
type Transaction interface {
	// Commit commits the transaction.
	Commit() error

	// Rollback rolls back the transaction.
	Rollback() error

	// Execute executes a statement within the transaction.
	Execute(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query executes a query within the transaction.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLDialect represents a SQL dialect.
type SQLDialect string

const (
	// PostgreSQL dialect.
	PostgreSQL SQLDialect = "postgres"
	// MySQL dialect.
	MySQL SQLDialect = "mysql"
	// SQLite dialect.
	SQLite SQLDialect = "sqlite"
)

// ViolationKind classifies a constraint failure.
type ViolationKind int

const (
	// ViolationNone means the error is not a recognized constraint failure.
	ViolationNone ViolationKind = iota
	// ViolationUnique is a unique or primary key violation.
	ViolationUnique
	// ViolationNotNull is a missing value for a NOT NULL column.
	ViolationNotNull
)

// Violation describes a constraint failure. Column and Value are filled in
// when the driver reports them.
type Violation struct {
	Kind   ViolationKind
	Column string
	Value  string
}

// Config holds database connection configuration.
type Config struct {
	Provider       string
	URL            string
	MaxConnections int
	MaxIdleTime    int // seconds
	ConnectTimeout int // seconds
}

// DefaultConnectTimeout applies when Config.ConnectTimeout is not set.
const DefaultConnectTimeout = 10 * time.Second

// Timeout returns the connect timeout.
func (c Config) Timeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return time.Duration(c.ConnectTimeout) * time.Second
}
