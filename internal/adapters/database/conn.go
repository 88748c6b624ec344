package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotConnected is returned when an adapter is used before Connect.
var ErrNotConnected = errors.New("database not connected")

// Conn holds the pool shared by every dialect adapter. Dialect adapters embed
// it and set DB from Connect.
type Conn struct {
	DB *sql.DB
}

// Open opens and pings a pool. The pool is closed again if the ping fails.
func Open(ctx context.Context, driver string, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Disconnect closes the database connection.
func (c *Conn) Disconnect(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}
	err := c.DB.Close()
	c.DB = nil
	return err
}

// Execute executes a query without returning rows.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.DB == nil {
		return nil, ErrNotConnected
	}
	return c.DB.ExecContext(ctx, query, args...)
}

// Query executes a query that returns rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.DB == nil {
		return nil, ErrNotConnected
	}
	return c.DB.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns a single row.
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if c.DB == nil {
		return nil
	}
	return c.DB.QueryRowContext(ctx, query, args...)
}

// Begin starts a new transaction.
func (c *Conn) Begin(ctx context.Context) (Transaction, error) {
	if c.DB == nil {
		return nil, ErrNotConnected
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Ping checks if the database connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	if c.DB == nil {
		return ErrNotConnected
	}
	return c.DB.PingContext(ctx)
}

// Tx implements the Transaction interface.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Execute executes a query within the transaction.
func (t *Tx) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// Query executes a query within the transaction.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

// LastSegment returns the part of a qualified name after the last dot,
// without surrounding quotes.
func LastSegment(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			name = name[i+1:]
			break
		}
	}
	return unquoteIdent.ReplaceAllString(name, "")
}

var unquoteIdent = regexp.MustCompile("[\"`']")

var _ Transaction = (*Tx)(nil)
