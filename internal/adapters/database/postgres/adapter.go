// Package postgres implements PostgreSQL database adapter.
package postgres

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
)

// PostgreSQL error codes for constraint violations.
const (
	codeUniqueViolation  = "23505"
	codeNotNullViolation = "23502"
)

// PostgresAdapter implements the database.Adapter interface for PostgreSQL.
type PostgresAdapter struct {
	database.Conn
	config database.Config
}

// NewPostgresAdapter creates a new PostgreSQL adapter.
func NewPostgresAdapter(config database.Config) (*PostgresAdapter, error) {
	return &PostgresAdapter{
		config: config,
	}, nil
}

// Connect establishes a connection to the PostgreSQL database.
func (a *PostgresAdapter) Connect(ctx context.Context) error {
	db, err := database.Open(ctx, "postgres", a.config)
	if err != nil {
		return err
	}

	if a.config.MaxConnections > 0 {
		db.SetMaxOpenConns(a.config.MaxConnections)
		db.SetMaxIdleConns(a.config.MaxConnections / 2)
	}
	db.SetConnMaxIdleTime(time.Duration(a.config.MaxIdleTime) * time.Second)

	a.DB = db
	return nil
}

// GetDialect returns the SQL dialect.
func (a *PostgresAdapter) GetDialect() database.SQLDialect {
	return database.PostgreSQL
}

// Placeholder implements database.Adapter.
func (a *PostgresAdapter) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// QuoteIdentifier implements database.Adapter.
func (a *PostgresAdapter) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

var (
	uniqueDetail  = regexp.MustCompile(`Key \((.+?)\)=\((.*)\) already exists`)
	notNullColumn = regexp.MustCompile(`column "([^"]+)"`)
)

// ClassifyError implements database.Adapter.
func (a *PostgresAdapter) ClassifyError(err error) database.Violation {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return database.Violation{}
	}

	switch string(pqErr.Code) {
	case codeUniqueViolation:
		v := database.Violation{Kind: database.ViolationUnique, Column: pqErr.Column}
		if m := uniqueDetail.FindStringSubmatch(pqErr.Detail); m != nil {
			v.Column = database.LastSegment(strings.Split(m[1], ",")[0])
			v.Value = strings.TrimSpace(strings.Split(m[2], ",")[0])
		}
		return v
	case codeNotNullViolation:
		v := database.Violation{Kind: database.ViolationNotNull, Column: pqErr.Column}
		if v.Column == "" {
			if m := notNullColumn.FindStringSubmatch(pqErr.Message); m != nil {
				v.Column = m[1]
			}
		}
		return v
	default:
		return database.Violation{}
	}
}

// Ensure PostgresAdapter implements Adapter interface.
var _ database.Adapter = (*PostgresAdapter)(nil)
