// Package mysql implements MySQL database adapter.
package mysql

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
)

// MySQL error numbers for constraint violations.
const (
	errDupEntry        = 1062
	errBadNull         = 1048
	errNoDefaultForCol = 1364
)

// MySQLAdapter implements the database.Adapter interface for MySQL.
type MySQLAdapter struct {
	database.Conn
	config database.Config
}

// NewMySQLAdapter creates a new MySQL adapter. The URL is a DSN as
// understood by go-sql-driver/mysql.
func NewMySQLAdapter(config database.Config) (*MySQLAdapter, error) {
	if _, err := mysql.ParseDSN(config.URL); err != nil {
		return nil, err
	}
	return &MySQLAdapter{
		config: config,
	}, nil
}

// Connect establishes a connection to the MySQL database.
func (a *MySQLAdapter) Connect(ctx context.Context) error {
	db, err := database.Open(ctx, "mysql", a.config)
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
func (a *MySQLAdapter) GetDialect() database.SQLDialect {
	return database.MySQL
}

// Placeholder implements database.Adapter.
func (a *MySQLAdapter) Placeholder(int) string {
	return "?"
}

// QuoteIdentifier implements database.Adapter.
func (a *MySQLAdapter) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var (
	duplicateEntry = regexp.MustCompile(`Duplicate entry '(.*)' for key '(.+)'`)
	nullColumn     = regexp.MustCompile(`(?:Column|Field) '(.+?)'`)
)

// ClassifyError implements database.Adapter.
func (a *MySQLAdapter) ClassifyError(err error) database.Violation {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return database.Violation{}
	}

	switch myErr.Number {
	case errDupEntry:
		v := database.Violation{Kind: database.ViolationUnique}
		if m := duplicateEntry.FindStringSubmatch(myErr.Message); m != nil {
			v.Value = m[1]
			v.Column = database.LastSegment(m[2])
		}
		return v
	case errBadNull, errNoDefaultForCol:
		v := database.Violation{Kind: database.ViolationNotNull}
		if m := nullColumn.FindStringSubmatch(myErr.Message); m != nil {
			v.Column = m[1]
		}
		return v
	default:
		return database.Violation{}
	}
}

// Ensure MySQLAdapter implements Adapter interface.
var _ database.Adapter = (*MySQLAdapter)(nil)
