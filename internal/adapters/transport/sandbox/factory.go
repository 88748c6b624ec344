package sandbox

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/adapters/database/mysql"
	"github.com/satishbabariya/prisma-soql/internal/adapters/database/postgres"
	"github.com/satishbabariya/prisma-soql/internal/adapters/database/sqlite"
)

// NewAdapter creates the database adapter named by config.Provider. The
// adapter still needs Connect.
func NewAdapter(config database.Config) (database.Adapter, error) {
	switch strings.ToLower(config.Provider) {
	case "", "sqlite", "sqlite3":
		return sqlite.NewSQLiteAdapter(config)
	case "postgres", "postgresql":
		return postgres.NewPostgresAdapter(config)
	case "mysql":
		return mysql.NewMySQLAdapter(config)
	default:
		return nil, fmt.Errorf("unsupported sandbox provider: %s", config.Provider)
	}
}
