package sandbox

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/prisma-soql/internal/adapters/database"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/satishbabariya/prisma-soql/internal/debug"
)

var columnTypes = map[database.SQLDialect]map[schemadomain.PropertyType]string{
	database.SQLite: {
		schemadomain.TypeString:   "TEXT",
		schemadomain.TypeID:       "VARCHAR(18)",
		schemadomain.TypeInteger:  "INTEGER",
		schemadomain.TypeFloat:    "REAL",
		schemadomain.TypeBoolean:  "BOOLEAN",
		schemadomain.TypeDate:     "DATE",
		schemadomain.TypeDateTime: "DATETIME",
	},
	database.PostgreSQL: {
		schemadomain.TypeString:   "TEXT",
		schemadomain.TypeID:       "VARCHAR(18)",
		schemadomain.TypeInteger:  "BIGINT",
		schemadomain.TypeFloat:    "DOUBLE PRECISION",
		schemadomain.TypeBoolean:  "BOOLEAN",
		schemadomain.TypeDate:     "DATE",
		schemadomain.TypeDateTime: "TIMESTAMP",
	},
	database.MySQL: {
		schemadomain.TypeString:   "VARCHAR(255)",
		schemadomain.TypeID:       "VARCHAR(18)",
		schemadomain.TypeInteger:  "BIGINT",
		schemadomain.TypeFloat:    "DOUBLE",
		schemadomain.TypeBoolean:  "BOOLEAN",
		schemadomain.TypeDate:     "DATE",
		schemadomain.TypeDateTime: "DATETIME",
	},
}

// Provision creates a table for every registered model that does not have
// one yet.
func (t *Transport) Provision(ctx context.Context) error {
	for _, model := range t.sortedModels() {
		ddl, err := t.CreateTableSQL(model)
		if err != nil {
			return err
		}
		debug.Debug("Provisioning sandbox table", "model", model.Name)
		if _, err := t.db.Execute(ctx, ddl); err != nil {
			return fmt.Errorf("failed to provision %s: %w", model.Name, err)
		}
	}
	return nil
}

// Drop removes the tables of every registered model.
func (t *Transport) Drop(ctx context.Context) error {
	for _, model := range t.sortedModels() {
		ddl := "DROP TABLE IF EXISTS " + t.db.QuoteIdentifier(schema.ResolveStorage(t.naming, model))
		if _, err := t.db.Execute(ctx, ddl); err != nil {
			return fmt.Errorf("failed to drop %s: %w", model.Name, err)
		}
	}
	return nil
}

// CreateTableSQL returns the DDL for a model's table.
func (t *Transport) CreateTableSQL(model *schemadomain.Model) (string, error) {
	types := columnTypes[t.db.GetDialect()]
	if types == nil {
		return "", fmt.Errorf("unsupported dialect: %s", t.db.GetDialect())
	}
	if model.KeyProperty() == nil {
		return "", fmt.Errorf("model %s has no key property", model.Name)
	}

	var columns []string
	for _, p := range model.Properties {
		typ, ok := types[p.Type]
		if !ok {
			return "", fmt.Errorf("property %s.%s has unsupported type %q", model.Name, p.Name, p.Type)
		}
		if p == model.KeyProperty() {
			typ = types[schemadomain.TypeID]
		}

		col := t.db.QuoteIdentifier(schema.ResolveField(t.naming, model, p)) + " " + typ
		switch {
		case p == model.KeyProperty():
			col += " PRIMARY KEY"
		default:
			if p.Required {
				col += " NOT NULL"
			}
			if p.Unique {
				col += " UNIQUE"
			}
		}
		columns = append(columns, col)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		t.db.QuoteIdentifier(schema.ResolveStorage(t.naming, model)),
		strings.Join(columns, ", ")), nil
}

func (t *Transport) sortedModels() []*schemadomain.Model {
	names := make([]string, 0, len(t.models))
	for name := range t.models {
		names = append(names, name)
	}
	sort.Strings(names)

	models := make([]*schemadomain.Model, len(names))
	for i, name := range names {
		models[i] = t.models[name]
	}
	return models
}
