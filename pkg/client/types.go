package client

import (
	"github.com/satishbabariya/prisma-soql/internal/adapters/transport"
	mutationdomain "github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/mutation/reconciler"
	"github.com/satishbabariya/prisma-soql/internal/core/query/builder"
	querydomain "github.com/satishbabariya/prisma-soql/internal/core/query/domain"
	"github.com/satishbabariya/prisma-soql/internal/core/query/mapper"
	"github.com/satishbabariya/prisma-soql/internal/core/resource"
	"github.com/satishbabariya/prisma-soql/internal/core/schema"
	schemadomain "github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
)

// Schema types.
type (
	Model          = schemadomain.Model
	Property       = schemadomain.Property
	PropertyType   = schemadomain.PropertyType
	NamingStrategy = schema.NamingStrategy
)

// Property types.
const (
	TypeString   = schemadomain.TypeString
	TypeInteger  = schemadomain.TypeInteger
	TypeFloat    = schemadomain.TypeFloat
	TypeBoolean  = schemadomain.TypeBoolean
	TypeDate     = schemadomain.TypeDate
	TypeDateTime = schemadomain.TypeDateTime
	TypeID       = schemadomain.TypeID
)

// Query types.
type (
	Query         = querydomain.Query
	CompiledQuery = querydomain.CompiledQuery
	Condition     = querydomain.Condition
	SortDirection = querydomain.SortDirection
	Criterion     = builder.Criterion
	Row           = mapper.Row
)

// Sort directions.
const (
	Asc  = querydomain.Asc
	Desc = querydomain.Desc
)

// Resource types.
type (
	Resource  = resource.Resource
	Record    = resource.Record
	Attribute = resource.Attribute
)

// Transport types.
type (
	Transport     = transport.Transport
	RawResult     = transport.RawResult
	RecordPayload = mutationdomain.RecordPayload
	BatchResult   = mutationdomain.BatchResult
	Outcome       = mutationdomain.Outcome
	ErrorDetail   = mutationdomain.ErrorDetail
)

// Batch report types.
type (
	Report  = reconciler.Report
	Failure = reconciler.Failure
)

// Criterion constructors.
var (
	Equals     = builder.Equals
	NotEquals  = builder.NotEquals
	In         = builder.In
	NotIn      = builder.NotIn
	Lt         = builder.Lt
	Lte        = builder.Lte
	Gt         = builder.Gt
	Gte        = builder.Gte
	Like       = builder.Like
	Contains   = builder.Contains
	StartsWith = builder.StartsWith
	EndsWith   = builder.EndsWith
)

// NewRecord creates an empty record of model.
func NewRecord(model *Model) *Record {
	return resource.NewRecord(model)
}

// NewRecordFrom creates a record from values keyed by property name.
func NewRecordFrom(model *Model, values map[string]any) *Record {
	return resource.NewRecordFrom(model, values)
}
