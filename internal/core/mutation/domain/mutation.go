// Package domain contains the write payloads and batch results exchanged with
// the remote service.
package domain

// Operation identifies a batched write.
type Operation string

const (
	// Create inserts new records.
	Create Operation = "create"
	// Update modifies existing records.
	Update Operation = "update"
	// Delete removes records.
	Delete Operation = "delete"
)

// FieldValue is one storage field of a payload.
type FieldValue struct {
	Field string
	Value any
}

// RecordPayload is a single record submitted in a batch. Fields keep the
// order in which they were added.
type RecordPayload struct {
	// SObject is the storage name of the model.
	SObject string

	// ID is the resolved key for update and delete; empty on create.
	ID string

	Fields []FieldValue
}

// Set appends or replaces a field value.
func (p *RecordPayload) Set(field string, value any) {
	for i := range p.Fields {
		if p.Fields[i].Field == field {
			p.Fields[i].Value = value
			return
		}
	}
	p.Fields = append(p.Fields, FieldValue{Field: field, Value: value})
}

// Get returns a field value.
func (p RecordPayload) Get(field string) (any, bool) {
	for _, f := range p.Fields {
		if f.Field == field {
			return f.Value, true
		}
	}
	return nil, false
}

// Map returns the fields as a map.
func (p RecordPayload) Map() map[string]any {
	m := make(map[string]any, len(p.Fields))
	for _, f := range p.Fields {
		m[f.Field] = f.Value
	}
	return m
}

// BatchResult holds one Outcome per submitted payload, in submission order.
type BatchResult []Outcome

// Outcome is the remote answer for one record.
type Outcome struct {
	Success bool          `json:"success"`
	ID      string        `json:"id,omitempty"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail describes why a record failed.
type ErrorDetail struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields,omitempty"`
}

// Succeeded returns the number of successful outcomes.
func (r BatchResult) Succeeded() int {
	n := 0
	for _, o := range r {
		if o.Success {
			n++
		}
	}
	return n
}

// Failed reports whether any outcome failed.
func (r BatchResult) Failed() bool {
	return r.Succeeded() < len(r)
}
