package domain

// Status codes understood by the reconciler.
const (
	CodeDuplicateValue       = "DUPLICATE_VALUE"
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeInvalidEmailAddress  = "INVALID_EMAIL_ADDRESS"
	CodeServerUnavailable    = "SERVER_UNAVAILABLE"
)

// StatusKind is the closed set of remote error kinds. Anything not listed is
// StatusUnrecognized, which is always fatal.
type StatusKind int

const (
	// StatusUnrecognized is any status code outside the known set.
	StatusUnrecognized StatusKind = iota
	// StatusDuplicateValue reports a uniqueness violation.
	StatusDuplicateValue
	// StatusRequiredFieldMissing reports missing mandatory fields.
	StatusRequiredFieldMissing
	// StatusInvalidEmailAddress reports malformed email fields.
	StatusInvalidEmailAddress
	// StatusServerUnavailable reports that the service is down.
	StatusServerUnavailable
)

// ClassifyStatus maps a remote status code onto a StatusKind.
func ClassifyStatus(code string) StatusKind {
	switch code {
	case CodeDuplicateValue:
		return StatusDuplicateValue
	case CodeRequiredFieldMissing:
		return StatusRequiredFieldMissing
	case CodeInvalidEmailAddress:
		return StatusInvalidEmailAddress
	case CodeServerUnavailable:
		return StatusServerUnavailable
	default:
		return StatusUnrecognized
	}
}

// Fatal reports whether the kind aborts reconciliation.
func (k StatusKind) Fatal() bool {
	return k == StatusUnrecognized || k == StatusServerUnavailable
}

// String implements fmt.Stringer.
func (k StatusKind) String() string {
	switch k {
	case StatusDuplicateValue:
		return CodeDuplicateValue
	case StatusRequiredFieldMissing:
		return CodeRequiredFieldMissing
	case StatusInvalidEmailAddress:
		return CodeInvalidEmailAddress
	case StatusServerUnavailable:
		return CodeServerUnavailable
	default:
		return "UNRECOGNIZED"
	}
}
