package schema

import (
	"fmt"
	"strings"
)

// Schema construction error codes (E200-E219).
const (
	// Entry errors (E200-E214)
	ErrEmptyName             = "E200" // entry or set name is required
	ErrInvalidKind           = "E201" // measure kind out of range
	ErrInvalidContainer      = "E202" // container kind out of range
	ErrReferenceKindMismatch = "E203" // Reference container iff ClassificationReference kind
	ErrListKind              = "E204" // List container needs a string kind
	ErrEnumWithoutContainer  = "E205" // enumeration bound to a non-Enumerated entry
	ErrContainerWithoutEnum  = "E206" // Enumerated entry with no enumeration
	ErrEnumKind              = "E207" // Enumerated container needs a string kind
	ErrMissingAccessor       = "E208" // calculator cannot produce the entry's kind
	ErrCalculatorOnlyNoCalc  = "E209" // calculator-only flag without a calculator
	ErrMultiValueContainer   = "E210" // multi-value calculator iff List container
	ErrQuantityKind          = "E211" // quantity entry with a non-quantity kind
	ErrMethodOnProperty      = "E212" // method of measurement on a property entry
	ErrEmptyEnumeration      = "E213" // enumeration with no tokens
	ErrDuplicateEnumToken    = "E214" // tokens that fold to the same key

	// Set errors (E215-E219)
	ErrNoEntityTypes          = "E215" // set applies to no entity type
	ErrDuplicateOutputName    = "E216" // two entries share an output name
	ErrDescriptionCalculator  = "E217" // description calculator cannot produce text
	ErrSetKindMismatch        = "E218" // property entry in a quantity set or vice versa
	ErrInvalidSubElementIndex = "E219" // negative sub-element index
)

// ValidationError is one schema rule violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// SchemaError reports every rule an entry or set violates. It is fatal:
// registry construction aborts on the first SchemaError.
type SchemaError struct {
	// Subject names the entry or set, e.g. `entry "IsExternal"`.
	Subject string
	Errors  []ValidationError
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%s: %s", e.Subject, strings.Join(msgs, "; "))
}

// Has reports whether any violation carries code.
func (e *SchemaError) Has(code string) bool {
	for _, ve := range e.Errors {
		if ve.Code == code {
			return true
		}
	}
	return false
}

func newSchemaError(subject string, errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &SchemaError{Subject: subject, Errors: errs}
}
