package encodedcol

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrConfiguration indicates a backend received invalid or incomplete
	// construction arguments.
	ErrConfiguration = errors.New("invalid backend configuration")

	// ErrUnknownBackend indicates an encode_class identifier is not registered.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrDuplicateBackend indicates a backend identifier is already registered.
	ErrDuplicateBackend = errors.New("duplicate backend")

	// ErrRegistrySealed indicates a registration was attempted after the
	// backend registry entered its read-only phase.
	ErrRegistrySealed = errors.New("backend registry sealed")

	// ErrUnsupportedOperation indicates a check method was requested for a
	// backend that cannot verify.
	ErrUnsupportedOperation = errors.New("backend does not support verification")

	// ErrMissingValue indicates a check method was invoked while the
	// column's stored value is unset.
	ErrMissingValue = errors.New("missing stored value")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrEncode indicates encoding of a column value failed.
	ErrEncode = errors.New("encode failed")

	// ErrVerify indicates verification of a candidate value failed to run.
	ErrVerify = errors.New("verify failed")
)

// ConfigError reports invalid backend construction arguments.
// It wraps ErrConfiguration with the backend identifier and the offending option.
type ConfigError struct {
	Backend string // Backend identifier being constructed
	Option  string // Configuration key that triggered the error
	Reason  string // Human-readable explanation
}

func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("%s: backend %q option %q %s", ErrConfiguration.Error(), e.Backend, e.Option, e.Reason)
	}
	return fmt.Sprintf("%s: backend %q %s", ErrConfiguration.Error(), e.Backend, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// ColumnError represents a failure tied to one declared column.
// It wraps a sentinel error with the record type, column, and backend involved.
type ColumnError struct {
	Err     error  // Underlying sentinel error (ErrUnknownBackend, etc.)
	Type    string // Record type name
	Column  string // Column (struct field) name
	Backend string // Backend identifier, when one was resolved or requested
	Cause   error  // Original error from the backend or primitive, if any
}

func (e *ColumnError) Error() string {
	msg := e.Err.Error()
	if e.Backend != "" {
		msg = fmt.Sprintf("%s: backend %q", msg, e.Backend)
	}
	if e.Type != "" && e.Column != "" {
		msg = fmt.Sprintf("%s (column %s.%s)", msg, e.Type, e.Column)
	} else if e.Column != "" {
		msg = fmt.Sprintf("%s (column %s)", msg, e.Column)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// newConfigError creates a ConfigError for a bad construction argument.
func newConfigError(backend, option, reason string) error {
	return &ConfigError{
		Backend: backend,
		Option:  option,
		Reason:  reason,
	}
}

// newColumnError creates a ColumnError for a per-column failure.
func newColumnError(sentinel error, typeName, column, backend string, cause error) error {
	return &ColumnError{
		Err:     sentinel,
		Type:    typeName,
		Column:  column,
		Backend: backend,
		Cause:   cause,
	}
}
