package encodedcol

import (
	"fmt"
	"strconv"
)

// Encoder is the contract every backend satisfies: a pure transformation
// from plaintext bytes to the final stored string, with all parameters
// fixed at construction time.
//
// Encode may be non-deterministic across calls for salted backends; the
// output must still verify against the plaintext that produced it.
// Implementations must be safe for concurrent use.
type Encoder interface {
	// Encode returns the encoded form of plaintext.
	Encode(plaintext []byte) (string, error)
}

// Verifier is implemented by backends that can check a plaintext candidate
// against a previously encoded value without decoding it. A backend must
// implement Verifier for any column that declares a check method.
type Verifier interface {
	// Verify reports whether candidate matches the stored encoded value.
	// A mismatch is (false, nil); the error return is reserved for
	// malformed stored values and primitive failures.
	Verify(candidate []byte, stored string) (bool, error)
}

// FixedLength is implemented by backends whose output length is known at
// construction time. Callers use it to provision storage column sizes.
type FixedLength interface {
	// EncodedLength returns the exact length of every Encode result.
	EncodedLength() int
}

// Factory constructs a backend from raw configuration.
// Construction must validate args and return an error wrapping
// ErrConfiguration when they are invalid or incomplete.
type Factory func(args Args) (Encoder, error)

// Args carries raw backend configuration. Values may arrive as native
// types (programmatic registration, YAML) or as strings (struct tags);
// the typed accessors accept both.
type Args map[string]any

// String returns the string value for key, or def when absent.
func (a Args) String(key, def string) (string, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q: expected string, got %T", key, v)
	}
	return s, nil
}

// Int returns the integer value for key, or def when absent.
// String values are parsed, so tag-sourced args work unchanged.
func (a Args) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("option %q: %q is not an integer", key, n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("option %q: expected integer, got %T", key, v)
	}
}

// Bool returns the boolean value for key, or def when absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("option %q: %q is not a boolean", key, b)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("option %q: expected boolean, got %T", key, v)
	}
}
