package encodedcol

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost factor used when none is configured.
const DefaultBcryptCost = 8

// bcryptEncoder implements adaptive-cost password hashing on bcrypt.
//
// The output is bcrypt's own self-describing modular crypt format: the
// cost factor and the per-call random salt are embedded in the stored
// string, so Verify needs no configuration beyond the key_nul policy.
type bcryptEncoder struct {
	cost   int
	keyNul bool
}

// NewBcrypt constructs the bcrypt backend.
//
// Args:
//
//	cost    - cost factor, 4..31 (default 8)
//	key_nul - append a NUL byte to the key before hashing, matching
//	          Eksblowfish-compatible key handling (default true)
func NewBcrypt(args Args) (Encoder, error) {
	cost, err := args.Int("cost", DefaultBcryptCost)
	if err != nil {
		return nil, newConfigError(BackendBcrypt, "cost", err.Error())
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, newConfigError(BackendBcrypt, "cost",
			fmt.Sprintf("must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost))
	}

	keyNul, err := args.Bool("key_nul", true)
	if err != nil {
		return nil, newConfigError(BackendBcrypt, "key_nul", err.Error())
	}

	return &bcryptEncoder{cost: cost, keyNul: keyNul}, nil
}

func (e *bcryptEncoder) Encode(plaintext []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(e.key(plaintext), e.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

func (e *bcryptEncoder) Verify(candidate []byte, stored string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), e.key(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %w", err)
	}
}

// key applies the key_nul policy to a plaintext.
func (e *bcryptEncoder) key(plaintext []byte) []byte {
	if !e.keyNul {
		return plaintext
	}
	key := make([]byte, 0, len(plaintext)+1)
	key = append(key, plaintext...)
	return append(key, 0)
}
