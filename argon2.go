package encodedcol

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2 defaults, based on OWASP recommendations for password hashing.
const (
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // KiB
	defaultArgon2Threads = 4
	defaultArgon2KeyLen  = 32
	defaultArgon2SaltLen = 16
)

// argon2Encoder implements adaptive-cost password hashing on Argon2id.
//
// The stored form is the PHC string
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash> with salt
// and hash in unpadded standard base64. Verify recomputes with the
// parameters carried by the stored value itself, so hashes created under
// older settings keep verifying after a configuration change.
type argon2Encoder struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

// NewArgon2 constructs the Argon2id backend.
//
// Args:
//
//	time        - iterations (default 1)
//	memory      - memory in KiB (default 65536)
//	threads     - parallelism factor (default 4)
//	key_length  - output key bytes (default 32)
//	salt_length - random salt bytes per Encode (default 16)
func NewArgon2(args Args) (Encoder, error) {
	intArg := func(key string, def int) (int, error) {
		v, err := args.Int(key, def)
		if err != nil {
			return 0, newConfigError(BackendArgon2, key, err.Error())
		}
		if v < 1 {
			return 0, newConfigError(BackendArgon2, key, fmt.Sprintf("must be positive, got %d", v))
		}
		return v, nil
	}

	time, err := intArg("time", defaultArgon2Time)
	if err != nil {
		return nil, err
	}
	memory, err := intArg("memory", defaultArgon2Memory)
	if err != nil {
		return nil, err
	}
	threads, err := intArg("threads", defaultArgon2Threads)
	if err != nil {
		return nil, err
	}
	if threads > 255 {
		return nil, newConfigError(BackendArgon2, "threads", fmt.Sprintf("must be at most 255, got %d", threads))
	}
	keyLen, err := intArg("key_length", defaultArgon2KeyLen)
	if err != nil {
		return nil, err
	}
	saltLen, err := intArg("salt_length", defaultArgon2SaltLen)
	if err != nil {
		return nil, err
	}

	return &argon2Encoder{
		time:    uint32(time),
		memory:  uint32(memory),
		threads: uint8(threads),
		keyLen:  uint32(keyLen),
		saltLen: uint32(saltLen),
	}, nil
}

func (e *argon2Encoder) Encode(plaintext []byte) (string, error) {
	salt := make([]byte, e.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(plaintext, salt, e.time, e.memory, e.threads, e.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		e.memory,
		e.time,
		e.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

func (e *argon2Encoder) Verify(candidate []byte, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: malformed argon2 value", ErrVerify)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: malformed argon2 version", ErrVerify)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported argon2 version %d", ErrVerify, version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: malformed argon2 parameters", ErrVerify)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: malformed argon2 salt", ErrVerify)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: malformed argon2 hash", ErrVerify)
	}

	got := argon2.IDKey(candidate, salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
