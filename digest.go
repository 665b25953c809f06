package encodedcol

import (
	"crypto/md5"  //nolint:gosec // legacy algorithm offered for compatibility, not recommended
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // legacy algorithm offered for compatibility, not recommended
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Digest output text formats.
const (
	FormatHex    = "hex"
	FormatBase64 = "base64"
)

// digestAlgorithms maps algorithm names to hash constructors.
var digestAlgorithms = map[string]func() hash.Hash{
	"MD5":     md5.New,
	"SHA-1":   sha1.New,
	"SHA-224": sha256.New224,
	"SHA-256": sha256.New,
	"SHA-384": sha512.New384,
	"SHA-512": sha512.New,
	"SHA3-256": func() hash.Hash { return sha3.New256() },
	"SHA3-512": func() hash.Hash { return sha3.New512() },
	"BLAKE2b-256": func() hash.Hash {
		h, _ := blake2b.New256(nil) // only errors with a key, none given
		return h
	},
}

// digestEncoder implements plain and salted message-digest encoding.
//
// Stored form: format(digest(plaintext || salt)) || salt, where salt is
// salt_length random bytes hex-encoded. With salt_length 0 the output is
// deterministic. The salt rides in the encoded string itself, so Verify
// re-extracts it by position, recomputes, and compares in constant time.
type digestEncoder struct {
	algorithm string
	newHash   func() hash.Hash
	format    string
	saltLen   int
	textLen   int // length of the formatted digest alone
}

// NewDigest constructs the digest backend.
//
// Args:
//
//	algorithm   - digest name (default "SHA-256")
//	format      - "hex" or "base64" (default "base64", unpadded)
//	salt_length - random salt bytes per Encode (default 0)
func NewDigest(args Args) (Encoder, error) {
	algorithm, err := args.String("algorithm", "SHA-256")
	if err != nil {
		return nil, newConfigError(BackendDigest, "algorithm", err.Error())
	}
	newHash, ok := digestAlgorithms[algorithm]
	if !ok {
		return nil, newConfigError(BackendDigest, "algorithm", fmt.Sprintf("unknown digest algorithm %q", algorithm))
	}

	format, err := args.String("format", FormatBase64)
	if err != nil {
		return nil, newConfigError(BackendDigest, "format", err.Error())
	}
	if format != FormatHex && format != FormatBase64 {
		return nil, newConfigError(BackendDigest, "format", fmt.Sprintf("must be %q or %q, got %q", FormatHex, FormatBase64, format))
	}

	saltLen, err := args.Int("salt_length", 0)
	if err != nil {
		return nil, newConfigError(BackendDigest, "salt_length", err.Error())
	}
	if saltLen < 0 {
		return nil, newConfigError(BackendDigest, "salt_length", fmt.Sprintf("must not be negative, got %d", saltLen))
	}

	size := newHash().Size()
	textLen := hex.EncodedLen(size)
	if format == FormatBase64 {
		textLen = base64.RawStdEncoding.EncodedLen(size)
	}

	return &digestEncoder{
		algorithm: algorithm,
		newHash:   newHash,
		format:    format,
		saltLen:   saltLen,
		textLen:   textLen,
	}, nil
}

func (e *digestEncoder) Encode(plaintext []byte) (string, error) {
	if e.saltLen == 0 {
		return e.digest(plaintext, ""), nil
	}

	raw := make([]byte, e.saltLen)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	return e.digest(plaintext, salt) + salt, nil
}

func (e *digestEncoder) Verify(candidate []byte, stored string) (bool, error) {
	if len(stored) != e.EncodedLength() {
		return false, nil
	}
	salt := stored[e.textLen:]
	want := stored[:e.textLen]
	got := e.digest(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1, nil
}

// EncodedLength returns the fixed length of every Encode result:
// the formatted digest plus the hex-encoded salt.
func (e *digestEncoder) EncodedLength() int {
	return e.textLen + 2*e.saltLen
}

// digest computes format(algorithm(plaintext || salt)).
func (e *digestEncoder) digest(plaintext []byte, salt string) string {
	h := e.newHash()
	h.Write(plaintext)
	h.Write([]byte(salt))
	sum := h.Sum(nil)

	if e.format == FormatHex {
		return hex.EncodeToString(sum)
	}
	return base64.RawStdEncoding.EncodeToString(sum)
}
