package encodedcol

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	// Registers RIPEMD160 with crypto; openpgp.Encrypt fails with "no
	// candidate hash functions are compiled in" for keys that list it
	// among their preferred hashes unless it is linked in.
	_ "golang.org/x/crypto/ripemd160"
)

// pgpEncoder implements encrypt-style column encoding on OpenPGP.
//
// Encode encrypts to the configured recipient keys; recovering the
// plaintext requires the private key, outside this package's scope.
// The backend deliberately implements no Verifier: there is no way to
// check a candidate against a ciphertext without decrypting, so a column
// that pairs this backend with a check method fails at registration with
// ErrUnsupportedOperation.
type pgpEncoder struct {
	recipients openpgp.EntityList
	armored    bool
}

// NewPGP constructs the OpenPGP backend.
//
// Args:
//
//	public_key - armored public keyring of the recipients (required)
//	armor      - emit ASCII-armored output; when false the raw
//	             ciphertext is base64-encoded instead (default true)
func NewPGP(args Args) (Encoder, error) {
	key, err := args.String("public_key", "")
	if err != nil {
		return nil, newConfigError(BackendPGP, "public_key", err.Error())
	}
	if key == "" {
		return nil, newConfigError(BackendPGP, "public_key", "is required")
	}

	armored, err := args.Bool("armor", true)
	if err != nil {
		return nil, newConfigError(BackendPGP, "armor", err.Error())
	}

	recipients, err := openpgp.ReadArmoredKeyRing(strings.NewReader(key))
	if err != nil {
		return nil, newConfigError(BackendPGP, "public_key", fmt.Sprintf("invalid keyring: %v", err))
	}
	if len(recipients) == 0 {
		return nil, newConfigError(BackendPGP, "public_key", "keyring contains no keys")
	}

	return &pgpEncoder{recipients: recipients, armored: armored}, nil
}

func (e *pgpEncoder) Encode(plaintext []byte) (string, error) {
	var buf bytes.Buffer

	if e.armored {
		aw, err := armor.Encode(&buf, "PGP MESSAGE", nil)
		if err != nil {
			return "", fmt.Errorf("pgp armor: %w", err)
		}
		if err := e.encrypt(aw, plaintext); err != nil {
			return "", err
		}
		if err := aw.Close(); err != nil {
			return "", fmt.Errorf("pgp armor: %w", err)
		}
		return buf.String(), nil
	}

	if err := e.encrypt(&buf, plaintext); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (e *pgpEncoder) encrypt(w io.Writer, plaintext []byte) error {
	pt, err := openpgp.Encrypt(w, e.recipients, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("pgp encrypt: %w", err)
	}
	if _, err := pt.Write(plaintext); err != nil {
		return fmt.Errorf("pgp encrypt: %w", err)
	}
	if err := pt.Close(); err != nil {
		return fmt.Errorf("pgp encrypt: %w", err)
	}
	return nil
}
