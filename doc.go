// Package encodedcol provides automatic encoding of designated record
// columns: hashing or encrypting sensitive values at assignment time so
// plaintext never reaches the instance or storage.
//
// A column declared with encoding gets a descriptor compiled once at
// schema registration: the backend is resolved through a registry,
// constructed with its configuration fixed, and bound to the column.
// Every user-facing assignment then passes through the descriptor's
// encoder before the underlying field write, and an optional check
// method verifies plaintext candidates against the stored value without
// ever decoding it.
//
// # Tag Syntax
//
// Column behavior is declared via struct tags:
//
//	encode:"<backend>"          - enable encoding with the named backend
//	encode_args:"k=v,k=v"       - backend configuration
//	encode_check:"MethodName"   - install a named check method
//
// # Basic Usage
//
//	type User struct {
//	    Name     string
//	    Password string `encode:"digest" encode_args:"algorithm=SHA-1,format=hex,salt_length=10" encode_check:"CheckPassword"`
//	}
//
//	schema, err := encodedcol.RegisterSchema[User]()
//	if err != nil {
//	    // misconfiguration fails here, at type-definition time
//	}
//
//	// User input: Password is encoded before it lands in the struct.
//	rec, _ := encodedcol.NewRecord(schema, map[string]any{
//	    "Name":     "alice",
//	    "Password": "hunter2",
//	})
//
//	ok, _ := rec.CheckMethod("CheckPassword", "hunter2") // true
//	ok, _ = rec.Check("Password", "wrong")               // false
//
//	// Storage input: already-encoded values are never re-encoded.
//	rec, _ = encodedcol.LoadRecord(schema, storedAttrs)
//
// The two construction paths are the discriminator between fresh
// plaintext and stored data. NewRecord and Set always encode; LoadRecord
// and Wrap never do. No value is ever inspected to guess whether it is
// already encoded.
//
// # Backends
//
// Built-in backends, reachable by canonical name or short alias:
//
//   - Digest / digest - plain or salted message digest (MD5, SHA-1,
//     SHA-2 family, SHA3, BLAKE2b-256; hex or base64 output; optional
//     per-call random salt embedded in the stored string)
//   - Crypt::Eksblowfish::Bcrypt / bcrypt - adaptive-cost bcrypt with
//     self-describing output
//   - Crypt::Argon2 / argon2 - Argon2id in PHC string format
//   - Crypt::OpenPGP / pgp - public-key encryption; no verification,
//     so check methods are rejected at registration
//
// Third-party backends implement Encoder (and Verifier to support check
// methods) and join the registry via Register before the first schema is
// built.
//
// # Errors
//
// Misconfiguration is fatal at registration time: unknown backends,
// invalid arguments, and check methods on verification-less backends all
// fail before a single record of the type can exist. Sentinel errors
// (ErrConfiguration, ErrUnknownBackend, ErrUnsupportedOperation,
// ErrMissingValue, ...) support errors.Is checks; nothing is logged or
// retried internally.
package encodedcol
