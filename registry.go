package encodedcol

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Backend identifiers for the built-in backends. Each is registered under
// its canonical name and a short alias.
const (
	BackendDigest = "Digest"
	BackendBcrypt = "Crypt::Eksblowfish::Bcrypt"
	BackendArgon2 = "Crypt::Argon2"
	BackendPGP    = "Crypt::OpenPGP"

	AliasDigest = "digest"
	AliasBcrypt = "bcrypt"
	AliasArgon2 = "argon2"
	AliasPGP    = "pgp"
)

var (
	backends   map[string]Factory
	backendsMu sync.RWMutex

	// The registry is append-only during initialization and read-only once
	// the first column resolves a backend. Register fails after that point
	// rather than racing with concurrent readers.
	registrySealed atomic.Bool
)

func init() {
	backends = builtinBackends()
}

// builtinBackends returns the default backend registry.
func builtinBackends() map[string]Factory {
	return map[string]Factory{
		BackendDigest: NewDigest,
		AliasDigest:   NewDigest,
		BackendBcrypt: NewBcrypt,
		AliasBcrypt:   NewBcrypt,
		BackendArgon2: NewArgon2,
		AliasArgon2:   NewArgon2,
		BackendPGP:    NewPGP,
		AliasPGP:      NewPGP,
	}
}

// Register adds a backend factory under name and any aliases.
// Registration is only possible before the first Resolve call; afterwards
// it fails with ErrRegistrySealed. A name collision fails with
// ErrDuplicateBackend: existing entries are never overwritten.
func Register(name string, factory Factory, aliases ...string) error {
	if factory == nil {
		return fmt.Errorf("register %q: nil factory", name)
	}
	if registrySealed.Load() {
		return fmt.Errorf("register %q: %w", name, ErrRegistrySealed)
	}

	backendsMu.Lock()
	defer backendsMu.Unlock()

	names := append([]string{name}, aliases...)
	for _, n := range names {
		if _, ok := backends[n]; ok {
			return fmt.Errorf("register %q: %w", n, ErrDuplicateBackend)
		}
	}
	for _, n := range names {
		backends[n] = factory
	}
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for package init blocks of third-party backends.
func MustRegister(name string, factory Factory, aliases ...string) {
	if err := Register(name, factory, aliases...); err != nil {
		panic(err)
	}
}

// Resolve constructs a backend by identifier. The first call seals the
// registry for writing. Returns an error wrapping ErrUnknownBackend when
// the identifier is absent; construction errors propagate unchanged.
func Resolve(name string, args Args) (Encoder, error) {
	registrySealed.Store(true)

	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("resolve %q: %w", name, ErrUnknownBackend)
	}
	return factory(args)
}

// Backends returns the sorted identifiers of all registered backends,
// aliases included.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResetRegistry restores the built-in backends and unseals the registry.
// This is primarily useful for test isolation.
func ResetRegistry() {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends = builtinBackends()
	registrySealed.Store(false)
}
