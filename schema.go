package encodedcol

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register column declaration tags with sentinel
	sentinel.Tag("encode")
	sentinel.Tag("encode_args")
	sentinel.Tag("encode_check")
}

// ColumnOptions is the programmatic form of a column declaration. It
// mirrors the struct tags: `encode:"<class>"`, `encode_args:"k=v,k=v"`,
// `encode_check:"MethodName"`. Options supplied programmatically replace
// any tag-declared options for the same column.
type ColumnOptions struct {
	// EncodeColumn enables encoding for the column. When false the other
	// options are ignored and the column behaves as a plain field.
	EncodeColumn bool

	// EncodeClass is the backend identifier resolved through the registry.
	EncodeClass string

	// EncodeArgs is the raw backend configuration.
	EncodeArgs Args

	// EncodeCheckMethod, when set, names the verification dispatch entry
	// installed for the column. The resolved backend must implement
	// Verifier or registration fails.
	EncodeCheckMethod string
}

// ColumnRegistrar is the host collaborator that performs the original
// column bookkeeping. The schema calls it once per declared field, before
// adding its own behavior; any error aborts registration.
type ColumnRegistrar interface {
	RegisterColumn(typeName, column string, encoded bool) error
}

// FieldStore observes every materialized field write on a record
// instance. Encoded columns report the final encoded value, never the
// plaintext that produced it.
type FieldStore interface {
	StoreField(typeName, column string, value any)
}

// colDescriptor is the compiled, per-column result of registration:
// the bound encoder, optional verifier, and check-method association.
// Immutable after construction.
type colDescriptor struct {
	column      string
	backend     string
	encoder     Encoder
	verifier    Verifier
	checkMethod string
}

// fieldSlot records how to reach a struct field at assignment time.
type fieldSlot struct {
	index   []int
	isBytes bool
}

// Schema holds the compiled per-type descriptor registry for T.
// Build one with RegisterSchema; it is immutable afterwards and safe for
// concurrent use across any number of records.
type Schema[T any] struct {
	typeName string
	fields   map[string]fieldSlot       // every exported field
	cols     map[string]*colDescriptor  // encoded columns only
	checks   map[string]*colDescriptor  // check method name -> descriptor
	store    FieldStore
}

// schemaConfig collects RegisterSchema options.
type schemaConfig struct {
	columns   map[string]ColumnOptions
	registrar ColumnRegistrar
	store     FieldStore
}

// SchemaOption configures schema registration.
type SchemaOption func(*schemaConfig)

// WithColumn declares encoding options for one column programmatically.
func WithColumn(name string, opts ColumnOptions) SchemaOption {
	return func(c *schemaConfig) {
		c.columns[name] = opts
	}
}

// WithColumns declares encoding options for several columns at once,
// typically loaded via LoadColumnOptions.
func WithColumns(opts map[string]ColumnOptions) SchemaOption {
	return func(c *schemaConfig) {
		for name, o := range opts {
			c.columns[name] = o
		}
	}
}

// WithRegistrar sets the host column registration collaborator.
func WithRegistrar(r ColumnRegistrar) SchemaOption {
	return func(c *schemaConfig) {
		c.registrar = r
	}
}

// WithFieldStore sets the field write observer for records of this schema.
func WithFieldStore(s FieldStore) SchemaOption {
	return func(c *schemaConfig) {
		c.store = s
	}
}

var (
	schemaCache   = make(map[reflect.Type]any)
	schemaCacheMu sync.RWMutex
)

// RegisterSchema compiles the descriptor registry for T and caches it by
// type. Re-registering the same type returns the cached schema unchanged,
// making registration idempotent; options on later calls are ignored.
//
// Registration is fail-fast: an unknown backend, invalid configuration,
// or a check method on a backend without Verifier support fails here, at
// type-definition time, and nothing is cached.
func RegisterSchema[T any](opts ...SchemaOption) (*Schema[T], error) {
	typ := reflect.TypeFor[T]()

	// Fast path: read-lock cache check
	schemaCacheMu.RLock()
	if cached, ok := schemaCache[typ]; ok {
		schemaCacheMu.RUnlock()
		return cached.(*Schema[T]), nil
	}
	schemaCacheMu.RUnlock()

	schemaCacheMu.Lock()
	defer schemaCacheMu.Unlock()

	// Double-check pattern
	if cached, ok := schemaCache[typ]; ok {
		return cached.(*Schema[T]), nil
	}

	cfg := &schemaConfig{columns: make(map[string]ColumnOptions)}
	for _, opt := range opts {
		opt(cfg)
	}

	schema, err := buildSchema[T](cfg)
	if err != nil {
		return nil, err
	}

	schemaCache[typ] = schema
	emitSchemaRegistered(context.Background(), schema.typeName, len(schema.cols))
	return schema, nil
}

// ResetSchemas clears the schema cache.
// This is primarily useful for test isolation.
func ResetSchemas() {
	schemaCacheMu.Lock()
	defer schemaCacheMu.Unlock()
	schemaCache = make(map[reflect.Type]any)
}

// buildSchema scans T's fields, merges declared options, and resolves
// every encoded column's backend.
func buildSchema[T any](cfg *schemaConfig) (*Schema[T], error) {
	spec := sentinel.Scan[T]()

	s := &Schema[T]{
		typeName: spec.TypeName,
		fields:   make(map[string]fieldSlot),
		cols:     make(map[string]*colDescriptor),
		checks:   make(map[string]*colDescriptor),
		store:    cfg.store,
	}

	for _, field := range spec.Fields {
		opts, ok, err := columnOptions(cfg, field)
		if err != nil {
			return nil, err
		}

		// Host bookkeeping runs for every declared field, encoded or not.
		if cfg.registrar != nil {
			if err := cfg.registrar.RegisterColumn(spec.TypeName, field.Name, ok && opts.EncodeColumn); err != nil {
				return nil, fmt.Errorf("register column %s.%s: %w", spec.TypeName, field.Name, err)
			}
		}

		isString := field.ReflectType.Kind() == reflect.String
		isBytes := field.ReflectType.Kind() == reflect.Slice &&
			field.ReflectType.Elem().Kind() == reflect.Uint8

		s.fields[field.Name] = fieldSlot{index: field.Index, isBytes: isBytes}

		if !ok || !opts.EncodeColumn {
			continue
		}

		if !isString && !isBytes {
			return nil, newColumnError(ErrInvalidTag, spec.TypeName, field.Name, opts.EncodeClass,
				errors.New("encoded column must be a string or []byte field"))
		}

		desc, err := buildDescriptor(spec.TypeName, field.Name, opts)
		if err != nil {
			return nil, err
		}

		if desc.checkMethod != "" {
			if prev, dup := s.checks[desc.checkMethod]; dup {
				return nil, newColumnError(ErrInvalidTag, spec.TypeName, field.Name, opts.EncodeClass,
					fmt.Errorf("check method %q already declared by column %s", desc.checkMethod, prev.column))
			}
			s.checks[desc.checkMethod] = desc
		}
		s.cols[field.Name] = desc
		emitColumnRegistered(context.Background(), spec.TypeName, field.Name, desc.backend)
	}

	// Programmatic options must name real columns.
	for name := range cfg.columns {
		if _, ok := s.fields[name]; !ok {
			return nil, fmt.Errorf("type %s has no column %q", spec.TypeName, name)
		}
	}

	return s, nil
}

// buildDescriptor resolves the backend and binds the column descriptor.
func buildDescriptor(typeName, column string, opts ColumnOptions) (*colDescriptor, error) {
	enc, err := Resolve(opts.EncodeClass, opts.EncodeArgs)
	if err != nil {
		return nil, fmt.Errorf("column %s.%s: %w", typeName, column, err)
	}

	desc := &colDescriptor{
		column:  column,
		backend: opts.EncodeClass,
		encoder: enc,
	}

	// Verification rides along whenever the backend supports it; a named
	// check method additionally requires it.
	if v, ok := enc.(Verifier); ok {
		desc.verifier = v
	}
	if opts.EncodeCheckMethod != "" {
		if desc.verifier == nil {
			return nil, newColumnError(ErrUnsupportedOperation, typeName, column, opts.EncodeClass, nil)
		}
		desc.checkMethod = opts.EncodeCheckMethod
	}

	return desc, nil
}

// columnOptions returns the declaration options for a field, programmatic
// options taking precedence over struct tags.
func columnOptions(cfg *schemaConfig, field sentinel.FieldMetadata) (ColumnOptions, bool, error) {
	if opts, ok := cfg.columns[field.Name]; ok {
		return opts, true, nil
	}
	return tagOptions(field)
}

// tagOptions reads the encode tags from a scanned field.
func tagOptions(field sentinel.FieldMetadata) (ColumnOptions, bool, error) {
	class, ok := field.Tags["encode"]
	if !ok {
		for _, stray := range []string{"encode_args", "encode_check"} {
			if _, present := field.Tags[stray]; present {
				return ColumnOptions{}, false, newColumnError(ErrInvalidTag, "", field.Name, "",
					fmt.Errorf("%s tag requires an encode tag", stray))
			}
		}
		return ColumnOptions{}, false, nil
	}
	if class == "" {
		return ColumnOptions{}, false, newColumnError(ErrInvalidTag, "", field.Name, "",
			errors.New("encode tag must name a backend"))
	}

	opts := ColumnOptions{EncodeColumn: true, EncodeClass: class}

	if raw, present := field.Tags["encode_args"]; present {
		args, err := parseArgsTag(raw)
		if err != nil {
			return ColumnOptions{}, false, newColumnError(ErrInvalidTag, "", field.Name, class, err)
		}
		opts.EncodeArgs = args
	}
	if method, present := field.Tags["encode_check"]; present {
		opts.EncodeCheckMethod = method
	}

	return opts, true, nil
}

// parseArgsTag parses an encode_args tag value: comma-separated k=v pairs.
// Values stay strings; Args accessors parse them on demand.
func parseArgsTag(raw string) (Args, error) {
	args := make(Args)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("malformed encode_args entry %q", pair)
		}
		args[k] = v
	}
	return args, nil
}

// TypeName returns the record type's name.
func (s *Schema[T]) TypeName() string {
	return s.typeName
}

// EncodedColumns returns the sorted names of columns with encoding enabled.
func (s *Schema[T]) EncodedColumns() []string {
	names := make([]string, 0, len(s.cols))
	for n := range s.cols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EncodedLength reports the fixed stored length for a column, when its
// backend produces fixed-size output. The second return is false for
// unknown columns and variable-length backends.
func (s *Schema[T]) EncodedLength(column string) (int, bool) {
	desc, ok := s.cols[column]
	if !ok {
		return 0, false
	}
	fl, ok := desc.encoder.(FixedLength)
	if !ok {
		return 0, false
	}
	return fl.EncodedLength(), true
}

// CheckMethods returns the declared check-method names mapped to their
// owning columns.
func (s *Schema[T]) CheckMethods() map[string]string {
	out := make(map[string]string, len(s.checks))
	for method, desc := range s.checks {
		out[method] = desc.column
	}
	return out
}
